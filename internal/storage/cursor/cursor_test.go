package cursor

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := Cursor{Seq: 42, FilterHash: HashFilter(`amount >= 100`)}
	token, err := Encode(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != original {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, original)
	}
}

func TestDecodeRejectsBadTokens(t *testing.T) {
	for _, token := range []string{"", "not-base64!", "bm90LWpzb24"} {
		if _, err := Decode(token); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}

func TestHashFilter(t *testing.T) {
	if HashFilter("") != "" {
		t.Fatal("expected empty hash for empty filter")
	}
	if HashFilter("a") == HashFilter("b") {
		t.Fatal("expected distinct hashes for distinct filters")
	}
	if HashFilter("a") != HashFilter("a") {
		t.Fatal("expected stable hashes")
	}
}
