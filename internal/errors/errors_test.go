package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeFundingCapExceeded, "contribution exceeds hard cap")
	target := New(CodeFundingCapExceeded, "different message")

	if !errors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}
	if errors.Is(err, New(CodeAmountTooLow, "contribution exceeds hard cap")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	base := New(CodeUnauthorized, "caller is not the presale owner")
	wrapped := fmt.Errorf("buy tokens: %w", base)

	if got := GetCode(wrapped); got != CodeUnauthorized {
		t.Fatalf("expected %s, got %s", CodeUnauthorized, got)
	}
	if got := GetCode(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %s for plain error, got %s", CodeUnknown, got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeUnknown, "persist presale", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found in chain")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidCap, http.StatusBadRequest},
		{CodeInvalidTime, http.StatusBadRequest},
		{CodeInvalidMinMax, http.StatusBadRequest},
		{CodeInvalidFee, http.StatusBadRequest},
		{CodeAmountTooLow, http.StatusBadRequest},
		{CodeAmountTooHigh, http.StatusBadRequest},
		{CodePresaleNotStarted, http.StatusConflict},
		{CodePresaleEnded, http.StatusConflict},
		{CodePresaleNotEnded, http.StatusConflict},
		{CodeFundingCapExceeded, http.StatusConflict},
		{CodeInsufficientTokens, http.StatusConflict},
		{CodeInsufficientFunds, http.StatusConflict},
		{CodePresaleAlreadyFinalized, http.StatusConflict},
		{CodeUnauthorized, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestGetMetadata(t *testing.T) {
	err := WithMetadata(CodeFundingCapExceeded, "cap exceeded", map[string]string{
		"hard_cap": "1000000",
	})

	meta := GetMetadata(fmt.Errorf("buy tokens: %w", err))
	if meta["hard_cap"] != "1000000" {
		t.Fatalf("expected hard_cap metadata, got %v", meta)
	}
	if GetMetadata(errors.New("plain")) != nil {
		t.Fatal("expected nil metadata for plain error")
	}
}
