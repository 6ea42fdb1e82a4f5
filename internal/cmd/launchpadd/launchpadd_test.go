package launchpadd

import (
	"flag"
	"testing"
)

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("LAUNCHPAD_PORT", "9100")
	t.Setenv("LAUNCHPAD_DB_PATH", "/tmp/env.db")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db", "/tmp/flag.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("expected env port 9100, got %d", cfg.Port)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8080 || cfg.DBPath != "launchpad.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
