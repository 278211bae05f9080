package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credit.yaml")
	yaml := "country: SA\nworkers: 2\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Country != "SA" || cfg.Workers != 2 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Fields absent from the file keep their defaults.
	if cfg.NumInstalments != 3 || cfg.Output != "behaviour_mature_at_due.csv" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing dsn, got nil")
	}

	cfg.DSN = "mariadb://u:p@h:3306/db"
	cfg.Workers = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers < 1 {
		t.Fatalf("workers not defaulted: %d", cfg.Workers)
	}
	if cfg.Observation.IsZero() {
		t.Fatal("observation not defaulted")
	}
}
