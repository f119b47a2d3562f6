package engine

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("engine", flag.ContinueOnError)
	t.Setenv("CARDGAMES_ENGINE_DB_PATH", "env.db")
	t.Setenv("CARDGAMES_ENGINE_TURN_TIMEOUT", "45s")

	cfg, err := ParseConfig(fs, []string{"-batch-size", "10", "-tick-interval", "250ms"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "env.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "env.db")
	}
	if cfg.TurnTimeout != 45*time.Second {
		t.Fatalf("turn timeout = %s, want 45s", cfg.TurnTimeout)
	}
	if cfg.BatchSize != 10 {
		t.Fatalf("batch size = %d, want 10", cfg.BatchSize)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("tick interval = %s, want 250ms", cfg.TickInterval)
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("engine", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/engine.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/engine.db")
	}
	if cfg.HandInterval != 5*time.Second {
		t.Fatalf("hand interval = %s, want 5s", cfg.HandInterval)
	}
	if cfg.TimeBankExtension != time.Minute {
		t.Fatalf("time bank = %s, want 1m", cfg.TimeBankExtension)
	}
}
