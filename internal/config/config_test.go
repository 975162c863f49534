package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAndDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server:
  port: "9090"
redis:
  addr: "localhost:6379"
  ttl: "5m"
game:
  answer: "15s"
  reveal: "bogus"
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m, got %v", got)
	}
	if got := TTLDuration(cfg.Game.Answer, 10*time.Second); got != 15*time.Second {
		t.Fatalf("expected 15s, got %v", got)
	}
	// Unparseable and empty values fall back.
	if got := TTLDuration(cfg.Game.Reveal, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected fallback 10s, got %v", got)
	}
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback 1m, got %v", got)
	}
}
