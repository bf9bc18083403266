package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"logging": {"level": "debug", "console": true},
		"planner": {"enabled": true, "tracked_resources": ["E3", "P7"]},
		"storage": {"driver": "sqlite", "path": "./test.db", "busy_timeout": "5s"}
	}`)

	m := NewConfigManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("unexpected logging section: %+v", cfg.Logging)
	}
	if !cfg.Planner.Enabled || len(cfg.Planner.TrackedResources) != 2 {
		t.Fatalf("unexpected planner section: %+v", cfg.Planner)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("unexpected storage section: %+v", cfg.Storage)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get must return the committed config")
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
logging:
  level: info
  console: true
planner:
  enabled: true
  digest_spec: "0 6 * * *"
`)

	cfg, err := NewConfigManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Planner.DigestSpec != "0 6 * * *" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"logging": {"level": "info"}, "scheduler": {}}`)
	if _, err := NewConfigManager(path).Parse(); err == nil {
		t.Fatal("unknown top-level section must be rejected")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Logging: LoggingConfig{Level: "info"}}
	newCfg := &Config{
		Logging: LoggingConfig{Level: "debug"},
		Storage: &StorageConfig{Driver: "postgres", DSN: "postgres://x"},
	}
	changed, _ := SummarizeConfigChange(oldCfg, newCfg)
	if len(changed) != 2 || changed[0] != "logging" || changed[1] != "storage" {
		t.Fatalf("changed = %v, want [logging storage]", changed)
	}

	same, _ := SummarizeConfigChange(newCfg, newCfg)
	if len(same) != 0 {
		t.Fatalf("identical configs must report no changes, got %v", same)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("storage.busy_timeout", "5s"); err != nil || d.Seconds() != 5 {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseDurationField("storage.busy_timeout", "banana"); err == nil {
		t.Fatal("invalid duration must fail")
	}
	if d, err := ParseDurationOrDefault("planner.audit_retention", "", 10); err != nil || d != 10 {
		t.Fatalf("default not applied: %v, %v", d, err)
	}
}
