package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Catalog.Path == "" {
		t.Error("default catalog path should be set")
	}
	if cfg.Display.UnitSystem != "Metric" {
		t.Errorf("default unit system = %q, want Metric", cfg.Display.UnitSystem)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Telemetry.ServiceName != "flysight-viewer" {
		t.Errorf("service name = %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	content := `
telemetry:
  logging:
    level: debug
    format: json
catalog:
  path: /var/lib/fsv/catalog.db
watch:
  dir: /mnt/flysight
display:
  unit_system: Imperial
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}
	if cfg.Catalog.Path != "/var/lib/fsv/catalog.db" {
		t.Errorf("catalog path = %q", cfg.Catalog.Path)
	}
	if cfg.Watch.Dir != "/mnt/flysight" {
		t.Errorf("watch dir = %q", cfg.Watch.Dir)
	}
	if cfg.Display.UnitSystem != "Imperial" {
		t.Errorf("unit system = %q", cfg.Display.UnitSystem)
	}

	// Untouched defaults survive a partial file.
	if cfg.Telemetry.ServiceName != "flysight-viewer" {
		t.Errorf("service name default lost: %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad unit system", "display:\n  unit_system: Klingon\n"},
		{"bad log level", "telemetry:\n  logging:\n    level: loud\n"},
		{"not yaml", "{{{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "viewer.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config path")
	}
}
