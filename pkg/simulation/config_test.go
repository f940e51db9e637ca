package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
}

func TestLoadConfig_MergesWithDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"numBoidsAtStart": 120,
		"scheduler": "workers",
		"worldMin": {"x": 0, "y": 0},
		"worldMax": {"x": 40, "y": 30},
		"behavior": {"maxSpeed": 4.5}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.NumBoidsAtStart != 120 || cfg.Scheduler != SchedulerWorkers {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Bounds().Width() != 40 || cfg.Bounds().Height() != 30 {
		t.Errorf("Expected a 40x30 world, got %v", cfg.Bounds())
	}
	if cfg.Behavior.MaxSpeed != 4.5 {
		t.Errorf("Expected maxSpeed 4.5, got %v", cfg.Behavior.MaxSpeed)
	}
	if cfg.Behavior.MinSpeed != def.Behavior.MinSpeed || cfg.ChunkSize != def.ChunkSize {
		t.Errorf("missing fields must keep their defaults, got %+v", cfg)
	}
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"numBoidsAtStart": `},
		{"unknown scheduler", `{"scheduler": "magic"}`},
		{"zero divisions", `{"gridDivisionsX": 0}`},
		{"unknown field", `{"numRedAtStart": 5}`},
		{"negative radius", `{"behavior": {"cohesionRadius": -1}}`},
		{"fractional workers", `{"workers": 2.5}`},
		{"speeds inverted", `{"behavior": {"minSpeed": 5, "maxSpeed": 2}}`},
		{"flat world", `{"worldMin": {"x": 0, "y": 0}, "worldMax": {"x": 10, "y": 0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Errorf("Expected %s to be rejected", tt.content)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestConfigValidate_ReportsEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridDivisionsY = -1
	cfg.Workers = 0
	cfg.ChunkSize = 0
	cfg.Behavior.MaxNeighbors = 0

	err := cfg.Validate()
	if got := len(multierr.Errors(err)); got != 4 {
		t.Errorf("Expected 4 errors, got %d: %v", got, err)
	}
}
