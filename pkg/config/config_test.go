package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Quality.Threshold != 0.60 {
		t.Errorf("Quality.Threshold = %v, want 0.60", cfg.Quality.Threshold)
	}
	if cfg.Fusion.TopK != 20 {
		t.Errorf("Fusion.TopK = %v, want 20", cfg.Fusion.TopK)
	}
	if cfg.Clustering.UniversalMinPlatforms != 3 {
		t.Errorf("Clustering.UniversalMinPlatforms = %v, want 3", cfg.Clustering.UniversalMinPlatforms)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() with missing file returned error: %v", err)
	}
	if cfg.Quality.Threshold != Default().Quality.Threshold {
		t.Errorf("Load() with missing file did not fall back to defaults")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "luciq.yaml")
	yamlBody := "quality:\n  threshold: 0.75\nfusion:\n  top_k: 5\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Quality.Threshold != 0.75 {
		t.Errorf("Quality.Threshold = %v, want 0.75", cfg.Quality.Threshold)
	}
	if cfg.Fusion.TopK != 5 {
		t.Errorf("Fusion.TopK = %v, want 5", cfg.Fusion.TopK)
	}
	// Fields untouched by the fixture keep their defaults.
	if cfg.Clustering.Cut != Default().Clustering.Cut {
		t.Errorf("Clustering.Cut = %v, want default %v", cfg.Clustering.Cut, Default().Clustering.Cut)
	}
}

func TestLoadSeedOverridesSidecar(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "luciq.yaml")
	if err := os.WriteFile(configPath, []byte("quality:\n  threshold: 0.6\n"), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	// Hjson tolerates comments and trailing commas, unlike the main YAML file.
	overridesBody := "{\n  # hand-tuned after a platform outage\n  reddit: 0.9,\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_overrides.hjson"), []byte(overridesBody), 0o644); err != nil {
		t.Fatalf("writing overrides fixture: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if got, want := cfg.Credibility.SeedOverrides["reddit"], 0.9; got != want {
		t.Errorf("Credibility.SeedOverrides[reddit] = %v, want %v", got, want)
	}
}

func TestTemporalGrid(t *testing.T) {
	cases := map[string]int64{
		"15m":  15 * 60,
		"1h":   60 * 60,
		"1d":   24 * 60 * 60,
		"wtf?": 60 * 60, // unrecognized falls back to 1h
	}
	for grid, wantSeconds := range cases {
		cfg := Config{Temporal: Temporal{Grid: grid}}
		if got := cfg.TemporalGrid().Seconds(); got != float64(wantSeconds) {
			t.Errorf("TemporalGrid() for %q = %vs, want %vs", grid, got, wantSeconds)
		}
	}
}
