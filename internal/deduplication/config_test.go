package deduplication

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DistanceThreshold != 0.1 {
		t.Errorf("DistanceThreshold = %v, want 0.1", cfg.DistanceThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{DistanceThreshold: -0.01}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for negative threshold")
	}

	cfg = Config{DistanceThreshold: 2.01}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for threshold above 2")
	}

	// 0 and 2 are valid edges (0 disables rejection entirely).
	for _, v := range []float64{0, 2, 0.5} {
		cfg = Config{DistanceThreshold: v}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate(%v) unexpected error: %v", v, err)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TASKSTORE_DEDUP_THRESHOLD", "0.25")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() failed: %v", err)
	}
	if cfg.DistanceThreshold != 0.25 {
		t.Errorf("DistanceThreshold = %v, want 0.25", cfg.DistanceThreshold)
	}
}

func TestConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("TASKSTORE_DEDUP_THRESHOLD", "not-a-number")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("ConfigFromEnv() expected error for unparseable value")
	}

	t.Setenv("TASKSTORE_DEDUP_THRESHOLD", "3.0")
	_, err := ConfigFromEnv()
	if err == nil {
		t.Fatal("ConfigFromEnv() expected error for out-of-range value")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("error = %v, want wrapped validation error", err)
	}
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	if !strings.Contains(s, "0.100") {
		t.Errorf("String() = %q, want threshold in output", s)
	}
}
