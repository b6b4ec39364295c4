package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	c := Default()
	if c == nil {
		t.Fatal("Default() returned nil")
	}
	if c.MaxIterations != 20 {
		t.Errorf("MaxIterations = %v, want 20", c.MaxIterations)
	}
	if c.ChoiceSetSize != 10 {
		t.Errorf("ChoiceSetSize = %v, want 10", c.ChoiceSetSize)
	}
	if c.MaxBedrooms != 7 {
		t.Errorf("MaxBedrooms = %v, want 7", c.MaxBedrooms)
	}
	if c.MonthlyTimeDecay != 0.95 {
		t.Errorf("MonthlyTimeDecay = %v, want 0.95", c.MonthlyTimeDecay)
	}
	if c.LabourForceParticipation != 0.658 {
		t.Errorf("LabourForceParticipation = %v, want 0.658", c.LabourForceParticipation)
	}
}

func TestLoadOverridesMissingFileIsNotError(t *testing.T) {
	c := Default()
	if err := c.LoadOverrides(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Fatalf("missing override file should not error, got %v", err)
	}
	if c.MaxIterations != 20 {
		t.Fatalf("config mutated despite missing file: %v", c.MaxIterations)
	}
}

func TestLoadOverridesMergesPartialFile(t *testing.T) {
	c := Default()
	path := filepath.Join(t.TempDir(), "overrides.json")
	data, _ := json.Marshal(map[string]any{"max_iterations": 5, "choice_set_size": 2})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := c.LoadOverrides(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MaxIterations != 5 {
		t.Errorf("MaxIterations = %v, want 5", c.MaxIterations)
	}
	if c.ChoiceSetSize != 2 {
		t.Errorf("ChoiceSetSize = %v, want 2", c.ChoiceSetSize)
	}
	// Fields not present in the override file must keep their default.
	if c.MaxBedrooms != 7 {
		t.Errorf("MaxBedrooms = %v, want unchanged default 7", c.MaxBedrooms)
	}
}

func TestLoadOverridesRejectsInvalidJSON(t *testing.T) {
	c := Default()
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := c.LoadOverrides(path); err == nil {
		t.Fatal("expected parse error")
	}
}
