package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.MaxConcurrentAnalysis != 2 || s.TransitionBlendBars != 32 {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if filepath.Base(s.NMLPath) != "collection.nml" {
		t.Errorf("NMLPath = %q", s.NMLPath)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	s := DefaultSettings()
	s.NMLPath = "/Volumes/USB/collection.nml"
	s.Overwrite = true
	s.BreakdownWindowSeconds = 20

	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *s {
		t.Errorf("loaded = %+v, want %+v", loaded, s)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"overwrite": true}`), 0644)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !s.Overwrite {
		t.Error("Overwrite not loaded")
	}
	if s.BreakdownZoneEnd != 0.80 {
		t.Errorf("BreakdownZoneEnd = %v, want default 0.80", s.BreakdownZoneEnd)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{`), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestToBreakdownOptions(t *testing.T) {
	tests := []struct {
		name             string
		window, from, to float64
		wantWindow       float64
		wantFrom, wantTo float64
	}{
		{"custom", 20, 0.3, 0.9, 20, 0.3, 0.9},
		{"zero window", 0, 0.4, 0.8, 30, 0.4, 0.8},
		{"inverted zone", 30, 0.8, 0.4, 30, 0.4, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{BreakdownWindowSeconds: tt.window, BreakdownZoneStart: tt.from, BreakdownZoneEnd: tt.to}
			got := s.ToBreakdownOptions()
			if got.WindowSeconds != tt.wantWindow || got.ZoneStart != tt.wantFrom || got.ZoneEnd != tt.wantTo {
				t.Errorf("ToBreakdownOptions() = %+v", got)
			}
		})
	}
}
