package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/handiism/traktor-cues/internal/catalog"
	"github.com/handiism/traktor-cues/internal/cues"
)

// Settings holds all configuration options.
type Settings struct {
	// Collection settings
	NMLPath   string `json:"nml_path"`
	BackupDir string `json:"backup_dir"` // empty: next to the collection
	Overwrite bool   `json:"overwrite"`

	// Audio analysis
	AnalyzeAudio          bool   `json:"analyze_audio"`
	MaxConcurrentAnalysis int    `json:"max_concurrent_analysis"`
	AnalysisCachePath     string `json:"analysis_cache_path"` // empty: no cache

	// Breakdown detection
	BreakdownWindowSeconds float64 `json:"breakdown_window_seconds"`
	BreakdownZoneStart     float64 `json:"breakdown_zone_start"`
	BreakdownZoneEnd       float64 `json:"breakdown_zone_end"`

	// Transition advice
	TransitionBlendBars int `json:"transition_blend_bars"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	breakdown := cues.DefaultBreakdownOptions()
	return &Settings{
		NMLPath:   filepath.Join(homeDir, "Documents", "Native Instruments", "Traktor 3.11.1", "collection.nml"),
		Overwrite: false,

		AnalyzeAudio:          false,
		MaxConcurrentAnalysis: 2,
		AnalysisCachePath:     filepath.Join(homeDir, ".cache", "traktor-cues", "analysis.db"),

		BreakdownWindowSeconds: breakdown.WindowSeconds,
		BreakdownZoneStart:     breakdown.ZoneStart,
		BreakdownZoneEnd:       breakdown.ZoneEnd,

		TransitionBlendBars: cues.DefaultBlendBars,
	}
}

// DefaultPath returns the default location of the settings file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, "traktor-cues", "config.json")
}

// Load reads settings from a JSON file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ToStoreConfig converts settings to a catalog StoreConfig.
func (s *Settings) ToStoreConfig(onWarning func(string)) *catalog.StoreConfig {
	return &catalog.StoreConfig{
		BackupDir: s.BackupDir,
		OnWarning: onWarning,
	}
}

// ToBreakdownOptions converts settings to BreakdownOptions. Values that
// are out of range fall back to the defaults.
func (s *Settings) ToBreakdownOptions() cues.BreakdownOptions {
	opts := cues.DefaultBreakdownOptions()
	if s.BreakdownWindowSeconds > 0 {
		opts.WindowSeconds = s.BreakdownWindowSeconds
	}
	if s.BreakdownZoneStart >= 0 && s.BreakdownZoneEnd <= 1 && s.BreakdownZoneStart < s.BreakdownZoneEnd {
		opts.ZoneStart = s.BreakdownZoneStart
		opts.ZoneEnd = s.BreakdownZoneEnd
	}
	return opts
}
