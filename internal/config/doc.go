// Package config provides configuration management for traktor-cues.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Conversion to catalog and breakdown options for other packages
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Collection at ~/Documents/Native Instruments/Traktor 3.11.1/collection.nml
//	// Occupied hotcues are left alone
//	// Audio analysis disabled
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Saving Settings
//
//	settings.NMLPath = "/Volumes/USB/collection.nml"
//	err := settings.Save(config.DefaultPath())
//
// # Configuration Options
//
// Settings includes options for:
//   - Collection path and backup directory
//   - Overwriting occupied hotcues
//   - Audio analysis and its cache
//   - Breakdown search window and zone
//   - Transition blend length
package config
