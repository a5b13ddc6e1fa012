// Package model defines the data structures shared by the catalog store,
// the cue calculator and the writer.
//
// # CatalogEntry
//
// CatalogEntry is the typed view of one ENTRY of collection.nml. Numeric
// fields that may be missing (or malformed in the file) are pointers; nil
// always means "absent", never zero:
//
//	entry, err := store.TrackData("Dreams.m4a")
//	if entry.BPM == nil {
//	    // not analysed yet
//	}
//
// # Track
//
// Track combines a CatalogEntry with optional results of an audio
// analysis (detected BPM, beats, energy envelope, breakdown time):
//
//	track := model.NewTrack(entry)
//	track.SetAnalysis(analysis)
//	fmt.Println(track.BPMVerified())
//
// # PositionSet
//
// PositionSet is the output of the cue calculator: four named positions,
// review flags and a provenance tag. It is never stored as such; only the
// CueSpecs derived from it are written to the catalog.
package model
