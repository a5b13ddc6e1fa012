package model

import (
	"path/filepath"
	"sort"
	"strings"
)

// CatalogEntry is the typed view of one collection entry.
//
// Pointer fields are nil when the value is absent from the file or could
// not be parsed.
type CatalogEntry struct {
	Filename  string
	Directory string // Traktor notation, e.g. "/:Users/:dj/:Music/:"
	Volume    string

	Title  string
	Artist string

	BPM        *float64
	AnchorMs   *float64 // beatgrid bar 1, beat 1
	DurationMs *float64
	Key        string // Camelot code, e.g. "8m"

	PeakDB      *float64
	PerceivedDB *float64
	AnalyzedDB  *float64

	Cues []CueRecord

	ModifiedDate string // "2024/1/1"
	ModifiedTime string // seconds since midnight
}

// HasGrid reports whether the entry carries a beatgrid anchor.
func (e *CatalogEntry) HasGrid() bool {
	return e.AnchorMs != nil
}

// HotCues returns the cues bound to a slot greater than zero, sorted by slot.
func (e *CatalogEntry) HotCues() []CueRecord {
	var out []CueRecord
	for _, c := range e.Cues {
		if c.Slot > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// CueInSlot returns the cue bound to slot, if any.
func (e *CatalogEntry) CueInSlot(slot int) (CueRecord, bool) {
	for _, c := range e.Cues {
		if c.Slot == slot {
			return c, true
		}
	}
	return CueRecord{}, false
}

// AudioPath converts Traktor's location notation to a filesystem path.
//
// Traktor separates directories with "/:" and stores the volume apart:
//
//	DIR="/:Users/:dj/:Music/:" FILE="Dreams.m4a"  ->  /Users/dj/Music/Dreams.m4a
//
// Returns an empty string when the entry has no directory.
func (e *CatalogEntry) AudioPath() string {
	if e.Directory == "" || e.Filename == "" {
		return ""
	}
	dir := strings.ReplaceAll(e.Directory, "/:", "/")
	return filepath.Join(filepath.FromSlash(dir), e.Filename)
}
