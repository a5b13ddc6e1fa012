package model

import (
	"math"
	"sort"
)

// BPMTolerance is the relative difference under which two BPM values
// are considered to agree.
const BPMTolerance = 0.03

// Where a secondary BPM came from. Shown next to the value in flags.
const (
	BPMSourceAnalysis = "analysis"
	BPMSourceTag      = "ID3 tag"
)

// Analysis is the result of an external audio analysis of a track file.
//
// Envelope and Times have the same length; Times are in seconds. Any field
// may be empty: DetectedBPM is zero when no tempo was found. BPMSource
// names where DetectedBPM came from; empty means BPMSourceAnalysis.
type Analysis struct {
	Envelope    []float64 `json:"envelope"`
	Times       []float64 `json:"times"`
	BeatTimes   []float64 `json:"beat_times,omitempty"`
	DetectedBPM float64   `json:"detected_bpm,omitempty"`
	BPMSource   string    `json:"bpm_source,omitempty"`
}

// Track combines a resolved catalog entry with optional secondary data.
type Track struct {
	Entry *CatalogEntry

	DetectedBPM   *float64
	BPMSource     string
	BeatTimes     []float64
	Envelope      []float64
	EnvelopeTimes []float64

	// BreakdownMs is the detected start of the low-energy section.
	BreakdownMs *float64
}

// NewTrack wraps an entry without secondary data.
func NewTrack(entry *CatalogEntry) *Track {
	return &Track{Entry: entry}
}

// SetAnalysis copies secondary data from an analysis result.
// It does not detect the breakdown; that is left to the caller.
func (t *Track) SetAnalysis(a *Analysis) {
	if a == nil {
		return
	}
	t.Envelope = a.Envelope
	t.EnvelopeTimes = a.Times
	t.BeatTimes = a.BeatTimes
	t.DetectedBPM = nil
	t.BPMSource = ""
	if a.DetectedBPM > 0 {
		bpm := a.DetectedBPM
		t.DetectedBPM = &bpm
		t.BPMSource = a.BPMSource
		if t.BPMSource == "" {
			t.BPMSource = BPMSourceAnalysis
		}
	}
}

// HasAnalysis reports whether an energy envelope is available.
func (t *Track) HasAnalysis() bool {
	return len(t.Envelope) > 0 && len(t.EnvelopeTimes) > 0
}

// DurationSeconds returns the track length in seconds.
func (t *Track) DurationSeconds() (float64, bool) {
	if t.Entry == nil || t.Entry.DurationMs == nil {
		return 0, false
	}
	return *t.Entry.DurationMs / 1000, true
}

// BarMs returns the length of one 4/4 bar at the catalog BPM.
func (t *Track) BarMs() (float64, bool) {
	if t.Entry == nil || t.Entry.BPM == nil || *t.Entry.BPM <= 0 {
		return 0, false
	}
	return 4 * 60000 / *t.Entry.BPM, true
}

// BPMVerified reports whether the detected BPM agrees with the catalog BPM
// within BPMTolerance. False when either value is missing.
func (t *Track) BPMVerified() bool {
	if t.Entry == nil || t.Entry.BPM == nil || t.DetectedBPM == nil {
		return false
	}
	return BPMAgree(*t.Entry.BPM, *t.DetectedBPM)
}

// OccupiedSlots returns the hotcue slots in use, sorted. Slot 1 is always
// included, whether or not a cue is bound to it.
func (t *Track) OccupiedSlots() []int {
	set := map[int]struct{}{SlotReserved: {}}
	if t.Entry != nil {
		for _, c := range t.Entry.Cues {
			if c.Slot > 0 {
				set[c.Slot] = struct{}{}
			}
		}
	}
	slots := make([]int, 0, len(set))
	for s := range set {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}

// IsSlotOccupied reports whether slot is in OccupiedSlots.
func (t *Track) IsSlotOccupied(slot int) bool {
	for _, s := range t.OccupiedSlots() {
		if s == slot {
			return true
		}
	}
	return false
}

// BPMAgree reports whether secondary is within BPMTolerance of primary.
func BPMAgree(primary, secondary float64) bool {
	if primary <= 0 || secondary <= 0 {
		return false
	}
	return math.Abs(secondary-primary)/primary < BPMTolerance
}
