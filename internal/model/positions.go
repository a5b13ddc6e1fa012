package model

import "fmt"

// PositionName names one of the four computed cue roles.
type PositionName string

const (
	PositionBeat      PositionName = "Beat"
	PositionGroove    PositionName = "Groove"
	PositionBreakdown PositionName = "Breakdown"
	PositionEnd       PositionName = "End"
)

// Provenance tags which data a PositionSet was computed from.
type Provenance string

const (
	// ProvenancePrimary means catalog data only.
	ProvenancePrimary Provenance = "primary"

	// ProvenanceSecondary means catalog data refined by audio analysis.
	ProvenanceSecondary Provenance = "primary+secondary"
)

// Position is one named cue position.
type Position struct {
	Name     PositionName
	StartMs  float64
	LengthMs float64
}

// FlagCode identifies a review flag.
type FlagCode string

const (
	FlagBeatEstimate      FlagCode = "beat-estimate"
	FlagGrooveShifted     FlagCode = "groove-shifted"
	FlagShortTrack        FlagCode = "short-track"
	FlagBreakdownDetected FlagCode = "breakdown-detected"
	FlagBreakdownFallback FlagCode = "breakdown-fallback"
	FlagBreakdownEstimate FlagCode = "breakdown-estimate"
	FlagShortOutro        FlagCode = "short-outro"
	FlagBPMVerified       FlagCode = "bpm-verified"
	FlagBPMMismatch       FlagCode = "bpm-mismatch"
)

// Flag is a note for manual review attached to a PositionSet.
type Flag struct {
	Code    FlagCode
	Message string
}

func (f Flag) String() string {
	return f.Message
}

// PositionSet holds the four computed positions in calculation order
// (Beat, Groove, Breakdown, End).
type PositionSet struct {
	Beat      Position
	Groove    Position
	Breakdown Position
	End       Position

	Flags      []Flag
	Provenance Provenance
}

// Positions returns the four positions in calculation order.
func (p *PositionSet) Positions() []Position {
	return []Position{p.Beat, p.Groove, p.Breakdown, p.End}
}

// HasFlag reports whether a flag with the given code is present.
func (p *PositionSet) HasFlag(code FlagCode) bool {
	for _, f := range p.Flags {
		if f.Code == code {
			return true
		}
	}
	return false
}

// AddFlag appends a review flag.
func (p *PositionSet) AddFlag(code FlagCode, format string, args ...any) {
	p.Flags = append(p.Flags, Flag{Code: code, Message: fmt.Sprintf(format, args...)})
}

// FormatMs renders a millisecond position as m:ss.ss.
func FormatMs(ms float64) string {
	s := ms / 1000
	mins := int(s / 60)
	secs := s - float64(mins*60)
	return fmt.Sprintf("%d:%05.2f", mins, secs)
}
