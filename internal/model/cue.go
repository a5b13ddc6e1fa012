package model

import "fmt"

// CueType is the TYPE code of a CUE_V2 element.
type CueType int

const (
	// CueTypeCue is a plain cue point.
	CueTypeCue CueType = 0

	// CueTypeFadeIn marks a fade-in point.
	CueTypeFadeIn CueType = 1

	// CueTypeFadeOut marks a fade-out point.
	CueTypeFadeOut CueType = 2

	// CueTypeLoad marks the load point.
	CueTypeLoad CueType = 3

	// CueTypeGrid is the beatgrid anchor. It is read-only: this program
	// never writes, moves or removes it.
	CueTypeGrid CueType = 4

	// CueTypeLoop is a saved loop. Traktor also uses it for the floating
	// cue that lives in slot 1.
	CueTypeLoop CueType = 5
)

// String returns a short human-readable name for the type.
func (t CueType) String() string {
	switch t {
	case CueTypeCue:
		return "cue"
	case CueTypeFadeIn:
		return "fade-in"
	case CueTypeFadeOut:
		return "fade-out"
	case CueTypeLoad:
		return "load"
	case CueTypeGrid:
		return "grid"
	case CueTypeLoop:
		return "loop"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Hotcue slots.
const (
	// SlotUnbound is the HOTCUE value of cues that are not on a hotcue button.
	SlotUnbound = 0

	// SlotReserved is never written, moved or removed.
	SlotReserved = 1

	// MinWritableSlot and MaxWritableSlot bound the slots this program writes.
	MinWritableSlot = 2
	MaxWritableSlot = 8
)

// IsWritableSlot reports whether slot may be written at all.
func IsWritableSlot(slot int) bool {
	return slot >= MinWritableSlot && slot <= MaxWritableSlot
}

// CueRecord is one existing CUE_V2 element of an entry.
type CueRecord struct {
	// Slot is the HOTCUE value. 0 means unbound; -1 means the attribute
	// was missing or malformed.
	Slot int

	Name     string
	Type     CueType
	StartMs  float64
	LengthMs float64

	// Repeats and DisplayOrder are carried for display; they are not
	// interpreted.
	Repeats      int
	DisplayOrder int
}

// IsLoop reports whether the cue has a loop length.
func (c CueRecord) IsLoop() bool {
	return c.LengthMs > 0
}

// CueSpec is a request to place one cue in a hotcue slot.
type CueSpec struct {
	Slot     int
	Name     string
	StartMs  float64
	Type     CueType
	LengthMs float64
}

// String renders the request the way write results are reported.
func (s CueSpec) String() string {
	label := fmt.Sprintf("Slot %d (%s): %.2fs", s.Slot, s.Name, s.StartMs/1000)
	if s.LengthMs > 0 {
		label += fmt.Sprintf(" [loop %.1fs]", s.LengthMs/1000)
	}
	return label
}

// Skip reasons reported in WriteResult.Skipped.
const (
	ReasonSlotProtected = "slot 1 protected"
	ReasonSlotOccupied  = "slot already occupied"
	ReasonSlotRange     = "slot out of range"
	ReasonGridReadOnly  = "beatgrid anchor is read-only"
)

// SkippedCue is a write request that was not applied, with the reason.
type SkippedCue struct {
	Spec   CueSpec
	Reason string
}

// String renders the skip for reports.
func (s SkippedCue) String() string {
	return fmt.Sprintf("Slot %d (%s): %s", s.Spec.Slot, s.Spec.Name, s.Reason)
}

// WriteResult describes the outcome of one write batch.
type WriteResult struct {
	Written []CueSpec
	Skipped []SkippedCue

	// BackupPath is the backup taken before the write. Empty when nothing
	// was written.
	BackupPath string
}

// Changed reports whether the batch modified the catalog.
func (r *WriteResult) Changed() bool {
	return r != nil && len(r.Written) > 0
}
