package cues

import (
	"context"

	"github.com/handiism/traktor-cues/internal/model"
)

// Hotcue slots the positions are written to.
const (
	SlotBeat      = 2
	SlotBreakdown = 3
	SlotGroove    = 4
	SlotEnd       = 5
)

// CueStore is the part of the catalog the Writer needs.
// *catalog.Store satisfies it.
type CueStore interface {
	WriteCuesAt(ctx context.Context, filename, dir string, specs []model.CueSpec, overwrite bool) (*model.WriteResult, error)
}

// Writer places a PositionSet on a track's hotcues.
type Writer struct {
	store CueStore
}

// NewWriter creates a Writer backed by store.
func NewWriter(store CueStore) *Writer {
	return &Writer{store: store}
}

// Specs maps a PositionSet to write requests, in slot order
// Beat, Breakdown, Groove, End. Groove is written as a loop.
func Specs(set *model.PositionSet) []model.CueSpec {
	return []model.CueSpec{
		{Slot: SlotBeat, Name: string(model.PositionBeat), StartMs: set.Beat.StartMs, Type: model.CueTypeCue},
		{Slot: SlotBreakdown, Name: string(model.PositionBreakdown), StartMs: set.Breakdown.StartMs, Type: model.CueTypeCue},
		{Slot: SlotGroove, Name: string(model.PositionGroove), StartMs: set.Groove.StartMs, Type: model.CueTypeLoop, LengthMs: set.Groove.LengthMs},
		{Slot: SlotEnd, Name: string(model.PositionEnd), StartMs: set.End.StartMs, Type: model.CueTypeCue},
	}
}

// Plan splits the requests for set into those that would be sent to the
// store and those dropped up front because their slot is taken on track.
// Slot 1 is always dropped. Occupied slots are dropped unless overwrite
// is set.
func (w *Writer) Plan(track *model.Track, set *model.PositionSet, overwrite bool) ([]model.CueSpec, []model.SkippedCue) {
	var keep []model.CueSpec
	var skipped []model.SkippedCue
	for _, spec := range Specs(set) {
		switch {
		case spec.Slot == model.SlotReserved:
			skipped = append(skipped, model.SkippedCue{Spec: spec, Reason: model.ReasonSlotProtected})
		case !overwrite && track.IsSlotOccupied(spec.Slot):
			skipped = append(skipped, model.SkippedCue{Spec: spec, Reason: model.ReasonSlotOccupied})
		default:
			keep = append(keep, spec)
		}
	}
	return keep, skipped
}

// Apply writes set to the track's hotcues.
//
// The result lists every request once, either written or skipped. When
// nothing is left after planning the store is not called and nothing is
// backed up. Cues go to the entry in the track's own directory, not to
// another entry sharing its filename. Writing the same set twice with overwrite leaves slots 2-5
// as they were after the first write.
func (w *Writer) Apply(ctx context.Context, track *model.Track, set *model.PositionSet, overwrite bool) (*model.WriteResult, error) {
	specs, skipped := w.Plan(track, set, overwrite)
	if len(specs) == 0 {
		return &model.WriteResult{Skipped: skipped}, nil
	}

	res, err := w.store.WriteCuesAt(ctx, track.Entry.Filename, track.Entry.Directory, specs, overwrite)
	if err != nil {
		return nil, err
	}
	res.Skipped = append(skipped, res.Skipped...)
	return res, nil
}
