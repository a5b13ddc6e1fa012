package cues

import (
	"math"

	"github.com/handiism/traktor-cues/internal/model"
)

// Placement constants.
const (
	GrooveLoopBars = 32

	beatFraction      = 0.10
	grooveFraction    = 0.35
	breakdownFraction = 0.65

	// shortTrackRatio is the share of the track above which a 32-bar loop
	// is flagged.
	shortTrackRatio = 0.40

	// breakdownMaxFraction bounds a detected breakdown from above.
	breakdownMaxFraction = 0.85

	// breakdownGapBars is the minimum distance between the end of the
	// groove loop and a detected breakdown, and the outro pushed past a
	// breakdown that leaves too little room.
	breakdownGapBars = 8
)

// Input is the data Calculate works from. BPM, AnchorMs and DurationMs are
// required; the rest is optional secondary data.
type Input struct {
	Filename string

	BPM        *float64
	AnchorMs   *float64
	DurationMs *float64

	// BreakdownMs is a detected breakdown start, if any.
	BreakdownMs *float64

	// SecondaryBPM is a tempo from outside the collection, used only as
	// a cross-check. SecondaryBPMSource names it in flags; empty means
	// model.BPMSourceAnalysis.
	SecondaryBPM       *float64
	SecondaryBPMSource string
}

// InputFromTrack builds an Input from a track's catalog entry and
// secondary data.
func InputFromTrack(t *model.Track) Input {
	in := Input{
		BreakdownMs:        t.BreakdownMs,
		SecondaryBPM:       t.DetectedBPM,
		SecondaryBPMSource: t.BPMSource,
	}
	if t.Entry != nil {
		in.Filename = t.Entry.Filename
		in.BPM = t.Entry.BPM
		in.AnchorMs = t.Entry.AnchorMs
		in.DurationMs = t.Entry.DurationMs
	}
	return in
}

// CalculateForTrack is Calculate on InputFromTrack(t).
func CalculateForTrack(t *model.Track) (*model.PositionSet, error) {
	return Calculate(InputFromTrack(t))
}

// Calculate computes the Beat, Groove, Breakdown and End positions.
//
// Returns a *MissingAnalysisError when BPM, anchor or duration is absent
// (or BPM/duration is not positive). An anchor of 0 ms is valid.
//
// Example (125 BPM, anchor 500 ms, 7:00 track):
//
//	Beat       0:42.74
//	Groove     2:26.42  loop 61.44s
//	Breakdown  4:33.14
//	End        5:57.62
func Calculate(in Input) (*model.PositionSet, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}

	bpm := *in.BPM
	anchor := *in.AnchorMs
	duration := *in.DurationMs

	snap := func(t float64) float64 { return SnapToBar(t, bpm, anchor) }
	bar := BarMs(bpm)
	loop := BarsToMs(GrooveLoopBars, bpm)

	set := &model.PositionSet{Provenance: model.ProvenancePrimary}

	// Beat
	beat := snap(duration * beatFraction)
	if beat < anchor {
		beat = snap(anchor + bar)
	}
	set.AddFlag(model.FlagBeatEstimate, "Beat: estimated at ~10%% (%s), verify the kick entry", model.FormatMs(beat))

	// Groove
	groove := snap(duration * grooveFraction)
	endZone := duration - loop - bar
	if groove+loop > endZone {
		groove = snap(endZone - loop)
		set.AddFlag(model.FlagGrooveShifted, "Groove: loop shifted to %s to stay clear of the end zone", model.FormatMs(groove))
	}
	if loop > duration*shortTrackRatio {
		set.AddFlag(model.FlagShortTrack, "Short track: 32-bar loop (%.0fs) is %.0f%% of the track, consider a shorter loop",
			loop/1000, loop/duration*100)
	}
	grooveEnd := groove + loop

	// Breakdown
	fallback := snap(duration * breakdownFraction)
	breakdown := fallback
	if in.BreakdownMs != nil {
		set.Provenance = model.ProvenanceSecondary
		detected := snap(*in.BreakdownMs)
		lo := grooveEnd + BarsToMs(breakdownGapBars, bpm)
		hi := duration * breakdownMaxFraction
		if detected < lo || detected > hi {
			set.AddFlag(model.FlagBreakdownFallback, "Breakdown: detection at %s out of range [%s, %s], fell back to ~65%%",
				model.FormatMs(detected), model.FormatMs(lo), model.FormatMs(hi))
		} else {
			breakdown = detected
			set.AddFlag(model.FlagBreakdownDetected, "Breakdown: detected at %s by energy analysis", model.FormatMs(breakdown))
		}
	} else {
		set.AddFlag(model.FlagBreakdownEstimate, "Breakdown: estimated at ~65%% (%s), verify in Traktor", model.FormatMs(breakdown))
	}

	// End
	end := snap(duration - loop)
	if end <= breakdown+bar {
		end = snap(breakdown + BarsToMs(breakdownGapBars, bpm))
		set.AddFlag(model.FlagShortOutro, "End: pushed to %s, very short outro", model.FormatMs(end))
	}

	if in.SecondaryBPM != nil && *in.SecondaryBPM > 0 {
		set.Provenance = model.ProvenanceSecondary
		source := in.SecondaryBPMSource
		if source == "" {
			source = model.BPMSourceAnalysis
		}
		if model.BPMAgree(bpm, *in.SecondaryBPM) {
			set.AddFlag(model.FlagBPMVerified, "BPM verified: collection %.2f, %s %.2f", bpm, source, *in.SecondaryBPM)
		} else {
			set.AddFlag(model.FlagBPMMismatch, "BPM mismatch: collection %.2f, %s %.2f, check the beatgrid", bpm, source, *in.SecondaryBPM)
		}
	}

	set.Beat = model.Position{Name: model.PositionBeat, StartMs: beat}
	set.Groove = model.Position{Name: model.PositionGroove, StartMs: groove, LengthMs: loop}
	set.Breakdown = model.Position{Name: model.PositionBreakdown, StartMs: breakdown}
	set.End = model.Position{Name: model.PositionEnd, StartMs: end}
	return set, nil
}

func checkInput(in Input) error {
	var missing []string
	if in.BPM == nil || !(*in.BPM > 0) || math.IsInf(*in.BPM, 0) {
		missing = append(missing, "BPM")
	}
	if in.AnchorMs == nil || math.IsNaN(*in.AnchorMs) {
		missing = append(missing, "beatgrid anchor")
	}
	if in.DurationMs == nil || !(*in.DurationMs > 0) {
		missing = append(missing, "duration")
	}
	if len(missing) > 0 {
		return &MissingAnalysisError{Filename: in.Filename, Missing: missing}
	}
	return nil
}
