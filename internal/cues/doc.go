// Package cues computes bar-aligned cue positions for a track and writes
// them to hotcue slots.
//
// All positions are snapped to the beatgrid stored in the collection:
//
//	barMs      = 4 * 60000 / bpm
//	snap(t)    = anchor + round((t - anchor) / barMs) * barMs
//
// Four positions are computed, in this order:
//
//	Beat       ~10% of the track           slot 2
//	Groove     32-bar loop at ~35%         slot 4
//	Breakdown  detected low-energy window  slot 3
//	           or ~65% of the track
//	End        32 bars before the end      slot 5
//
// The calculation never invents a BPM, anchor or duration. A track without
// them yields a MissingAnalysisError.
//
// Example:
//
//	set, err := cues.Calculate(cues.Input{
//	    Filename:   "Dreams.m4a",
//	    BPM:        entry.BPM,
//	    AnchorMs:   entry.AnchorMs,
//	    DurationMs: entry.DurationMs,
//	})
//	if err != nil {
//	    return err
//	}
//	for _, p := range set.Positions() {
//	    fmt.Printf("%-10s %s\n", p.Name, model.FormatMs(p.StartMs))
//	}
package cues
