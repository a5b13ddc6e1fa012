package cues

import (
	"fmt"
	"math"

	"github.com/handiism/traktor-cues/internal/model"
)

// BPMRelation classifies how two tempos can be mixed.
type BPMRelation string

const (
	RelationUnknown  BPMRelation = "unknown"
	RelationDirect   BPMRelation = "direct"
	RelationHalfTime BPMRelation = "halftime"
	RelationDouble   BPMRelation = "double-time"
	RelationMismatch BPMRelation = "mismatch"
)

// LoudnessGapDB is the perceived loudness difference above which a trim
// adjustment is suggested.
const LoudnessGapDB = 3.0

// DefaultBlendBars is the blend length used when none is given.
const DefaultBlendBars = 32

// Transition is advice for mixing from one track into another.
type Transition struct {
	Relation BPMRelation
	Ratio    float64 // outgoing BPM / incoming BPM, 0 when unknown

	KeysCompatible bool
	KeyDescription string

	BlendBars int
	BlendMs   float64

	// MixOutMs is where the blend starts in the outgoing track.
	// Zero with HasTiming false when BPM or duration is missing.
	MixOutMs  float64
	HasTiming bool

	// LoudnessGap is |perceived dB out - perceived dB in|, when both are known.
	LoudnessGap    *float64
	LoudnessWarned bool

	Notes []string
}

// SuggestTransition compares an outgoing and an incoming entry.
// blendBars <= 0 uses DefaultBlendBars.
func SuggestTransition(out, in *model.CatalogEntry, blendBars int) *Transition {
	if blendBars <= 0 {
		blendBars = DefaultBlendBars
	}
	t := &Transition{Relation: RelationUnknown, BlendBars: blendBars}

	if out.BPM != nil && in.BPM != nil {
		t.Ratio = *out.BPM / *in.BPM
		t.Relation = classifyRatio(t.Ratio)
		switch t.Relation {
		case RelationDirect:
			t.Notes = append(t.Notes, fmt.Sprintf("Adjust by %.1f BPM", math.Abs(*out.BPM-*in.BPM)))
		case RelationHalfTime:
			t.Notes = append(t.Notes, "Play incoming at double time")
		case RelationDouble:
			t.Notes = append(t.Notes, "Play incoming at half time")
		default:
			t.Notes = append(t.Notes, fmt.Sprintf("Pitch incoming to %.1f BPM for a 1:1 mix", *out.BPM))
		}
	} else {
		t.Notes = append(t.Notes, "BPM unknown, check the analysis in Traktor")
	}

	t.KeysCompatible, t.KeyDescription = model.KeysCompatible(out.Key, in.Key)

	if out.BPM != nil && out.DurationMs != nil && in.BPM != nil {
		t.BlendMs = BarsToMs(float64(blendBars), *out.BPM)
		t.MixOutMs = *out.DurationMs - t.BlendMs
		t.HasTiming = true
		if !t.KeysCompatible {
			t.Notes = append(t.Notes, "Keys clash: keep the blend under 16 bars or mask it with effects")
		}
	}

	if out.PerceivedDB != nil && in.PerceivedDB != nil {
		gap := math.Abs(*out.PerceivedDB - *in.PerceivedDB)
		t.LoudnessGap = &gap
		if gap > LoudnessGapDB {
			t.LoudnessWarned = true
			t.Notes = append(t.Notes, fmt.Sprintf("Loudness differs by %.1f dB, adjust trim before the blend", gap))
		}
	}

	return t
}

func classifyRatio(r float64) BPMRelation {
	switch {
	case r >= 0.97 && r <= 1.03:
		return RelationDirect
	case r >= 1.94 && r <= 2.06:
		return RelationHalfTime
	case r >= 0.47 && r <= 0.53:
		return RelationDouble
	default:
		return RelationMismatch
	}
}
