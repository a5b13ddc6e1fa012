package cues

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAnalysis is returned when a track lacks the BPM, beatgrid
// anchor or duration needed to place cues.
var ErrMissingAnalysis = errors.New("track is missing analysis data")

// MissingAnalysisError lists which values were absent.
type MissingAnalysisError struct {
	Filename string
	Missing  []string
}

func (e *MissingAnalysisError) Error() string {
	return fmt.Sprintf("track %q is missing %s; analyse it in Traktor first",
		e.Filename, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrMissingAnalysis) match.
func (e *MissingAnalysisError) Is(target error) bool {
	return target == ErrMissingAnalysis
}
