package audio

import (
	"context"
	"errors"

	"github.com/handiism/traktor-cues/internal/model"
)

// ErrUnsupportedFormat is returned for files the analyzer cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Analyzer produces an analysis for an audio file.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*model.Analysis, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, path string) (*model.Analysis, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, path string) (*model.Analysis, error) {
	return f(ctx, path)
}
