package audio

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/handiism/traktor-cues/internal/model"
)

// EnvelopeOptions configures an EnvelopeAnalyzer.
type EnvelopeOptions struct {
	// FrameSeconds is the length of one envelope sample.
	FrameSeconds float64

	// ReadTags adds the TBPM frame as the detected BPM when set.
	ReadTags bool
}

// DefaultEnvelopeOptions returns 100 ms frames with tag reading enabled.
func DefaultEnvelopeOptions() *EnvelopeOptions {
	return &EnvelopeOptions{
		FrameSeconds: 0.1,
		ReadTags:     true,
	}
}

// EnvelopeAnalyzer computes an RMS energy envelope from MP3 files.
type EnvelopeAnalyzer struct {
	opts EnvelopeOptions
}

// NewEnvelopeAnalyzer creates an analyzer. A nil opts uses
// DefaultEnvelopeOptions.
func NewEnvelopeAnalyzer(opts *EnvelopeOptions) *EnvelopeAnalyzer {
	if opts == nil {
		opts = DefaultEnvelopeOptions()
	}
	a := &EnvelopeAnalyzer{opts: *opts}
	if a.opts.FrameSeconds <= 0 {
		a.opts.FrameSeconds = 0.1
	}
	return a
}

// Analyze decodes path and returns its envelope. Only .mp3 files are
// supported; anything else returns ErrUnsupportedFormat.
func (a *EnvelopeAnalyzer) Analyze(ctx context.Context, path string) (*model.Analysis, error) {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode failed: %w", err)
	}

	env, times, err := EnvelopeFromPCM(ctx, decoder, decoder.SampleRate(), a.opts.FrameSeconds)
	if err != nil {
		return nil, err
	}

	analysis := &model.Analysis{Envelope: env, Times: times}
	if a.opts.ReadTags {
		if tags, err := ReadTags(path); err == nil {
			analysis.DetectedBPM = tags.BPM
			analysis.BPMSource = model.BPMSourceTag
		}
	}
	return analysis, nil
}

// EnvelopeFromPCM reduces 16-bit little-endian stereo PCM (the output of
// the MP3 decoder) to one RMS value per frame of frameSeconds, normalized
// to 0..1. times holds the start of each frame in seconds. A trailing
// partial frame is kept.
func EnvelopeFromPCM(ctx context.Context, r io.Reader, sampleRate int, frameSeconds float64) (env, times []float64, err error) {
	if sampleRate <= 0 || frameSeconds <= 0 {
		return nil, nil, fmt.Errorf("invalid sample rate %d or frame length %v", sampleRate, frameSeconds)
	}

	const bytesPerFrame = 4 // two channels of int16
	samplesPerFrame := int(float64(sampleRate) * frameSeconds)
	if samplesPerFrame < 1 {
		samplesPerFrame = 1
	}

	var sumSquares float64
	var count int
	flush := func() {
		if count == 0 {
			return
		}
		rms := math.Sqrt(sumSquares/float64(count)) / 32768.0
		times = append(times, float64(len(env))*float64(samplesPerFrame)/float64(sampleRate))
		env = append(env, math.Min(rms, 1))
		sumSquares, count = 0, 0
	}

	buf := make([]byte, 4096*bytesPerFrame)
	var carry []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		n, readErr := r.Read(buf)
		data := buf[:n]
		if len(carry) > 0 {
			data = append(carry, data...)
			carry = nil
		}

		whole := len(data) - len(data)%bytesPerFrame
		for i := 0; i < whole; i += bytesPerFrame {
			left := float64(int16(uint16(data[i]) | uint16(data[i+1])<<8))
			right := float64(int16(uint16(data[i+2]) | uint16(data[i+3])<<8))
			sumSquares += (left*left + right*right) / 2
			count++
			if count == samplesPerFrame {
				flush()
			}
		}
		if whole < len(data) {
			carry = append([]byte(nil), data[whole:]...)
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, nil, fmt.Errorf("pcm read failed: %w", readErr)
		}
	}
	flush()

	return env, times, nil
}
