package cues

// BreakdownOptions bounds the search for a breakdown.
type BreakdownOptions struct {
	// WindowSeconds is the length of the averaging window.
	WindowSeconds float64

	// ZoneStart and ZoneEnd are fractions of the track duration. Windows
	// must start at or after ZoneStart and end by ZoneEnd.
	ZoneStart float64
	ZoneEnd   float64
}

// DefaultBreakdownOptions returns a 30 second window searched between 40%
// and 80% of the track.
func DefaultBreakdownOptions() BreakdownOptions {
	return BreakdownOptions{
		WindowSeconds: 30,
		ZoneStart:     0.40,
		ZoneEnd:       0.80,
	}
}

// DetectBreakdown finds the start of the quietest window in the middle of
// a track.
//
// envelope and times are parallel series (times in seconds); duration is in
// seconds. The window size in samples follows the envelope's average rate
// (len(times) / duration). The result is the start time, in milliseconds, of
// the window with the lowest mean energy; the earliest wins on ties.
//
// Returns false when there is not enough data in the zone to fill one
// window. DetectBreakdown never panics on short or mismatched input.
//
// Example:
//
//	if ms, ok := cues.DetectBreakdown(a.Envelope, a.Times, 420, cues.DefaultBreakdownOptions()); ok {
//	    track.BreakdownMs = &ms
//	}
func DetectBreakdown(envelope, times []float64, duration float64, opts BreakdownOptions) (float64, bool) {
	n := len(envelope)
	if len(times) < n {
		n = len(times)
	}
	if n == 0 || !(duration > 0) {
		return 0, false
	}

	zoneStart := duration * opts.ZoneStart
	zoneEnd := duration*opts.ZoneEnd - opts.WindowSeconds

	var zoneTimes, zoneEnergy []float64
	for i := 0; i < n; i++ {
		if times[i] >= zoneStart && times[i] <= zoneEnd {
			zoneTimes = append(zoneTimes, times[i])
			zoneEnergy = append(zoneEnergy, envelope[i])
		}
	}
	if len(zoneEnergy) == 0 {
		return 0, false
	}

	rate := float64(len(times)) / duration
	window := int(opts.WindowSeconds * rate)
	if window < 1 {
		window = 1
	}
	if len(zoneEnergy) < window {
		return 0, false
	}

	// Each window is summed from scratch so equal windows compare equal
	// and the first one wins.
	bestIdx := 0
	best := windowMean(zoneEnergy[:window])
	for i := 1; i+window <= len(zoneEnergy); i++ {
		if m := windowMean(zoneEnergy[i : i+window]); m < best {
			best, bestIdx = m, i
		}
	}

	return zoneTimes[bestIdx] * 1000, true
}

func windowMean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
