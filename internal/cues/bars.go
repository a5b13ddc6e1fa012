package cues

import "math"

// BarMs returns the length of one 4/4 bar in milliseconds.
func BarMs(bpm float64) float64 {
	return 4 * 60000 / bpm
}

// BarsToMs returns the length of n bars in milliseconds.
func BarsToMs(n, bpm float64) float64 {
	return n * BarMs(bpm)
}

// SnapToBar moves t to the nearest bar line of the grid that starts at
// anchor. Exact half-bar ties round away from the anchor.
func SnapToBar(t, bpm, anchor float64) float64 {
	bar := BarMs(bpm)
	return anchor + math.Round((t-anchor)/bar)*bar
}
