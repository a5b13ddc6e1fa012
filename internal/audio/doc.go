// Package audio supplies the secondary analysis used to refine cue
// positions: an energy envelope of the track and any tempo or key stored in
// its tags.
//
// Nothing in the cue calculation depends on this package. It is one
// implementation of the Analyzer interface, used by the session when audio
// analysis is enabled.
//
// # Envelope Analysis
//
// EnvelopeAnalyzer decodes MP3 files and reduces them to an RMS envelope
// sampled ten times per second, normalized to 0..1:
//
//	analyzer := audio.NewEnvelopeAnalyzer(nil)
//	a, err := analyzer.Analyze(ctx, "/Users/dj/Music/Dreams.mp3")
//	if errors.Is(err, audio.ErrUnsupportedFormat) {
//	    // not an MP3; continue with catalog data only
//	}
//
// # Caching
//
// Decoding a full track takes seconds. CachedAnalyzer stores results in a
// SQLite database keyed by path, size and modification time:
//
//	cached, err := audio.NewCachedAnalyzer("/path/analysis.db", analyzer)
//	if err != nil {
//	    return err
//	}
//	defer cached.Close()
//
// # Tags
//
// ReadTags returns the ID3 title, artist, TBPM and TKEY frames of an MP3.
package audio
