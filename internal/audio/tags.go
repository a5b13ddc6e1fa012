package audio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
)

// Tags holds the ID3 frames used to cross-check the collection.
type Tags struct {
	Title  string
	Artist string

	// BPM is the TBPM frame, 0 when missing or unparseable.
	BPM float64

	// Key is the TKEY frame as written by the tagging software,
	// e.g. "Am", "8A" or "8m".
	Key string
}

// ReadTags reads the ID3v2 tag of an MP3 file.
//
// A file without a tag yields empty Tags and no error.
//
// Example:
//
//	tags, err := ReadTags("/Users/dj/Music/Dreams.mp3")
//	if err == nil && tags.BPM > 0 {
//	    fmt.Printf("tagged at %.1f BPM\n", tags.BPM)
//	}
func ReadTags(path string) (*Tags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open file for tags: %w", err)
	}
	defer tag.Close()

	tags := &Tags{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Key:    strings.TrimSpace(tag.GetTextFrame(tag.CommonID("Initial key")).Text),
	}

	if raw := strings.TrimSpace(tag.GetTextFrame(tag.CommonID("BPM")).Text); raw != "" {
		if bpm, err := strconv.ParseFloat(raw, 64); err == nil && bpm > 0 {
			tags.BPM = bpm
		}
	}

	return tags, nil
}
