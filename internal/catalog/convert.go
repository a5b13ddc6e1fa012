package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/handiism/traktor-cues/internal/model"
	"github.com/handiism/traktor-cues/internal/nml"
)

// Element and attribute names of the collection format.
const (
	elemCollection = "COLLECTION"
	elemEntry      = "ENTRY"
	elemLocation   = "LOCATION"
	elemTempo      = "TEMPO"
	elemInfo       = "INFO"
	elemLoudness   = "LOUDNESS"
	elemCue        = "CUE_V2"

	defaultCueName = "n.n."
)

// converter turns entry nodes into typed entries. Malformed numbers become
// absent values and are reported through warn.
type converter struct {
	warn func(string)
}

func (c converter) warnf(format string, args ...any) {
	if c.warn != nil {
		c.warn(fmt.Sprintf(format, args...))
	}
}

// float parses a numeric attribute. Missing or empty attributes are absent
// without a warning; anything unparseable is absent with one.
func (c converter) float(file string, n *etree.Element, attr string) *float64 {
	raw, ok := nml.Attr(n, attr)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		c.warnf("%s: malformed %s %s=%q, treated as absent", file, n.Tag, attr, raw)
		return nil
	}
	return &v
}

func (c converter) toEntry(n *etree.Element) *model.CatalogEntry {
	loc := nml.Child(n, elemLocation)
	e := &model.CatalogEntry{
		Filename:     nml.AttrOr(loc, "FILE", ""),
		Directory:    nml.AttrOr(loc, "DIR", ""),
		Volume:       nml.AttrOr(loc, "VOLUME", ""),
		Title:        nml.AttrOr(n, "TITLE", ""),
		Artist:       nml.AttrOr(n, "ARTIST", ""),
		ModifiedDate: nml.AttrOr(n, "MODIFIED_DATE", ""),
		ModifiedTime: nml.AttrOr(n, "MODIFIED_TIME", ""),
	}
	file := e.Filename

	if tempo := nml.Child(n, elemTempo); tempo != nil {
		if bpm := c.float(file, tempo, "BPM"); bpm != nil && *bpm > 0 {
			e.BPM = bpm
		}
	}

	if info := nml.Child(n, elemInfo); info != nil {
		for _, attr := range []string{"PLAYTIME_FLOAT", "PLAYTIME"} {
			if secs := c.float(file, info, attr); secs != nil {
				ms := *secs * 1000
				e.DurationMs = &ms
				break
			}
		}
		e.Key = strings.TrimSpace(nml.AttrOr(info, "KEY", ""))
	}

	if loud := nml.Child(n, elemLoudness); loud != nil {
		e.PeakDB = c.float(file, loud, "PEAK_DB")
		e.PerceivedDB = c.float(file, loud, "PERCEIVED_DB")
		e.AnalyzedDB = c.float(file, loud, "ANALYZED_DB")
	}

	for _, cn := range nml.Children(n, elemCue) {
		rec := c.toCue(file, cn)
		if rec.Type == model.CueTypeGrid && e.AnchorMs == nil {
			e.AnchorMs = c.float(file, cn, "START")
		}
		e.Cues = append(e.Cues, rec)
	}

	return e
}

func (c converter) toCue(file string, n *etree.Element) model.CueRecord {
	rec := model.CueRecord{
		Name: nml.AttrOr(n, "NAME", ""),
		Slot: -1,
	}
	if slot, ok := c.int(file, n, "HOTCUE"); ok {
		rec.Slot = slot
	}
	if typ, ok := c.int(file, n, "TYPE"); ok {
		rec.Type = model.CueType(typ)
	}
	if v := c.float(file, n, "START"); v != nil {
		rec.StartMs = *v
	}
	if v := c.float(file, n, "LEN"); v != nil {
		rec.LengthMs = *v
	}
	if v, ok := c.int(file, n, "REPEATS"); ok {
		rec.Repeats = v
	}
	if v, ok := c.int(file, n, "DISPL_ORDER"); ok {
		rec.DisplayOrder = v
	}
	return rec
}

func (c converter) int(file string, n *etree.Element, attr string) (int, bool) {
	raw, ok := nml.Attr(n, attr)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		c.warnf("%s: malformed %s %s=%q, treated as absent", file, n.Tag, attr, raw)
		return 0, false
	}
	return v, true
}

// newCueNode builds the CUE_V2 element for a write request.
func newCueNode(spec model.CueSpec) *etree.Element {
	name := spec.Name
	if name == "" {
		name = defaultCueName
	}
	return nml.NewElement(elemCue,
		"NAME", name,
		"DISPL_ORDER", strconv.Itoa(spec.Slot-1),
		"TYPE", strconv.Itoa(int(spec.Type)),
		"START", strconv.FormatFloat(spec.StartMs, 'f', 6, 64),
		"LEN", strconv.FormatFloat(spec.LengthMs, 'f', 6, 64),
		"REPEATS", "-1",
		"HOTCUE", strconv.Itoa(spec.Slot),
	)
}

// attrInt reads an integer attribute without reporting anything.
// Used where the value only selects nodes and is never surfaced.
func attrInt(n *etree.Element, attr string) (int, bool) {
	raw, ok := nml.Attr(n, attr)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

func isGridCue(n *etree.Element) bool {
	t, ok := attrInt(n, "TYPE")
	return ok && t == int(model.CueTypeGrid)
}
