package catalog

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/handiism/traktor-cues/internal/nml"
)

// entryNodes returns all ENTRY elements of the collection in document order.
func entryNodes(doc *nml.Document) []*etree.Element {
	return nml.Children(nml.Child(doc.Root(), elemCollection), elemEntry)
}

func entryFile(n *etree.Element) string {
	return nml.AttrOr(nml.Child(n, elemLocation), "FILE", "")
}

func entryDir(n *etree.Element) string {
	return nml.AttrOr(nml.Child(n, elemLocation), "DIR", "")
}

// dirFilter selects entries by their LOCATION DIR.
type dirFilter func(dir string) bool

func anyDir(string) bool { return true }

// dirContains matches directories containing sub. An empty sub matches
// every entry.
func dirContains(sub string) dirFilter {
	if sub == "" {
		return anyDir
	}
	return func(dir string) bool { return strings.Contains(dir, sub) }
}

// dirEquals matches one directory exactly. An empty dir matches every
// entry.
func dirEquals(want string) dirFilter {
	if want == "" {
		return anyDir
	}
	return func(dir string) bool { return dir == want }
}

// resolveEntry picks the canonical entry for filename among the entries
// accepted by match, or nil.
func resolveEntry(doc *nml.Document, filename string, match dirFilter) *etree.Element {
	var candidates []*etree.Element
	for _, n := range entryNodes(doc) {
		if entryFile(n) != filename || !match(entryDir(n)) {
			continue
		}
		candidates = append(candidates, n)
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}

	var gridded []*etree.Element
	for _, n := range candidates {
		if hasGridCue(n) {
			gridded = append(gridded, n)
		}
	}
	pool := candidates
	if len(gridded) > 0 {
		pool = gridded
	}

	best := pool[0]
	bestKey := modifiedKey(best)
	for _, n := range pool[1:] {
		if k := modifiedKey(n); k.after(bestKey) {
			best, bestKey = n, k
		}
	}
	return best
}

func hasGridCue(entry *etree.Element) bool {
	for _, c := range nml.Children(entry, elemCue) {
		if isGridCue(c) {
			return true
		}
	}
	return false
}

// stamp is a modification timestamp. Date is YYYYMMDD, Time is seconds
// since midnight. Unparseable parts are zero.
type stamp struct {
	Date int
	Time int
}

func (s stamp) after(o stamp) bool {
	if s.Date != o.Date {
		return s.Date > o.Date
	}
	return s.Time > o.Time
}

// modifiedKey reads MODIFIED_DATE ("2024/1/15") and MODIFIED_TIME.
// Components are compared as numbers so "2024/1/10" sorts after "2024/1/9".
func modifiedKey(entry *etree.Element) stamp {
	var s stamp
	parts := strings.Split(nml.AttrOr(entry, "MODIFIED_DATE", ""), "/")
	if len(parts) == 3 {
		y, errY := strconv.Atoi(strings.TrimSpace(parts[0]))
		m, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
		d, errD := strconv.Atoi(strings.TrimSpace(parts[2]))
		if errY == nil && errM == nil && errD == nil {
			s.Date = y*10000 + m*100 + d
		}
	}
	if t, err := strconv.Atoi(strings.TrimSpace(nml.AttrOr(entry, "MODIFIED_TIME", ""))); err == nil {
		s.Time = t
	}
	return s
}

// playlistKeyFile extracts the filename from a PRIMARYKEY KEY such as
// "Macintosh HD/:Users/:dj/:Music/:Dreams.m4a".
func playlistKeyFile(key string) string {
	if i := strings.LastIndex(key, "/:"); i >= 0 {
		return key[i+2:]
	}
	return key
}
