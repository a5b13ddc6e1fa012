package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	ioutils "github.com/handiism/traktor-cues/internal/io"
	"github.com/handiism/traktor-cues/internal/model"
	"github.com/handiism/traktor-cues/internal/nml"
)

// StoreConfig holds optional settings for a Store.
type StoreConfig struct {
	// BackupDir receives backups. Empty means the collection's directory.
	BackupDir string

	// OnWarning receives a message for every malformed numeric attribute
	// read from the collection. Nil discards them.
	OnWarning func(string)

	// Now returns the time used to name backups. Nil means time.Now.
	Now func() time.Time
}

// Store is the parsed collection file.
//
// A Store is safe for use from several goroutines, but it assumes it is
// the only writer of the file while it is in use.
type Store struct {
	path string
	cfg  StoreConfig

	mu  sync.Mutex
	doc *nml.Document
}

// NewStore creates a Store for the collection at path. The file is not
// read until the first lookup. A nil cfg uses the defaults.
func NewStore(path string, cfg *StoreConfig) *Store {
	s := &Store{path: path}
	if cfg != nil {
		s.cfg = *cfg
	}
	if s.cfg.Now == nil {
		s.cfg.Now = time.Now
	}
	return s
}

// Path returns the collection file path.
func (s *Store) Path() string {
	return s.path
}

// Invalidate drops the cached tree. The next call re-reads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.doc = nil
	s.mu.Unlock()
}

func (s *Store) load() (*nml.Document, error) {
	if s.doc != nil {
		return s.doc, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &StorageUnavailableError{Path: s.path, Err: err}
	}
	doc, err := nml.ParseBytes(data)
	if err != nil {
		return nil, &StorageUnavailableError{Path: s.path, Err: err}
	}
	s.doc = doc
	return doc, nil
}

func (s *Store) converter() converter {
	return converter{warn: s.cfg.OnWarning}
}

// FindEntry returns the canonical entry for filename.
//
// Returns a *NotFoundError (matching ErrNotFound) when no entry has that
// filename, or a *StorageUnavailableError when the file cannot be read.
func (s *Store) FindEntry(filename string) (*model.CatalogEntry, error) {
	return s.FindEntryInDir(filename, "")
}

// FindEntryInDir is FindEntry restricted to entries whose LOCATION DIR
// contains dir. An empty dir matches every entry.
//
// Example:
//
//	entry, err := store.FindEntryInDir("Intro.mp3", "/:Deep House/:")
func (s *Store) FindEntryInDir(filename, dir string) (*model.CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	n := resolveEntry(doc, filename, dirContains(dir))
	if n == nil {
		return nil, &NotFoundError{Filename: filename}
	}
	return s.converter().toEntry(n), nil
}

// TrackData returns a Track for filename without any secondary data.
func (s *Store) TrackData(filename string) (*model.Track, error) {
	entry, err := s.FindEntry(filename)
	if err != nil {
		return nil, err
	}
	return model.NewTrack(entry), nil
}

// Filenames returns the distinct filenames of the entries whose DIR
// contains dir, in collection order. An empty dir lists every entry.
func (s *Store) Filenames(dir string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	match := dirContains(dir)
	seen := make(map[string]bool)
	var names []string
	for _, n := range entryNodes(doc) {
		file := entryFile(n)
		if file == "" || seen[file] {
			continue
		}
		if !match(entryDir(n)) {
			continue
		}
		seen[file] = true
		names = append(names, file)
	}
	return names, nil
}

// PlaylistFiles returns the filenames of the playlist called name, in
// playlist order.
func (s *Store) PlaylistFiles(name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var playlist *etree.Element
	for _, n := range doc.FindElements("//NODE[@TYPE='PLAYLIST']") {
		if nml.AttrOr(n, "NAME", "") == name {
			playlist = nml.Child(n, "PLAYLIST")
			break
		}
	}
	if playlist == nil {
		return nil, fmt.Errorf("%w: %q", ErrPlaylistNotFound, name)
	}

	var files []string
	for _, e := range nml.Children(playlist, elemEntry) {
		key := nml.AttrOr(nml.Child(e, "PRIMARYKEY"), "KEY", "")
		if file := playlistKeyFile(key); file != "" {
			files = append(files, file)
		}
	}
	return files, nil
}

// WriteCues places cues on the canonical entry for filename, looking at
// entries in every directory. See WriteCuesAt.
func (s *Store) WriteCues(ctx context.Context, filename string, specs []model.CueSpec, overwrite bool) (*model.WriteResult, error) {
	return s.WriteCuesAt(ctx, filename, "", specs, overwrite)
}

// WriteCuesAt places cues on the canonical entry for filename whose
// LOCATION DIR is exactly dir. An empty dir considers every entry with
// that filename. Passing the Directory of an entry returned by FindEntry
// or FindEntryInDir writes to that same entry.
//
// Each request is checked in order and either written or skipped:
//   - slot 1 is always skipped ("slot 1 protected"), even with overwrite
//   - slots outside 2..8 are skipped ("slot out of range")
//   - requests with the grid type, or aimed at a slot holding the grid
//     anchor, are skipped ("beatgrid anchor is read-only")
//   - occupied slots are skipped unless overwrite is set ("slot already
//     occupied"); a slot written earlier in the same batch counts as
//     occupied
//
// An accepted request removes whatever cue is bound to the slot and appends
// the new one. When at least one request is accepted, the collection is
// backed up once and then replaced. Skips are never errors.
//
// Example:
//
//	res, err := store.WriteCuesAt(ctx, "Dreams.m4a", entry.Directory, []model.CueSpec{
//	    {Slot: 2, Name: "Beat", StartMs: 42740},
//	}, false)
//	for _, s := range res.Skipped {
//	    fmt.Println("skipped:", s)
//	}
func (s *Store) WriteCuesAt(ctx context.Context, filename, dir string, specs []model.CueSpec, overwrite bool) (*model.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	entry := resolveEntry(doc, filename, dirEquals(dir))
	if entry == nil {
		return nil, &NotFoundError{Filename: filename}
	}

	occupied := map[int]bool{model.SlotReserved: true}
	gridSlots := make(map[int]bool)
	for _, c := range nml.Children(entry, elemCue) {
		slot, ok := attrInt(c, "HOTCUE")
		if !ok || slot <= 0 {
			continue
		}
		occupied[slot] = true
		if isGridCue(c) {
			gridSlots[slot] = true
		}
	}

	result := &model.WriteResult{}
	var accepted []model.CueSpec
	for _, spec := range specs {
		reason := ""
		switch {
		case spec.Slot == model.SlotReserved:
			reason = model.ReasonSlotProtected
		case !model.IsWritableSlot(spec.Slot):
			reason = model.ReasonSlotRange
		case spec.Type == model.CueTypeGrid || gridSlots[spec.Slot]:
			reason = model.ReasonGridReadOnly
		case occupied[spec.Slot] && !overwrite:
			reason = model.ReasonSlotOccupied
		}
		if reason != "" {
			result.Skipped = append(result.Skipped, model.SkippedCue{Spec: spec, Reason: reason})
			continue
		}
		occupied[spec.Slot] = true
		accepted = append(accepted, spec)
	}

	if len(accepted) == 0 {
		return result, nil
	}

	// The tree is modified from here on; whatever happens, the next read
	// must come from disk.
	defer func() { s.doc = nil }()

	for _, spec := range accepted {
		for _, c := range nml.Children(entry, elemCue) {
			if slot, ok := attrInt(c, "HOTCUE"); ok && slot == spec.Slot {
				nml.RemoveChild(entry, c)
			}
		}
		nml.AppendChild(entry, newCueNode(spec))
	}

	backup, err := s.commit(ctx, doc)
	if err != nil {
		return nil, err
	}
	result.Written = accepted
	result.BackupPath = backup
	return result, nil
}

// StripUnboundCues removes the plain cues that are not on a hotcue button
// (HOTCUE 0, TYPE 0) from every entry whose DIR contains dir. These are
// typically left behind by analysis tools. Grid anchors, slot 1 and all
// hotcues are kept.
//
// With dryRun set nothing is changed. Returns the number of cues removed
// (or that would be removed).
func (s *Store) StripUnboundCues(ctx context.Context, dir string, dryRun bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	type target struct{ entry, cue *etree.Element }
	var targets []target
	match := dirContains(dir)
	for _, e := range entryNodes(doc) {
		if !match(entryDir(e)) {
			continue
		}
		for _, c := range nml.Children(e, elemCue) {
			slot, okSlot := attrInt(c, "HOTCUE")
			typ, okType := attrInt(c, "TYPE")
			if okSlot && okType && slot == model.SlotUnbound && typ == int(model.CueTypeCue) {
				targets = append(targets, target{e, c})
			}
		}
	}

	if dryRun || len(targets) == 0 {
		return len(targets), nil
	}

	defer func() { s.doc = nil }()
	for _, t := range targets {
		nml.RemoveChild(t.entry, t.cue)
	}
	if _, err := s.commit(ctx, doc); err != nil {
		return 0, err
	}
	return len(targets), nil
}

// Backup copies the collection to a new timestamped file and returns its
// path.
func (s *Store) Backup(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backup(ctx)
}

func (s *Store) backup(ctx context.Context) (string, error) {
	if !ioutils.FileExists(s.path) {
		return "", &StorageUnavailableError{Path: s.path, Err: os.ErrNotExist}
	}

	dir := s.cfg.BackupDir
	if dir == "" {
		dir = filepath.Dir(s.path)
	}
	if err := ioutils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	ext := filepath.Ext(s.path)
	stem := strings.TrimSuffix(filepath.Base(s.path), ext)
	base := fmt.Sprintf("%s_backup_%s", stem, s.cfg.Now().Format("20060102_150405"))

	path := filepath.Join(dir, base+ext)
	for i := 1; ioutils.FileExists(path); i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}

	if err := ioutils.CopyFile(ctx, s.path, path); err != nil {
		return "", fmt.Errorf("backup collection: %w", err)
	}
	return path, nil
}

// commit serializes doc, backs up the current file and replaces it.
// Serialization happens first so a failure leaves no backup and no change.
func (s *Store) commit(ctx context.Context, doc *nml.Document) (string, error) {
	data, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("serialize collection: %w", err)
	}
	backup, err := s.backup(ctx)
	if err != nil {
		return "", err
	}
	if err := ioutils.WriteFileAtomic(ctx, s.path, data); err != nil {
		return backup, fmt.Errorf("write collection: %w", err)
	}
	return backup, nil
}
