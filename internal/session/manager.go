package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/handiism/traktor-cues/internal/audio"
	"github.com/handiism/traktor-cues/internal/catalog"
	"github.com/handiism/traktor-cues/internal/config"
	"github.com/handiism/traktor-cues/internal/cues"
	"github.com/handiism/traktor-cues/internal/model"
	"golang.org/x/sync/errgroup"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a processing progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Source selects the tracks to process. Files are used as given; a
// Playlist or Dir is expanded from the collection. Dir also restricts
// lookups to entries in that directory.
type Source struct {
	Files    []string
	Playlist string
	Dir      string
}

// Outcome is the result of processing one track.
type Outcome struct {
	Filename string
	Entry    *model.CatalogEntry

	Positions *model.PositionSet

	// Planned holds the requests that would be written in a dry run.
	Planned []model.CueSpec

	// Result is the write result; nil in a dry run or on failure.
	Result *model.WriteResult

	Analyzed bool
	Err      error
}

// Failed reports whether the track could not be processed.
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// Reason returns a short description of why the track failed.
func (o *Outcome) Reason() string {
	switch {
	case o.Err == nil:
		return ""
	case errors.Is(o.Err, catalog.ErrNotFound):
		return "not found in collection"
	case errors.Is(o.Err, cues.ErrMissingAnalysis):
		return "missing BPM, beatgrid or duration"
	default:
		return o.Err.Error()
	}
}

// Manager coordinates cue placement over a collection.
type Manager struct {
	settings  *config.Settings
	store     *catalog.Store
	writer    *cues.Writer
	breakdown cues.BreakdownOptions

	analyzer audio.Analyzer
	cache    *audio.CachedAnalyzer

	written int32
	skipped int32
	failed  int32

	// Progress of the current (or last) ProcessIn call
	total     int32
	processed int32

	onProgress func(ProgressEvent)
	mu         sync.Mutex
}

// NewManager creates a new Manager for the collection in settings.
//
// Audio analysis uses an EnvelopeAnalyzer when settings.AnalyzeAudio is
// set; EnableCache wraps it with a SQLite cache.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	m := &Manager{
		settings:   settings,
		breakdown:  settings.ToBreakdownOptions(),
		onProgress: onProgress,
	}
	m.store = catalog.NewStore(settings.NMLPath, settings.ToStoreConfig(func(msg string) {
		m.progress(ProgressEvent{Message: msg, Level: LevelWarning})
	}))
	m.writer = cues.NewWriter(m.store)
	if settings.AnalyzeAudio {
		m.analyzer = audio.NewEnvelopeAnalyzer(nil)
	}
	return m
}

// Store returns the collection store.
func (m *Manager) Store() *catalog.Store {
	return m.store
}

// SetAnalyzer replaces the audio analyzer. A nil analyzer disables
// analysis.
func (m *Manager) SetAnalyzer(a audio.Analyzer) {
	m.analyzer = a
}

// EnableCache wraps the current analyzer with a SQLite cache at path.
// It does nothing when analysis is disabled.
func (m *Manager) EnableCache(path string) error {
	if m.analyzer == nil || path == "" {
		return nil
	}
	cache, err := audio.NewCachedAnalyzer(path, m.analyzer)
	if err != nil {
		return err
	}
	m.cache = cache
	m.analyzer = cache
	return nil
}

// Close releases the analysis cache, if any.
func (m *Manager) Close() error {
	if m.cache != nil {
		return m.cache.Close()
	}
	return nil
}

// Resolve expands src into filenames.
func (m *Manager) Resolve(src Source) ([]string, error) {
	var files []string
	files = append(files, src.Files...)

	if src.Playlist != "" {
		names, err := m.store.PlaylistFiles(src.Playlist)
		if err != nil {
			return nil, err
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Playlist %q: %d tracks", src.Playlist, len(names)), Level: LevelInfo})
		files = append(files, names...)
	}

	if src.Dir != "" && len(src.Files) == 0 && src.Playlist == "" {
		names, err := m.store.Filenames(src.Dir)
		if err != nil {
			return nil, err
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Directory %q: %d tracks", src.Dir, len(names)), Level: LevelInfo})
		files = append(files, names...)
	}

	return files, nil
}

// Process computes and writes cues for each file. With dryRun set nothing
// is written; Outcome.Planned shows what would be.
//
// The returned error is set only when the session cannot continue: the
// collection is unreadable or a write failed, or ctx was cancelled.
// Outcomes are returned in input order.
func (m *Manager) Process(ctx context.Context, files []string, dryRun bool) ([]*Outcome, error) {
	return m.ProcessIn(ctx, files, "", dryRun)
}

// ProcessIn is Process with lookups restricted to entries whose directory
// contains dir. Cues are written to the entry each lookup returned.
//
// Each call restarts the counts reported by GetProgress.
func (m *Manager) ProcessIn(ctx context.Context, files []string, dir string, dryRun bool) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(files))
	tracks := make([]*model.Track, len(files))
	atomic.StoreInt32(&m.processed, 0)
	atomic.StoreInt32(&m.total, int32(len(files)))

	// Lookups
	for i, file := range files {
		outcomes[i] = &Outcome{Filename: file}
		entry, err := m.store.FindEntryInDir(file, dir)
		if err != nil {
			if errors.Is(err, catalog.ErrStorageUnavailable) {
				m.progress(ProgressEvent{Message: err.Error(), Level: LevelError})
				return nil, err
			}
			m.fail(outcomes[i], err)
			atomic.AddInt32(&m.processed, 1)
			continue
		}
		outcomes[i].Entry = entry
		tracks[i] = model.NewTrack(entry)
	}

	// Analysis
	if m.analyzer != nil {
		if err := m.analyzeAll(ctx, tracks, outcomes); err != nil {
			return nil, err
		}
	}

	// Calculation and writes
	for i, track := range tracks {
		if track == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.processTrack(ctx, track, outcomes[i], dryRun); err != nil {
			return nil, err
		}
		atomic.AddInt32(&m.processed, 1)
	}

	return outcomes, nil
}

func (m *Manager) analyzeAll(ctx context.Context, tracks []*model.Track, outcomes []*Outcome) error {
	limit := m.settings.MaxConcurrentAnalysis
	if limit < 1 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, track := range tracks {
		if track == nil {
			continue
		}
		i, track := i, track // capture
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			outcomes[i].Analyzed = m.analyzeTrack(ctx, track)
			return nil
		})
	}

	return g.Wait()
}

// analyzeTrack adds secondary data to track. Failures are reported and the
// track continues with catalog data only.
func (m *Manager) analyzeTrack(ctx context.Context, track *model.Track) bool {
	name := track.Entry.Filename
	path := track.Entry.AudioPath()
	if path == "" {
		m.progress(ProgressEvent{Message: fmt.Sprintf("No file location for %s, skipping analysis", name), Level: LevelWarning})
		return false
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Analyzing: %s", path), Level: LevelVerbose})
	a, err := m.analyzer.Analyze(ctx, path)
	if err != nil {
		level := LevelWarning
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			level = LevelVerbose
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Analysis skipped for %s: %v", name, err), Level: level})
		return false
	}

	track.SetAnalysis(a)
	if dur, ok := track.DurationSeconds(); ok && track.HasAnalysis() {
		if ms, found := cues.DetectBreakdown(track.Envelope, track.EnvelopeTimes, dur, m.breakdown); found {
			track.BreakdownMs = &ms
		}
	}
	return true
}

func (m *Manager) processTrack(ctx context.Context, track *model.Track, out *Outcome, dryRun bool) error {
	name := track.Entry.Filename

	set, err := cues.CalculateForTrack(track)
	if err != nil {
		m.fail(out, err)
		return nil
	}
	out.Positions = set

	for _, flag := range set.Flags {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: %s", name, flag.Message), Level: LevelVerbose})
	}

	if dryRun {
		planned, skipped := m.writer.Plan(track, set, m.settings.Overwrite)
		out.Planned = planned
		out.Result = nil
		atomic.AddInt32(&m.skipped, int32(len(skipped)))
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: would write %d cues, skip %d", name, len(planned), len(skipped)), Level: LevelInfo})
		return nil
	}

	res, err := m.writer.Apply(ctx, track, set, m.settings.Overwrite)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			m.fail(out, err)
			return nil
		}
		m.fail(out, err)
		return err
	}
	out.Result = res
	atomic.AddInt32(&m.written, int32(len(res.Written)))
	atomic.AddInt32(&m.skipped, int32(len(res.Skipped)))

	for _, s := range res.Skipped {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: skipped %s", name, s), Level: LevelVerbose})
	}
	if res.Changed() {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: wrote %d cues (backup %s)", name, len(res.Written), res.BackupPath), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: nothing written, all slots occupied", name), Level: LevelWarning})
	}
	return nil
}

// Transition returns mixing advice from the outgoing to the incoming file.
func (m *Manager) Transition(outgoing, incoming string) (*cues.Transition, error) {
	out, err := m.store.FindEntry(outgoing)
	if err != nil {
		return nil, err
	}
	in, err := m.store.FindEntry(incoming)
	if err != nil {
		return nil, err
	}
	return cues.SuggestTransition(out, in, m.settings.TransitionBlendBars), nil
}

// Strip removes unbound plain cues from entries in dir.
func (m *Manager) Strip(ctx context.Context, dir string, dryRun bool) (int, error) {
	n, err := m.store.StripUnboundCues(ctx, dir, dryRun)
	if err != nil {
		return 0, err
	}
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("%s %d unbound cues", verb, n), Level: LevelSuccess})
	return n, nil
}

// Summary returns the number of cues written and skipped and the number of
// failed tracks since the Manager was created.
func (m *Manager) Summary() (written, skipped, failed int) {
	return int(atomic.LoadInt32(&m.written)), int(atomic.LoadInt32(&m.skipped)), int(atomic.LoadInt32(&m.failed))
}

// GetProgress returns the number of tracks processed and queued by the
// current ProcessIn call, or by the last one when none is running.
func (m *Manager) GetProgress() (processed, total int32) {
	return atomic.LoadInt32(&m.processed), atomic.LoadInt32(&m.total)
}

func (m *Manager) fail(out *Outcome, err error) {
	out.Err = err
	atomic.AddInt32(&m.failed, 1)
	m.progress(ProgressEvent{Message: fmt.Sprintf("%s: %s", out.Filename, out.Reason()), Level: LevelError})
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onProgress(event)
}
