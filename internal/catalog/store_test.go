package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/handiism/traktor-cues/internal/model"
)

const fixtureNML = `<?xml version="1.0" encoding="UTF-8" standalone="no" ?>
<NML VERSION="19">
<HEAD COMPANY="www.native-instruments.com" PROGRAM="Traktor"></HEAD>
<COLLECTION ENTRIES="8">
<ENTRY MODIFIED_DATE="2025/6/1" MODIFIED_TIME="50000" TITLE="Track (reimport)">
<LOCATION DIR="/:Users/:dj/:Music/:" FILE="Track.m4a" VOLUME="Macintosh HD"></LOCATION>
<TEMPO BPM="122.000000"></TEMPO>
</ENTRY>
<ENTRY MODIFIED_DATE="2024/1/1" MODIFIED_TIME="3600" TITLE="Track (analyzed)">
<LOCATION DIR="/:Users/:dj/:Music/:" FILE="Track.m4a" VOLUME="Macintosh HD"></LOCATION>
<TEMPO BPM="122.000000"></TEMPO>
<CUE_V2 NAME="AutoGrid" DISPL_ORDER="0" TYPE="4" START="120.000000" LEN="0.000000" REPEATS="-1" HOTCUE="0"></CUE_V2>
</ENTRY>
<ENTRY MODIFIED_DATE="2024/1/9" MODIFIED_TIME="100" TITLE="Nine">
<LOCATION DIR="/:Users/:dj/:Music/:" FILE="Same.mp3" VOLUME="Macintosh HD"></LOCATION>
</ENTRY>
<ENTRY MODIFIED_DATE="2024/1/10" MODIFIED_TIME="100" TITLE="Ten">
<LOCATION DIR="/:Users/:dj/:Music/:" FILE="Same.mp3" VOLUME="Macintosh HD"></LOCATION>
</ENTRY>
<ENTRY MODIFIED_DATE="2024/1/10" MODIFIED_TIME="100" TITLE="Ten again">
<LOCATION DIR="/:Users/:dj/:Music/:" FILE="Same.mp3" VOLUME="Macintosh HD"></LOCATION>
</ENTRY>
<ENTRY MODIFIED_DATE="2024/3/3" MODIFIED_TIME="7200" TITLE="Dreams" ARTIST="Fleet">
<LOCATION DIR="/:Users/:dj/:Music/:Deep House/:" FILE="Dreams.m4a" VOLUME="Macintosh HD"></LOCATION>
<INFO PLAYTIME="420" PLAYTIME_FLOAT="420.000000" KEY="8m"></INFO>
<TEMPO BPM="125.000000" BPM_QUALITY="100.000000"></TEMPO>
<LOUDNESS PEAK_DB="-0.500000" PERCEIVED_DB="-8.250000" ANALYZED_DB="-8.000000"></LOUDNESS>
<CUE_V2 NAME="AutoGrid" DISPL_ORDER="0" TYPE="4" START="500.000000" LEN="0.000000" REPEATS="-1" HOTCUE="0"></CUE_V2>
<CUE_V2 NAME="Mine" DISPL_ORDER="0" TYPE="5" START="1000.000000" LEN="0.000000" REPEATS="-1" HOTCUE="1"></CUE_V2>
<CUE_V2 NAME="Drop" DISPL_ORDER="2" TYPE="0" START="90000.000000" LEN="0.000000" REPEATS="-1" HOTCUE="3"></CUE_V2>
<CUE_V2 NAME="n.n." DISPL_ORDER="0" TYPE="0" START="30000.000000" LEN="0.000000" REPEATS="-1" HOTCUE="0"></CUE_V2>
</ENTRY>
<ENTRY MODIFIED_DATE="2024/3/3" MODIFIED_TIME="7200" TITLE="Dreams (other copy)">
<LOCATION DIR="/:Users/:dj/:Downloads/:" FILE="Dreams.m4a" VOLUME="Macintosh HD"></LOCATION>
<CUE_V2 NAME="n.n." DISPL_ORDER="0" TYPE="0" START="1.000000" LEN="0.000000" REPEATS="-1" HOTCUE="0"></CUE_V2>
</ENTRY>
<ENTRY MODIFIED_DATE="2024/3/3" MODIFIED_TIME="7200" TITLE="Broken">
<LOCATION DIR="/:Users/:dj/:Music/:" FILE="Broken.mp3" VOLUME="Macintosh HD"></LOCATION>
<INFO PLAYTIME_FLOAT="not-a-number"></INFO>
<TEMPO BPM="abc"></TEMPO>
<CUE_V2 NAME="AutoGrid" DISPL_ORDER="0" TYPE="4" START="??" LEN="0.000000" REPEATS="-1" HOTCUE="0"></CUE_V2>
</ENTRY>
</COLLECTION>
<PLAYLISTS>
<NODE TYPE="FOLDER" NAME="$ROOT">
<SUBNODES COUNT="1">
<NODE TYPE="PLAYLIST" NAME="Warmup">
<PLAYLIST ENTRIES="2" TYPE="LIST" UUID="abc">
<ENTRY><PRIMARYKEY TYPE="TRACK" KEY="Macintosh HD/:Users/:dj/:Music/:Deep House/:Dreams.m4a"></PRIMARYKEY></ENTRY>
<ENTRY><PRIMARYKEY TYPE="TRACK" KEY="Macintosh HD/:Users/:dj/:Music/:Track.m4a"></PRIMARYKEY></ENTRY>
</PLAYLIST>
</NODE>
</SUBNODES>
</NODE>
</PLAYLISTS>
</NML>
`

var fixedNow = time.Date(2025, 6, 1, 14, 22, 33, 0, time.UTC)

// newTestStore writes the fixture to a temp dir and returns a store on it.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "collection.nml")
	if err := os.WriteFile(path, []byte(fixtureNML), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	store := NewStore(path, &StoreConfig{Now: func() time.Time { return fixedNow }})
	return store, path
}

func TestFindEntry_GriddedBeatsNewer(t *testing.T) {
	store, _ := newTestStore(t)

	for i := 0; i < 3; i++ {
		entry, err := store.FindEntry("Track.m4a")
		if err != nil {
			t.Fatalf("FindEntry failed: %v", err)
		}
		if entry.ModifiedDate != "2024/1/1" {
			t.Errorf("lookup %d: ModifiedDate = %q, want %q", i, entry.ModifiedDate, "2024/1/1")
		}
		if !entry.HasGrid() || *entry.AnchorMs != 120 {
			t.Errorf("lookup %d: expected anchor 120, got %v", i, entry.AnchorMs)
		}
	}
}

func TestFindEntry_LatestWins(t *testing.T) {
	store, _ := newTestStore(t)

	entry, err := store.FindEntry("Same.mp3")
	if err != nil {
		t.Fatalf("FindEntry failed: %v", err)
	}
	// 2024/1/10 is later than 2024/1/9; the tie between the two 1/10
	// entries goes to the first one.
	if entry.Title != "Ten" {
		t.Errorf("Title = %q, want %q", entry.Title, "Ten")
	}
}

func TestFindEntryInDir(t *testing.T) {
	store, _ := newTestStore(t)

	entry, err := store.FindEntryInDir("Dreams.m4a", "/:Downloads/:")
	if err != nil {
		t.Fatalf("FindEntryInDir failed: %v", err)
	}
	if entry.Title != "Dreams (other copy)" {
		t.Errorf("Title = %q, want the Downloads copy", entry.Title)
	}

	_, err = store.FindEntryInDir("Dreams.m4a", "/:Nowhere/:")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindEntry_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.FindEntry("Missing.mp3")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Filename != "Missing.mp3" {
		t.Errorf("expected NotFoundError for Missing.mp3, got %v", err)
	}
}

func TestFindEntry_StorageUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing file"},
		{name: "not xml", content: strPtr("this is not a collection")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "collection.nml")
			if tt.content != nil {
				os.WriteFile(path, []byte(*tt.content), 0644)
			}
			store := NewStore(path, nil)

			_, err := store.FindEntry("Dreams.m4a")
			if !errors.Is(err, ErrStorageUnavailable) {
				t.Errorf("expected ErrStorageUnavailable, got %v", err)
			}
		})
	}
}

func TestTrackData(t *testing.T) {
	store, _ := newTestStore(t)

	track, err := store.TrackData("Dreams.m4a")
	if err != nil {
		t.Fatalf("TrackData failed: %v", err)
	}
	e := track.Entry

	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"BPM", e.BPM, 125},
		{"AnchorMs", e.AnchorMs, 500},
		{"DurationMs", e.DurationMs, 420000},
		{"PeakDB", e.PeakDB, -0.5},
		{"PerceivedDB", e.PerceivedDB, -8.25},
		{"AnalyzedDB", e.AnalyzedDB, -8},
	}
	for _, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if e.Key != "8m" {
		t.Errorf("Key = %q, want %q", e.Key, "8m")
	}
	if e.Artist != "Fleet" {
		t.Errorf("Artist = %q, want %q", e.Artist, "Fleet")
	}
	if got, want := track.OccupiedSlots(), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("OccupiedSlots = %v, want %v", got, want)
	}
}

func TestTrackData_MalformedNumbers(t *testing.T) {
	_, path := newTestStore(t)

	var warnings []string
	store := NewStore(path, &StoreConfig{OnWarning: func(msg string) {
		warnings = append(warnings, msg)
	}})

	track, err := store.TrackData("Broken.mp3")
	if err != nil {
		t.Fatalf("TrackData failed: %v", err)
	}
	if track.Entry.BPM != nil {
		t.Errorf("BPM = %v, want absent", *track.Entry.BPM)
	}
	if track.Entry.DurationMs != nil {
		t.Errorf("DurationMs = %v, want absent", *track.Entry.DurationMs)
	}
	if track.Entry.AnchorMs != nil {
		t.Errorf("AnchorMs = %v, want absent", *track.Entry.AnchorMs)
	}
	if len(warnings) < 3 {
		t.Errorf("got %d warnings, want at least 3: %v", len(warnings), warnings)
	}
}

func TestWriteCues_SlotOneProtected(t *testing.T) {
	store, path := newTestStore(t)

	for _, overwrite := range []bool{false, true} {
		res, err := store.WriteCues(context.Background(), "Dreams.m4a", []model.CueSpec{
			{Slot: 1, Name: "Beat", StartMs: 42740},
		}, overwrite)
		if err != nil {
			t.Fatalf("WriteCues failed: %v", err)
		}
		if len(res.Written) != 0 {
			t.Errorf("overwrite=%v: wrote %v", overwrite, res.Written)
		}
		if len(res.Skipped) != 1 || res.Skipped[0].Reason != "slot 1 protected" {
			t.Errorf("overwrite=%v: Skipped = %v", overwrite, res.Skipped)
		}
		if res.BackupPath != "" {
			t.Errorf("overwrite=%v: unexpected backup %s", overwrite, res.BackupPath)
		}
	}

	got, _ := os.ReadFile(path)
	if string(got) != fixtureNML {
		t.Error("collection changed after a fully skipped batch")
	}
}

func TestWriteCues_SkipReasons(t *testing.T) {
	store, _ := newTestStore(t)

	res, err := store.WriteCues(context.Background(), "Dreams.m4a", []model.CueSpec{
		{Slot: 9, Name: "Nine"},
		{Slot: 0, Name: "Zero"},
		{Slot: 6, Name: "Grid", Type: model.CueTypeGrid},
		{Slot: 3, Name: "Breakdown", StartMs: 273140},
		{Slot: 2, Name: "Beat", StartMs: 42740},
		{Slot: 2, Name: "Beat again", StartMs: 50000},
	}, false)
	if err != nil {
		t.Fatalf("WriteCues failed: %v", err)
	}

	wantReasons := []string{
		model.ReasonSlotRange,
		model.ReasonSlotRange,
		model.ReasonGridReadOnly,
		model.ReasonSlotOccupied,
		model.ReasonSlotOccupied,
	}
	if len(res.Skipped) != len(wantReasons) {
		t.Fatalf("Skipped = %v, want %d entries", res.Skipped, len(wantReasons))
	}
	for i, want := range wantReasons {
		if res.Skipped[i].Reason != want {
			t.Errorf("Skipped[%d] = %v, want reason %q", i, res.Skipped[i], want)
		}
	}
	if len(res.Written) != 1 || res.Written[0].Name != "Beat" {
		t.Errorf("Written = %v, want only Beat", res.Written)
	}
}

func TestWriteCues_BackupMatchesPreviousContent(t *testing.T) {
	store, path := newTestStore(t)

	res, err := store.WriteCues(context.Background(), "Dreams.m4a", []model.CueSpec{
		{Slot: 2, Name: "Beat", StartMs: 42740},
		{Slot: 4, Name: "Groove", StartMs: 146420, Type: model.CueTypeLoop, LengthMs: 61440},
	}, false)
	if err != nil {
		t.Fatalf("WriteCues failed: %v", err)
	}

	wantBackup := filepath.Join(filepath.Dir(path), "collection_backup_20250601_142233.nml")
	if res.BackupPath != wantBackup {
		t.Errorf("BackupPath = %q, want %q", res.BackupPath, wantBackup)
	}
	backup, err := os.ReadFile(res.BackupPath)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.Equal(backup, []byte(fixtureNML)) {
		t.Error("backup does not match the collection before the write")
	}

	entry, err := store.FindEntry("Dreams.m4a")
	if err != nil {
		t.Fatalf("FindEntry after write: %v", err)
	}

	groove, ok := entry.CueInSlot(4)
	if !ok {
		t.Fatal("no cue in slot 4 after write")
	}
	if groove.Type != model.CueTypeLoop || groove.StartMs != 146420 || groove.LengthMs != 61440 {
		t.Errorf("slot 4 = %+v", groove)
	}
	if groove.DisplayOrder != 3 || groove.Repeats != -1 {
		t.Errorf("slot 4 DISPL_ORDER/REPEATS = %d/%d, want 3/-1", groove.DisplayOrder, groove.Repeats)
	}

	mine, ok := entry.CueInSlot(1)
	if !ok || mine.Name != "Mine" || mine.StartMs != 1000 {
		t.Errorf("slot 1 changed: %+v", mine)
	}
	if !entry.HasGrid() || *entry.AnchorMs != 500 {
		t.Errorf("anchor changed: %v", entry.AnchorMs)
	}
}

func TestWriteCues_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	specs := []model.CueSpec{
		{Slot: 2, Name: "Beat", StartMs: 42740},
		{Slot: 3, Name: "Breakdown", StartMs: 273140},
		{Slot: 4, Name: "Groove", StartMs: 146420, Type: model.CueTypeLoop, LengthMs: 61440},
		{Slot: 5, Name: "End", StartMs: 357620},
	}

	hotcues := func() []model.CueRecord {
		entry, err := store.FindEntry("Dreams.m4a")
		if err != nil {
			t.Fatalf("FindEntry failed: %v", err)
		}
		return entry.HotCues()
	}

	if _, err := store.WriteCues(context.Background(), "Dreams.m4a", specs, true); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first := hotcues()

	res, err := store.WriteCues(context.Background(), "Dreams.m4a", specs, true)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	second := hotcues()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("hotcues differ after second write:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if len(second) != 5 {
		t.Errorf("got %d hotcues, want 5 (slot 1 plus 2..5)", len(second))
	}

	// Second backup in the same second gets a suffix.
	if filepath.Base(res.BackupPath) != "collection_backup_20250601_142233_1.nml" {
		t.Errorf("BackupPath = %s", res.BackupPath)
	}
}

func TestWriteCues_NotFound(t *testing.T) {
	store, path := newTestStore(t)

	_, err := store.WriteCues(context.Background(), "Missing.mp3", []model.CueSpec{{Slot: 2}}, true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d files, want only the collection", len(entries))
	}
}

func TestWriteCues_KeepsUntouchedBytes(t *testing.T) {
	store, path := newTestStore(t)

	_, err := store.WriteCues(context.Background(), "Dreams.m4a", []model.CueSpec{
		{Slot: 2, Name: "Beat", StartMs: 42740},
	}, false)
	if err != nil {
		t.Fatalf("WriteCues failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read collection: %v", err)
	}
	cue := `<CUE_V2 NAME="Beat" DISPL_ORDER="1" TYPE="0" START="42740.000000" LEN="0.000000" REPEATS="-1" HOTCUE="2"></CUE_V2>` + "\n"
	if !strings.Contains(string(got), cue+"</ENTRY>") {
		t.Fatalf("new cue not appended before </ENTRY>:\n%s", got)
	}
	if rest := strings.Replace(string(got), cue, "", 1); rest != fixtureNML {
		t.Errorf("write changed more than the new cue:\n%s", got)
	}
}

const albumsNML = `<?xml version="1.0" encoding="UTF-8" standalone="no" ?>
<NML VERSION="19">
  <COLLECTION ENTRIES="2">
    <ENTRY MODIFIED_DATE="2024/1/1" MODIFIED_TIME="100" TITLE="Intro (AlbumA)">
      <LOCATION DIR="/:Music/:AlbumA/:" FILE="01 Intro.mp3" VOLUME="Macintosh HD"/>
      <CUE_V2 NAME="AutoGrid" DISPL_ORDER="0" TYPE="4" START="500.000000" LEN="0.000000" REPEATS="-1" HOTCUE="0"/>
    </ENTRY>
    <ENTRY MODIFIED_DATE="2025/1/1" MODIFIED_TIME="100" TITLE="Intro (Disc2)">
      <LOCATION DIR="/:Music/:AlbumA/:Disc2/:" FILE="01 Intro.mp3" VOLUME="Macintosh HD"/>
      <CUE_V2 NAME="AutoGrid" DISPL_ORDER="0" TYPE="4" START="80.000000" LEN="0.000000" REPEATS="-1" HOTCUE="0"/>
    </ENTRY>
  </COLLECTION>
</NML>
`

func TestWriteCuesAt_ExactDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.nml")
	if err := os.WriteFile(path, []byte(albumsNML), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	store := NewStore(path, &StoreConfig{Now: func() time.Time { return fixedNow }})
	ctx := context.Background()

	// The newer Disc2 copy is canonical for a plain lookup.
	if e, _ := store.FindEntry("01 Intro.mp3"); e == nil || e.Title != "Intro (Disc2)" {
		t.Fatalf("FindEntry = %+v, want the Disc2 copy", e)
	}

	res, err := store.WriteCuesAt(ctx, "01 Intro.mp3", "/:Music/:AlbumA/:", []model.CueSpec{
		{Slot: 2, Name: "Beat", StartMs: 42740},
	}, false)
	if err != nil {
		t.Fatalf("WriteCuesAt failed: %v", err)
	}
	if len(res.Written) != 1 {
		t.Fatalf("Written = %v, want one cue", res.Written)
	}

	disc2, err := store.FindEntryInDir("01 Intro.mp3", "/:Disc2/:")
	if err != nil {
		t.Fatalf("FindEntryInDir failed: %v", err)
	}
	if _, ok := disc2.CueInSlot(2); ok {
		t.Error("cue written to the Disc2 copy")
	}

	data, _ := os.ReadFile(path)
	doc := string(data)
	a := strings.Index(doc, "Intro (AlbumA)")
	b := strings.Index(doc, "Intro (Disc2)")
	beat := strings.Index(doc, `NAME="Beat"`)
	if beat < a || beat > b {
		t.Errorf("cue not inside the AlbumA entry:\n%s", doc)
	}

	if _, err := store.WriteCuesAt(ctx, "01 Intro.mp3", "/:Music/:AlbumB/:", []model.CueSpec{{Slot: 2}}, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("WriteCuesAt in another directory: expected ErrNotFound, got %v", err)
	}
}

func TestBackup_CustomDir(t *testing.T) {
	_, path := newTestStore(t)
	backupDir := filepath.Join(t.TempDir(), "backups")
	store := NewStore(path, &StoreConfig{
		BackupDir: backupDir,
		Now:       func() time.Time { return fixedNow },
	})

	got, err := store.Backup(context.Background())
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if filepath.Dir(got) != backupDir {
		t.Errorf("backup written to %s, want %s", filepath.Dir(got), backupDir)
	}
}

func TestPlaylistFiles(t *testing.T) {
	store, _ := newTestStore(t)

	files, err := store.PlaylistFiles("Warmup")
	if err != nil {
		t.Fatalf("PlaylistFiles failed: %v", err)
	}
	want := []string{"Dreams.m4a", "Track.m4a"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("PlaylistFiles = %v, want %v", files, want)
	}

	if _, err := store.PlaylistFiles("Peak Time"); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestFilenames(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Filenames("/:Deep House/:")
	if err != nil {
		t.Fatalf("Filenames failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Dreams.m4a"}) {
		t.Errorf("Filenames = %v", got)
	}

	all, _ := store.Filenames("")
	if len(all) != 4 {
		t.Errorf("got %d distinct filenames, want 4: %v", len(all), all)
	}
}

func TestStripUnboundCues(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	n, err := store.StripUnboundCues(ctx, "/:Deep House/:", true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if n != 1 {
		t.Errorf("dry run count = %d, want 1", n)
	}
	if got, _ := os.ReadFile(path); string(got) != fixtureNML {
		t.Fatal("dry run changed the collection")
	}

	n, err = store.StripUnboundCues(ctx, "/:Deep House/:", false)
	if err != nil {
		t.Fatalf("StripUnboundCues failed: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d, want 1", n)
	}

	entry, _ := store.FindEntryInDir("Dreams.m4a", "/:Deep House/:")
	if len(entry.Cues) != 3 {
		t.Errorf("got %d cues after strip, want 3 (grid, slot 1, slot 3)", len(entry.Cues))
	}

	other, _ := store.FindEntryInDir("Dreams.m4a", "/:Downloads/:")
	if len(other.Cues) != 1 {
		t.Error("cue outside the directory was removed")
	}
}

func strPtr(s string) *string { return &s }
