package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/handiism/traktor-cues/internal/audio"
	"github.com/handiism/traktor-cues/internal/catalog"
	"github.com/handiism/traktor-cues/internal/config"
	"github.com/handiism/traktor-cues/internal/model"
	"github.com/handiism/traktor-cues/internal/session"
)

func main() {
	// Command line flags
	var (
		nmlFlag        = flag.String("nml", "", "Path to collection.nml (overrides config)")
		configFlag     = flag.String("config", config.DefaultPath(), "Path to config file")
		filesFlag      = flag.String("file", "", "Track filename(s) to process (comma-separated)")
		playlistFlag   = flag.String("playlist", "", "Process every track of a playlist")
		dirFlag        = flag.String("dir", "", "Process tracks whose directory contains this text (Traktor notation)")
		overwriteFlag  = flag.Bool("overwrite", false, "Replace cues in occupied slots 2-8")
		analyzeFlag    = flag.Bool("analyze", false, "Analyze audio files for breakdown detection and BPM check")
		dryRunFlag     = flag.Bool("dry-run", false, "Compute cue positions without writing")
		verboseFlag    = flag.Bool("verbose", false, "Show verbose output")
		infoFlag       = flag.String("info", "", "Show collection data for a track and exit")
		stripFlag      = flag.Bool("strip", false, "Remove unbound cues from tracks matching -dir")
		transitionFlag = flag.String("transition", "", "Suggest a transition between two tracks: OUT,IN")
		backupFlag     = flag.Bool("backup", false, "Back up the collection and exit")
		saveConfigFlag = flag.Bool("save-config", false, "Write the effective settings to the config file and exit")
	)

	flag.Parse()

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *nmlFlag != "" {
		settings.NMLPath = *nmlFlag
	}
	if *overwriteFlag {
		settings.Overwrite = true
	}
	if *analyzeFlag {
		settings.AnalyzeAudio = true
	}

	if *saveConfigFlag {
		if err := settings.Save(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Settings written to %s\n", *configFlag)
		return
	}

	files := splitList(*filesFlag)
	files = append(files, flag.Args()...)

	noWork := len(files) == 0 && *playlistFlag == "" && *dirFlag == "" &&
		*infoFlag == "" && *transitionFlag == "" && !*backupFlag
	if noWork {
		fmt.Println("Traktor Cues - Place Beat, Breakdown, Groove and End hotcues")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  traktor-cues -file <name.mp3>[,<name2.m4a>] [options]")
		fmt.Println("  traktor-cues -playlist <name> [options]")
		fmt.Println("  traktor-cues -dir <text> [-strip] [options]")
		fmt.Println("  traktor-cues -info <name.mp3>")
		fmt.Println("  traktor-cues -transition <out.mp3>,<in.mp3>")
		fmt.Println()
		fmt.Println("For interactive mode, use: traktor-cues-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	// Create manager with progress callback
	manager := session.NewManager(settings, func(event session.ProgressEvent) {
		if event.Level == session.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := ""
		switch event.Level {
		case session.LevelError:
			prefix = "❌ "
		case session.LevelWarning:
			prefix = "⚠️  "
		case session.LevelSuccess:
			prefix = "✅ "
		case session.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	})
	defer manager.Close()

	fmt.Println("🎛  Traktor Cues")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Collection: %s\n\n", settings.NMLPath)

	switch {
	case *backupFlag:
		path, err := manager.Store().Backup(ctx)
		exitOnError("Error creating backup", err)
		fmt.Printf("✅ Backup written to %s\n", path)
		return

	case *infoFlag != "":
		exitOnError("Error", printInfo(manager.Store(), *infoFlag, *dirFlag))
		return

	case *transitionFlag != "":
		pair := splitList(*transitionFlag)
		if len(pair) != 2 {
			fmt.Fprintln(os.Stderr, "Error: -transition needs two filenames: OUT,IN")
			os.Exit(1)
		}
		tr, err := manager.Transition(pair[0], pair[1])
		exitOnError("Error", err)
		fmt.Printf("%s → %s\n", pair[0], pair[1])
		fmt.Printf("  BPM:      %s (ratio %.3f)\n", tr.Relation, tr.Ratio)
		fmt.Printf("  Key:      %s\n", tr.KeyDescription)
		if tr.HasTiming {
			fmt.Printf("  Blend:    %d bars (%.1fs), start at %s\n", tr.BlendBars, tr.BlendMs/1000, model.FormatMs(tr.MixOutMs))
		}
		if tr.LoudnessGap != nil {
			fmt.Printf("  Loudness: %.1f dB apart\n", *tr.LoudnessGap)
		}
		for _, note := range tr.Notes {
			fmt.Printf("  • %s\n", note)
		}
		return

	case *stripFlag:
		if *dirFlag == "" {
			fmt.Fprintln(os.Stderr, "Error: -strip needs -dir")
			os.Exit(1)
		}
		_, err := manager.Strip(ctx, *dirFlag, *dryRunFlag)
		exitOnError("Error removing cues", err)
		return
	}

	if settings.AnalyzeAudio {
		if err := manager.EnableCache(settings.AnalysisCachePath); err != nil {
			fmt.Printf("⚠️  Analysis cache unavailable: %v\n", err)
		}
	}

	files, err = manager.Resolve(session.Source{Files: files, Playlist: *playlistFlag, Dir: *dirFlag})
	exitOnError("Error", err)
	if len(files) == 0 {
		fmt.Println("No tracks to process.")
		return
	}

	if *dryRunFlag {
		fmt.Println("[Dry run - not writing]")
	}
	fmt.Println()

	outcomes, err := manager.ProcessIn(ctx, files, *dirFlag, *dryRunFlag)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nCancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	for _, out := range outcomes {
		printOutcome(out, *dryRunFlag)
	}

	written, skipped, failed := manager.Summary()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if *dryRunFlag {
		fmt.Printf("✨ Dry run complete: %d tracks, %d skipped cues, %d failed\n", len(outcomes), skipped, failed)
	} else {
		fmt.Printf("✨ Complete! Wrote %d cues over %d tracks (%d skipped, %d failed)\n", written, len(outcomes), skipped, failed)
	}
	if failed > 0 {
		os.Exit(2)
	}
}

func printOutcome(out *session.Outcome, dryRun bool) {
	fmt.Printf("♪ %s\n", out.Filename)
	if out.Failed() {
		fmt.Printf("  ✗ %s\n\n", out.Reason())
		return
	}

	specs := out.Planned
	if !dryRun && out.Result != nil {
		specs = out.Result.Written
	}
	for _, spec := range specs {
		fmt.Printf("  %s\n", spec)
	}
	if out.Result != nil {
		for _, s := range out.Result.Skipped {
			fmt.Printf("  - %s\n", s)
		}
	}
	for _, f := range out.Positions.Flags {
		fmt.Printf("  ! %s\n", f.Message)
	}
	fmt.Printf("  (%s)\n\n", out.Positions.Provenance)
}

func printInfo(store *catalog.Store, filename, dir string) error {
	entry, err := store.FindEntryInDir(filename, dir)
	if err != nil {
		return err
	}

	fmt.Printf("♪ %s\n", entry.Filename)
	fmt.Printf("  Title:     %s\n", entry.Title)
	fmt.Printf("  Artist:    %s\n", entry.Artist)
	fmt.Printf("  Location:  %s\n", entry.AudioPath())
	fmt.Printf("  BPM:       %s\n", optional(entry.BPM, "%.2f"))
	fmt.Printf("  Key:       %s (%s)\n", entry.Key, model.KeyName(entry.Key))
	if entry.DurationMs != nil {
		fmt.Printf("  Duration:  %s\n", model.FormatMs(*entry.DurationMs))
	} else {
		fmt.Printf("  Duration:  -\n")
	}
	if entry.AnchorMs != nil {
		fmt.Printf("  Grid:      %s\n", model.FormatMs(*entry.AnchorMs))
	} else {
		fmt.Printf("  Grid:      none\n")
	}
	fmt.Printf("  Loudness:  peak %s, perceived %s, analyzed %s dB\n",
		optional(entry.PeakDB, "%.1f"), optional(entry.PerceivedDB, "%.1f"), optional(entry.AnalyzedDB, "%.1f"))
	fmt.Printf("  Modified:  %s %s\n", entry.ModifiedDate, entry.ModifiedTime)

	fmt.Println("  Cues:")
	for _, c := range entry.Cues {
		slot := "-"
		if c.Slot > 0 {
			slot = fmt.Sprintf("%d", c.Slot)
		}
		line := fmt.Sprintf("    [%s] %-10s %-8s %s", slot, c.Name, c.Type, model.FormatMs(c.StartMs))
		if c.IsLoop() {
			line += fmt.Sprintf(" [loop %.1fs]", c.LengthMs/1000)
		}
		fmt.Println(line)
	}

	// Tags from the file itself, when it can be read.
	if path := entry.AudioPath(); path != "" {
		tags, err := audio.ReadTags(path)
		switch {
		case err == nil:
			fmt.Printf("  File tags: %s - %s, BPM %.1f, key %s\n", tags.Artist, tags.Title, tags.BPM, tags.Key)
		case !errors.Is(err, os.ErrNotExist):
			fmt.Printf("  File tags: unavailable (%v)\n", err)
		}
	}
	return nil
}

func optional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func exitOnError(msg string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
