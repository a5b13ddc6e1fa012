// Package session runs cue placement over one or more tracks of a
// collection.
//
// # Manager
//
// The Manager coordinates the whole process:
//
//  1. Resolve the tracks to process (files, a playlist or a directory)
//  2. Look each track up in the collection
//  3. Analyze the audio files concurrently (optional)
//  4. Calculate cue positions
//  5. Write them to the collection, one track at a time
//
// # Basic Usage
//
//	manager := session.NewManager(settings, func(event session.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	defer manager.Close()
//
//	files, err := manager.Resolve(session.Source{Playlist: "Warmup"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outcomes, err := manager.Process(ctx, files, false)
//	if err != nil {
//	    log.Fatal(err) // the collection could not be read or written
//	}
//
// # Concurrency
//
// Audio analysis runs in parallel, limited by
// settings.MaxConcurrentAnalysis. Calculation and writes are sequential:
// the collection has a single writer.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// # Outcomes
//
// Every track yields an Outcome. Tracks that are not in the collection or
// lack a beatgrid fail individually; only an unreadable or unwritable
// collection stops the session.
package session
