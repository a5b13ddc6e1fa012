// Package catalog reads and writes a Traktor collection.nml file.
//
// The Store owns the parsed collection. It parses the file on first use,
// keeps the tree cached, and drops the cache after every write so the next
// read sees what is on disk (Traktor itself may rewrite the file between
// runs).
//
// # Lookups
//
// A track can appear more than once in a collection, typically because it
// was imported again or added to several playlists. Lookups resolve the
// duplicates to a single entry:
//
//  1. Entries with a beatgrid anchor (a CUE_V2 of TYPE 4) win over
//     entries without one, whatever their dates.
//  2. Among the remaining candidates the most recently modified entry wins
//     (MODIFIED_DATE, then MODIFIED_TIME, compared as numbers).
//  3. Ties go to the entry that appears first in the file.
//
// Example:
//
//	store := catalog.NewStore("/path/collection.nml", nil)
//	entry, err := store.FindEntry("Dreams.m4a")
//	if errors.Is(err, catalog.ErrNotFound) {
//	    fmt.Println("not in collection")
//	}
//
// # Writes
//
// WriteCues and WriteCuesAt never touch hotcue slot 1 and never write,
// move or remove the beatgrid anchor. Before the file is replaced, the
// current collection is copied to a timestamped backup:
//
//	collection_backup_20250601_142233.nml
//
// The new content is written to a temporary file and renamed over the
// collection, so an interrupted write leaves the original in place.
package catalog
