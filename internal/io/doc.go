// Package ioutils provides the file operations used when writing the
// collection back to disk.
//
// # File Operations
//
//	// Copy the collection to a backup path
//	err := ioutils.CopyFile(ctx, "/path/collection.nml", "/path/collection_backup.nml")
//
//	// Replace a file without leaving a half-written copy behind
//	err := ioutils.WriteFileAtomic(ctx, "/path/collection.nml", data)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/path/to/backups")
package ioutils
