package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no entry in the collection has the
// requested filename.
var ErrNotFound = errors.New("track not found in collection")

// ErrStorageUnavailable is returned when the collection file cannot be read
// or parsed. Nothing can be done with the store until the file is fixed.
var ErrStorageUnavailable = errors.New("collection unavailable")

// ErrPlaylistNotFound is returned when no playlist has the requested name.
var ErrPlaylistNotFound = errors.New("playlist not found")

// NotFoundError reports the filename that could not be resolved.
type NotFoundError struct {
	Filename string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("track not found in collection: %q", e.Filename)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageUnavailableError wraps the underlying read or parse failure.
type StorageUnavailableError struct {
	Path string
	Err  error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("collection unavailable: %s: %v", e.Path, e.Err)
}

// Is makes errors.Is(err, ErrStorageUnavailable) match.
func (e *StorageUnavailableError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}
