package pack

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned for a missing path, block-state or model.
	ErrNotFound = errors.New("not found")
	// ErrParse marks malformed JSON. Callers treat it like ErrNotFound.
	ErrParse = errors.New("parse error")
	// ErrDepthExceeded is reported when a parent or texture chain is too
	// deep or cyclic.
	ErrDepthExceeded = errors.New("depth exceeded")
	// ErrInvariant is a bug, not a runtime condition.
	ErrInvariant = errors.New("invariant violation")
)

// ArchiveError is the only error that escapes to the host: the pack bytes
// could not be opened as an archive.
type ArchiveError struct {
	Name string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Name, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

func (e *ArchiveError) Cause() error { return e.Err }
