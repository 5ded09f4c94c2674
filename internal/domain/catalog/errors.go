package catalog

import (
	"errors"
	"fmt"
)

// Identifier errors. These fail fast: a degenerate identifier is never produced.
var (
	ErrInvalidIdentifierInput = errors.New("invalid identifier input")
	ErrInvalidRID             = errors.New("invalid rid format")
)

// SourceNotFoundError indicates a lookup for a source that does not exist.
type SourceNotFoundError struct {
	RID  RID
	Type SourceType
}

func (e *SourceNotFoundError) Error() string {
	if e.RID != "" {
		return fmt.Sprintf("source %s not found", e.RID)
	}
	return fmt.Sprintf("no source of type %s", e.Type)
}

// ContentNotFoundError indicates a lookup for a content item that does not exist.
type ContentNotFoundError struct {
	RID RID
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("content item %s not found", e.RID)
}

// RegistryUnavailableError indicates the underlying store failed to open or
// initialize. Fatal to the calling operation; never retried internally.
type RegistryUnavailableError struct {
	Path string
	Err  error
}

func (e *RegistryUnavailableError) Error() string {
	return fmt.Sprintf("registry store unavailable at %s: %v", e.Path, e.Err)
}

func (e *RegistryUnavailableError) Unwrap() error {
	return e.Err
}

// ExportError indicates an I/O failure while writing a manifest or query
// projection. Fatal to that export call; the catalog itself is unchanged.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ItemTrackingError is a per-item failure during batch ingestion. These are
// isolated and aggregated into the batch summary, never raised past the batch.
type ItemTrackingError struct {
	OriginalID string
	Err        error
}

func (e *ItemTrackingError) Error() string {
	return fmt.Sprintf("tracking item %q failed: %v", e.OriginalID, e.Err)
}

func (e *ItemTrackingError) Unwrap() error {
	return e.Err
}
