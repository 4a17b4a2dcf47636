// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/setlist/internal/logging"
)

var (
	// ErrPersistence is matched by every *Error returned from the store.
	ErrPersistence = errors.New("persistence failure")

	// ErrArtistNotFound is returned when an artist id does not exist.
	ErrArtistNotFound = errors.New("artist not found")

	// ErrTrackNotFound is returned when a track id does not exist.
	ErrTrackNotFound = errors.New("track not found")

	// ErrStubEdgeSource is returned when a similar-artist edge would
	// originate from an artist that has no tracks.
	ErrStubEdgeSource = errors.New("similar-artist edge source is not a primary artist")

	// ErrInvalidRecord is returned for library records that cannot be
	// stored (missing origin reference or title). It is not a persistence
	// failure; ingestion skips the record.
	ErrInvalidRecord = errors.New("invalid library record")
)

// Error is a store failure tagged with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("database: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports ErrPersistence for every store error.
func (e *Error) Is(target error) bool {
	return target == ErrPersistence
}

// wrapErr tags err with op. Already-tagged errors pass through so the
// innermost operation name is kept.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsPersistence reports whether err came from the store.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in error paths where the close error is
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update")
}
