package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrPermissionDenied indicates the media library cannot be accessed
	ErrPermissionDenied = errors.New("media library access denied")

	// ErrMediaFetch indicates a page of media could not be loaded
	ErrMediaFetch = errors.New("failed to load media")

	// ErrActionFailed indicates a swipe decision could not be committed
	ErrActionFailed = errors.New("failed to execute action")

	// ErrNothingToUndo indicates the ledger has no undoable entry
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrPersistence indicates the local store failed to read or write a record
	ErrPersistence = errors.New("persistence failure")

	// ErrLoadInFlight indicates a page load is already running
	ErrLoadInFlight = errors.New("load already in progress")

	// ErrExhausted indicates the pagination cursor has no further pages
	ErrExhausted = errors.New("no more media to load")

	// ErrUnknownOutcome indicates an outcome tag outside keep/trash/favorites
	ErrUnknownOutcome = errors.New("unknown outcome")

	// ErrNotFound indicates the requested item or album does not exist
	ErrNotFound = errors.New("not found")
)
