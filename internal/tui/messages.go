package tui

import (
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/triage"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// PermissionMsg reports the media library access state
type PermissionMsg struct {
	Status domain.PermissionStatus
	Err    error
}

// PageLoadedMsg signals that a page of media was appended to the cursor
type PageLoadedMsg struct {
	Selector domain.AlbumSelector
	Added    int
	Reset    bool
	Err      error
}

// SwipeResultMsg carries the outcome of one dispatched decision
type SwipeResultMsg struct {
	Item   domain.MediaItem
	Result triage.Result
}

// UndoResultMsg carries the outcome of an undo
type UndoResultMsg struct {
	Result triage.UndoResult
}

// AlbumsLoadedMsg signals that albums have been enumerated
type AlbumsLoadedMsg struct {
	Albums []domain.Album
}

// StagedLoadedMsg carries the trash or favorites listing
type StagedLoadedMsg struct {
	Outcome domain.Outcome
	Entries []domain.StoredAsset
}

// UnstagedMsg reports a restore from trash or removal from favorites
type UnstagedMsg struct {
	Outcome domain.Outcome
	Result  triage.Result
}

// TrashEmptiedMsg reports the outcome of emptying the trash
type TrashEmptiedMsg struct {
	Result triage.Result
}

// StatsLoadedMsg carries cumulative and per-day statistics
type StatsLoadedMsg struct {
	Stats   domain.Statistics
	Today   domain.SessionStats
	Session domain.SessionStats
	Saved   string
	Err     error
}

// ViewerOpenedMsg reports whether the external viewer was launched
type ViewerOpenedMsg struct {
	Item domain.MediaItem
	Err  error
}

// LibraryChangedMsg signals that files under the library roots changed
type LibraryChangedMsg struct{}

// StatusMsg displays a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status message
type ClearStatusMsg struct{}

// TickMsg drives the loading spinner
type TickMsg struct{}
