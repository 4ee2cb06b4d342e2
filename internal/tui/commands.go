package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/picky/internal/albums"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/loader"
	"github.com/mmcdole/picky/internal/session"
	"github.com/mmcdole/picky/internal/triage"
)

// Command factories for async operations

// CheckPermissionCmd reads the access state without prompting
func CheckPermissionCmd(src domain.MediaSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		status, err := src.PermissionStatus(ctx)
		return PermissionMsg{Status: status, Err: err}
	}
}

// RequestPermissionCmd asks the media source for access
func RequestPermissionCmd(src domain.MediaSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		status, err := src.RequestPermission(ctx)
		return PermissionMsg{Status: status, Err: err}
	}
}

// LoadPageCmd fetches the next page for selector into the cursor
func LoadPageCmd(cursor *loader.Cursor, selector domain.AlbumSelector, reset bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second) // 60s for large libraries
		defer cancel()

		added, err := cursor.Load(ctx, selector, reset)
		return PageLoadedMsg{Selector: selector, Added: added, Reset: reset, Err: err}
	}
}

// SwipeCmd commits one decision on item
func SwipeCmd(svc *triage.Service, item domain.MediaItem, outcome domain.Outcome) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return SwipeResultMsg{Item: item, Result: svc.Execute(ctx, item, outcome)}
	}
}

// UndoCmd reverses the most recent decision
func UndoCmd(svc *triage.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return UndoResultMsg{Result: svc.Undo(ctx)}
	}
}

// LoadAlbumsCmd lists albums in priority order
func LoadAlbumsCmd(svc *albums.Service, forceRefresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		list, err := svc.List(ctx, forceRefresh)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading albums"}
		}
		return AlbumsLoadedMsg{Albums: list}
	}
}

// LoadStagedCmd lists the trash or favorites collection
func LoadStagedCmd(svc *triage.Service, outcome domain.Outcome) tea.Cmd {
	return func() tea.Msg {
		var (
			entries []domain.StoredAsset
			err     error
		)
		switch outcome {
		case domain.OutcomeTrash:
			entries, err = svc.Trash()
		case domain.OutcomeFavorite:
			entries, err = svc.Favorites()
		default:
			err = fmt.Errorf("%w: %s", domain.ErrUnknownOutcome, outcome)
		}
		if err != nil {
			return ErrMsg{Err: err, Context: "loading " + outcome.String()}
		}
		return StagedLoadedMsg{Outcome: outcome, Entries: entries}
	}
}

// UnstageCmd restores an item from the trash or drops it from favorites
func UnstageCmd(svc *triage.Service, outcome domain.Outcome, id string) tea.Cmd {
	return func() tea.Msg {
		var res triage.Result
		if outcome == domain.OutcomeTrash {
			res = svc.RestoreFromTrash(id)
		} else {
			res = svc.RemoveFavorite(id)
		}
		return UnstagedMsg{Outcome: outcome, Result: res}
	}
}

// EmptyTrashCmd clears the trash
func EmptyTrashCmd(svc *triage.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		return TrashEmptiedMsg{Result: svc.EmptyTrash(ctx)}
	}
}

// LoadStatsCmd gathers cumulative, daily and session statistics
func LoadStatsCmd(svc *triage.Service, sessions *session.Tracker) tea.Cmd {
	return func() tea.Msg {
		st, err := svc.Statistics()
		_, saved := svc.StorageSaved()
		return StatsLoadedMsg{
			Stats:   st,
			Today:   svc.SessionStats(),
			Session: sessions.Stats(),
			Saved:   saved,
			Err:     err,
		}
	}
}

// OpenViewerCmd resolves item to a local file and opens it externally
func OpenViewerCmd(src domain.MediaSource, opener Opener, item domain.MediaItem) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		uri, err := src.ResolveLocalURI(ctx, item.ID)
		if err == nil {
			err = opener.Open(uri, item.Kind)
		}
		return ViewerOpenedMsg{Item: item, Err: err}
	}
}

// WaitForChangeCmd blocks until the library watcher reports a change
func WaitForChangeCmd(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return LibraryChangedMsg{}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
