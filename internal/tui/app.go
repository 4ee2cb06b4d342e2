package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/picky/internal/albums"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/i18n"
	"github.com/mmcdole/picky/internal/loader"
	"github.com/mmcdole/picky/internal/session"
	"github.com/mmcdole/picky/internal/stats"
	"github.com/mmcdole/picky/internal/triage"
	"github.com/mmcdole/picky/internal/tui/components"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ApplicationState represents the current screen
type ApplicationState int

const (
	StatePermission ApplicationState = iota
	StateSwiping
	StateAlbums
	StateTrash
	StateFavorites
	StateStats
)

// statusDuration is how long transient status messages stay on screen
const statusDuration = 3 * time.Second

// Opener shows a local file in an external program
type Opener interface {
	Open(uri string, kind domain.MediaKind) error
}

// Services bundles the collaborators the UI drives
type Services struct {
	Source   domain.MediaSource
	Albums   *albums.Service
	Cursor   *loader.Cursor
	Sessions *session.Tracker
	Triage   *triage.Service
	Viewer   Opener
	Language language.Tag

	// Changes delivers a value whenever the library changes on disk (optional)
	Changes <-chan struct{}
}

// dragState tracks a mouse drag across the swipe card
type dragState struct {
	x, y  int
	start time.Time
}

// Model is the main application model
type Model struct {
	svc     Services
	printer *message.Printer
	now     func() time.Time

	// Application state
	State  ApplicationState
	Ready  bool
	Width  int
	Height int

	Permission domain.PermissionStatus

	// Swiping
	Selector      domain.AlbumSelector
	UndoAvailable bool
	Dispatching   bool
	Summary       string // Completion summary once the album is exhausted
	restoreTo     int    // Saved position still waiting for pages, -1 when none
	resetPending  bool   // A reset load was refused while another page was loading
	drag          *dragState

	// Albums
	AlbumList   []domain.Album
	AlbumCursor int

	// Trash and favorites
	Staged       []domain.StoredAsset
	StagedCursor int
	filter       components.FilterBar

	// Statistics
	Stats StatsLoadedMsg

	// Overlays
	ShowHelp     bool
	ConfirmEmpty bool

	// Status
	StatusMsg    string
	StatusIsErr  bool
	Loading      bool
	SpinnerFrame int
}

// NewModel creates a new application model
func NewModel(svc Services) Model {
	if svc.Language == language.Und {
		svc.Language = i18n.DefaultLanguage
	}
	return Model{
		svc:       svc,
		printer:   i18n.Printer(svc.Language),
		now:       time.Now,
		State:     StatePermission,
		Selector:  domain.SelectAll(),
		restoreTo: -1,
		filter:    components.NewFilterBar(),
		Loading:   true,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		CheckPermissionCmd(m.svc.Source),
		TickCmd(100*time.Millisecond),
		WaitForChangeCmd(m.svc.Changes),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case TickMsg:
		if m.Loading || m.Dispatching {
			m.SpinnerFrame++
		}
		return m, TickCmd(100 * time.Millisecond)

	case PermissionMsg:
		return m.handlePermission(msg)

	case PageLoadedMsg:
		return m.handlePageLoaded(msg)

	case SwipeResultMsg:
		return m.handleSwipeResult(msg)

	case UndoResultMsg:
		return m.handleUndoResult(msg)

	case AlbumsLoadedMsg:
		m.Loading = false
		m.AlbumList = msg.Albums
		m.AlbumCursor = 0
		return m, nil

	case StagedLoadedMsg:
		m.Loading = false
		m.Staged = msg.Entries
		m.clampStagedCursor()
		return m, nil

	case UnstagedMsg:
		cmd := m.setStatus(msg.Result.Message, !msg.Result.Success)
		return m, tea.Batch(cmd, LoadStagedCmd(m.svc.Triage, msg.Outcome))

	case TrashEmptiedMsg:
		m.ConfirmEmpty = false
		cmd := m.setStatus(msg.Result.Message, !msg.Result.Success)
		return m, tea.Batch(cmd, LoadStagedCmd(m.svc.Triage, domain.OutcomeTrash))

	case StatsLoadedMsg:
		m.Loading = false
		m.Stats = msg
		if msg.Err != nil {
			return m, m.setStatus(msg.Err.Error(), true)
		}
		return m, nil

	case ViewerOpenedMsg:
		if msg.Err != nil {
			return m, m.setStatus("Cannot open "+msg.Item.Filename+": "+msg.Err.Error(), true)
		}
		return m, m.setStatus("Opened "+msg.Item.Filename, false)

	case LibraryChangedMsg:
		m.svc.Albums.ClearCache()
		cmds := []tea.Cmd{WaitForChangeCmd(m.svc.Changes)}
		if m.State == StateAlbums {
			cmds = append(cmds, LoadAlbumsCmd(m.svc.Albums, false))
		}
		return m, tea.Batch(cmds...)

	case ErrMsg:
		m.Loading = false
		return m, m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return ClearStatusCmd(statusDuration)
}

func (m Model) handlePermission(msg PermissionMsg) (tea.Model, tea.Cmd) {
	m.Loading = false
	m.Permission = msg.Status
	if msg.Err != nil {
		m.State = StatePermission
		return m, m.setStatus(msg.Err.Error(), true)
	}
	if msg.Status != domain.PermissionGranted {
		m.State = StatePermission
		if msg.Status == domain.PermissionDenied {
			return m, m.setStatus(m.printer.Sprintf(i18n.MsgPermissionDenied), true)
		}
		return m, nil
	}

	m.State = StateSwiping
	return m, m.startAlbum(m.Selector)
}

// startAlbum begins a fresh pass over selector, resuming at the saved position
func (m *Model) startAlbum(selector domain.AlbumSelector) tea.Cmd {
	m.Selector = selector
	m.Summary = ""
	m.Loading = true
	m.restoreTo = -1
	m.resetPending = false
	if idx, ok := m.svc.Cursor.RestoreProgress(selector); ok && idx > 0 {
		m.restoreTo = idx
	}
	m.svc.Sessions.Start(selector.AlbumID)
	return LoadPageCmd(m.svc.Cursor, selector, true)
}

func (m Model) handlePageLoaded(msg PageLoadedMsg) (tea.Model, tea.Cmd) {
	cursor := m.svc.Cursor
	if msg.Reset && errors.Is(msg.Err, domain.ErrLoadInFlight) {
		// Another page is still arriving; restart once it lands
		m.resetPending = true
		return m, nil
	}
	if m.resetPending {
		m.resetPending = false
		return m, LoadPageCmd(cursor, m.Selector, true)
	}
	if msg.Selector.AlbumID != m.Selector.AlbumID {
		return m, nil
	}
	m.Loading = false

	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, domain.ErrExhausted), errors.Is(msg.Err, domain.ErrLoadInFlight):
			return m, nil
		case msg.Reset && !msg.Selector.IsAll():
			return m, m.setStatus(m.printer.Sprintf(i18n.MsgAlbumSwitchFailed), true)
		default:
			return m, m.setStatus(m.printer.Sprintf(i18n.MsgLoadFailed), true)
		}
	}

	if m.restoreTo >= 0 {
		if m.restoreTo >= cursor.Len() && cursor.HasMore() && msg.Added > 0 {
			m.Loading = true
			return m, LoadPageCmd(cursor, m.Selector, false)
		}
		cursor.JumpTo(m.restoreTo)
		m.restoreTo = -1
	}

	if cursor.Finished() {
		return m, m.complete()
	}
	return m, m.prefetch()
}

// prefetch loads the next page when the position nears the end of what is loaded
func (m *Model) prefetch() tea.Cmd {
	cursor := m.svc.Cursor
	if !cursor.NeedsMore(cursor.Position()) {
		return nil
	}
	m.Loading = true
	return LoadPageCmd(cursor, m.Selector, false)
}

// complete closes the session and shows the summary for the album
func (m *Model) complete() tea.Cmd {
	sess, _ := m.svc.Sessions.Finish()
	m.svc.Cursor.ClearProgress(m.Selector)
	st := sess.Stats
	m.Summary = m.printer.Sprintf(i18n.MsgCleanupComplete, st.Total, st.Deleted, st.Kept, st.Favorites)
	return nil
}

// swipe dispatches outcome for the current item
func (m Model) swipe(outcome domain.Outcome) (tea.Model, tea.Cmd) {
	if m.Dispatching {
		return m, nil
	}
	item, ok := m.svc.Cursor.Current()
	if !ok {
		return m, nil
	}
	m.Dispatching = true
	return m, SwipeCmd(m.svc.Triage, item, outcome)
}

func (m Model) handleSwipeResult(msg SwipeResultMsg) (tea.Model, tea.Cmd) {
	m.Dispatching = false
	res := msg.Result
	if !res.Success {
		return m, m.setStatus(res.Message, true)
	}

	m.UndoAvailable = res.UndoAvailable

	// The album may have been switched or refreshed while the action ran
	cursor := m.svc.Cursor
	if current, ok := cursor.Current(); !ok || current.ID != msg.Item.ID {
		return m, m.setStatus(res.Message, false)
	}

	sessionStats := m.svc.Sessions.Record(res.Outcome)
	cursor.Next()
	cursor.SaveProgress()

	status := res.Message
	if level := stats.Milestone(int64(sessionStats.Total)); level != stats.MilestoneNone {
		status = m.printer.Sprintf(i18n.MsgMilestone, sessionStats.Total)
	}
	cmds := []tea.Cmd{m.setStatus(status, false)}

	if cursor.Finished() {
		cmds = append(cmds, m.complete())
	} else {
		cmds = append(cmds, m.prefetch())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleUndoResult(msg UndoResultMsg) (tea.Model, tea.Cmd) {
	m.Dispatching = false
	res := msg.Result
	m.UndoAvailable = res.UndoAvailable
	if !res.Success {
		return m, m.setStatus(res.Message, true)
	}

	// Only step back when the undone item is the one just passed; the
	// ledger also holds decisions made in other albums.
	cursor := m.svc.Cursor
	if prev, ok := cursor.At(cursor.Position() - 1); ok && prev.ID == res.Undone.AssetID {
		m.svc.Sessions.Unrecord(res.Undone.Outcome)
		// Undoing the last decision of a finished album reopens it
		m.Summary = ""
		cursor.Previous()
		cursor.SaveProgress()
	}
	return m, m.setStatus(res.Message, false)
}

func (m *Model) clampStagedCursor() {
	n := len(m.visibleStaged())
	if m.StagedCursor >= n {
		m.StagedCursor = n - 1
	}
	if m.StagedCursor < 0 {
		m.StagedCursor = 0
	}
}

// visibleStaged returns the trash or favorites entries after filtering
func (m Model) visibleStaged() []domain.StoredAsset {
	return filterStaged(m.filter.Value(), m.Staged)
}

// albumChoices returns the selectable albums after filtering. The whole
// library heads the list while no filter is set.
func (m Model) albumChoices() []domain.Album {
	if m.filter.Value() != "" {
		return albums.Filter(m.filter.Value(), m.AlbumList)
	}
	all := domain.Album{ID: domain.AllMedia, Title: m.printer.Sprintf(i18n.MsgAllMedia)}
	return append([]domain.Album{all}, m.AlbumList...)
}

// stagedOutcome returns which collection the current list view shows
func (m Model) stagedOutcome() domain.Outcome {
	if m.State == StateFavorites {
		return domain.OutcomeFavorite
	}
	return domain.OutcomeTrash
}
