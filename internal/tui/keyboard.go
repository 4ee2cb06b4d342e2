package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/triage"
)

// Approximate pixel size of a terminal cell, used to turn mouse drags into
// gestures measured the same way as on a touch screen.
const (
	cellWidth  = 8
	cellHeight = 16
)

// handleKeyMsg routes key presses to the active overlay or screen
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Filter input takes all keystrokes while active
	if m.filter.IsActive() {
		var (
			cmd     tea.Cmd
			changed bool
		)
		m.filter, cmd, changed = m.filter.Update(msg)
		if changed {
			m.AlbumCursor = 0
			m.StagedCursor = 0
		}
		return m, cmd
	}

	if m.ConfirmEmpty {
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.ConfirmEmpty = false
			m.Loading = true
			return m, EmptyTrashCmd(m.svc.Triage)
		case key.Matches(msg, Keys.Deny):
			m.ConfirmEmpty = false
		}
		return m, nil
	}

	if m.ShowHelp {
		if key.Matches(msg, Keys.Help, Keys.Escape, Keys.Quit) {
			m.ShowHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		if m.State == StateSwiping {
			m.svc.Cursor.SaveProgress()
		}
		return m, tea.Quit
	case key.Matches(msg, Keys.Help):
		m.ShowHelp = true
		return m, nil
	}

	if m.State == StatePermission {
		if key.Matches(msg, Keys.Grant) {
			m.Loading = true
			return m, RequestPermissionCmd(m.svc.Source)
		}
		return m, nil
	}

	if next, cmd, ok := m.switchView(msg); ok {
		return next, cmd
	}

	switch m.State {
	case StateSwiping:
		return m.handleSwipeKeys(msg)
	case StateAlbums:
		return m.handleAlbumKeys(msg)
	case StateTrash, StateFavorites:
		return m.handleStagedKeys(msg)
	case StateStats:
		if key.Matches(msg, Keys.Refresh) {
			return m, LoadStatsCmd(m.svc.Triage, m.svc.Sessions)
		}
	}
	return m, nil
}

// switchView handles the keys that move between screens
func (m Model) switchView(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	var target ApplicationState
	switch {
	case key.Matches(msg, Keys.Albums):
		target = StateAlbums
	case key.Matches(msg, Keys.TrashView):
		target = StateTrash
	case key.Matches(msg, Keys.Favorites):
		target = StateFavorites
	case key.Matches(msg, Keys.Stats):
		target = StateStats
	case key.Matches(msg, Keys.Escape) && m.State != StateSwiping:
		target = StateSwiping
	default:
		return m, nil, false
	}

	// Pressing the key of the open screen toggles back to the card
	if target == m.State {
		target = StateSwiping
	}
	m.filter.Reset()
	m.State = target

	switch target {
	case StateAlbums:
		m.Loading = true
		return m, LoadAlbumsCmd(m.svc.Albums, false), true
	case StateTrash, StateFavorites:
		m.Loading = true
		m.StagedCursor = 0
		return m, LoadStagedCmd(m.svc.Triage, m.stagedOutcome()), true
	case StateStats:
		m.Loading = true
		return m, LoadStatsCmd(m.svc.Triage, m.svc.Sessions), true
	}
	return m, nil, true
}

func (m Model) handleSwipeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Trash):
		return m.swipe(domain.OutcomeTrash)
	case key.Matches(msg, Keys.Keep):
		return m.swipe(domain.OutcomeKeep)
	case key.Matches(msg, Keys.Favorite):
		return m.swipe(domain.OutcomeFavorite)
	case key.Matches(msg, Keys.Undo):
		if m.Dispatching {
			return m, nil
		}
		m.Dispatching = true
		return m, UndoCmd(m.svc.Triage)
	case key.Matches(msg, Keys.Open):
		item, ok := m.svc.Cursor.Current()
		if !ok || m.svc.Viewer == nil {
			return m, nil
		}
		return m, OpenViewerCmd(m.svc.Source, m.svc.Viewer, item)
	case key.Matches(msg, Keys.Refresh):
		m.svc.Cursor.SaveProgress()
		m.svc.Albums.ClearCache()
		return m, m.startAlbum(m.Selector)
	}
	return m, nil
}

func (m Model) handleAlbumKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.albumChoices()
	switch {
	case key.Matches(msg, Keys.Up):
		if m.AlbumCursor > 0 {
			m.AlbumCursor--
		}
	case key.Matches(msg, Keys.Down):
		if m.AlbumCursor < len(list)-1 {
			m.AlbumCursor++
		}
	case key.Matches(msg, Keys.Filter):
		return m, m.filter.Focus()
	case key.Matches(msg, Keys.Refresh):
		m.Loading = true
		return m, LoadAlbumsCmd(m.svc.Albums, true)
	case key.Matches(msg, Keys.Enter):
		if m.AlbumCursor >= len(list) {
			return m, nil
		}
		chosen := list[m.AlbumCursor]
		selector := domain.SelectAlbum(chosen)
		if chosen.ID == domain.AllMedia {
			selector = domain.SelectAll()
		}
		m.svc.Cursor.SaveProgress()
		m.filter.Reset()
		m.State = StateSwiping
		return m, m.startAlbum(selector)
	}
	return m, nil
}

func (m Model) handleStagedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.visibleStaged()
	switch {
	case key.Matches(msg, Keys.Up):
		if m.StagedCursor > 0 {
			m.StagedCursor--
		}
	case key.Matches(msg, Keys.Down):
		if m.StagedCursor < len(list)-1 {
			m.StagedCursor++
		}
	case key.Matches(msg, Keys.Filter):
		return m, m.filter.Focus()
	case key.Matches(msg, Keys.Refresh):
		return m, LoadStagedCmd(m.svc.Triage, m.stagedOutcome())
	case key.Matches(msg, Keys.Remove):
		if m.StagedCursor >= len(list) {
			return m, nil
		}
		return m, UnstageCmd(m.svc.Triage, m.stagedOutcome(), list[m.StagedCursor].ID)
	case key.Matches(msg, Keys.Empty):
		if m.State == StateTrash && len(m.Staged) > 0 {
			m.ConfirmEmpty = true
		}
	}
	return m, nil
}

// handleMouseMsg turns a left-button drag on the card into a swipe
func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.State != StateSwiping || m.ShowHelp || m.ConfirmEmpty {
		m.drag = nil
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.drag = &dragState{x: msg.X, y: msg.Y, start: m.now()}
		}
	case tea.MouseActionRelease:
		if m.drag == nil {
			return m, nil
		}
		g := dragGesture(*m.drag, msg.X, msg.Y, m.now())
		m.drag = nil
		if outcome, ok := triage.ClassifyGesture(g, float64(m.Width*cellWidth)); ok {
			return m.swipe(outcome)
		}
	}
	return m, nil
}

// dragGesture converts a drag from d to (x, y) released at end into pixels
func dragGesture(d dragState, x, y int, end time.Time) triage.Gesture {
	g := triage.Gesture{
		DX: float64((x - d.x) * cellWidth),
		DY: float64((y - d.y) * cellHeight),
	}
	if secs := end.Sub(d.start).Seconds(); secs > 0 {
		g.VX = g.DX / secs
		g.VY = g.DY / secs
	}
	return g
}
