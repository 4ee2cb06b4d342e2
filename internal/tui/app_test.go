package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/picky/internal/albums"
	"github.com/mmcdole/picky/internal/collection"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/ledger"
	"github.com/mmcdole/picky/internal/loader"
	"github.com/mmcdole/picky/internal/log"
	"github.com/mmcdole/picky/internal/mediasource/mediatest"
	"github.com/mmcdole/picky/internal/session"
	"github.com/mmcdole/picky/internal/stats"
	"github.com/mmcdole/picky/internal/store"
	"github.com/mmcdole/picky/internal/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type recordingOpener struct {
	uris []string
	err  error
}

func (r *recordingOpener) Open(uri string, kind domain.MediaKind) error {
	r.uris = append(r.uris, uri)
	return r.err
}

type harness struct {
	src    *mediatest.Source
	svc    Services
	opener *recordingOpener
	trash  *collection.Trash
}

func newHarness(t *testing.T, src *mediatest.Source, opts loader.Options) *harness {
	t.Helper()
	now := func() time.Time { return testNow }
	logger := log.NullLogger()
	kv := store.NewMemory()
	trash := collection.NewTrash(kv)
	favorites := collection.NewFavorites(kv)
	opener := &recordingOpener{}

	svc := Services{
		Source:   src,
		Albums:   albums.NewService(src, albums.DefaultTTL, now, logger),
		Cursor:   loader.New(src, kv, opts, logger),
		Sessions: session.NewTracker(kv, now, logger),
		Triage: triage.NewService(src, trash, favorites,
			ledger.New(kv, ledger.WithClock(now)),
			stats.NewAggregator(kv, now),
			triage.Options{Language: language.Italian, Now: now},
			logger),
		Viewer:   opener,
		Language: language.Italian,
	}
	return &harness{src: src, svc: svc, opener: opener, trash: trash}
}

// send feeds msg to the model and returns the updated model and command
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// exec runs a single (non-batched, non-timer) command and feeds its message back
func exec(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	return send(t, m, cmd())
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// started returns a model past the permission check with the first page loaded
func (h *harness) started(t *testing.T) Model {
	t.Helper()
	m := NewModel(h.svc)
	m.now = func() time.Time { return testNow }
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, cmd := send(t, m, PermissionMsg{Status: domain.PermissionGranted})
	require.Equal(t, StateSwiping, m.State)
	m, _ = exec(t, m, cmd)
	return m
}

func (h *harness) swipe(t *testing.T, m Model, k string) Model {
	t.Helper()
	m, cmd := send(t, m, keyPress(k))
	require.True(t, m.Dispatching)
	m, _ = exec(t, m, cmd)
	require.False(t, m.Dispatching)
	return m
}

func currentID(m Model) string {
	item, _ := m.svc.Cursor.Current()
	return item.ID
}

func TestModel_PermissionFlow(t *testing.T) {
	t.Run("undetermined waits for grant", func(t *testing.T) {
		src := mediatest.New(3)
		src.Permission = domain.PermissionUndetermined
		h := newHarness(t, src, loader.DefaultOptions())

		m := NewModel(h.svc)
		m, _ = exec(t, m, CheckPermissionCmd(src))
		assert.Equal(t, StatePermission, m.State)
		assert.Equal(t, domain.PermissionUndetermined, m.Permission)

		m, cmd := send(t, m, keyPress("g"))
		src.Permission = domain.PermissionGranted
		m, cmd = exec(t, m, cmd)
		assert.Equal(t, 1, src.PermAsked)
		assert.Equal(t, StateSwiping, m.State)

		m, _ = exec(t, m, cmd)
		assert.Equal(t, "item-0", currentID(m))
	})

	t.Run("denied shows localized error", func(t *testing.T) {
		src := mediatest.New(0)
		src.Permission = domain.PermissionDenied
		h := newHarness(t, src, loader.DefaultOptions())

		m, _ := exec(t, NewModel(h.svc), CheckPermissionCmd(src))
		assert.Equal(t, StatePermission, m.State)
		assert.True(t, m.StatusIsErr)
		assert.Equal(t, "Accesso alla libreria negato", m.StatusMsg)
	})
}

func TestModel_SwipeAndUndo(t *testing.T) {
	h := newHarness(t, mediatest.New(10), loader.DefaultOptions())
	m := h.started(t)
	require.Equal(t, "item-0", currentID(m))

	m = h.swipe(t, m, "l")
	assert.Equal(t, "item-1", currentID(m))
	assert.Equal(t, "Foto mantenuta", m.StatusMsg)
	assert.True(t, m.UndoAvailable)
	assert.Equal(t, 1, h.svc.Sessions.Stats().Kept)

	m = h.swipe(t, m, "h")
	assert.Equal(t, "item-2", currentID(m))
	n, err := h.trash.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m = h.swipe(t, m, "u")
	assert.Equal(t, "item-1", currentID(m))
	assert.Equal(t, "Azione annullata", m.StatusMsg)
	n, err = h.trash.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	st := h.svc.Sessions.Stats()
	assert.Equal(t, 1, st.Total)
	assert.Zero(t, st.Deleted)

	// Only one step of undo is available
	m = h.swipe(t, m, "u")
	assert.Equal(t, "Nessuna azione da annullare", m.StatusMsg)
	assert.True(t, m.StatusIsErr)
	assert.Equal(t, "item-1", currentID(m))
}

func TestModel_IgnoresSwipesWhileDispatching(t *testing.T) {
	h := newHarness(t, mediatest.New(3), loader.DefaultOptions())
	m := h.started(t)

	m, cmd := send(t, m, keyPress("l"))
	require.NotNil(t, cmd)
	m, second := send(t, m, keyPress("h"))
	assert.Nil(t, second)
	assert.True(t, m.Dispatching)
}

func TestModel_MilestoneStatus(t *testing.T) {
	h := newHarness(t, mediatest.New(30), loader.DefaultOptions())
	m := h.started(t)

	for i := 0; i < 10; i++ {
		m = h.swipe(t, m, "l")
	}
	assert.Equal(t, "10 processati!", m.StatusMsg)
}

func TestModel_CompletionSummary(t *testing.T) {
	h := newHarness(t, mediatest.New(2), loader.DefaultOptions())
	m := h.started(t)

	m = h.swipe(t, m, "h")
	m = h.swipe(t, m, "k")
	assert.Equal(t, "Pulizia completata! 2 processati: 1 eliminati, 0 mantenuti, 1 preferiti", m.Summary)
	assert.Contains(t, m.View(), "Pulizia completata!")

	sess, ok := h.svc.Sessions.Current()
	require.True(t, ok)
	assert.NotZero(t, sess.EndTime)

	// Undo reopens the album on the last item
	m = h.swipe(t, m, "u")
	assert.Empty(t, m.Summary)
	assert.Equal(t, "item-1", currentID(m))
}

func TestModel_PrefetchesNearEnd(t *testing.T) {
	opts := loader.DefaultOptions()
	opts.PageSize = 4
	opts.PrefetchThreshold = 2
	h := newHarness(t, mediatest.New(12), opts)
	m := h.started(t)
	require.Equal(t, 4, h.svc.Cursor.Len())

	m = h.swipe(t, m, "l")
	assert.False(t, m.Loading)

	m, cmd := send(t, m, keyPress("l"))
	m, next := exec(t, m, cmd)
	// Position 2 of 4 is within the threshold; the batch carries the load
	assert.True(t, m.Loading)
	require.NotNil(t, next)

	m, _ = exec(t, m, LoadPageCmd(h.svc.Cursor, m.Selector, false))
	assert.Equal(t, 8, h.svc.Cursor.Len())
	assert.False(t, m.Loading)
}

func TestModel_ResumesSavedPosition(t *testing.T) {
	opts := loader.DefaultOptions()
	opts.PageSize = 3
	h := newHarness(t, mediatest.New(10), opts)

	t.Run("within the first page", func(t *testing.T) {
		m := h.started(t)
		m = h.swipe(t, m, "l")
		m = h.swipe(t, m, "l")
		require.Equal(t, "item-2", currentID(m))

		next := h.started(t)
		assert.Equal(t, "item-2", currentID(next))
	})

	t.Run("beyond the first page", func(t *testing.T) {
		cursor := h.svc.Cursor
		_, err := cursor.Load(t.Context(), domain.SelectAll(), true)
		require.NoError(t, err)
		_, err = cursor.Load(t.Context(), domain.SelectAll(), false)
		require.NoError(t, err)
		cursor.JumpTo(5)
		cursor.SaveProgress()

		m := NewModel(h.svc)
		m, cmd := send(t, m, PermissionMsg{Status: domain.PermissionGranted})
		m, cmd = exec(t, m, cmd)
		// The saved index is past the first page, so another page is requested
		assert.True(t, m.Loading)
		m, _ = exec(t, m, cmd)
		assert.Equal(t, "item-5", currentID(m))
	})
}

func TestModel_AlbumPicker(t *testing.T) {
	src := mediatest.New(0)
	src.Albums = []domain.Album{
		{ID: "trip", Title: "Trip 2023", AssetCount: 2},
		{ID: "shots", Title: "Screenshots", AssetCount: 1},
	}
	trip1 := mediatest.Item("trip-1", 10)
	trip1.AlbumID = "trip"
	trip2 := mediatest.Item("trip-2", 10)
	trip2.AlbumID = "trip"
	shot := mediatest.Item("shot-1", 10)
	shot.AlbumID = "shots"
	src.Items = []domain.MediaItem{shot, trip1, trip2}

	h := newHarness(t, src, loader.DefaultOptions())
	m := h.started(t)
	require.Equal(t, "shot-1", currentID(m))

	m, cmd := send(t, m, keyPress("a"))
	assert.Equal(t, StateAlbums, m.State)
	m, _ = exec(t, m, cmd)

	choices := m.albumChoices()
	require.Len(t, choices, 3)
	assert.Equal(t, "Tutte le foto", choices[0].Title)
	assert.Equal(t, "Screenshots", choices[1].Title)
	assert.Equal(t, "Trip 2023", choices[2].Title)

	// Filter narrows the list, then enter picks the match
	m, _ = send(t, m, keyPress("/"))
	for _, r := range "trip" {
		m, _ = send(t, m, keyPress(string(r)))
	}
	m, _ = send(t, m, keyPress("enter"))
	require.Len(t, m.albumChoices(), 1)

	m, cmd = send(t, m, keyPress("enter"))
	assert.Equal(t, StateSwiping, m.State)
	assert.Equal(t, "trip", m.Selector.AlbumID)
	assert.Empty(t, m.filter.Value())

	m, _ = exec(t, m, cmd)
	assert.Equal(t, "trip-1", currentID(m))
	assert.Equal(t, 2, h.svc.Cursor.TotalCount())
}

// albumLibrary holds one screenshot followed by two trip photos
func albumLibrary() *mediatest.Source {
	src := mediatest.New(0)
	src.Albums = []domain.Album{
		{ID: "trip", Title: "Trip 2023", AssetCount: 2},
		{ID: "shots", Title: "Screenshots", AssetCount: 1},
	}
	shot := mediatest.Item("shot-1", 10)
	shot.AlbumID = "shots"
	trip1 := mediatest.Item("trip-1", 10)
	trip1.AlbumID = "trip"
	trip2 := mediatest.Item("trip-2", 10)
	trip2.AlbumID = "trip"
	src.Items = []domain.MediaItem{shot, trip1, trip2}
	return src
}

// openTrip switches the model to the "Trip 2023" album
func openTrip(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := send(t, m, keyPress("a"))
	m, _ = exec(t, m, cmd)
	m, _ = send(t, m, keyPress("down"))
	m, _ = send(t, m, keyPress("down"))
	m, cmd = send(t, m, keyPress("enter"))
	require.Equal(t, "trip", m.Selector.AlbumID)
	m, _ = exec(t, m, cmd)
	require.Equal(t, "trip-1", currentID(m))
	return m
}

func TestModel_ResultsAfterAlbumSwitch(t *testing.T) {
	t.Run("late swipe result keeps the new album in place", func(t *testing.T) {
		h := newHarness(t, albumLibrary(), loader.DefaultOptions())
		m := h.started(t)
		require.Equal(t, "shot-1", currentID(m))

		m, swipeCmd := send(t, m, keyPress("l"))
		require.True(t, m.Dispatching)
		m = openTrip(t, m)

		m, _ = exec(t, m, swipeCmd)
		assert.False(t, m.Dispatching)
		assert.Equal(t, "trip-1", currentID(m))
		assert.Zero(t, h.svc.Cursor.Position())
		assert.Zero(t, h.svc.Sessions.Stats().Total)
	})

	t.Run("undo of another album leaves the cursor alone", func(t *testing.T) {
		h := newHarness(t, albumLibrary(), loader.DefaultOptions())
		m := h.started(t)

		m = h.swipe(t, m, "h")
		require.Equal(t, "trip-1", currentID(m))
		m = openTrip(t, m)

		m = h.swipe(t, m, "u")
		assert.Equal(t, "Azione annullata", m.StatusMsg)
		assert.Equal(t, "trip-1", currentID(m))
		assert.Zero(t, h.svc.Cursor.Position())
		assert.Zero(t, h.svc.Sessions.Stats().Total)

		n, err := h.trash.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestModel_TrashView(t *testing.T) {
	h := newHarness(t, mediatest.New(5), loader.DefaultOptions())
	m := h.started(t)
	m = h.swipe(t, m, "h")
	m = h.swipe(t, m, "h")

	m, cmd := send(t, m, keyPress("t"))
	assert.Equal(t, StateTrash, m.State)
	m, _ = exec(t, m, cmd)
	require.Len(t, m.Staged, 2)
	assert.Contains(t, m.View(), "item-0.jpg")

	t.Run("restore", func(t *testing.T) {
		m, cmd := send(t, m, keyPress("x"))
		m, _ = exec(t, m, cmd)
		assert.Equal(t, "item-0.jpg è stato ripristinato dal cestino", m.StatusMsg)
		n, err := h.trash.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("empty with confirmation", func(t *testing.T) {
		em, _ := exec(t, m, LoadStagedCmd(h.svc.Triage, domain.OutcomeTrash))

		em, _ = send(t, em, keyPress("E"))
		assert.True(t, em.ConfirmEmpty)
		assert.Contains(t, em.View(), "[Y] Yes")

		em, cmd := send(t, em, keyPress("n"))
		assert.False(t, em.ConfirmEmpty)
		assert.Nil(t, cmd)

		em, _ = send(t, em, keyPress("E"))
		em, cmd = send(t, em, keyPress("y"))
		em, _ = exec(t, em, cmd)
		assert.Equal(t, "Cestino svuotato", em.StatusMsg)
		n, err := h.trash.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	m, _ = send(t, m, keyPress("esc"))
	assert.Equal(t, StateSwiping, m.State)
}

func TestModel_FavoritesView(t *testing.T) {
	h := newHarness(t, mediatest.New(3), loader.DefaultOptions())
	m := h.started(t)
	m = h.swipe(t, m, "k")

	m, cmd := send(t, m, keyPress("f"))
	assert.Equal(t, StateFavorites, m.State)
	m, _ = exec(t, m, cmd)
	require.Len(t, m.Staged, 1)

	// E is a trash-only action
	m, _ = send(t, m, keyPress("E"))
	assert.False(t, m.ConfirmEmpty)

	m, cmd = send(t, m, keyPress("x"))
	m, _ = exec(t, m, cmd)
	assert.Equal(t, "item-0.jpg rimosso dai preferiti", m.StatusMsg)

	// Pressing f again returns to the card
	m, _ = send(t, m, keyPress("f"))
	assert.Equal(t, StateSwiping, m.State)
}

func TestModel_StatsView(t *testing.T) {
	h := newHarness(t, mediatest.New(5), loader.DefaultOptions())
	m := h.started(t)
	m = h.swipe(t, m, "h")
	m = h.swipe(t, m, "l")

	m, cmd := send(t, m, keyPress("s"))
	require.Equal(t, StateStats, m.State)
	m, _ = exec(t, m, cmd)

	assert.Equal(t, int64(2), m.Stats.Stats.TotalProcessed)
	assert.Equal(t, 2, m.Stats.Today.Total)
	assert.Equal(t, 2, m.Stats.Session.Total)
	assert.Equal(t, "0,0 MB", m.Stats.Saved)
	assert.Contains(t, m.View(), "This session")
}

func TestModel_OpenInViewer(t *testing.T) {
	src := mediatest.New(2)
	src.Items[1].RemoteOnly = true
	h := newHarness(t, src, loader.DefaultOptions())
	m := h.started(t)

	m, cmd := send(t, m, keyPress("o"))
	m, _ = exec(t, m, cmd)
	assert.Equal(t, []string{"file:///media/item-0.jpg"}, h.opener.uris)
	assert.False(t, m.StatusIsErr)
	assert.Equal(t, "Opened item-0.jpg", m.StatusMsg)
}

func TestModel_MouseDragSwipes(t *testing.T) {
	h := newHarness(t, mediatest.New(3), loader.DefaultOptions())
	m := h.started(t)

	clock := testNow
	m.now = func() time.Time { return clock }

	m, _ = send(t, m, tea.MouseMsg{X: 50, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	clock = clock.Add(time.Second)
	m, cmd := send(t, m, tea.MouseMsg{X: 80, Y: 11, Action: tea.MouseActionRelease})
	require.NotNil(t, cmd)
	msg := cmd()
	res, ok := msg.(SwipeResultMsg)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeKeep, res.Result.Outcome)

	// A short slow drag snaps back
	m, _ = send(t, m, msg)
	m, _ = send(t, m, tea.MouseMsg{X: 50, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	clock = clock.Add(time.Second)
	_, cmd = send(t, m, tea.MouseMsg{X: 52, Y: 10, Action: tea.MouseActionRelease})
	assert.Nil(t, cmd)
}

func TestModel_LibraryChangeClearsAlbumCache(t *testing.T) {
	src := mediatest.New(1)
	src.Albums = []domain.Album{{ID: "a", Title: "A", AssetCount: 1}}
	h := newHarness(t, src, loader.DefaultOptions())
	changes := make(chan struct{}, 1)
	h.svc.Changes = changes
	m := h.started(t)

	_, err := h.svc.Albums.List(t.Context(), false)
	require.NoError(t, err)
	_, err = h.svc.Albums.List(t.Context(), false)
	require.NoError(t, err)
	require.Equal(t, 1, src.AlbumCalls)

	changes <- struct{}{}
	m, _ = send(t, m, WaitForChangeCmd(changes)())
	_, err = h.svc.Albums.List(t.Context(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, src.AlbumCalls)
	assert.Equal(t, StateSwiping, m.State)
}

func TestModel_HelpOverlay(t *testing.T) {
	h := newHarness(t, mediatest.New(1), loader.DefaultOptions())
	m := h.started(t)

	m, _ = send(t, m, keyPress("?"))
	assert.True(t, m.ShowHelp)
	assert.Contains(t, m.View(), "SWIPING")

	// Keys do not reach the card while help is open
	m, cmd := send(t, m, keyPress("l"))
	assert.Nil(t, cmd)
	m, _ = send(t, m, keyPress("esc"))
	assert.False(t, m.ShowHelp)
}

func TestDragGesture(t *testing.T) {
	start := dragState{x: 10, y: 20, start: testNow}
	g := dragGesture(start, 5, 18, testNow.Add(500*time.Millisecond))
	assert.Equal(t, float64(-5*cellWidth), g.DX)
	assert.Equal(t, float64(-2*cellHeight), g.DY)
	assert.Equal(t, g.DX*2, g.VX)
	assert.Equal(t, g.DY*2, g.VY)

	still := dragGesture(start, 10, 20, testNow)
	assert.Zero(t, still.VX)
}

func TestListWindow(t *testing.T) {
	tests := []struct {
		name               string
		n, cursor, height  int
		wantStart, wantEnd int
	}{
		{"fits", 5, 2, 10, 0, 5},
		{"top", 50, 0, 10, 0, 10},
		{"middle", 50, 25, 10, 20, 30},
		{"bottom", 50, 49, 10, 40, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := listWindow(tt.n, tt.cursor, tt.height)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}
