package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/mediasource/mediatest"
	"github.com/mmcdole/picky/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCursor(src *mediatest.Source, pageSize int) *Cursor {
	opts := DefaultOptions()
	opts.PageSize = pageSize
	return New(src, store.NewMemory(), opts, nil)
}

func TestLoad_AccumulatesPages(t *testing.T) {
	// 3 full pages of 4 plus a partial page of 2
	src := mediatest.New(14)
	c := newCursor(src, 4)
	ctx := context.Background()
	all := domain.SelectAll()

	var calls int
	for c.HasMore() {
		_, err := c.Load(ctx, all, false)
		require.NoError(t, err)
		calls++
		require.LessOrEqual(t, calls, 10, "load loop did not terminate")
	}

	assert.Equal(t, 4, calls)
	assert.Equal(t, 14, c.Len())
	assert.False(t, c.HasMore())
	assert.Equal(t, 14, c.TotalCount())

	items := c.Items()
	for i, it := range items {
		assert.Equal(t, src.Items[i].ID, it.ID)
	}

	n, err := c.Load(ctx, all, false)
	assert.ErrorIs(t, err, domain.ErrExhausted)
	assert.Zero(t, n)
	assert.Equal(t, 4, src.AssetCalls, "exhausted load must not hit the source")
}

func TestLoad_Reset(t *testing.T) {
	src := mediatest.New(10)
	c := newCursor(src, 4)
	ctx := context.Background()

	_, err := c.Load(ctx, domain.SelectAll(), false)
	require.NoError(t, err)
	_, err = c.Load(ctx, domain.SelectAll(), false)
	require.NoError(t, err)
	c.JumpTo(5)
	require.Equal(t, 8, c.Len())

	n, err := c.Load(ctx, domain.SelectAll(), true)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 0, c.Position())
	assert.True(t, c.HasMore())
}

func TestLoad_AlbumSwitchResets(t *testing.T) {
	src := mediatest.New(0)
	for i := 0; i < 3; i++ {
		it := mediatest.Item("a"+string(rune('0'+i)), 1)
		it.AlbumID = "A"
		src.Items = append(src.Items, it)
	}
	b := mediatest.Item("b0", 1)
	b.AlbumID = "B"
	src.Items = append(src.Items, b)

	c := newCursor(src, 10)
	ctx := context.Background()

	_, err := c.Load(ctx, domain.SelectAlbum(domain.Album{ID: "A", Title: "A"}), false)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.False(t, c.HasMore())

	_, err = c.Load(ctx, domain.SelectAlbum(domain.Album{ID: "B", Title: "B"}), false)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "B", c.Selector().AlbumID)
}

func TestLoad_FailureKeepsItemsAndCursor(t *testing.T) {
	src := mediatest.New(10)
	c := newCursor(src, 4)
	ctx := context.Background()

	_, err := c.Load(ctx, domain.SelectAll(), false)
	require.NoError(t, err)

	src.AssetsErr = errors.New("disk unplugged")
	src.Once = true
	_, err = c.Load(ctx, domain.SelectAll(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMediaFetch)
	assert.ErrorIs(t, c.Err(), domain.ErrMediaFetch)
	assert.Equal(t, 4, c.Len())
	assert.True(t, c.HasMore())

	// retry resumes from the same cursor
	_, err = c.Load(ctx, domain.SelectAll(), false)
	require.NoError(t, err)
	assert.NoError(t, c.Err())
	assert.Equal(t, 8, c.Len())
	assert.Equal(t, "item-4", c.Items()[4].ID)
}

func TestLoad_InFlightGuard(t *testing.T) {
	src := mediatest.New(10)
	src.BlockAssets = make(chan struct{})
	c := newCursor(src, 4)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx, domain.SelectAll(), false)
		done <- err
	}()

	require.Eventually(t, c.Loading, time.Second, time.Millisecond)
	assert.False(t, c.NeedsMore(0))

	_, err := c.Load(ctx, domain.SelectAll(), false)
	assert.ErrorIs(t, err, domain.ErrLoadInFlight)

	close(src.BlockAssets)
	require.NoError(t, <-done)
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 1, src.AssetCalls)
}

func TestNeedsMore(t *testing.T) {
	src := mediatest.New(30)
	c := newCursor(src, 20)
	_, err := c.Load(context.Background(), domain.SelectAll(), false)
	require.NoError(t, err)

	assert.False(t, c.NeedsMore(0))
	assert.False(t, c.NeedsMore(14))
	assert.True(t, c.NeedsMore(15))
	assert.True(t, c.NeedsMore(19))

	_, err = c.Load(context.Background(), domain.SelectAll(), false)
	require.NoError(t, err)
	assert.False(t, c.NeedsMore(29), "exhausted")
}

func TestPositionAndProgress(t *testing.T) {
	src := mediatest.New(3)
	c := newCursor(src, 10)

	assert.Equal(t, Progress{}, c.Progress())
	_, ok := c.Current()
	assert.False(t, ok)

	_, err := c.Load(context.Background(), domain.SelectAll(), false)
	require.NoError(t, err)

	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "item-0", cur.ID)
	assert.Equal(t, Progress{Current: 1, Total: 3, Percentage: 33}, c.Progress())

	assert.True(t, c.Next())
	assert.True(t, c.Next())
	assert.Equal(t, Progress{Current: 3, Total: 3, Percentage: 100}, c.Progress())
	assert.False(t, c.Finished())

	assert.False(t, c.Next())
	assert.True(t, c.Finished())
	assert.False(t, c.Next(), "stays past the end")

	assert.True(t, c.Previous())
	assert.Equal(t, 2, c.Position())

	c.JumpTo(-4)
	assert.Equal(t, 0, c.Position())
	assert.False(t, c.Previous())
	c.JumpTo(99)
	assert.Equal(t, 3, c.Position())
}

func TestTotalCountFallsBackToLoaded(t *testing.T) {
	src := mediatest.New(6)
	src.OmitTotal = true
	c := newCursor(src, 4)

	_, err := c.Load(context.Background(), domain.SelectAll(), false)
	require.NoError(t, err)
	assert.Equal(t, 4, c.TotalCount())
}

func TestAlbumProgress(t *testing.T) {
	src := mediatest.New(10)
	kv := store.NewMemory()
	c := New(src, kv, DefaultOptions(), nil)
	ctx := context.Background()
	album := domain.SelectAlbum(domain.Album{ID: "trip", Title: "Trip"})

	_, ok := c.RestoreProgress(album)
	assert.False(t, ok)

	_, err := c.Load(ctx, domain.SelectAll(), false)
	require.NoError(t, err)
	c.JumpTo(7)
	c.SaveProgress()

	idx, ok := c.RestoreProgress(domain.SelectAll())
	require.True(t, ok)
	assert.Equal(t, 7, idx)

	var raw map[string]domain.AlbumProgress
	found, err := store.GetJSON(kv, store.KeyAlbumProgress, &raw)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, raw, "all")

	c.ClearProgress(domain.SelectAll())
	_, ok = c.RestoreProgress(domain.SelectAll())
	assert.False(t, ok)
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(mediatest.New(0), nil, Options{}, nil)
	assert.Equal(t, DefaultPageSize, c.opts.PageSize)
	assert.Equal(t, DefaultPrefetchThreshold, c.opts.PrefetchThreshold)
	assert.True(t, c.opts.IncludePhotos)
	assert.True(t, c.opts.IncludeVideos)
	assert.Equal(t, domain.SortByCreated, c.opts.SortBy)

	// progress is a no-op without a store
	c.SaveProgress()
	_, ok := c.RestoreProgress(domain.SelectAll())
	assert.False(t, ok)
}
