// Package loader pages media items out of a media source and tracks the
// browsing position over the loaded sequence.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/store"
)

const (
	DefaultPageSize          = 20
	DefaultPrefetchThreshold = 5
)

// Options controls how pages are requested
type Options struct {
	PageSize          int
	IncludePhotos     bool
	IncludeVideos     bool
	SortBy            domain.SortField
	Descending        bool
	PrefetchThreshold int // Look-ahead window for NeedsMore
}

// DefaultOptions returns photos and videos, newest first, 20 per page
func DefaultOptions() Options {
	return Options{
		PageSize:          DefaultPageSize,
		IncludePhotos:     true,
		IncludeVideos:     true,
		SortBy:            domain.SortByCreated,
		Descending:        true,
		PrefetchThreshold: DefaultPrefetchThreshold,
	}
}

// Progress describes the browsing position for display
type Progress struct {
	Current    int // 1-based, 0 when nothing is loaded
	Total      int
	Percentage int
}

// Cursor accumulates pages for one album selector.
// Safe for use from concurrent tea.Cmds; only one load runs at a time.
type Cursor struct {
	source domain.MediaSource
	kv     domain.KVStore
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	selector  domain.AlbumSelector
	items     []domain.MediaItem
	cursor    string
	exhausted bool
	total     int
	err       error
	loading   bool
	position  int
}

// New creates a cursor over source. kv may be nil, which disables album progress.
func New(source domain.MediaSource, kv domain.KVStore, opts Options, logger *slog.Logger) *Cursor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PrefetchThreshold <= 0 {
		opts.PrefetchThreshold = DefaultPrefetchThreshold
	}
	if !opts.IncludePhotos && !opts.IncludeVideos {
		opts.IncludePhotos, opts.IncludeVideos = true, true
	}
	if opts.SortBy == "" {
		opts.SortBy = domain.SortByCreated
	}
	return &Cursor{
		source:   source,
		kv:       kv,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		selector: domain.SelectAll(),
	}
}

// Load fetches the next page for selector and returns how many items were appended.
//
// With reset, or when selector differs from the current one, the accumulated
// state is cleared before the first page is fetched. Without reset the call
// returns ErrLoadInFlight while another load runs and ErrExhausted once the
// source has reported its last page; neither touches the state. A failed fetch
// records the error and keeps the loaded items and the cursor.
func (c *Cursor) Load(ctx context.Context, selector domain.AlbumSelector, reset bool) (int, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return 0, domain.ErrLoadInFlight
	}
	if reset || selector.AlbumID != c.selector.AlbumID {
		c.resetLocked(selector)
	} else if c.exhausted {
		c.mu.Unlock()
		return 0, domain.ErrExhausted
	}
	c.selector = selector
	c.loading = true
	q := domain.AssetQuery{
		AlbumID:       selector.AlbumID,
		PageSize:      c.opts.PageSize,
		Cursor:        c.cursor,
		IncludePhotos: c.opts.IncludePhotos,
		IncludeVideos: c.opts.IncludeVideos,
		SortBy:        c.opts.SortBy,
		Descending:    c.opts.Descending,
	}
	c.mu.Unlock()

	page, err := c.source.GetAssets(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		c.err = fmt.Errorf("%w: %w", domain.ErrMediaFetch, err)
		c.logger.Error("failed to load media page", "error", err, "album", selector.Key(), "loaded", len(c.items))
		return 0, c.err
	}

	c.items = append(c.items, page.Items...)
	c.cursor = page.NextCursor
	c.exhausted = !page.HasMore
	if page.TotalCount > 0 {
		c.total = page.TotalCount
	}
	c.err = nil

	c.logger.Debug("loaded media page",
		"album", selector.Key(),
		"count", len(page.Items),
		"loaded", len(c.items),
		"hasMore", page.HasMore)
	return len(page.Items), nil
}

func (c *Cursor) resetLocked(selector domain.AlbumSelector) {
	c.selector = selector
	c.items = nil
	c.cursor = ""
	c.exhausted = false
	c.total = 0
	c.err = nil
	c.position = 0
}

// Selector returns the album selector the cursor is paging
func (c *Cursor) Selector() domain.AlbumSelector {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selector
}

// Items returns a copy of the loaded sequence
func (c *Cursor) Items() []domain.MediaItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.MediaItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cursor) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// At returns the item at index i
func (c *Cursor) At(i int) (domain.MediaItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.items) {
		return domain.MediaItem{}, false
	}
	return c.items[i], true
}

func (c *Cursor) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.exhausted
}

// TotalCount returns the source's hint, or the loaded length when no hint was given
func (c *Cursor) TotalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

func (c *Cursor) totalLocked() int {
	if c.total > len(c.items) {
		return c.total
	}
	return len(c.items)
}

// Err returns the error of the last failed load, cleared by the next success
func (c *Cursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Cursor) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// NeedsMore reports whether position is close enough to the end of the
// loaded sequence that the next page should be prefetched.
func (c *Cursor) NeedsMore(position int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exhausted || c.loading {
		return false
	}
	return position >= len(c.items)-c.opts.PrefetchThreshold
}

// === Browsing position ===

// Position returns the index of the current item
func (c *Cursor) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Current returns the item under the browsing position
func (c *Cursor) Current() (domain.MediaItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position >= len(c.items) {
		return domain.MediaItem{}, false
	}
	return c.items[c.position], true
}

// Next advances past the current item. It reports whether an item is now current.
func (c *Cursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position < len(c.items) {
		c.position++
	}
	return c.position < len(c.items)
}

// Previous steps back one item. It reports whether the position moved.
func (c *Cursor) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position == 0 {
		return false
	}
	c.position--
	return true
}

// JumpTo moves to index i, clamped to the loaded range
func (c *Cursor) JumpTo(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case i < 0:
		i = 0
	case i > len(c.items):
		i = len(c.items)
	}
	c.position = i
}

// Finished reports whether every item of the album has been passed
func (c *Cursor) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted && c.position >= len(c.items)
}

func (c *Cursor) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.totalLocked()
	if total == 0 {
		return Progress{}
	}
	current := c.position + 1
	if current > total {
		current = total
	}
	return Progress{
		Current:    current,
		Total:      total,
		Percentage: (current*100 + total/2) / total,
	}
}

// === Album progress ===

// SaveProgress remembers the current position for the active selector.
// Failures are logged and swallowed.
func (c *Cursor) SaveProgress() {
	if c.kv == nil {
		return
	}
	c.mu.Lock()
	key := c.selector.Key()
	entry := domain.AlbumProgress{CurrentIndex: c.position, Timestamp: c.now().UnixMilli()}
	c.mu.Unlock()

	all := c.readProgress()
	all[key] = entry
	if err := store.SetJSON(c.kv, store.KeyAlbumProgress, all); err != nil {
		c.logger.Error("failed to save album progress", "error", err, "album", key)
	}
}

// RestoreProgress returns the saved position for selector
func (c *Cursor) RestoreProgress(selector domain.AlbumSelector) (int, bool) {
	if c.kv == nil {
		return 0, false
	}
	p, ok := c.readProgress()[selector.Key()]
	return p.CurrentIndex, ok
}

// ClearProgress forgets the saved position for selector
func (c *Cursor) ClearProgress(selector domain.AlbumSelector) {
	if c.kv == nil {
		return
	}
	all := c.readProgress()
	if _, ok := all[selector.Key()]; !ok {
		return
	}
	delete(all, selector.Key())
	if err := store.SetJSON(c.kv, store.KeyAlbumProgress, all); err != nil {
		c.logger.Error("failed to clear album progress", "error", err, "album", selector.Key())
	}
}

func (c *Cursor) readProgress() map[string]domain.AlbumProgress {
	all := make(map[string]domain.AlbumProgress)
	if _, err := store.GetJSON(c.kv, store.KeyAlbumProgress, &all); err != nil {
		c.logger.Error("failed to read album progress", "error", err)
		return make(map[string]domain.AlbumProgress)
	}
	return all
}
