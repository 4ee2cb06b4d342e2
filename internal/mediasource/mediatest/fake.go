// Package mediatest provides an in-memory media source for tests.
package mediatest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/mmcdole/picky/internal/domain"
)

// Source is an in-memory domain.MediaSource. Cursors are decimal offsets.
type Source struct {
	mu sync.Mutex

	Items      []domain.MediaItem
	Albums     []domain.Album
	Permission domain.PermissionStatus

	// Errors injected into the next calls (cleared after use when Once is set)
	AssetsErr  error
	AlbumsErr  error
	DeleteErr  error
	DeleteFail bool
	Once       bool

	// Call counters
	AssetCalls  int
	AlbumCalls  int
	Deleted     []string
	PermAsked   int
	OmitTotal   bool
	BlockAssets chan struct{} // when set, GetAssets waits for a receive
}

// New returns a granted source with n photos named item-0..item-n-1
func New(n int) *Source {
	s := &Source{Permission: domain.PermissionGranted}
	for i := 0; i < n; i++ {
		s.Items = append(s.Items, Item(fmt.Sprintf("item-%d", i), 1024))
	}
	return s
}

// Item builds a photo with the given id and size
func Item(id string, size int64) domain.MediaItem {
	return domain.MediaItem{
		ID:       id,
		Filename: id + ".jpg",
		URI:      "file:///media/" + id + ".jpg",
		Kind:     domain.MediaKindPhoto,
		FileSize: size,
	}
}

func (s *Source) RequestPermission(ctx context.Context) (domain.PermissionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PermAsked++
	return s.Permission, nil
}

func (s *Source) PermissionStatus(ctx context.Context) (domain.PermissionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Permission, nil
}

func (s *Source) ListAlbums(ctx context.Context, includeSmart bool) ([]domain.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AlbumCalls++
	if err := s.AlbumsErr; err != nil {
		if s.Once {
			s.AlbumsErr = nil
		}
		return nil, err
	}
	var out []domain.Album
	for _, a := range s.Albums {
		if a.Smart && !includeSmart {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Source) GetAssets(ctx context.Context, q domain.AssetQuery) (domain.AssetPage, error) {
	s.mu.Lock()
	block := s.BlockAssets
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.AssetPage{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.AssetCalls++
	if err := s.AssetsErr; err != nil {
		if s.Once {
			s.AssetsErr = nil
		}
		return domain.AssetPage{}, err
	}

	var matching []domain.MediaItem
	for _, it := range s.Items {
		if q.AlbumID != "" && it.AlbumID != q.AlbumID {
			continue
		}
		matching = append(matching, it)
	}

	offset := 0
	if q.Cursor != "" {
		n, err := strconv.Atoi(q.Cursor)
		if err != nil {
			return domain.AssetPage{}, fmt.Errorf("bad cursor %q", q.Cursor)
		}
		offset = n
	}
	if offset > len(matching) {
		offset = len(matching)
	}
	end := offset + q.PageSize
	if q.PageSize <= 0 || end > len(matching) {
		end = len(matching)
	}

	page := domain.AssetPage{
		Items:      append([]domain.MediaItem(nil), matching[offset:end]...),
		NextCursor: strconv.Itoa(end),
		HasMore:    end < len(matching),
	}
	if !s.OmitTotal {
		page.TotalCount = len(matching)
	}
	return page, nil
}

func (s *Source) ResolveLocalURI(ctx context.Context, itemID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.Items {
		if it.ID == itemID {
			if it.RemoteOnly {
				return "", nil
			}
			return it.URI, nil
		}
	}
	return "", domain.ErrNotFound
}

func (s *Source) DeleteAssets(ctx context.Context, ids []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return false, s.DeleteErr
	}
	if s.DeleteFail {
		return false, nil
	}
	s.Deleted = append(s.Deleted, ids...)
	return true, nil
}

var _ domain.MediaSource = (*Source)(nil)
