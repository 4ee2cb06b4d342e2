// Package albums lists media albums in priority order behind a time-boxed cache.
package albums

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/sahilm/fuzzy"
)

// DefaultTTL is how long an album listing stays valid
const DefaultTTL = 5 * time.Minute

// Priority ranks
const (
	PriorityRecognized = 1 // Well-known album names
	PriorityUser       = 2 // User-created albums
	PrioritySmart      = 3 // Other system-curated albums
)

// recognizedNames are matched as case-insensitive substrings of the title,
// in Italian and English.
var recognizedNames = []string{
	"selfie", "selfies",
	"video", "videos",
	"whatsapp",
	"screenshot", "screenshots", "schermate",
	"camera", "fotocamera",
	"favorites", "preferiti", "favourites",
}

// Priority returns the sort rank for an album
func Priority(a domain.Album) int {
	title := strings.ToLower(a.Title)
	for _, name := range recognizedNames {
		if strings.Contains(title, name) {
			return PriorityRecognized
		}
	}
	if !a.Smart {
		return PriorityUser
	}
	return PrioritySmart
}

// Rank annotates albums with their priority, drops empty ones and sorts by
// (priority ascending, item count descending).
func Rank(in []domain.Album) []domain.Album {
	out := make([]domain.Album, 0, len(in))
	for _, a := range in {
		if a.AssetCount <= 0 {
			continue
		}
		a.Priority = Priority(a)
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if out[i].AssetCount != out[j].AssetCount {
			return out[i].AssetCount > out[j].AssetCount
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// IsValid reports whether a listing fetched at fetchedAt is still fresh at now
func IsValid(now, fetchedAt time.Time, ttl time.Duration) bool {
	if fetchedAt.IsZero() {
		return false
	}
	return now.Sub(fetchedAt) < ttl
}

// cachedAlbums is one album listing and when it was fetched
type cachedAlbums struct {
	Data      []domain.Album
	FetchedAt time.Time
}

// Service lists albums from the media source with caching
type Service struct {
	source domain.MediaSource
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache *cachedAlbums
}

// NewService creates a new album service. Zero ttl uses DefaultTTL; nil clock uses time.Now.
func NewService(source domain.MediaSource, ttl time.Duration, now func() time.Time, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, logger: logger, ttl: ttl, now: now}
}

// List returns non-empty albums in priority order. The cached listing is
// returned while valid unless forceRefresh is set.
func (s *Service) List(ctx context.Context, forceRefresh bool) ([]domain.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !forceRefresh && s.cache != nil && IsValid(s.now(), s.cache.FetchedAt, s.ttl) {
		s.logger.Debug("album cache hit", "count", len(s.cache.Data))
		return cloneAlbums(s.cache.Data), nil
	}

	raw, err := s.source.ListAlbums(ctx, true)
	if err != nil {
		s.logger.Error("failed to list albums", "error", err)
		return nil, fmt.Errorf("list albums: %w", err)
	}

	ranked := Rank(raw)
	s.cache = &cachedAlbums{Data: ranked, FetchedAt: s.now()}
	s.logger.Debug("loaded albums", "count", len(ranked))
	return cloneAlbums(ranked), nil
}

// ClearCache drops the cached listing. Call when permission state or the
// underlying library changes.
func (s *Service) ClearCache() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
	s.logger.Debug("album cache cleared")
}

func cloneAlbums(in []domain.Album) []domain.Album {
	out := make([]domain.Album, len(in))
	copy(out, in)
	return out
}

// albumTitles adapts a slice of albums to fuzzy.Source
type albumTitles []domain.Album

func (a albumTitles) String(i int) string { return a[i].Title }
func (a albumTitles) Len() int            { return len(a) }

// Filter returns the albums whose titles fuzzy-match query, best match first.
// An empty query returns the input unchanged.
func Filter(query string, list []domain.Album) []domain.Album {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}
	matches := fuzzy.FindFrom(query, albumTitles(list))
	out := make([]domain.Album, len(matches))
	for i, m := range matches {
		out[i] = list[m.Index]
	}
	return out
}
