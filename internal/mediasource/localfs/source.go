// Package localfs serves a media library from directories on the local disk.
//
// Every directory holding media is a user album. The smart albums Recents,
// Videos and Screenshots are derived from the whole library.
package localfs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/picky/internal/domain"
)

// Smart album ids
const (
	AlbumRecents     = "smart:recents"
	AlbumVideos      = "smart:videos"
	AlbumScreenshots = "smart:screenshots"
)

// Source implements domain.MediaSource over a set of library roots
type Source struct {
	roots  []string
	logger *slog.Logger

	mu        sync.Mutex
	snapshots map[string][]entry // Sorted results per query, reused while paging
}

// New creates a source over roots. Relative roots are made absolute.
func New(roots []string, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		p, err := filepath.Abs(expandHome(r))
		if err != nil {
			return nil, fmt.Errorf("resolve library root %q: %w", r, err)
		}
		abs = append(abs, p)
	}
	return &Source{roots: abs, logger: logger, snapshots: make(map[string][]entry)}, nil
}

// Roots returns the absolute library roots
func (s *Source) Roots() []string {
	return append([]string(nil), s.roots...)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// === Permission ===

// PermissionStatus is granted when every root is a readable directory,
// denied when a root exists but cannot be read, and undetermined otherwise.
func (s *Source) PermissionStatus(ctx context.Context) (domain.PermissionStatus, error) {
	if len(s.roots) == 0 {
		return domain.PermissionUndetermined, nil
	}
	status := domain.PermissionGranted
	for _, root := range s.roots {
		info, err := os.Stat(root)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			status = domain.PermissionUndetermined
			continue
		case err != nil:
			return domain.PermissionDenied, nil
		case !info.IsDir():
			return domain.PermissionDenied, nil
		}
		if _, err := os.ReadDir(root); err != nil {
			return domain.PermissionDenied, nil
		}
	}
	return status, nil
}

// RequestPermission creates missing roots and re-checks access
func (s *Source) RequestPermission(ctx context.Context) (domain.PermissionStatus, error) {
	if len(s.roots) == 0 {
		return domain.PermissionUndetermined, errors.New("no library roots configured")
	}
	for _, root := range s.roots {
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			if err := os.MkdirAll(root, 0755); err != nil {
				s.logger.Error("failed to create library root", "error", err, "root", root)
				return domain.PermissionDenied, nil
			}
			s.logger.Info("created library root", "root", root)
		}
	}
	return s.PermissionStatus(ctx)
}

func (s *Source) requireAccess(ctx context.Context) error {
	status, err := s.PermissionStatus(ctx)
	if err != nil {
		return err
	}
	if status != domain.PermissionGranted {
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, status)
	}
	return nil
}

// === Scanning ===

func (s *Source) scan(ctx context.Context) ([]entry, error) {
	var all []entry
	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := scanRoot(root)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Invalidate drops cached scan results. The next first-page request rescans.
func (s *Source) Invalidate() {
	s.mu.Lock()
	s.snapshots = make(map[string][]entry)
	s.mu.Unlock()
}

// === Albums ===

func (s *Source) ListAlbums(ctx context.Context, includeSmart bool) ([]domain.Album, error) {
	if err := s.requireAccess(ctx); err != nil {
		return nil, err
	}
	all, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var videos, screenshots int
	for _, e := range all {
		counts[e.dir]++
		if e.item.Kind == domain.MediaKindVideo {
			videos++
		}
		if isScreenshot(e.item.Filename) {
			screenshots++
		}
	}

	albums := make([]domain.Album, 0, len(counts)+3)
	for dir, n := range counts {
		albums = append(albums, domain.Album{ID: dir, Title: filepath.Base(dir), AssetCount: n})
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].ID < albums[j].ID })

	if includeSmart {
		albums = append(albums,
			domain.Album{ID: AlbumRecents, Title: "Recents", AssetCount: len(all), Smart: true},
			domain.Album{ID: AlbumVideos, Title: "Videos", AssetCount: videos, Smart: true},
			domain.Album{ID: AlbumScreenshots, Title: "Screenshots", AssetCount: screenshots, Smart: true},
		)
	}
	return albums, nil
}

// === Assets ===

func queryKey(q domain.AssetQuery) string {
	return fmt.Sprintf("%s|%t|%t|%s|%t", q.AlbumID, q.IncludePhotos, q.IncludeVideos, q.SortBy, q.Descending)
}

func matches(e entry, q domain.AssetQuery) bool {
	switch e.item.Kind {
	case domain.MediaKindPhoto:
		if !q.IncludePhotos {
			return false
		}
	case domain.MediaKindVideo:
		if !q.IncludeVideos {
			return false
		}
	}
	switch q.AlbumID {
	case domain.AllMedia, AlbumRecents:
		return true
	case AlbumVideos:
		return e.item.Kind == domain.MediaKindVideo
	case AlbumScreenshots:
		return isScreenshot(e.item.Filename)
	default:
		return e.dir == q.AlbumID
	}
}

// GetAssets returns one page. A request without a cursor rescans the library;
// follow-up pages reuse that scan until something invalidates it. The cursor
// carries the sort key of the last item served, so a page always resumes
// strictly after that item even when the library changed in between.
func (s *Source) GetAssets(ctx context.Context, q domain.AssetQuery) (domain.AssetPage, error) {
	if err := s.requireAccess(ctx); err != nil {
		return domain.AssetPage{}, err
	}
	if !q.IncludePhotos && !q.IncludeVideos {
		q.IncludePhotos, q.IncludeVideos = true, true
	}

	pos, err := decodeCursor(q.Cursor)
	if err != nil {
		return domain.AssetPage{}, err
	}

	key := queryKey(q)
	s.mu.Lock()
	snapshot, ok := s.snapshots[key]
	s.mu.Unlock()

	if q.Cursor == "" || !ok {
		all, err := s.scan(ctx)
		if err != nil {
			return domain.AssetPage{}, err
		}
		snapshot = snapshot[:0:0]
		for _, e := range all {
			if matches(e, q) {
				snapshot = append(snapshot, e)
			}
		}
		sortEntries(snapshot, q.SortBy, q.Descending)

		s.mu.Lock()
		s.snapshots[key] = snapshot
		s.mu.Unlock()
	}

	start := 0
	if q.Cursor != "" {
		start = sort.Search(len(snapshot), func(i int) bool {
			return pos.precedes(snapshot[i], q.SortBy, q.Descending)
		})
	}
	end := len(snapshot)
	if q.PageSize > 0 && start+q.PageSize < end {
		end = start + q.PageSize
	}

	page := domain.AssetPage{
		Items:      make([]domain.MediaItem, 0, end-start),
		HasMore:    end < len(snapshot),
		TotalCount: pos.served + len(snapshot) - start,
	}
	for _, e := range snapshot[start:end] {
		page.Items = append(page.Items, e.item)
	}

	next := pos
	next.served += len(page.Items)
	if end > start {
		last := snapshot[end-1]
		next.at = timestamp(last, q.SortBy)
		next.id = last.item.ID
	}
	page.NextCursor = encodeCursor(next)
	return page, nil
}

func sortEntries(entries []entry, by domain.SortField, descending bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := timestamp(entries[i], by), timestamp(entries[j], by)
		if !ti.Equal(tj) {
			if descending {
				return ti.After(tj)
			}
			return ti.Before(tj)
		}
		return entries[i].item.ID < entries[j].item.ID
	})
}

// pagePos is the decoded cursor: the sort key of the last item served and
// how many items the pagination has returned so far.
type pagePos struct {
	served int
	at     time.Time
	id     string
}

// precedes reports whether p sorts strictly before e in the order used by
// sortEntries, i.e. whether e still has to be served.
func (p pagePos) precedes(e entry, by domain.SortField, descending bool) bool {
	t := timestamp(e, by)
	if !t.Equal(p.at) {
		if descending {
			return t.Before(p.at)
		}
		return t.After(p.at)
	}
	return e.item.ID > p.id
}

func encodeCursor(p pagePos) string {
	raw := strconv.Itoa(p.served) + "|" + p.at.Format(time.RFC3339Nano) + "|" + p.id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (pagePos, error) {
	if cursor == "" {
		return pagePos{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return pagePos{}, fmt.Errorf("invalid cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 {
		return pagePos{}, fmt.Errorf("invalid cursor %q", cursor)
	}
	served, err := strconv.Atoi(parts[0])
	if err != nil || served < 0 {
		return pagePos{}, fmt.Errorf("invalid cursor %q", cursor)
	}
	at, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return pagePos{}, fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}
	return pagePos{served: served, at: at, id: parts[2]}, nil
}

// === Items ===

// within reports whether path lies under one of the library roots
func (s *Source) within(path string) bool {
	clean := filepath.Clean(path)
	for _, root := range s.roots {
		rel, err := filepath.Rel(root, clean)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// ResolveLocalURI returns the file URI of the item, or "" for placeholders
// that have not been downloaded.
func (s *Source) ResolveLocalURI(ctx context.Context, itemID string) (string, error) {
	if !s.within(itemID) {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, itemID)
	}
	info, err := os.Stat(itemID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, itemID)
	}
	if _, ok := placeholderName(info.Name()); ok {
		return "", nil
	}
	return fileURI(itemID), nil
}

// DeleteAssets removes the files behind ids. It reports false when any id is
// outside the library or could not be removed; the others are still removed.
func (s *Source) DeleteAssets(ctx context.Context, ids []string) (bool, error) {
	if err := s.requireAccess(ctx); err != nil {
		return false, err
	}
	ok := true
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if !s.within(id) {
			s.logger.Error("refusing to delete file outside library", "path", id)
			ok = false
			continue
		}
		if err := os.Remove(id); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error("failed to delete file", "error", err, "path", id)
			ok = false
		}
	}
	s.Invalidate()
	s.logger.Info("deleted files", "count", len(ids), "ok", ok)
	return ok, nil
}

var _ domain.MediaSource = (*Source)(nil)
