package domain

import (
	"fmt"
	"time"
)

// MediaKind distinguishes photos from videos
type MediaKind int

const (
	MediaKindPhoto MediaKind = iota
	MediaKindVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaKindVideo:
		return "video"
	default:
		return "photo"
	}
}

// MediaItem is a single photo or video as reported by the media source.
// Items are immutable once fetched.
type MediaItem struct {
	ID         string        // Stable, unique per source item
	Filename   string        // Display name
	URI        string        // Content locator
	Kind       MediaKind     // Photo or video
	Width      int           // Pixels (0 if unknown)
	Height     int           // Pixels (0 if unknown)
	CreatedAt  time.Time     // Capture/creation time
	ModifiedAt time.Time     // Last modification time
	Duration   time.Duration // Videos only
	FileSize   int64         // Bytes, 0 when unknown
	RemoteOnly bool          // Not yet materialized locally
	AlbumID    string        // Owning album (empty for "all")
}

// Dimensions returns "WxH" or an empty string when unknown
func (m MediaItem) Dimensions() string {
	if m.Width == 0 || m.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// FormattedDuration returns the duration as M:SS (or H:MM:SS)
func (m MediaItem) FormattedDuration() string {
	if m.Duration <= 0 {
		return ""
	}
	total := int(m.Duration.Seconds())
	h, mins, secs := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// Album is a read-only grouping of media items
type Album struct {
	ID         string
	Title      string
	AssetCount int
	Smart      bool // System-curated rather than user-created
	Priority   int  // Derived sort rank (1 = first)
}

// AllMedia selects every item regardless of album
const AllMedia = ""

// AlbumSelector picks either a single album or all media
type AlbumSelector struct {
	AlbumID string // AllMedia for everything
	Title   string
}

// SelectAll returns the selector for the whole library
func SelectAll() AlbumSelector {
	return AlbumSelector{AlbumID: AllMedia, Title: "All"}
}

// SelectAlbum returns the selector for one album
func SelectAlbum(a Album) AlbumSelector {
	return AlbumSelector{AlbumID: a.ID, Title: a.Title}
}

// IsAll reports whether the selector covers the whole library
func (s AlbumSelector) IsAll() bool {
	return s.AlbumID == AllMedia
}

// Key returns the identifier used for per-album bookkeeping
func (s AlbumSelector) Key() string {
	if s.IsAll() {
		return "all"
	}
	return s.AlbumID
}

// PermissionStatus is the access state of the media source
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// SortField selects the timestamp used to order assets
type SortField string

const (
	SortByCreated  SortField = "creationTime"
	SortByModified SortField = "modificationTime"
)

// AssetQuery describes one page request against the media source
type AssetQuery struct {
	AlbumID       string
	PageSize      int
	Cursor        string // Opaque continuation token, empty for first page
	IncludePhotos bool
	IncludeVideos bool
	SortBy        SortField
	Descending    bool
}

// AssetPage is one page of results from the media source
type AssetPage struct {
	Items      []MediaItem
	NextCursor string
	HasMore    bool
	TotalCount int // Best-effort hint, 0 when unknown
}
