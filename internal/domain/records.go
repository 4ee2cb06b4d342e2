package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outcome is the result of a single swipe decision
type Outcome int

const (
	OutcomeKeep Outcome = iota
	OutcomeTrash
	OutcomeFavorite
)

// String returns the persisted tag for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeKeep:
		return "keep"
	case OutcomeTrash:
		return "trash"
	case OutcomeFavorite:
		return "favorites"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Valid reports whether o is one of the three known outcomes
func (o Outcome) Valid() bool {
	return o == OutcomeKeep || o == OutcomeTrash || o == OutcomeFavorite
}

// ParseOutcome converts a persisted tag back into an Outcome
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "keep":
		return OutcomeKeep, nil
	case "trash":
		return OutcomeTrash, nil
	case "favorites", "favorite":
		return OutcomeFavorite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOutcome, s)
	}
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOutcome, int(o))
	}
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// StoredAsset is the lightweight record kept in the trash and favorites
// collections. Timestamps are unix milliseconds.
type StoredAsset struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	URI       string `json:"uri"`
	FileSize  int64  `json:"fileSize,omitempty"`
	Timestamp int64  `json:"timestamp"`
	AlbumID   string `json:"albumId,omitempty"`
}

// NewStoredAsset builds the persisted record for item, stamped at now
func NewStoredAsset(item MediaItem, now time.Time) StoredAsset {
	return StoredAsset{
		ID:        item.ID,
		Filename:  item.Filename,
		URI:       item.URI,
		FileSize:  item.FileSize,
		Timestamp: now.UnixMilli(),
		AlbumID:   item.AlbumID,
	}
}

// StagedAt returns the staging time
func (a StoredAsset) StagedAt() time.Time {
	return time.UnixMilli(a.Timestamp)
}

// LedgerEntry records one swipe decision
type LedgerEntry struct {
	AssetID   string  `json:"assetId"`
	Outcome   Outcome `json:"action"`
	Timestamp int64   `json:"timestamp"`
	Undone    bool    `json:"undone,omitempty"`
}

// At returns the time the decision was recorded
func (e LedgerEntry) At() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Statistics are cumulative, monotonically increasing counters
type Statistics struct {
	TotalProcessed  int64 `json:"totalProcessed"`
	TotalDeleted    int64 `json:"totalDeleted"`
	TotalKept       int64 `json:"totalKept"`
	TotalFavorites  int64 `json:"totalFavorites"`
	TotalBytesFreed int64 `json:"totalBytesFreed"`
	LastUpdated     int64 `json:"lastUpdated"`
}

// StatsDelta is an increment applied to Statistics. All fields are non-negative.
type StatsDelta struct {
	Kept       int64
	Deleted    int64
	Favorites  int64
	BytesFreed int64
}

// DeltaFor returns the statistics increment for one decision on item
func DeltaFor(outcome Outcome, item MediaItem) StatsDelta {
	switch outcome {
	case OutcomeTrash:
		return StatsDelta{Deleted: 1, BytesFreed: item.FileSize}
	case OutcomeFavorite:
		return StatsDelta{Favorites: 1}
	default:
		return StatsDelta{Kept: 1}
	}
}

// AlbumProgress remembers the browsing position inside an album
type AlbumProgress struct {
	CurrentIndex int   `json:"currentIndex"`
	Timestamp    int64 `json:"timestamp"`
}

// SessionStats counts decisions within one triage session
type SessionStats struct {
	Total     int `json:"total"`
	Kept      int `json:"kept"`
	Deleted   int `json:"deleted"`
	Favorites int `json:"favorites"`
}

// Add adjusts the counter for outcome by n (n may be negative, floors at zero)
func (s *SessionStats) Add(outcome Outcome, n int) {
	bump := func(v *int) {
		*v += n
		if *v < 0 {
			*v = 0
		}
	}
	bump(&s.Total)
	switch outcome {
	case OutcomeKeep:
		bump(&s.Kept)
	case OutcomeTrash:
		bump(&s.Deleted)
	case OutcomeFavorite:
		bump(&s.Favorites)
	}
}

// Session is one triage pass over an album
type Session struct {
	ID        string       `json:"id"`
	AlbumID   string       `json:"albumId"`
	StartTime int64        `json:"startTime"`
	EndTime   int64        `json:"endTime,omitempty"`
	Stats     SessionStats `json:"stats"`
}
