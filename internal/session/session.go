// Package session tracks the active triage session and its counters.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/store"
)

// Tracker owns the current-session record. Writes are best-effort: a failed
// save is logged and the in-memory session stays authoritative.
type Tracker struct {
	kv     domain.KVStore
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	mu      sync.Mutex
	current *domain.Session
}

// NewTracker creates a tracker stored in kv. A nil clock uses time.Now.
func NewTracker(kv domain.KVStore, now func() time.Time, logger *slog.Logger) *Tracker {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		kv:     kv,
		now:    now,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// Start begins a new session for albumID, replacing any previous one
func (t *Tracker) Start(albumID string) domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &domain.Session{
		ID:        t.newID(),
		AlbumID:   albumID,
		StartTime: t.now().UnixMilli(),
	}
	t.current = s
	t.saveLocked()
	t.logger.Info("session started", "session", s.ID, "album", albumID)
	return *s
}

// Record counts one decision in the current session
func (t *Tracker) Record(outcome domain.Outcome) domain.SessionStats {
	return t.adjust(outcome, 1)
}

// Unrecord reverses one decision after an undo
func (t *Tracker) Unrecord(outcome domain.Outcome) domain.SessionStats {
	return t.adjust(outcome, -1)
}

func (t *Tracker) adjust(outcome domain.Outcome, n int) domain.SessionStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.loadLocked() == nil {
		return domain.SessionStats{}
	}
	t.current.Stats.Add(outcome, n)
	t.saveLocked()
	return t.current.Stats
}

// Finish stamps the end time on the current session
func (t *Tracker) Finish() (domain.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.loadLocked() == nil {
		return domain.Session{}, false
	}
	if t.current.EndTime == 0 {
		t.current.EndTime = t.now().UnixMilli()
		t.saveLocked()
		t.logger.Info("session finished",
			"session", t.current.ID,
			"total", t.current.Stats.Total,
			"deleted", t.current.Stats.Deleted)
	}
	return *t.current, true
}

// Current returns the active session, loading it from the store if needed
func (t *Tracker) Current() (domain.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.loadLocked() == nil {
		return domain.Session{}, false
	}
	return *t.current, true
}

// Stats returns the counters of the current session (zero without one)
func (t *Tracker) Stats() domain.SessionStats {
	s, _ := t.Current()
	return s.Stats
}

func (t *Tracker) loadLocked() *domain.Session {
	if t.current != nil {
		return t.current
	}
	var s domain.Session
	found, err := store.GetJSON(t.kv, store.KeyCurrentSession, &s)
	if err != nil {
		t.logger.Error("failed to read current session", "error", err)
		return nil
	}
	if !found {
		return nil
	}
	t.current = &s
	return t.current
}

func (t *Tracker) saveLocked() {
	if err := store.SetJSON(t.kv, store.KeyCurrentSession, t.current); err != nil {
		t.logger.Error("failed to save current session", "error", err, "session", t.current.ID)
	}
}
