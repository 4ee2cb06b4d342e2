// Package ledger records swipe decisions in an append-only, capped history.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/store"
)

// DefaultMaxEntries bounds the retained history
const DefaultMaxEntries = 1000

// UndoPolicy decides which entry of the history an undo targets.
// It returns the index of the entry to mark undone, or -1 when nothing is eligible.
type UndoPolicy interface {
	Target(history []domain.LedgerEntry) int
}

// SingleStepUndo only allows undoing the most recent entry, once.
type SingleStepUndo struct{}

func (SingleStepUndo) Target(history []domain.LedgerEntry) int {
	if len(history) == 0 {
		return -1
	}
	last := len(history) - 1
	if history[last].Undone {
		return -1
	}
	return last
}

// Ledger is the persisted action history
type Ledger struct {
	kv         domain.KVStore
	maxEntries int
	policy     UndoPolicy
	now        func() time.Time

	mu sync.Mutex
}

// Option configures a Ledger
type Option func(*Ledger)

// WithMaxEntries overrides the retained history length
func WithMaxEntries(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

// WithPolicy overrides the undo policy
func WithPolicy(p UndoPolicy) Option {
	return func(l *Ledger) { l.policy = p }
}

// WithClock injects the time source
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a ledger stored in kv
func New(kv domain.KVStore, opts ...Option) *Ledger {
	l := &Ledger{
		kv:         kv,
		maxEntries: DefaultMaxEntries,
		policy:     SingleStepUndo{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) load() ([]domain.LedgerEntry, error) {
	var history []domain.LedgerEntry
	if _, err := store.GetJSON(l.kv, store.KeySwipeHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (l *Ledger) save(history []domain.LedgerEntry) error {
	if history == nil {
		history = []domain.LedgerEntry{}
	}
	return store.SetJSON(l.kv, store.KeySwipeHistory, history)
}

// Record appends a decision, dropping the oldest entries past the cap.
func (l *Ledger) Record(assetID string, outcome domain.Outcome) (domain.LedgerEntry, error) {
	if !outcome.Valid() {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %d", domain.ErrUnknownOutcome, int(outcome))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.load()
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	entry := domain.LedgerEntry{
		AssetID:   assetID,
		Outcome:   outcome,
		Timestamp: l.now().UnixMilli(),
	}
	history = append(history, entry)
	if over := len(history) - l.maxEntries; over > 0 {
		history = history[over:]
	}

	if err := l.save(history); err != nil {
		return domain.LedgerEntry{}, err
	}
	return entry, nil
}

// History returns every retained entry, oldest first
func (l *Ledger) History() ([]domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Last returns the most recent entry
func (l *Ledger) Last() (domain.LedgerEntry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.load()
	if err != nil || len(history) == 0 {
		return domain.LedgerEntry{}, false, err
	}
	return history[len(history)-1], true, nil
}

// UndoAvailable reports whether Undo would succeed
func (l *Ledger) UndoAvailable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.load()
	if err != nil {
		return false
	}
	return l.policy.Target(history) >= 0
}

// Peek returns the entry Undo would target without changing anything
func (l *Ledger) Peek() (domain.LedgerEntry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.load()
	if err != nil {
		return domain.LedgerEntry{}, false, err
	}
	idx := l.policy.Target(history)
	if idx < 0 || idx >= len(history) {
		return domain.LedgerEntry{}, false, nil
	}
	return history[idx], true, nil
}

// Undo flags the entry chosen by the policy as undone and returns it.
// Entries are never removed.
func (l *Ledger) Undo() (domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.load()
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	idx := l.policy.Target(history)
	if idx < 0 || idx >= len(history) {
		return domain.LedgerEntry{}, domain.ErrNothingToUndo
	}

	history[idx].Undone = true
	if err := l.save(history); err != nil {
		return domain.LedgerEntry{}, err
	}
	return history[idx], nil
}

// SessionStats counts active (not undone) decisions recorded at or after since
func (l *Ledger) SessionStats(since time.Time) (domain.SessionStats, error) {
	history, err := l.History()
	if err != nil {
		return domain.SessionStats{}, err
	}

	cutoff := since.UnixMilli()
	var stats domain.SessionStats
	for _, e := range history {
		if e.Undone || e.Timestamp < cutoff {
			continue
		}
		stats.Add(e.Outcome, 1)
	}
	return stats, nil
}

// StartOfDay returns local midnight for t
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
