// Package stats keeps the cumulative triage counters.
package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/i18n"
	"github.com/mmcdole/picky/internal/store"
	"golang.org/x/text/language"
	"golang.org/x/text/number"
)

// Aggregator accumulates monotonically increasing statistics.
// There is deliberately no decrement: undo does not erase processing history.
type Aggregator struct {
	kv  domain.KVStore
	now func() time.Time
	mu  sync.Mutex
}

// NewAggregator returns an aggregator stored in kv. A nil clock uses time.Now.
func NewAggregator(kv domain.KVStore, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{kv: kv, now: now}
}

// Read returns the current totals (zero value when nothing was recorded yet)
func (a *Aggregator) Read() (domain.Statistics, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.read()
}

func (a *Aggregator) read() (domain.Statistics, error) {
	var s domain.Statistics
	if _, err := store.GetJSON(a.kv, store.KeyStatistics, &s); err != nil {
		return domain.Statistics{}, err
	}
	return s, nil
}

// Accumulate adds delta to the running totals and stamps LastUpdated.
func (a *Aggregator) Accumulate(delta domain.StatsDelta) (domain.Statistics, error) {
	if delta.Kept < 0 || delta.Deleted < 0 || delta.Favorites < 0 || delta.BytesFreed < 0 {
		return domain.Statistics{}, fmt.Errorf("negative statistics delta: %+v", delta)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.read()
	if err != nil {
		return domain.Statistics{}, err
	}
	s.TotalProcessed += delta.Kept + delta.Deleted + delta.Favorites
	s.TotalDeleted += delta.Deleted
	s.TotalKept += delta.Kept
	s.TotalFavorites += delta.Favorites
	s.TotalBytesFreed += delta.BytesFreed
	s.LastUpdated = a.now().UnixMilli()

	if err := store.SetJSON(a.kv, store.KeyStatistics, s); err != nil {
		return domain.Statistics{}, err
	}
	return s, nil
}

// FormatMB renders a byte count in megabytes with one decimal, using the
// decimal separator of lang ("2,0 MB" in Italian). Thousands are not grouped.
func FormatMB(bytes int64, lang language.Tag) string {
	mb := float64(bytes) / (1024 * 1024)
	return i18n.Printer(lang).Sprintf(i18n.MsgSizeMB, number.Decimal(mb, number.Scale(1), number.NoSeparator()))
}

// Milestone levels
const (
	MilestoneNone = 0
	Milestone10   = 10
	Milestone50   = 50
	Milestone100  = 100
)

// Milestone returns the highest milestone total lands on (every 10, 50 or 100
// items), or MilestoneNone.
func Milestone(total int64) int {
	switch {
	case total <= 0:
		return MilestoneNone
	case total%100 == 0:
		return Milestone100
	case total%50 == 0:
		return Milestone50
	case total%10 == 0:
		return Milestone10
	default:
		return MilestoneNone
	}
}
