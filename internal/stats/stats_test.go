package stats

import (
	"testing"
	"time"

	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/store"
	"github.com/mmcdole/picky/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestAggregator_Accumulate(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	agg := NewAggregator(store.NewMemory(), func() time.Time { return now })

	s, err := agg.Read()
	require.NoError(t, err)
	assert.Equal(t, domain.Statistics{}, s)

	for i := 0; i < 10; i++ {
		_, err := agg.Accumulate(domain.StatsDelta{Kept: 1})
		require.NoError(t, err)
	}
	_, err = agg.Accumulate(domain.StatsDelta{Deleted: 1, BytesFreed: 2097152})
	require.NoError(t, err)
	_, err = agg.Accumulate(domain.StatsDelta{Favorites: 1})
	require.NoError(t, err)

	s, err = agg.Read()
	require.NoError(t, err)
	assert.Equal(t, domain.Statistics{
		TotalProcessed:  12,
		TotalDeleted:    1,
		TotalKept:       10,
		TotalFavorites:  1,
		TotalBytesFreed: 2097152,
		LastUpdated:     now.UnixMilli(),
	}, s)
}

func TestAggregator_RejectsNegativeDelta(t *testing.T) {
	agg := NewAggregator(store.NewMemory(), nil)
	_, err := agg.Accumulate(domain.StatsDelta{Kept: -1})
	assert.Error(t, err)

	s, err := agg.Read()
	require.NoError(t, err)
	assert.Zero(t, s.TotalProcessed)
}

func TestAggregator_WriteFailureLeavesTotals(t *testing.T) {
	kv := storetest.NewFaulty()
	agg := NewAggregator(kv, nil)
	_, err := agg.Accumulate(domain.StatsDelta{Kept: 1})
	require.NoError(t, err)

	kv.FailWrites(store.KeyStatistics, true)
	_, err = agg.Accumulate(domain.StatsDelta{Kept: 1})
	assert.Error(t, err)

	s, err := agg.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.TotalKept)
}

func TestFormatMB(t *testing.T) {
	assert.Equal(t, "2,0 MB", FormatMB(2097152, language.Italian))
	assert.Equal(t, "2.0 MB", FormatMB(2097152, language.English))
	assert.Equal(t, "0,0 MB", FormatMB(0, language.Italian))
	assert.Equal(t, "1,5 MB", FormatMB(1572864, language.Italian))
	assert.Equal(t, "1500,0 MB", FormatMB(1500*1024*1024, language.Italian))
	assert.Equal(t, "1500.0 MB", FormatMB(1500*1024*1024, language.English))
}

func TestMilestone(t *testing.T) {
	tests := []struct {
		total int64
		want  int
	}{
		{0, MilestoneNone},
		{7, MilestoneNone},
		{10, Milestone10},
		{40, Milestone10},
		{50, Milestone50},
		{150, Milestone50},
		{100, Milestone100},
		{300, Milestone100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Milestone(tt.total), "total=%d", tt.total)
	}
}
