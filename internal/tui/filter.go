package tui

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/picky/internal/domain"
)

// filterStaged returns the entries whose filename fuzzy-matches query,
// closest match first. An empty query returns entries unchanged.
func filterStaged(query string, entries []domain.StoredAsset) []domain.StoredAsset {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Filename
	}

	ranks := fuzzy.RankFindFold(query, names)
	sort.Stable(ranks)

	out := make([]domain.StoredAsset, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, entries[r.OriginalIndex])
	}
	return out
}
