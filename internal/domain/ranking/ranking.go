// Package ranking turns raw score entries into a dense-ranked leaderboard.
package ranking

import (
	"sort"

	"github.com/okian/scoreboard/internal/domain/model"
)

// Sort orders entries by score descending, then by ID ascending so that
// tied entries keep insertion order.
func Sort(entries []model.ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ID < entries[j].ID
	})
}

// Dense ranks entries. Entries sharing a score share a rank and the next
// lower score gets rank+1, so [100, 100, 90] ranks as [1, 1, 2].
// The input slice is sorted in place.
func Dense(entries []model.ScoreEntry) []model.RankedEntry {
	if len(entries) == 0 {
		return []model.RankedEntry{}
	}
	Sort(entries)

	out := make([]model.RankedEntry, len(entries))
	rank := 1
	for i, e := range entries {
		if i > 0 && e.Score != entries[i-1].Score {
			rank++
		}
		out[i] = model.RankedEntry{Name: e.Name, Score: e.Score, Rank: rank}
	}
	return out
}

// TopDistinct returns every entry whose score is among the n highest
// distinct scores, densely ranked. A tied group at the cutoff is never
// split, so the result can hold more than n rows.
func TopDistinct(entries []model.ScoreEntry, n int) []model.RankedEntry {
	if n <= 0 || len(entries) == 0 {
		return []model.RankedEntry{}
	}
	sorted := make([]model.ScoreEntry, len(entries))
	copy(sorted, entries)

	ranked := Dense(sorted)
	cut := len(ranked)
	for i, e := range ranked {
		if e.Rank > n {
			cut = i
			break
		}
	}
	return ranked[:cut]
}
