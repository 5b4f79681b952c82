// Package model contains domain models passed between layers.
package model

// ScoreEntry is one persisted submission. Entries are append-only; ID is
// assigned by the store and grows with insertion order.
type ScoreEntry struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Score int64  `db:"score"`
}

// RankedEntry is a ScoreEntry as seen on the leaderboard. Rank is the
// 1-based dense rank of Score and is derived on every query.
type RankedEntry struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
	Rank  int    `json:"rank"`
}
