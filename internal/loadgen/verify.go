package loadgen

import (
	"errors"
	"fmt"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/ranking"
)

// VerifyRanking checks the dense-rank law on a leaderboard: rank 1 first,
// scores non-increasing, equal scores share a rank, and each drop in score
// raises the rank by exactly one. At most limit distinct scores may appear.
func VerifyRanking(got []Entry, limit int) error {
	for i, e := range got {
		if i == 0 {
			if e.Rank != 1 {
				return mismatch("first entry has rank %d", e.Rank)
			}
			continue
		}
		prev := got[i-1]
		switch {
		case e.Score > prev.Score:
			return mismatch("entry %d score %d above entry %d score %d", i, e.Score, i-1, prev.Score)
		case e.Score == prev.Score && e.Rank != prev.Rank:
			return mismatch("entries %d and %d tie at %d but rank %d and %d", i-1, i, e.Score, prev.Rank, e.Rank)
		case e.Score < prev.Score && e.Rank != prev.Rank+1:
			return mismatch("entry %d rank %d does not follow rank %d", i, e.Rank, prev.Rank)
		}
	}
	if n := len(got); n > 0 && got[n-1].Rank > limit {
		return mismatch("%d distinct scores returned for limit %d", got[n-1].Rank, limit)
	}
	return nil
}

// VerifyAgainst checks got against the submissions known to be stored.
//
// Every submitted entry scoring at or above the lowest returned score must
// appear, since tied groups are never split. With exclusive set, got must
// equal the tie-inclusive top-limit of submitted exactly, up to the order
// of names inside a tied group.
func VerifyAgainst(got []Entry, submitted []Submission, limit int, exclusive bool) error {
	if err := VerifyRanking(got, limit); err != nil {
		return err
	}

	if exclusive {
		want := ranking.TopDistinct(toScoreEntries(submitted), limit)
		if len(want) != len(got) {
			return mismatch("expected %d entries, got %d", len(want), len(got))
		}
		return sameMultiset(want, got)
	}

	if len(got) == 0 {
		if len(submitted) > 0 && limit > 0 {
			return mismatch("empty leaderboard after %d submissions", len(submitted))
		}
		return nil
	}
	floor := got[len(got)-1].Score
	returned := make(map[Submission]int, len(got))
	for _, e := range got {
		returned[Submission{Name: e.Name, Score: e.Score}]++
	}
	for _, s := range submitted {
		if s.Score < floor {
			continue
		}
		if returned[s] == 0 {
			return mismatch("submitted %q with %d missing from leaderboard", s.Name, s.Score)
		}
		returned[s]--
	}
	return nil
}

func sameMultiset(want, got []Entry) error {
	counts := make(map[Entry]int, len(want))
	for _, e := range want {
		counts[e]++
	}
	for _, e := range got {
		if counts[e] == 0 {
			return mismatch("unexpected entry %+v", e)
		}
		counts[e]--
	}
	return nil
}

func toScoreEntries(subs []Submission) []model.ScoreEntry {
	out := make([]model.ScoreEntry, len(subs))
	for i, s := range subs {
		out[i] = model.ScoreEntry{ID: int64(i + 1), Name: s.Name, Score: s.Score}
	}
	return out
}

func mismatch(format string, args ...any) error {
	return errors.Join(ErrMismatch, fmt.Errorf(format, args...))
}
