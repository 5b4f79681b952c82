package loadgen

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Generate builds cfg.Submissions submissions spread over cfg.Players names.
// A small MaxScore relative to Submissions produces ties on purpose.
func Generate(cfg *Config) []Submission {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	names := make([]string, cfg.Players)
	for i := range names {
		names[i] = "player-" + uuid.NewString()[:8]
	}

	subs := make([]Submission, cfg.Submissions)
	for i := range subs {
		subs[i] = Submission{
			Name:  names[rng.IntN(len(names))],
			Score: rng.Int64N(cfg.MaxScore),
		}
	}
	return subs
}
