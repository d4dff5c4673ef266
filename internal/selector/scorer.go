package selector

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

// Score bounds for RandomScorer.
const (
	MinScore = 75.0
	MaxScore = 95.0
)

// RandomScorer draws a uniform score in [MinScore, MaxScore] rounded to one
// decimal. It is a placeholder until a real relevance signal exists and
// carries no ranking meaning.
type RandomScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomScorer builds a scorer over rng; nil uses the global source.
func NewRandomScorer(rng *rand.Rand) *RandomScorer {
	return &RandomScorer{rng: rng}
}

// Score implements Scorer.
func (s *RandomScorer) Score(_ competitor.Competitor) float64 {
	var f float64
	if s.rng == nil {
		f = rand.Float64()
	} else {
		s.mu.Lock()
		f = s.rng.Float64()
		s.mu.Unlock()
	}
	v := math.Round((MinScore+f*(MaxScore-MinScore))*10) / 10
	return math.Min(math.Max(v, MinScore), MaxScore)
}
