// Package stats rolls the numeric attributes attached to generated car parts.
package stats

import (
	"math/rand/v2"
	"sync"
	"time"

	"speedrush/internal/domain"
)

// HighTierWeight is the relative weight of the two highest stat values.
const HighTierWeight = 0.7

// Weights returns the sampling weight for each stat value, indexed by value.
// Index 0 is unused.
func Weights() [domain.StatMax + 1]float64 {
	var w [domain.StatMax + 1]float64
	for v := domain.StatMin; v <= domain.StatMax; v++ {
		w[v] = 1
		if v >= domain.StatMax-1 {
			w[v] = HighTierWeight
		}
	}
	return w
}

// Generator draws stats from a weighted distribution over [1,10] where 9 and
// 10 are rarer. Safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	cum   [domain.StatMax + 1]float64
	total float64
}

// New builds a generator over src. A nil src seeds from the clock.
func New(src rand.Source) *Generator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>17|1)
	}
	g := &Generator{rng: rand.New(src)}
	w := Weights()
	for v := domain.StatMin; v <= domain.StatMax; v++ {
		g.total += w[v]
		g.cum[v] = g.total
	}
	return g
}

// Stat draws a single value.
func (g *Generator) Stat() int {
	g.mu.Lock()
	x := g.rng.Float64() * g.total
	g.mu.Unlock()
	for v := domain.StatMin; v <= domain.StatMax; v++ {
		if x < g.cum[v] {
			return v
		}
	}
	return domain.StatMax
}

// Roll draws the three independent stats for one part.
func (g *Generator) Roll() [3]int {
	return [3]int{g.Stat(), g.Stat(), g.Stat()}
}

// Part assembles a CarPart with freshly rolled stats.
func (g *Generator) Part(pt domain.PartType, imageURI string) domain.CarPart {
	s := g.Roll()
	return domain.CarPart{
		PartType: pt,
		Stat1:    s[0],
		Stat2:    s[1],
		Stat3:    s[2],
		ImageURI: imageURI,
	}
}
