package prompt

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"speedrush/internal/domain"
)

// CategoryCar is the generic pool every other category falls back to.
const CategoryCar = "car"

// Categories lists the pool sub-directories looked up under the pool root.
func Categories() []string {
	out := []string{CategoryCar}
	for _, p := range domain.PartTypes {
		out = append(out, p.Slug())
	}
	return out
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
}

// Pool selects random reference images from <root>/<category>/. Directory
// listings are cached for listingTTL so hot requests do not hit the disk.
type Pool struct {
	root   string
	cache  *cache.Cache
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

const (
	listingTTL     = 5 * time.Minute
	listingCleanup = 10 * time.Minute
)

// PoolOption customises a Pool.
type PoolOption func(*Pool)

// WithRand injects the random source used for selection.
func WithRand(src rand.Source) PoolOption {
	return func(p *Pool) { p.rng = rand.New(src) }
}

// WithPoolLogger sets the logger.
func WithPoolLogger(l zerolog.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// NewPool builds a pool rooted at root. Missing directories are treated as empty.
func NewPool(root string, opts ...PoolOption) *Pool {
	p := &Pool{
		root:   strings.TrimSpace(root),
		cache:  cache.New(listingTTL, listingCleanup),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		now := uint64(time.Now().UnixNano())
		p.rng = rand.New(rand.NewPCG(now, now^0x9e3779b97f4a7c15))
	}
	return p
}

// List returns the sorted reference image paths for category.
func (p *Pool) List(category string) ([]string, error) {
	if cached, ok := p.cache.Get(category); ok {
		return cached.([]string), nil
	}
	dir := filepath.Join(p.root, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			p.cache.SetDefault(category, []string{})
			return nil, nil
		}
		return nil, fmt.Errorf("prompt: list reference pool %s: %w", category, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	p.cache.SetDefault(category, paths)
	return paths, nil
}

// Pick returns a random reference image for category, falling back to the
// generic car pool when the category is empty.
func (p *Pool) Pick(category string) (string, error) {
	paths, err := p.List(category)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 && category != CategoryCar {
		p.logger.Debug().Str("category", category).Msg("prompt: empty reference pool, using car pool")
		paths, err = p.List(CategoryCar)
		if err != nil {
			return "", err
		}
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: no reference images for %q under %s", domain.ErrConfiguration, category, p.root)
	}
	p.mu.Lock()
	idx := p.rng.IntN(len(paths))
	p.mu.Unlock()
	return paths[idx], nil
}

// Counts reports how many reference images each category holds.
func (p *Pool) Counts() map[string]int {
	out := make(map[string]int)
	for _, c := range Categories() {
		paths, err := p.List(c)
		if err != nil {
			out[c] = -1
			continue
		}
		out[c] = len(paths)
	}
	return out
}

// Flush drops cached listings so new files are picked up immediately.
func (p *Pool) Flush() {
	p.cache.Flush()
}
