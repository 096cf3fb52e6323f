package pregen

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"speedrush/internal/domain"
)

type stubCarGenerator struct {
	mu     sync.Mutex
	styles []domain.CarStyle
	fail   bool
}

func (g *stubCarGenerator) Generate(_ context.Context, cfg domain.CarConfig) (*domain.GenerationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.styles = append(g.styles, cfg.Style)
	if g.fail {
		return nil, errors.New("provider down")
	}
	return sampleResult(string(cfg.Style)), nil
}

func newTestFileQueue(t *testing.T) *FileQueue {
	t.Helper()
	q, err := NewFileQueue(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileQueue: %v", err)
	}
	q.now = steppedClock()
	return q
}

func TestFillerFillsDeficit(t *testing.T) {
	q := newTestFileQueue(t)
	ctx := context.Background()
	if _, err := q.Put(ctx, sampleResult("existing")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	gen := &stubCarGenerator{}
	f, err := NewFiller(FillerOptions{
		Queue:       q,
		Generator:   gen,
		Target:      4,
		Concurrency: 2,
		Rand:        rand.New(rand.NewPCG(1, 2)),
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewFiller: %v", err)
	}

	n, err := f.Fill(ctx)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if n != 3 {
		t.Fatalf("stored = %d, want 3", n)
	}
	if depth, _ := q.Len(ctx); depth != 4 {
		t.Fatalf("depth = %d, want 4", depth)
	}
	for _, s := range gen.styles {
		if _, err := domain.ParseCarStyle(string(s)); err != nil {
			t.Fatalf("random style %q is not valid", s)
		}
	}

	n, err = f.Fill(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second Fill = %d, %v; want 0", n, err)
	}
}

func TestFillerFixedStyle(t *testing.T) {
	gen := &stubCarGenerator{}
	f, err := NewFiller(FillerOptions{Queue: newTestFileQueue(t), Generator: gen, Style: domain.CarStyleRealistic})
	if err != nil {
		t.Fatalf("NewFiller: %v", err)
	}
	if n, err := f.Generate(context.Background(), 2); err != nil || n != 2 {
		t.Fatalf("Generate = %d, %v", n, err)
	}
	for _, s := range gen.styles {
		if s != domain.CarStyleRealistic {
			t.Fatalf("style = %q", s)
		}
	}
}

func TestFillerSkipsFailures(t *testing.T) {
	q := newTestFileQueue(t)
	f, err := NewFiller(FillerOptions{Queue: q, Generator: &stubCarGenerator{fail: true}, Target: 2})
	if err != nil {
		t.Fatalf("NewFiller: %v", err)
	}
	n, err := f.Fill(context.Background())
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if n != 0 {
		t.Fatalf("stored = %d, want 0", n)
	}
	if depth, _ := q.Len(context.Background()); depth != 0 {
		t.Fatalf("failed generations must not be queued, depth = %d", depth)
	}
}

func TestFillerRunStopsOnCancel(t *testing.T) {
	f, err := NewFiller(FillerOptions{Queue: newTestFileQueue(t), Generator: &stubCarGenerator{}, Target: 1})
	if err != nil {
		t.Fatalf("NewFiller: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Run(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
}

func TestNewFillerValidation(t *testing.T) {
	if _, err := NewFiller(FillerOptions{}); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
