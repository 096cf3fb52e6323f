package pregen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"speedrush/internal/domain"
)

// CarGenerator produces one complete car.
type CarGenerator interface {
	Generate(ctx context.Context, cfg domain.CarConfig) (*domain.GenerationResult, error)
}

// FillerOptions configures a Filler.
type FillerOptions struct {
	Queue       domain.PregenQueue
	Generator   CarGenerator
	Target      int
	Concurrency int
	Prompt      string
	// Style fixes the style of every generated car; empty picks one at random.
	Style  domain.CarStyle
	Rand   *rand.Rand
	Logger zerolog.Logger
}

// Filler keeps a pregeneration queue topped up to a target depth.
type Filler struct {
	opts FillerOptions
}

func NewFiller(opts FillerOptions) (*Filler, error) {
	if opts.Queue == nil || opts.Generator == nil {
		return nil, fmt.Errorf("%w: pregen filler needs a queue and a generator", domain.ErrConfiguration)
	}
	if opts.Target < 0 {
		return nil, fmt.Errorf("%w: pregen target depth must not be negative", domain.ErrConfiguration)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if strings.TrimSpace(opts.Prompt) == "" {
		opts.Prompt = "a fast sports car"
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Filler{opts: opts}, nil
}

// Fill generates the deficit between the queue depth and the target. It
// returns how many entries were stored; individual generation failures are
// logged and do not stop the others.
func (f *Filler) Fill(ctx context.Context) (int, error) {
	depth, err := f.opts.Queue.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("pregen: queue depth: %w", err)
	}
	deficit := f.opts.Target - depth
	if deficit <= 0 {
		f.opts.Logger.Debug().Int("depth", depth).Msg("pregen: queue full")
		return 0, nil
	}
	return f.Generate(ctx, deficit)
}

// Generate produces n cars and stores each one in the queue.
func (f *Filler) Generate(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	configs := make([]domain.CarConfig, n)
	for i := range configs {
		configs[i] = f.config()
	}

	var stored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)
	for _, cfg := range configs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			result, err := f.opts.Generator.Generate(gctx, cfg)
			if err != nil {
				f.opts.Logger.Error().Err(err).Str("style", string(cfg.Style)).Msg("pregen: generation failed")
				return nil
			}
			id, err := f.opts.Queue.Put(gctx, result)
			if err != nil {
				f.opts.Logger.Error().Err(err).Msg("pregen: store failed")
				return nil
			}
			stored.Add(1)
			f.opts.Logger.Info().Str("cache_id", id).Str("style", string(cfg.Style)).Msg("pregen: stored car")
			return nil
		})
	}
	err := g.Wait()
	return int(stored.Load()), err
}

// Run fills the queue immediately and then on every tick until ctx ends.
func (f *Filler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: pregen poll interval must be positive", domain.ErrConfiguration)
	}
	f.opts.Logger.Info().Int("target", f.opts.Target).Dur("interval", interval).Msg("pregen: started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if n, err := f.Fill(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			f.opts.Logger.Error().Err(err).Msg("pregen: fill failed")
		} else if n > 0 {
			f.opts.Logger.Info().Int("stored", n).Msg("pregen: fill complete")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *Filler) config() domain.CarConfig {
	style := f.opts.Style
	if style == "" {
		style = domain.CarStyles[f.opts.Rand.IntN(len(domain.CarStyles))]
	}
	return domain.CarConfig{
		Prompt:           f.opts.Prompt,
		Style:            style,
		EngineType:       domain.DefaultEngineType,
		TransmissionType: domain.DefaultTransmissionType,
		WheelsType:       domain.DefaultWheelsType,
	}
}
