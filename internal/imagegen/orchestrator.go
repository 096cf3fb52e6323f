package imagegen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"speedrush/internal/domain"
	"speedrush/internal/imaging"
	"speedrush/internal/prompt"
	"speedrush/internal/providers/image"
	"speedrush/internal/storage"
)

// PromptBuilder renders the prompt and reference image for one target.
type PromptBuilder interface {
	Build(target prompt.Target, cfg domain.CarConfig) (prompt.Prompt, error)
}

// StatRoller assembles a part with freshly rolled stats.
type StatRoller interface {
	Part(pt domain.PartType, imageURI string) domain.CarPart
}

// targets is the fixed asset order: whole car first, then parts in PartTypes order.
var targets = [4]prompt.Target{
	prompt.TargetCar,
	prompt.PartTarget(domain.PartEngine),
	prompt.PartTarget(domain.PartTransmission),
	prompt.PartTarget(domain.PartWheels),
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Prompts  PromptBuilder
	Images   image.Generator
	Remover  imaging.Remover
	Uploader storage.Uploader
	Stats    StatRoller
	// MinInterval paces provider calls; zero disables pacing.
	MinInterval time.Duration
	// Timeout bounds a whole Generate call; zero means no limit beyond ctx.
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Orchestrator runs the generate, remove-background, upload pipeline for a car
// and its three parts.
type Orchestrator struct {
	prompts  PromptBuilder
	images   image.Generator
	remover  imaging.Remover
	uploader storage.Uploader
	stats    StatRoller
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   zerolog.Logger
}

// New validates opts and returns a ready orchestrator.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Prompts == nil:
		return nil, fmt.Errorf("%w: imagegen: prompt builder is required", domain.ErrConfiguration)
	case opts.Images == nil:
		return nil, fmt.Errorf("%w: imagegen: image generator is required", domain.ErrConfiguration)
	case opts.Remover == nil:
		return nil, fmt.Errorf("%w: imagegen: background remover is required", domain.ErrConfiguration)
	case opts.Uploader == nil:
		return nil, fmt.Errorf("%w: imagegen: uploader is required", domain.ErrConfiguration)
	case opts.Stats == nil:
		return nil, fmt.Errorf("%w: imagegen: stat generator is required", domain.ErrConfiguration)
	}
	o := &Orchestrator{
		prompts:  opts.Prompts,
		images:   opts.Images,
		remover:  opts.Remover,
		uploader: opts.Uploader,
		stats:    opts.Stats,
		timeout:  opts.Timeout,
		logger:   zerolog.Nop(),
	}
	if opts.MinInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	if opts.Logger != nil {
		o.logger = *opts.Logger
	}
	return o, nil
}

// Generate produces a complete GenerationResult or fails as a whole. Errors
// are *domain.GenerationError values naming the failing stage and asset.
func (o *Orchestrator) Generate(ctx context.Context, cfg domain.CarConfig) (*domain.GenerationResult, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	genID := uuid.NewString()
	logger := o.logger.With().Str("generation_id", genID).Logger()
	start := time.Now()
	logger.Info().
		Str("style", string(cfg.Style)).
		Str("provider", o.images.Name()).
		Msg("generation started")

	var prompts [4]prompt.Prompt
	for i, target := range targets {
		p, err := o.prompts.Build(target, cfg)
		if err != nil {
			return nil, o.fail(logger, &domain.GenerationError{Stage: domain.StagePrompt, Role: target.Role(), Err: err})
		}
		prompts[i] = p
	}

	var raw [4][]byte
	err := fanOut(ctx, domain.StageGenerate, func(ctx context.Context, i int) error {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		p := prompts[i]
		data, err := o.images.Generate(ctx, image.GenerateRequest{
			ReferencePath:  p.ReferencePath,
			Prompt:         p.Text,
			NegativePrompt: p.NegativePrompt,
			Style:          p.Style,
			RequestID:      genID,
		})
		if err != nil {
			return err
		}
		raw[i] = data
		return nil
	})
	if err != nil {
		return nil, o.fail(logger, err)
	}

	var cutout [4][]byte
	err = fanOut(ctx, domain.StageBackground, func(ctx context.Context, i int) error {
		data, err := o.remover.RemoveBackground(ctx, raw[i])
		if err != nil {
			return err
		}
		cutout[i] = data
		return nil
	})
	if err != nil {
		return nil, o.fail(logger, err)
	}

	var uris [4]string
	err = fanOut(ctx, domain.StageUpload, func(ctx context.Context, i int) error {
		uri, err := o.uploader.Upload(ctx, targets[i].Role()+".png", cutout[i])
		if err != nil {
			return err
		}
		uris[i] = uri
		return nil
	})
	if err != nil {
		return nil, o.fail(logger, err)
	}

	result := &domain.GenerationResult{
		CarImageURI: uris[0],
		Parts:       make([]domain.CarPart, 0, len(domain.PartTypes)),
	}
	for i, pt := range domain.PartTypes {
		result.Parts = append(result.Parts, o.stats.Part(pt, uris[i+1]))
	}
	logger.Info().
		Str("car_image_uri", result.CarImageURI).
		Dur("elapsed", time.Since(start)).
		Msg("generation completed")
	return result, nil
}

func (o *Orchestrator) fail(logger zerolog.Logger, err error) error {
	logger.Error().Err(err).Msg("generation failed")
	return err
}

// fanOut runs fn once per target concurrently. The first failure cancels the
// siblings' context and is returned wrapped with its stage and role.
func fanOut(ctx context.Context, stage string, fn func(ctx context.Context, i int) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range targets {
		eg.Go(func() error {
			if err := fn(egCtx, i); err != nil {
				return &domain.GenerationError{Stage: stage, Role: targets[i].Role(), Err: err}
			}
			return nil
		})
	}
	return eg.Wait()
}
