// Package prompt builds the text prompts and picks the reference images used
// to generate a car and its parts.
package prompt

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"speedrush/internal/domain"
)

// DefaultNegativePrompt lists artefacts the generator should avoid.
const DefaultNegativePrompt = "low quality, distorted, bad proportions, blurry, pixelated"

// Target is either the whole car or one PartType.
type Target string

// TargetCar addresses the whole-car image.
const TargetCar Target = "CAR"

// PartTarget converts a part type into a prompt target.
func PartTarget(p domain.PartType) Target {
	return Target(p)
}

// Role is the lower-case key used for reference pools, logs and upload names.
func (t Target) Role() string {
	if t == TargetCar {
		return CategoryCar
	}
	return domain.PartType(t).Slug()
}

// Prompt is everything a generator needs for one image.
type Prompt struct {
	Target         Target
	ReferencePath  string
	Text           string
	NegativePrompt string
	Style          domain.CarStyle
}

// carStyleLead is the sentence prepended to the user's prompt for the whole car.
var carStyleLead = map[domain.CarStyle]string{
	domain.CarStylePixelArt:   "A sports car in top-down 2D view, pixel art style, vibrant colors, white background",
	domain.CarStyleRealistic:  "A sports car in top-down 2D view, photorealistic style, modern and aerodynamic design, white background",
	domain.CarStyleCartoon:    "A sports car in top-down 2D view, modern cartoon style, clean design, white background",
	domain.CarStyleMinimalist: "A sports car in top-down 2D view, minimalist style, simple lines, elegant design, white background",
}

// partStyle is the style phrase used inside part prompts.
var partStyle = map[domain.CarStyle]string{
	domain.CarStylePixelArt:   "pixel art style, vibrant colors",
	domain.CarStyleRealistic:  "photorealistic rendering, studio lighting",
	domain.CarStyleCartoon:    "modern cartoon style, clean outlines",
	domain.CarStyleMinimalist: "minimalist style, simple flat shapes",
}

type partSpec struct {
	subject    string // %s receives the configured sub-type
	mechanical bool
	framings   []string
}

var partCatalog = map[domain.PartType]partSpec{
	domain.PartEngine: {
		subject:    "A %s car engine as a single isolated component",
		mechanical: true,
		framings:   []string{"three-quarter view", "top-down view", "side view"},
	},
	domain.PartTransmission: {
		subject:    "A %s car transmission gearbox as a single isolated component",
		mechanical: true,
		framings:   []string{"three-quarter view", "side view", "exploded view"},
	},
	domain.PartWheels: {
		subject:  "A set of %s car wheels with tires",
		framings: []string{"front view", "three-quarter view", "side view"},
	},
}

// ReferencePicker selects a reference image for a pool category.
type ReferencePicker interface {
	Pick(category string) (string, error)
}

// Builder renders prompts from the catalogs above. Safe for concurrent use.
type Builder struct {
	refs ReferencePicker

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBuilder wires a reference picker and an optional random source.
func NewBuilder(refs ReferencePicker, src rand.Source) *Builder {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>3|1)
	}
	return &Builder{refs: refs, rng: rand.New(src)}
}

// Build returns the prompt and reference image for target.
func (b *Builder) Build(target Target, cfg domain.CarConfig) (Prompt, error) {
	style := cfg.Style
	if style == "" {
		style = domain.DefaultCarStyle
	}
	var text string
	if target == TargetCar {
		text = CarText(style, cfg.Prompt)
	} else {
		pt := domain.PartType(target)
		if !pt.Valid() {
			return Prompt{}, fmt.Errorf("prompt: unknown target %q", target)
		}
		text = b.partText(pt, style, cfg.SubType(pt))
	}
	ref, err := b.refs.Pick(target.Role())
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		Target:         target,
		ReferencePath:  ref,
		Text:           text,
		NegativePrompt: DefaultNegativePrompt,
		Style:          style,
	}, nil
}

// CarText renders the whole-car prompt: style lead followed by the base prompt.
func CarText(style domain.CarStyle, base string) string {
	lead, ok := carStyleLead[style]
	if !ok {
		lead = carStyleLead[domain.DefaultCarStyle]
	}
	base = strings.TrimSpace(base)
	if base == "" {
		return lead
	}
	return lead + ". " + base
}

func (b *Builder) partText(pt domain.PartType, style domain.CarStyle, subType string) string {
	spec := partCatalog[pt]
	subType = strings.TrimSpace(subType)
	if subType == "" {
		subType = "standard"
	}
	parts := []string{fmt.Sprintf(spec.subject, subType)}
	if len(spec.framings) > 0 {
		b.mu.Lock()
		framing := spec.framings[b.rng.IntN(len(spec.framings))]
		b.mu.Unlock()
		parts = append(parts, framing)
	}
	if phrase, ok := partStyle[style]; ok {
		parts = append(parts, phrase)
	}
	if spec.mechanical {
		parts = append(parts, "technical diagram style")
	}
	parts = append(parts, "white background", "centered", "high detail")
	return strings.Join(parts, ", ")
}
