package domain

import (
	"fmt"
	"strings"
)

// CarStyle enumerates the supported rendering styles.
type CarStyle string

const (
	CarStylePixelArt   CarStyle = "pixel_art"
	CarStyleRealistic  CarStyle = "realistic"
	CarStyleCartoon    CarStyle = "cartoon"
	CarStyleMinimalist CarStyle = "minimalist"
)

// DefaultCarStyle is applied when a request omits the style.
const DefaultCarStyle = CarStyleCartoon

// CarStyles lists every style in a stable order.
var CarStyles = []CarStyle{CarStylePixelArt, CarStyleRealistic, CarStyleCartoon, CarStyleMinimalist}

// ParseCarStyle accepts the canonical names plus the hyphenated "pixel-art" spelling.
func ParseCarStyle(raw string) (CarStyle, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return DefaultCarStyle, nil
	}
	v = strings.ReplaceAll(v, "-", "_")
	for _, s := range CarStyles {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported style %q", ErrInvalidRequest, raw)
}

// PartType is the closed set of car sub-components.
type PartType string

const (
	PartEngine       PartType = "ENGINE"
	PartTransmission PartType = "TRANSMISSION"
	PartWheels       PartType = "WHEELS"
)

// PartTypes is the fixed order parts appear in a GenerationResult.
var PartTypes = [3]PartType{PartEngine, PartTransmission, PartWheels}

// Slug is the lower-case key used for reference pools and upload filenames.
func (p PartType) Slug() string {
	return strings.ToLower(string(p))
}

// Valid reports whether p is one of the known part types.
func (p PartType) Valid() bool {
	switch p {
	case PartEngine, PartTransmission, PartWheels:
		return true
	}
	return false
}

const (
	DefaultEngineType       = "standard"
	DefaultTransmissionType = "manual"
	DefaultWheelsType       = "sport"
)

// CarConfig is the immutable per-request description of the car to generate.
type CarConfig struct {
	Prompt           string
	Style            CarStyle
	EngineType       string
	TransmissionType string
	WheelsType       string
}

// SubType returns the free-text sub-type configured for a part.
func (c CarConfig) SubType(p PartType) string {
	switch p {
	case PartEngine:
		return c.EngineType
	case PartTransmission:
		return c.TransmissionType
	case PartWheels:
		return c.WheelsType
	}
	return ""
}

const (
	StatMin = 1
	StatMax = 10
)

// CarPart is one generated sub-component with its stats and uploaded image.
type CarPart struct {
	PartType PartType `json:"partType"`
	Stat1    int      `json:"stat1"`
	Stat2    int      `json:"stat2"`
	Stat3    int      `json:"stat3"`
	ImageURI string   `json:"imageURI"`
}

// GenerationResult is the unit returned to callers and stored in the pregeneration queue.
type GenerationResult struct {
	CarImageURI string    `json:"carImageURI"`
	Parts       []CarPart `json:"parts"`
}

// Validate checks that the result has exactly one part of each type in
// engine/transmission/wheels order and every stat lies in [StatMin, StatMax].
func (r *GenerationResult) Validate() error {
	if r == nil {
		return fmt.Errorf("generation result is nil")
	}
	if strings.TrimSpace(r.CarImageURI) == "" {
		return fmt.Errorf("carImageURI is required")
	}
	if len(r.Parts) != len(PartTypes) {
		return fmt.Errorf("expected %d parts, got %d", len(PartTypes), len(r.Parts))
	}
	for i, part := range r.Parts {
		if part.PartType != PartTypes[i] {
			return fmt.Errorf("parts[%d]: partType = %q, want %q", i, part.PartType, PartTypes[i])
		}
		for j, stat := range []int{part.Stat1, part.Stat2, part.Stat3} {
			if stat < StatMin || stat > StatMax {
				return fmt.Errorf("parts[%d].stat%d = %d out of range", i, j+1, stat)
			}
		}
		if strings.TrimSpace(part.ImageURI) == "" {
			return fmt.Errorf("parts[%d]: imageURI is required", i)
		}
	}
	return nil
}
