package domain

import (
	"errors"
	"testing"
)

func validResult() *GenerationResult {
	return &GenerationResult{
		CarImageURI: "https://gateway.lighthouse.storage/ipfs/car",
		Parts: []CarPart{
			{PartType: PartEngine, Stat1: 1, Stat2: 5, Stat3: 10, ImageURI: "engine"},
			{PartType: PartTransmission, Stat1: 2, Stat2: 3, Stat3: 4, ImageURI: "transmission"},
			{PartType: PartWheels, Stat1: 10, Stat2: 10, Stat3: 1, ImageURI: "wheels"},
		},
	}
}

func TestParseCarStyle(t *testing.T) {
	cases := map[string]CarStyle{
		"":            DefaultCarStyle,
		"pixel_art":   CarStylePixelArt,
		"pixel-art":   CarStylePixelArt,
		" Realistic ": CarStyleRealistic,
		"minimalist":  CarStyleMinimalist,
	}
	for in, want := range cases {
		got, err := ParseCarStyle(in)
		if err != nil {
			t.Fatalf("ParseCarStyle(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseCarStyle(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseCarStyle("watercolor"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("unknown style err = %v, want ErrInvalidRequest", err)
	}
}

func TestCarConfigSubType(t *testing.T) {
	cfg := CarConfig{EngineType: "v8", TransmissionType: "auto", WheelsType: "offroad"}
	if cfg.SubType(PartEngine) != "v8" || cfg.SubType(PartTransmission) != "auto" || cfg.SubType(PartWheels) != "offroad" {
		t.Fatalf("unexpected sub types for %+v", cfg)
	}
	if PartTransmission.Slug() != "transmission" {
		t.Fatalf("slug = %q", PartTransmission.Slug())
	}
	if PartType("BRAKES").Valid() {
		t.Fatalf("unknown part reported valid")
	}
}

func TestGenerationResultValidate(t *testing.T) {
	if err := validResult().Validate(); err != nil {
		t.Fatalf("valid result rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *GenerationResult)
	}{
		{"missing car uri", func(r *GenerationResult) { r.CarImageURI = " " }},
		{"missing part", func(r *GenerationResult) { r.Parts = r.Parts[:2] }},
		{"wrong order", func(r *GenerationResult) { r.Parts[0], r.Parts[1] = r.Parts[1], r.Parts[0] }},
		{"stat below range", func(r *GenerationResult) { r.Parts[1].Stat2 = 0 }},
		{"stat above range", func(r *GenerationResult) { r.Parts[2].Stat3 = 11 }},
		{"missing part uri", func(r *GenerationResult) { r.Parts[2].ImageURI = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := validResult()
			tc.mutate(r)
			if err := r.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	var nilResult *GenerationResult
	if err := nilResult.Validate(); err == nil {
		t.Fatalf("nil result accepted")
	}
}
