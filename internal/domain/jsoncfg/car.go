package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"speedrush/internal/domain"
)

const (
	// MaxPromptLength bounds the free-text prompt in runes.
	MaxPromptLength = 1000
	// MaxSubTypeLength bounds engine/transmission/wheels sub-type strings.
	MaxSubTypeLength = 64
)

// CarRequest is the JSON body accepted by the generate and pregenerate endpoints.
type CarRequest struct {
	Prompt           string `json:"prompt"`
	Style            string `json:"style,omitempty"`
	EngineType       string `json:"engineType,omitempty"`
	TransmissionType string `json:"transmissionType,omitempty"`
	WheelsType       string `json:"wheelsType,omitempty"`
}

var lower = cases.Lower(language.Und)

// Normalize trims and NFC-normalises every field and fills server defaults.
func (r *CarRequest) Normalize() {
	if r == nil {
		return
	}
	r.Prompt = cleanText(r.Prompt)
	r.Style = cleanText(r.Style)
	r.EngineType = lower.String(cleanText(r.EngineType))
	r.TransmissionType = lower.String(cleanText(r.TransmissionType))
	r.WheelsType = lower.String(cleanText(r.WheelsType))
	if r.Style == "" {
		r.Style = string(domain.DefaultCarStyle)
	}
	if r.EngineType == "" {
		r.EngineType = domain.DefaultEngineType
	}
	if r.TransmissionType == "" {
		r.TransmissionType = domain.DefaultTransmissionType
	}
	if r.WheelsType == "" {
		r.WheelsType = domain.DefaultWheelsType
	}
}

// Config validates the normalised request and converts it into a domain.CarConfig.
func (r CarRequest) Config() (domain.CarConfig, error) {
	if r.Prompt == "" {
		return domain.CarConfig{}, fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	if n := len([]rune(r.Prompt)); n > MaxPromptLength {
		return domain.CarConfig{}, fmt.Errorf("%w: prompt exceeds %d characters", domain.ErrInvalidRequest, MaxPromptLength)
	}
	for name, v := range map[string]string{
		"engineType":       r.EngineType,
		"transmissionType": r.TransmissionType,
		"wheelsType":       r.WheelsType,
	} {
		if len([]rune(v)) > MaxSubTypeLength {
			return domain.CarConfig{}, fmt.Errorf("%w: %s exceeds %d characters", domain.ErrInvalidRequest, name, MaxSubTypeLength)
		}
	}
	style, err := domain.ParseCarStyle(r.Style)
	if err != nil {
		return domain.CarConfig{}, err
	}
	return domain.CarConfig{
		Prompt:           r.Prompt,
		Style:            style,
		EngineType:       r.EngineType,
		TransmissionType: r.TransmissionType,
		WheelsType:       r.WheelsType,
	}, nil
}

// DecodeCarRequest parses, normalises and validates a request body.
func DecodeCarRequest(raw []byte) (domain.CarConfig, error) {
	var req CarRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return domain.CarConfig{}, fmt.Errorf("%w: invalid payload", domain.ErrInvalidRequest)
	}
	req.Normalize()
	return req.Config()
}

func cleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
