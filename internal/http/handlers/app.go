package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"speedrush/internal/domain"
)

// CarGenerator runs the full asset pipeline for one car.
type CarGenerator interface {
	Generate(ctx context.Context, cfg domain.CarConfig) (*domain.GenerationResult, error)
}

// ReferenceCounter reports how many reference images each pool holds.
type ReferenceCounter interface {
	Counts() map[string]int
}

// Backends names the adapters selected at startup, reported by /health.
type Backends struct {
	Queue             string
	ImageProvider     string
	Storage           string
	BackgroundRemover string
}

type App struct {
	Logger     zerolog.Logger
	Generator  CarGenerator
	Queue      domain.PregenQueue
	References ReferenceCounter
	Backends   Backends
}

type errorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, detail string) {
	a.json(w, code, errorResponse{Detail: detail, Error: errCode})
}

// errorCode maps pipeline failures onto the short codes clients switch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrProvider):
		return "provider_error"
	case errors.Is(err, domain.ErrUpload):
		return "upload_error"
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration_error"
	default:
		return "generation_failed"
	}
}
