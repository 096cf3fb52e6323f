package handlers

import (
	"io"
	"net/http"

	"speedrush/internal/domain"
	"speedrush/internal/domain/jsoncfg"
	"speedrush/internal/middleware"
)

const maxBodyBytes = 64 << 10

type pregenerateResponse struct {
	Message string `json:"message"`
	CacheID string `json:"cache_id"`
}

// GenerateCar serves a pregenerated car when one is queued and otherwise runs
// the pipeline inline.
func (a *App) GenerateCar(w http.ResponseWriter, r *http.Request) {
	cfg, ok := a.decodeConfig(w, r)
	if !ok {
		return
	}
	logger := a.Logger.With().Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()

	if a.Queue != nil {
		cached, hit, err := a.Queue.Take(r.Context())
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("pregen queue take failed, generating inline")
		case hit:
			logger.Info().Msg("served pregenerated car")
			a.json(w, http.StatusOK, cached)
			return
		}
	}

	result, err := a.Generator.Generate(r.Context(), cfg)
	if err != nil {
		logger.Error().Err(err).Msg("car generation failed")
		a.error(w, http.StatusInternalServerError, errorCode(err), err.Error())
		return
	}
	a.json(w, http.StatusOK, result)
}

// PregenerateCar runs the pipeline and stores the result for a later request.
func (a *App) PregenerateCar(w http.ResponseWriter, r *http.Request) {
	cfg, ok := a.decodeConfig(w, r)
	if !ok {
		return
	}
	if a.Queue == nil {
		a.error(w, http.StatusInternalServerError, "configuration_error", "pregeneration queue not configured")
		return
	}
	logger := a.Logger.With().Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()

	result, err := a.Generator.Generate(r.Context(), cfg)
	if err != nil {
		logger.Error().Err(err).Msg("car pregeneration failed")
		a.error(w, http.StatusInternalServerError, errorCode(err), err.Error())
		return
	}
	id, err := a.Queue.Put(r.Context(), result)
	if err != nil {
		logger.Error().Err(err).Msg("pregen queue put failed")
		a.error(w, http.StatusInternalServerError, "cache_error", err.Error())
		return
	}
	logger.Info().Str("cache_id", id).Msg("car pregenerated")
	a.json(w, http.StatusOK, pregenerateResponse{Message: "Car pregenerated successfully", CacheID: id})
}

func (a *App) decodeConfig(w http.ResponseWriter, r *http.Request) (domain.CarConfig, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		a.error(w, http.StatusRequestEntityTooLarge, "invalid_request", "request body too large")
		return domain.CarConfig{}, false
	}
	cfg, err := jsoncfg.DecodeCarRequest(raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return domain.CarConfig{}, false
	}
	return cfg, true
}
