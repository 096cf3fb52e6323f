package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status            string         `json:"status"`
	QueueBackend      string         `json:"queue_backend"`
	QueueDepth        int            `json:"queue_depth"`
	ImageProvider     string         `json:"image_provider"`
	StorageBackend    string         `json:"storage_backend"`
	BackgroundRemover string         `json:"background_remover"`
	ReferenceImages   map[string]int `json:"reference_images"`
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:            "ok",
		QueueBackend:      a.Backends.Queue,
		QueueDepth:        -1,
		ImageProvider:     a.Backends.ImageProvider,
		StorageBackend:    a.Backends.Storage,
		BackgroundRemover: a.Backends.BackgroundRemover,
		ReferenceImages:   map[string]int{},
	}
	if a.Queue != nil {
		n, err := a.Queue.Len(r.Context())
		if err != nil {
			a.Logger.Warn().Err(err).Msg("health: queue depth unavailable")
			resp.Status = "degraded"
		} else {
			resp.QueueDepth = n
		}
	}
	if a.References != nil {
		resp.ReferenceImages = a.References.Counts()
		if resp.ReferenceImages["car"] == 0 {
			resp.Status = "degraded"
		}
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) Root(w http.ResponseWriter, _ *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"message": "Welcome to the Speed Rush 2D Car Generator API"})
}
