package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"speedrush/internal/http/handlers"
	"speedrush/internal/middleware"
)

// Options controls router wiring that depends on configuration.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	// StaticDir, when set, is served under /static for the local storage backend.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/", app.Root)
	r.Get("/health", app.Health)
	r.Get("/openapi.json", app.OpenAPIJSON)
	r.Get("/docs", app.SwaggerDocs)
	r.Get("/redoc", app.RedocDocs)

	r.Route("/api/cars", func(r chi.Router) {
		r.Post("/generate", app.GenerateCar)
		r.Post("/pregenerate", app.PregenerateCar)
	})

	if dir := strings.TrimSpace(opts.StaticDir); dir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
	}

	return r
}
