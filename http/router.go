package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"finance-form/obs"
	"finance-form/service"
)

type RouterConfig struct {
	Forms          *service.FormService
	Logger         zerolog.Logger
	RateLimiter    *RateLimiter
	AllowedOrigins []string
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	formHandler := NewFormHandler(cfg.Forms)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RequestLogger{Logger: cfg.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/forms", func(f chi.Router) {
		if cfg.RateLimiter != nil {
			f.Use(RateLimitMiddleware(cfg.RateLimiter))
		}
		f.Post("/", formHandler.CreateForm)
		f.Route("/{formID}", func(form chi.Router) {
			form.Get("/", formHandler.GetForm)
			form.Post("/fields/{fieldID}/focus", formHandler.Focus)
			form.Post("/fields/{fieldID}/change", formHandler.Change)
			form.Post("/fields/{fieldID}/blur", formHandler.Blur)
		})
	})

	return r
}
