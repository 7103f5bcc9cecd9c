package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/rpattn/formexport/internal/auth"
	"github.com/rpattn/formexport/internal/export"
	"github.com/rpattn/formexport/internal/metrics"
	mw "github.com/rpattn/formexport/internal/middleware"
)

type Config struct {
	JWTSecret      string
	AllowedOrigins []string
	Logger         *slog.Logger
}

func New(cfg Config, exportH *export.Handler, collector *metrics.Collector) *chi.Mux {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	// Global middleware
	r.Use(mw.Recovery(cfg.Logger))
	r.Use(mw.LoggingMiddleware(cfg.Logger))
	r.Use(corsHandler.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", collector.Handler())

	// Signed download links carry their own authorization.
	r.Get("/zip_download/{filename}", exportH.Download)
	r.Post("/zip_download/{filename}", exportH.Download)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))

		r.Post("/exports", exportH.Queue)
		r.Get("/exports/pending", exportH.Pending)
		r.Get("/exports/{jobId}", exportH.Status)
		r.Delete("/exports/{jobId}", exportH.Cancel)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))
			r.Get("/admin/settings", exportH.GetSettings)
			r.Put("/admin/settings", exportH.UpdateSettings)
			r.Get("/admin/zip_download/{filename}", exportH.Download)
		})
	})

	return r
}
