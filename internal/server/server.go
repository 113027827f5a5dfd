// Package server assembles the HTTP server for the experiment engine.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/emiliopalmerini/abkit/internal/engine"
	"github.com/emiliopalmerini/abkit/internal/web"
)

// Config holds server-specific configuration.
type Config struct {
	Addr string
}

func NewHTTPServer(cfg Config, svc *engine.Service, logger *slog.Logger) *http.Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	web.NewHandler(svc, logger).RegisterRoutes(r)

	return &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
}
