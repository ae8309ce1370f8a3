package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"traveldocs-relay/internal/handlers"
	"traveldocs-relay/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	AskService     service.AskService
	Checker        handlers.ProviderChecker
	IndexHTML      string   // Embedded HTML content
	AllowedOrigins []string // Empty reflects any origin
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS(deps.AllowedOrigins))

	askHandler := handlers.NewAskHandler(deps.AskService)

	r.Method(http.MethodPost, "/ask", askHandler)
	// The bundled page posts to /api/ask.
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
	})

	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Checker))
	r.Method(http.MethodGet, "/", handlers.NewIndexHandler(deps.IndexHTML))

	return r
}
