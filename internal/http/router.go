package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/stockscan/internal/http/matching"
	"github.com/MrJamesThe3rd/stockscan/internal/http/scan"
)

func New(
	scanV1 *scan.Handler,
	matchingV1 *matching.Handler,
	allowedOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/scan", scanV1.Routes)
		r.Route("/reconcile", scanV1.ReconcileRoutes)

		r.Route("/matching", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			matchingV1.Routes(r)
		})
	})

	return router
}
