package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tamatar-api/internal/handlers"
	"tamatar-api/internal/metrics"
	"tamatar-api/internal/middleware"
)

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, h *handlers.Handler, imagesDir string) {

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())               // panic recovery
	r.Use(middleware.Timeout(60 * time.Second)) // generation calls are slow
	r.Use(middleware.MaxBodySize(64 * 1024))    // 64 KB max body

	// routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/preview", h.Preview)
		r.Post("/compare", h.Compare)
		r.Get("/weekly", h.Weekly)
		r.Get("/dishes", h.Dishes)
		r.Get("/dishes/search", h.SearchDishes)
		r.Get("/meals", h.ListMeals)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/cache/invalidate", h.InvalidateCache)
		r.Post("/cache/sweep", h.SweepCache)
		r.Post("/nutrition/reload", h.ReloadNutrition)
	})

	// generated images and charts
	fileServer := http.StripPrefix("/data/images/", http.FileServer(http.Dir(imagesDir)))
	r.Get("/data/images/*", fileServer.ServeHTTP)

	// health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
