package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"wisentia/internal/http/handlers"
	"wisentia/internal/infra"
	"wisentia/internal/infra/metrics"
	"wisentia/internal/middleware"
)

// Options carries the request-path configuration the router needs.
type Options struct {
	AdminJWTSecret  string
	DefaultLocale   string
	LocaleLookup    middleware.LocaleLookup
	RateLimitPerMin int
	CORSOrigins     []string
	Logger          infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1/admin/generation", func(r chi.Router) {
		r.Use(middleware.AdminJWT(opts.AdminJWTSecret))
		r.Use(middleware.Locale(opts.DefaultLocale, opts.LocaleLookup))
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", app.EnqueueJob)
			r.Get("/", app.ListJobs)
			r.Get("/{jobID}", app.JobStatus)
			r.Post("/{jobID}/approve", app.ApproveJob)
		})
		r.Post("/process-next", app.ProcessNext)
	})

	return r
}
