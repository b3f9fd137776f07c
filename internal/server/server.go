package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/base2ml/babyraffle/internal/auth"
	"github.com/base2ml/babyraffle/internal/billing"
	"github.com/base2ml/babyraffle/internal/config"
	"github.com/base2ml/babyraffle/internal/deploy"
	"github.com/base2ml/babyraffle/internal/metrics"
	"github.com/base2ml/babyraffle/internal/ratelimit"
	"github.com/base2ml/babyraffle/internal/server/middleware"
	"github.com/base2ml/babyraffle/internal/storage"
	"github.com/base2ml/babyraffle/internal/store/postgres"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	cfg        *config.Config
}

// Deps carries the services the server routes to. Billing and BillingHooks
// are always non-nil; Billing.Enabled() reports false when Stripe is not
// configured, and Deployer.Enabled() likewise for the deploy webhook.
type Deps struct {
	Store        *postgres.Store
	Auth         *auth.Service
	Billing      *billing.Client
	BillingHooks *billing.Processor
	Files        *storage.Local
	Deployer     *deploy.Trigger
	Counters     ratelimit.CounterStore
	Policy       *ratelimit.Policy
}

// New creates a Server with all routes wired.
//
// Every request passes the same middleware chain: tenant resolution from the
// Host header, bearer-token authentication, then rate limiting. Handlers see
// the outcome only through context values.
func New(cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(requestLogger())
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	router.Use(middleware.ResolveTenant(cfg.Server.BaseDomain, cfg.Server.OnboardingSubdomain, deps.Store.Tenants()))
	router.Use(middleware.Authenticate(cfg.JWT.Secret, cfg.JWT.Issuer, deps.Store.Users()))
	router.Use(middleware.RateLimit(deps.Counters, deps.Policy))

	s := &Server{
		router: router,
		store:  deps.Store,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	router.Route("/api", func(r chi.Router) {
		apiConfig := huma.DefaultConfig("Baby Raffle API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, deps)
	})

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Handle("/metrics", metrics.Handler())

	// Raw uploaded assets, e.g. slideshow originals referenced by the
	// published static sites.
	router.Handle("/static/*", staticFileServer("/static/", cfg.Storage.UploadDir))

	return s
}

// requestLogger emits one structured line per request.
func requestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			subdomain, _ := middleware.SubdomainFromContext(r.Context())
			elapsed := time.Since(start)

			metrics.RequestsTotal.WithLabelValues(subdomain, strconv.Itoa(ww.Status())).Inc()
			metrics.RequestDuration.WithLabelValues(subdomain).Observe(elapsed.Seconds())

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("subdomain", subdomain).
				Int("status", ww.Status()).
				Dur("elapsed", elapsed).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
