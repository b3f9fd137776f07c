package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/base2ml/babyraffle/internal/auth"
	"github.com/base2ml/babyraffle/internal/billing"
	"github.com/base2ml/babyraffle/internal/config"
	"github.com/base2ml/babyraffle/internal/deploy"
	"github.com/base2ml/babyraffle/internal/metrics"
	"github.com/base2ml/babyraffle/internal/ratelimit"
	"github.com/base2ml/babyraffle/internal/server"
	"github.com/base2ml/babyraffle/internal/storage"
	"github.com/base2ml/babyraffle/internal/store/postgres"
	redisstore "github.com/base2ml/babyraffle/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("RAFFLE_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("RAFFLE_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL and apply the schema.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if err = store.Migrate(ctx); err != nil {
		return err
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Rate-limit counters: Redis when configured, in-process otherwise.
	// The in-process store is fine for a single instance but does not share
	// counters across replicas.
	var counters ratelimit.CounterStore
	if cfg.Redis.Addr != "" {
		redisCounters, redisErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if redisErr != nil {
			return redisErr
		}
		defer redisCounters.Close()
		counters = redisCounters
	} else {
		log.Warn().Msg("redis not configured, using in-process rate-limit counters")
		counters = ratelimit.NewMemoryStore(ctx)
	}

	// OAuth providers: only configured ones are registered.
	var providers []*auth.OAuthProvider
	if cfg.OAuth.GoogleClientID != "" {
		providers = append(providers, auth.NewGoogleProvider(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.RedirectURL))
	}
	if cfg.OAuth.AppleClientID != "" {
		providers = append(providers, auth.NewAppleProvider(cfg.OAuth.AppleClientID, cfg.OAuth.AppleClientSecret, cfg.OAuth.RedirectURL))
	}
	authSvc := auth.NewService(store.Tenants(), store.Users(), cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, providers...)

	// Stripe billing. The client reports Enabled() false without an API key
	// and billing endpoints answer 503.
	billingClient := billing.NewClient(cfg.Billing)
	billingHooks := billing.NewProcessor(billingClient, store.Tenants(), store.Billing())

	files, err := storage.NewLocal(cfg.Storage)
	if err != nil {
		return err
	}

	deployer := deploy.NewTrigger(cfg.Deploy, store.Site())

	metrics.Init()

	// Create HTTP server with all routes wired.
	srv := server.New(cfg, server.Deps{
		Store:        store,
		Auth:         authSvc,
		Billing:      billingClient,
		BillingHooks: billingHooks,
		Files:        files,
		Deployer:     deployer,
		Counters:     counters,
		Policy:       ratelimit.NewPolicy(cfg.RateLimit),
	})

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("base_domain", cfg.Server.BaseDomain).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
