package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"aspingest/config"
	"aspingest/internal/adapter"
	"aspingest/internal/identity"
	"aspingest/internal/performer"
	"aspingest/internal/server"
	"aspingest/internal/store"
	"aspingest/logger"
	"aspingest/services/cache"
	"aspingest/services/publisher"
	"aspingest/services/ratelimit"
	"aspingest/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting ingest service")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Connect to Postgres and apply the schema
	st, err := store.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate schema")
	}

	// Initialize supporting services
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	pub := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
	defer pub.Close()
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	limiter := ratelimit.NewLimiter(cfg.RequestsPerSec, cfg.RequestBurst)

	// Create source adapters and the pipeline
	adapters := adapter.CreateAdapters(&cfg, cacheService, limiter)
	if len(adapters) == 0 {
		log.Fatal().Msg("No source adapters were created")
	}
	log.Info().Int("adapter_count", len(adapters)).Msg("Created source adapters")

	wiki := performer.NewWikiSource(cfg.WikiLookupURL, limiter)
	linker := performer.NewLinker(st, wiki)
	resolver := identity.NewResolver()

	w := worker.NewWorker(adapters, resolver, linker, st, pub, cfg.DefaultLimit, cfg.CrawlInterval)

	// Build the auth verifier for the trigger endpoints
	var verifier server.AuthVerifier
	if cfg.IsProduction() {
		verifier = server.NewBearerVerifier(cfg.CronBearerToken)
	} else {
		verifier = server.NewAnyVerifier(
			server.NewBearerVerifier(cfg.CronBearerToken),
			server.NewDevSecretVerifier(cfg.DevCronSecret),
		)
	}

	srv := server.New(w, verifier)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Trigger server listening")
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	// Optional standalone crawl loop
	if cfg.CrawlInterval > 0 {
		go func() {
			log.Info().Msg("Starting interval crawl loop")
			if err := w.RunLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Crawl loop exited with error")
			}
		}()
	}

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("Trigger server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
