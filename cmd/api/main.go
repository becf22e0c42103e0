// Package main is the entry point for the quest board API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/adventurers-guild/questboard/internal/api"
	"github.com/adventurers-guild/questboard/internal/auth"
	"github.com/adventurers-guild/questboard/internal/config"
	"github.com/adventurers-guild/questboard/internal/guild"
	"github.com/adventurers-guild/questboard/internal/health"
	"github.com/adventurers-guild/questboard/internal/matching"
	"github.com/adventurers-guild/questboard/internal/middleware"
	"github.com/adventurers-guild/questboard/internal/quest"
	"github.com/adventurers-guild/questboard/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("Quest Board API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Tracing (optional)
	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "questboard-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: "otlp-" + cfg.OTLPProtocol,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	mwMetrics := middleware.NewMetrics()
	if err := mwMetrics.Register(registry); err != nil {
		logger.Error("failed to register middleware metrics", "error", err)
		os.Exit(1)
	}
	matchMetrics := matching.NewMetrics()
	if err := matchMetrics.Register(registry); err != nil {
		logger.Error("failed to register matching metrics", "error", err)
		os.Exit(1)
	}

	// Repositories: Postgres when configured, in-memory otherwise.
	var (
		profiles  guild.ProfileRepository
		quests    quest.QuestRepository
		dbChecker api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		profiles = guild.NewPostgresProfileRepository(db)
		quests = quest.NewPostgresQuestRepository(db)
		dbChecker = health.NewDBChecker(db)
		logger.Info("using postgres repositories")
	} else {
		profiles = guild.NewInMemoryProfileRepository()
		quests = quest.NewInMemoryQuestRepository()
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
	}

	// Rate limit store: Redis when configured, in-memory otherwise.
	var (
		rateLimitStore middleware.RateLimitStore
		redisChecker   api.HealthChecker
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(mwMetrics)
		redisChecker = health.NewRedisChecker(redisClient)
		logger.Info("using redis rate limit store")
	} else {
		inMem := middleware.NewInMemoryRateLimitStore()
		rateLimitStore = inMem

		// Periodically drop expired buckets.
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				inMem.Cleanup()
			}
		}()
	}

	// Scoring weights, optionally overridden by a calibration file.
	weights, err := matching.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, using default weights", "error", err)
	}

	matchingService := matching.NewService(profiles, quests, weights, logger, matchMetrics)

	matchingHandlers := api.NewMatchingHandlers(matchingService)
	questHandlers := api.NewQuestHandlers(quests)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:    dbChecker,
		RedisChecker: redisChecker,
	})

	// Optional bearer auth: enabled only when a JWT secret is configured.
	var jwtService *auth.JWTService
	if cfg.JWTSecret != "" {
		jwtService = auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTSecretPrevious)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandlers.Health)
	mux.HandleFunc("GET /ready", healthHandlers.Ready)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /quests", questHandlers.List)
	mux.HandleFunc("GET /quests/{id}", questHandlers.Get)

	// The scoring endpoints carry a tighter rate limit than the rest of the
	// API since every call re-fetches and re-scores the candidate set.
	scoringLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultScoringLimit(), middleware.UserKeyFunc(), mwMetrics)
	mux.Handle("GET /api/matching", scoringLimiter(http.HandlerFunc(matchingHandlers.Matching)))
	mux.Handle("GET /api/recommendations", scoringLimiter(http.HandlerFunc(matchingHandlers.Recommendations)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			api.WriteError(w, r.Context(), api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"questboard-api","version":"0.0.1"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Middleware chain, outermost first:
	// RequestID -> Tracing -> HTTPMetrics -> Logging -> CORS -> global RateLimiter -> Auth -> mux
	// CORS sits outside rate limiting and auth so preflights are answered
	// without consuming limiter budget or requiring a token.
	var handler http.Handler = mux
	if jwtService != nil {
		handler = middleware.Auth(jwtService, false)(handler)
	}
	globalLimit := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitPerMinute,
		WindowDuration:    time.Minute,
	}
	handler = middleware.RateLimiter(rateLimitStore, globalLimit, middleware.IPKeyFunc(), mwMetrics)(handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.HTTPMetrics(mwMetrics)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing("questboard-api")(handler)
	}
	handler = middleware.RequestID(handler)

	// pprof endpoints, never in production.
	if !cfg.IsProduction() && os.Getenv("PROFILING_ENABLED") == "true" {
		handler = middleware.Profiling(cfg.Env)(handler)
	}

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracingProvider.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracing", "error", err)
	}

	logger.Info("server stopped")
}
