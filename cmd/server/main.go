package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"masterok/internal/api"
	"masterok/internal/booking"
	"masterok/internal/config"
	"masterok/internal/database"
	"masterok/internal/events"
	"masterok/internal/matching"
	"masterok/internal/metrics"
	"masterok/internal/schedule"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("MASTEROK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	locks := schedule.NewLocks()
	engine := schedule.NewEngine(db, db, locks, &logger)

	var matcher matching.Matcher
	switch cfg.Matching.Strategy {
	case matching.StrategyRating:
		matcher = matching.NewRatingMatcher(db)
	default:
		matcher = matching.NewSchedulePolicy(db, engine)
	}
	if rdb != nil && cfg.MatchCacheTTL() > 0 {
		matcher = matching.NewCachedMatcher(matcher, rdb, cfg.MatchCacheTTL(), &logger)
	}

	bus := events.NewBus()
	bus.Subscribe(events.TypeJobAssigned, func(e events.Event) error {
		logger.Info().
			Int64("job_id", e.JobID).
			Int64("master_id", e.MasterID).
			Str("category", e.Category).
			Msg("notify master: new job assigned")
		return nil
	})
	bus.Subscribe(events.TypeJobPending, func(e events.Event) error {
		logger.Warn().
			Int64("job_id", e.JobID).
			Str("city", e.City).
			Str("category", e.Category).
			Msg("notify dispatcher: job needs manual assignment")
		return nil
	})

	coordinator := booking.NewCoordinator(db, locks, db, matcher, bus, &logger)

	workingDays, err := cfg.WorkingWeekdays()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid working days in config")
	}
	defaults := api.ScheduleDefaults{
		Start:       cfg.Schedule.DefaultStart,
		End:         cfg.Schedule.DefaultEnd,
		WorkingDays: workingDays,
	}

	var limiter *api.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = api.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}

	server := api.NewHTTPServer(db, engine, coordinator, limiter, defaults, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		go runBackupLoop(ctx, db, cfg, &logger)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().
		Int("port", cfg.Server.Port).
		Str("strategy", matcher.Strategy()).
		Msg("masterok server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server error")
	}
	logger.Info().Msg("masterok server stopped")
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func runBackupLoop(ctx context.Context, db *database.DB, cfg *config.Config, logger *zerolog.Logger) {
	interval := time.Duration(cfg.Backup.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if err := os.MkdirAll(cfg.Backup.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("create backup dir failed")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dest := filepath.Join(cfg.Backup.Path,
				fmt.Sprintf("masterok_%s.db", time.Now().Format("20060102_150405")))
			if err := db.Backup(dest); err != nil {
				logger.Error().Err(err).Msg("backup failed")
				continue
			}
			logger.Info().Str("path", dest).Msg("backup created")

			retention := time.Duration(cfg.Backup.RetentionDays) * 24 * time.Hour
			if retention > 0 {
				removed, err := db.CleanupBackups(cfg.Backup.Path, retention)
				if err != nil {
					logger.Error().Err(err).Msg("backup cleanup failed")
				} else if removed > 0 {
					logger.Info().Int("removed", removed).Msg("old backups removed")
				}
			}
		}
	}
}
