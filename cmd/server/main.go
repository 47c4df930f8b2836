package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gianlz/MedBayes/internal/api"
	"github.com/Gianlz/MedBayes/internal/config"
	"github.com/Gianlz/MedBayes/internal/network"
	"github.com/Gianlz/MedBayes/internal/service"
	"github.com/Gianlz/MedBayes/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	diagnosis, err := network.Diagnosis()
	if err != nil {
		logger.Fatal("failed to build diagnosis network", zap.Error(err))
	}

	registry := network.NewRegistry()
	if err := registry.Register(diagnosis); err != nil {
		logger.Fatal("failed to register diagnosis network", zap.Error(err))
	}
	if dir := config.NetworksDir(); dir != "" {
		loaded, err := registry.LoadDir(dir)
		if err != nil {
			logger.Fatal("failed to load networks", zap.String("dir", dir), zap.Error(err))
		}
		logger.Info("networks loaded", zap.String("dir", dir), zap.Strings("networks", loaded))
	}

	querySvc := service.NewQueryService(registry, logger)
	diagnosisSvc := service.NewDiagnosisService(diagnosis, logger)
	diagnosisSvc.SetHighRiskThreshold(config.HighRiskThreshold())

	var (
		pool    *pgxpool.Pool
		expirer *service.ExpirerService
	)
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		applied, err := store.Migrate(ctx, pool, config.MigrationsPath())
		if err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied", zap.Strings("files", applied))

		consultations := store.NewConsultationStore(pool)
		diagnosisSvc.SetConsultationStore(consultations)

		if days := config.ConsultationRetentionDays(); days > 0 {
			expirer = service.NewExpirerService(consultations, days, logger)
			expirer.Start()
		}
	} else {
		logger.Info("DATABASE_URL not set, consultation history disabled")
	}

	app := api.NewApp(querySvc, diagnosisSvc, pool, api.Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
	}, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	if expirer != nil {
		expirer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
