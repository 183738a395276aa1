package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"garden-alert-service/internal/alertengine"
	"garden-alert-service/internal/cache"
	"garden-alert-service/internal/channels"
	"garden-alert-service/internal/config"
	"garden-alert-service/internal/handlers"
	"garden-alert-service/internal/observability"
	"garden-alert-service/internal/plants"
	"garden-alert-service/internal/scheduler"
	"garden-alert-service/internal/sensitivity"
	"garden-alert-service/internal/weather"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer logger.Sync()

	gardens, err := config.LoadGardens(cfg.GardensFilePath())
	if err != nil {
		logger.Fatal("failed to load gardens.config.json", zap.Error(err))
	}

	registry, err := sensitivity.LoadFromFile(cfg.SensitivityFilePath())
	if err != nil {
		logger.Fatal("failed to load plant-sensitivity-profiles.json", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	weatherClient := weather.NewClient(weather.WithLatencyRecorder(func(d time.Duration, _ bool) {
		metrics.RecordOpenMeteoLatency(d)
	}))
	plantsClient := plants.NewClient(cfg.BackendURL, plants.WithLatencyRecorder(func(d time.Duration, _ bool) {
		metrics.RecordBackendLatency(d)
	}))

	plantCache := cache.NewPlantCache(plantsClient, logger)
	engine := alertengine.NewEngine(weatherClient, plantCache, registry, logger)

	sms := channels.NewSMSChannel(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, logger)
	broadcast := channels.NewBroadcastChannel(logger)
	history := channels.NewHistoryStore(logger)
	history.Initialize(ctx, cfg.DatabaseURL)
	defer history.Close()

	sched := scheduler.New(gardens, engine, plantCache, plantsClient, sms, broadcast, history, metrics, logger)
	sched.Start(ctx)
	defer sched.Stop()

	healthChecker := handlers.NewHealthChecker(cfg.BackendURL, weatherClient.BaseURL(), history, sms.IsEnabled)
	metricsHandler := handlers.NewMetricsHandler(metrics)
	wsHandler := handlers.NewSubscriberHandler(broadcast)

	router := initRouter(logger, healthChecker, metricsHandler, wsHandler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("starting garden alert service", zap.String("addr", addr), zap.Int("gardens", len(gardens)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
