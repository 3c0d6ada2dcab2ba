package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iotwatch/predmaint/internal/api"
	"github.com/iotwatch/predmaint/internal/cache"
	"github.com/iotwatch/predmaint/internal/config"
	"github.com/iotwatch/predmaint/internal/metrics"
	"github.com/iotwatch/predmaint/internal/predictions"
	"github.com/iotwatch/predmaint/internal/scoring"
	"github.com/iotwatch/predmaint/internal/services"
	"github.com/iotwatch/predmaint/internal/store"
	"github.com/iotwatch/predmaint/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting predmaint", slog.String("address", cfg.Server.Address()), slog.Bool("debug", cfg.Debug))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	scorer := scoring.NewScorer(loadPipeline(cfg.Pipeline.Path, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sensorStore services.SensorStore
	if st, err := store.New(ctx, cfg.Store, logger); err != nil {
		logger.Warn("sensor store unavailable, serving simulated data", slog.String("table", cfg.Store.Table), slog.Any("error", err))
	} else {
		sensorStore = st
	}

	historyCache := cache.NewMemoryProvider()
	defer historyCache.Close()
	history := predictions.NewHistory(historyCache, cfg.History.Size)

	svc := services.NewMaintenanceService(logger, sensorStore, scorer, history, services.Settings{
		DeviceID:    cfg.Store.DeviceID,
		Window:      cfg.Store.Window,
		Region:      cfg.Store.Region,
		AccessKeyID: cfg.Store.AccessKeyID,
	})

	server, err := api.NewServer(cfg.Server, api.NewRouter(cfg.Server, svc, logger))
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	var healthServer *api.HealthServer
	if cfg.Server.HealthAddress != "" {
		healthServer, err = api.NewHealthServer(cfg.Server.HealthAddress, svc.StoreAvailable(), svc.ModelAvailable())
		if err != nil {
			logger.Error("failed to create health server", slog.Any("error", err))
			os.Exit(1)
		}
		go func() {
			logger.Info("gRPC health server listening", slog.String("address", healthServer.Address()))
			if err := healthServer.Start(); err != nil {
				logger.Error("health server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		logger.Info("HTTP server listening", slog.String("address", server.Address()))
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	server.Shutdown(shutdownCtx)
	if healthServer != nil {
		healthServer.Shutdown(shutdownCtx)
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("predmaint stopped")
}

// loadPipeline returns nil when the artifact is missing or invalid; the
// service then runs on heuristics and simulated predictions.
func loadPipeline(path string, logger *slog.Logger) *scoring.Pipeline {
	pipeline, err := scoring.LoadPipeline(path)
	if err != nil {
		logger.Warn("could not load ML pipeline", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	caps := pipeline.Capabilities()
	logger.Info("ML pipeline loaded",
		slog.String("path", path),
		slog.Any("steps", pipeline.Steps()),
		slog.String("model_step", caps.ModelStep),
		slog.String("model_type", pipeline.ModelType()),
		slog.String("preprocessor_type", pipeline.PreprocessorType()),
		slog.Bool("predict_proba", caps.PredictProba),
	)
	return pipeline
}
