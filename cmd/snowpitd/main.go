package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/snowpit-service/internal/adapter/filestore"
	httpadapter "github.com/couchcryptid/snowpit-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/snowpit-service/internal/adapter/kafka"
	"github.com/couchcryptid/snowpit-service/internal/adapter/mapbox"
	storeadapter "github.com/couchcryptid/snowpit-service/internal/adapter/store"
	"github.com/couchcryptid/snowpit-service/internal/config"
	"github.com/couchcryptid/snowpit-service/internal/domain"
	"github.com/couchcryptid/snowpit-service/internal/observability"
	"github.com/couchcryptid/snowpit-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storeadapter.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	store := observability.InstrumentStore(db, metrics)

	if cfg.StoreDriver == config.StoreFile && len(cfg.Sites) > 0 {
		seasons := cfg.Seasons
		if len(seasons) == 0 {
			seasons = []string{domain.CurrentSeason()}
		}
		if err := filestore.EnsureTree(cfg.DataDir, cfg.Sites, seasons); err != nil {
			logger.Error("failed to create data tree", "error", err)
			os.Exit(1)
		}
		logger.Info("data tree ready", "sites", cfg.Sites, "seasons", seasons)
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	api := httpadapter.NewAPI(httpadapter.APIConfig{
		Store:     store,
		Geocoder:  geocoder,
		Metrics:   metrics,
		CacheSize: cfg.RenderCacheSize,
		DPI:       cfg.PlotDPI,
	}, logger)

	var ready sharedobs.ReadinessChecker = db
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	var p *pipeline.Pipeline
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(reader, pipeline.NewTransformer(logger), store, writer, logger, metrics, cfg.BatchSize)
		ready = readiness{db, p}
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// readiness is ready when every checker is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
