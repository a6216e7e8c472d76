// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"

	"viralboard/internal/adapter/events"
	"viralboard/internal/adapter/googletrends"
	"viralboard/internal/adapter/storage"
	"viralboard/internal/cache"
	"viralboard/internal/config"
	"viralboard/internal/logging"
	"viralboard/internal/server"
	"viralboard/internal/service/dashboard"
	"viralboard/internal/service/trends"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log := logging.With("main")

	// Create context that listens for signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize warehouse connection
	db, err := initWarehouse(ctx, cfg.Warehouse)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure warehouse pool")
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("warehouse unreachable at startup, predictions will show notices")
	}
	pingCancel()

	// Initialize NATS connection
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = initNATS(cfg.NATS)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, live updates disabled")
		} else {
			defer natsConn.Close()
		}
	}
	publisher := events.NewPublisher(natsConn, cfg.NATS.Subject)

	// Initialize storage adapters
	catalog := storage.NewCatalog(db)
	selector := storage.NewSnapshotSelector(
		catalog,
		cfg.Warehouse.PredictionSchema,
		cfg.Warehouse.SnapshotPrefix,
		cfg.Warehouse.LatestTable,
	)
	predictionStore := storage.NewPredictionStore(db, selector, storage.PredictionStoreConfig{
		PredictionSchema: cfg.Warehouse.PredictionSchema,
		FeatureSchema:    cfg.Warehouse.FeatureSchema,
		FeatureTable:     cfg.Warehouse.FeatureTable,
		LatestTable:      cfg.Warehouse.LatestTable,
	})

	// Initialize trend client and fetcher
	trendClient := googletrends.NewClient(googletrends.Config{
		BaseURL:           cfg.Trends.BaseURL,
		Language:          cfg.Trends.Language,
		TZOffset:          cfg.Trends.TZOffset,
		Geo:               cfg.Trends.Geo,
		Timeout:           cfg.Trends.RequestTimeout,
		RequestsPerSecond: cfg.Trends.RequestsPerSecond,
		Burst:             cfg.Trends.Burst,
		MaxRetries:        cfg.Trends.MaxRetries,
		RetryDelay:        cfg.Trends.RetryDelay,
	})
	fetcher := trends.NewBatchFetcher(trendClient)

	// Initialize dashboard service
	dashboardConfig := dashboard.DefaultConfig()
	dashboardConfig.TrendsTTL = cfg.Cache.TrendsTTL
	dashboardConfig.PredictionsTTL = cfg.Cache.PredictionsTTL
	dashboardConfig.TitleLookupTTL = cfg.Cache.TitleLookupTTL
	dashboardConfig.ModelPerformanceTTL = cfg.Cache.ModelPerformanceTTL

	dashboardService := dashboard.NewService(fetcher, predictionStore, cache.NewMemo(), publisher, dashboardConfig)

	warmer := dashboard.NewWarmer(dashboardService, cfg.Cache.WarmInterval)
	if cfg.Cache.WarmInterval > 0 {
		warmer.Start(ctx)
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, dashboardService, publisher)

	// Start HTTP server
	go func() {
		log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Str("env", cfg.Environment).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop panel warmer
	if err := warmer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("warmer shutdown error")
	}

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			log.Warn().Err(err).Msg("NATS drain error")
		}
	}

	log.Info().Msg("shutdown complete")
}

// Initialize warehouse connection pool. Connections are opened lazily so
// the dashboard still serves trend data while the warehouse is down.
func initWarehouse(ctx context.Context, cfg config.WarehouseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MinIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime
	poolConfig.LazyConnect = true

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create warehouse pool: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	log := logging.With("nats")
	options := []nats.Option{
		nats.Name("viralboard"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
