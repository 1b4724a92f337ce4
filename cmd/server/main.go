package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"googlemaps.github.io/maps"

	"github.com/example/taxifare/internal/config"
	"github.com/example/taxifare/internal/events"
	"github.com/example/taxifare/internal/fare"
	"github.com/example/taxifare/internal/form"
	"github.com/example/taxifare/internal/geo"
	"github.com/example/taxifare/internal/geocode"
	httpapi "github.com/example/taxifare/internal/http"
	"github.com/example/taxifare/internal/location"
	"github.com/example/taxifare/internal/logging"
	"github.com/example/taxifare/internal/session"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	geocoder, err := newGeocoder(cfg)
	if err != nil {
		logger.Error("geocoder setup failed", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("session store setup failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("publishing fare quotes", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer publisher.Close()

	svc := &form.Service{
		Store:     store,
		Selector:  location.NewSelector(geocoder, logger),
		Predictor: fare.NewPredictionClient(cfg.PredictURL, cfg.PredictTimeout),
		Publisher: publisher,
		Map:       geo.Defaults{Center: cfg.MapCenter, Zoom: cfg.MapZoom},
		Logger:    logger,
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(svc, logger, cfg.CORSAllowedOrigins),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("taxifare listening", "addr", cfg.HTTPAddr, "geocoder", geocoder.Name(), "predict_url", cfg.PredictURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newGeocoder(cfg config.ServerConfig) (geocode.Geocoder, error) {
	if cfg.GeocoderProvider == config.GeocoderGoogle {
		return geocode.NewGoogleClient(cfg.GoogleMapsAPIKey, maps.WithHTTPClient(&http.Client{Timeout: cfg.GeocoderTimeout}))
	}
	return geocode.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout), nil
}

// newSessionStore returns the redis store when REDIS_ADDR is set and the
// in-memory store, with its sweeper running until ctx ends, otherwise.
func newSessionStore(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		mem := session.NewMemoryStore(cfg.SessionTTL)
		go mem.Run(ctx, cfg.SessionSweepPeriod)
		logger.Info("using in-memory sessions", "ttl", cfg.SessionTTL)
		return mem, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	logger.Info("using redis sessions", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	store := session.NewRedisStore(session.NewRedisHashClient(rdb), cfg.SessionKeyPrefix, cfg.SessionTTL)
	return store, func() { rdb.Close() }, nil
}
