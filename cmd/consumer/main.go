package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/taxifare/internal/config"
	"github.com/example/taxifare/internal/events"
	"github.com/example/taxifare/internal/logging"
	"github.com/example/taxifare/internal/observability"
)

func main() {
	cfg, err := config.LoadConsumerConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel).With("component", "quote-consumer")

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics/health listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := events.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup)
	defer r.Close()

	logger.Info("consumer listening", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroup)
	c := &events.Consumer{
		Reader:         r,
		Handle:         recordQuote(logger),
		Logger:         logger,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
	c.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })
	return mux
}

// recordQuote logs each quote and adds it to the fare distribution.
func recordQuote(logger *slog.Logger) func(context.Context, events.QuoteEvent) error {
	return func(_ context.Context, ev events.QuoteEvent) error {
		q := ev.Quote
		if q.Fare < 0 {
			return errors.New("negative fare")
		}
		mode := string(q.Mode)
		if mode == "" {
			mode = "unknown"
		}
		observability.QuotedFares.WithLabelValues(mode).Observe(q.Fare)
		logger.Info("fare quoted",
			"session_id", q.SessionID,
			"mode", mode,
			"fare", q.Fare,
			"pickup", q.Request.Pickup.String(),
			"dropoff", q.Request.Dropoff.String(),
			"passenger_count", q.Request.PassengerCount,
			"quoted_at", ev.QuotedAt,
		)
		return nil
	}
}
