package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/taxifare/internal/models"
)

const (
	GeocoderNominatim = "nominatim"
	GeocoderGoogle    = "google"
)

// ServerConfig captures all tunable parameters for the form backend.
// Values are loaded from environment variables with defaults that point at the
// public Nominatim and taxifare endpoints, so the binary runs locally without setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	GeocoderProvider  string
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GoogleMapsAPIKey  string

	PredictURL     string
	PredictTimeout time.Duration

	RedisAddr          string
	RedisPassword      string
	SessionKeyPrefix   string
	SessionTTL         time.Duration
	SessionSweepPeriod time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	MapCenter models.Coord
	MapZoom   int

	CORSAllowedOrigins []string

	LogLevel string
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:           ":8080",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        120 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		GeocoderProvider:   GeocoderNominatim,
		GeocoderURL:        "https://nominatim.openstreetmap.org/search",
		GeocoderUserAgent:  "taxifare-form/1.0",
		GeocoderTimeout:    5 * time.Second,
		PredictURL:         "https://taxifare.lewagon.ai/predict",
		PredictTimeout:     10 * time.Second,
		SessionKeyPrefix:   "taxifare:session:",
		SessionTTL:         30 * time.Minute,
		SessionSweepPeriod: time.Minute,
		KafkaTopic:         "fare-quotes",
		MapCenter:          models.Coord{Lat: 40.7128, Lon: -74.0060},
		MapZoom:            13,
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	if v := os.Getenv("GEOCODER_PROVIDER"); v != "" {
		cfg.GeocoderProvider = strings.ToLower(strings.TrimSpace(v))
	}
	setStringFromEnv(&cfg.GeocoderURL, "GEOCODER_URL")
	setStringFromEnv(&cfg.GeocoderUserAgent, "GEOCODER_USER_AGENT")
	setDurationFromEnv(&cfg.GeocoderTimeout, "GEOCODER_TIMEOUT", &errs)
	cfg.GoogleMapsAPIKey = strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY"))

	setStringFromEnv(&cfg.PredictURL, "PREDICT_URL")
	setDurationFromEnv(&cfg.PredictTimeout, "PREDICT_TIMEOUT", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.SessionKeyPrefix, "SESSION_KEY_PREFIX")
	setDurationFromEnv(&cfg.SessionTTL, "SESSION_TTL", &errs)
	setDurationFromEnv(&cfg.SessionSweepPeriod, "SESSION_SWEEP_INTERVAL", &errs)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	setFloatFromEnv(&cfg.MapCenter.Lat, "MAP_CENTER_LAT", &errs)
	setFloatFromEnv(&cfg.MapCenter.Lon, "MAP_CENTER_LON", &errs)
	setIntFromEnv(&cfg.MapZoom, "MAP_ZOOM", &errs)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = splitAndTrim(origins)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	switch cfg.GeocoderProvider {
	case GeocoderNominatim:
	case GeocoderGoogle:
		if cfg.GoogleMapsAPIKey == "" {
			errs = append(errs, fmt.Errorf("GOOGLE_MAPS_API_KEY is required when GEOCODER_PROVIDER=google"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown GEOCODER_PROVIDER %q", cfg.GeocoderProvider))
	}
	if cfg.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be > 0"))
	}
	if cfg.SessionSweepPeriod <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0"))
	}
	if !cfg.MapCenter.Valid() {
		errs = append(errs, fmt.Errorf("map center %v: %w", cfg.MapCenter, models.ErrInvalidCoordinate))
	}
	if cfg.MapZoom < 0 || cfg.MapZoom > 20 {
		errs = append(errs, fmt.Errorf("MAP_ZOOM must be within 0..20"))
	}

	return cfg, errors.Join(errs...)
}

// ConsumerConfig configures the fare quote consumer.
type ConsumerConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string
	MetricsAddr  string
	LogLevel     string
}

func LoadConsumerConfig() (ConsumerConfig, error) {
	cfg := ConsumerConfig{
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "fare-quotes",
		KafkaGroup:   "taxifare-quote-consumer",
		MetricsAddr:  ":2112",
		LogLevel:     "info",
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setStringFromEnv(&cfg.KafkaGroup, "KAFKA_GROUP")
	setStringFromEnv(&cfg.MetricsAddr, "METRICS_ADDR")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if len(cfg.KafkaBrokers) == 0 {
		return cfg, errors.New("KAFKA_BROKERS must name at least one broker")
	}
	return cfg, nil
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
