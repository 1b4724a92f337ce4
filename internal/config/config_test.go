package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GeocoderProvider != GeocoderNominatim {
		t.Errorf("provider = %q, want %q", cfg.GeocoderProvider, GeocoderNominatim)
	}
	if cfg.PredictURL != "https://taxifare.lewagon.ai/predict" {
		t.Errorf("predict url = %q", cfg.PredictURL)
	}
	if cfg.MapCenter.Lat != 40.7128 || cfg.MapCenter.Lon != -74.0060 || cfg.MapZoom != 13 {
		t.Errorf("unexpected map defaults: %v zoom %d", cfg.MapCenter, cfg.MapZoom)
	}
}

func TestLoadServerConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("addr = %q", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("ttl = %s", cfg.SessionTTL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.KafkaBrokers)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadServerConfigCollectsErrors(t *testing.T) {
	t.Setenv("GEOCODER_TIMEOUT", "soon")
	t.Setenv("MAP_CENTER_LAT", "95")
	t.Setenv("GEOCODER_PROVIDER", "google")

	_, err := LoadServerConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"GEOCODER_TIMEOUT", "GOOGLE_MAPS_API_KEY", "map center"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestLoadConsumerConfig(t *testing.T) {
	cfg, err := LoadConsumerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.KafkaTopic != "fare-quotes" || cfg.KafkaBrokers[0] != "localhost:9092" || cfg.MetricsAddr != ":2112" {
		t.Fatalf("defaults = %+v", cfg)
	}

	t.Setenv("KAFKA_GROUP", "audit")
	t.Setenv("KAFKA_BROKERS", " , ")
	cfg, err = LoadConsumerConfig()
	if err == nil {
		t.Fatal("expected error for empty broker list")
	}
	if cfg.KafkaGroup != "audit" {
		t.Errorf("group = %q", cfg.KafkaGroup)
	}
}
