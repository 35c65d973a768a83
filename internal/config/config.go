package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DatabaseURL string

	JWT struct {
		Secret   string
		TokenTTL time.Duration
	}

	// Kafka is optional; no brokers means no event publishing.
	Kafka struct {
		Brokers []string
		Topic   string
	}

	// Webhook is optional; empty URL disables the channel.
	Webhook struct {
		URL   string
		Token string
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.ServerPort = os.Getenv("SERVER_PORT")
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg.JWT.TokenTTL = 30 * time.Minute
	if ttl := os.Getenv("ACCESS_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL %q", ttl)
		}
		cfg.JWT.TokenTTL = d
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Kafka.Topic = os.Getenv("ORDER_EVENTS_TOPIC")
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "order.events"
	}

	cfg.Webhook.URL = os.Getenv("NOTIFY_WEBHOOK_URL")
	cfg.Webhook.Token = os.Getenv("NOTIFY_WEBHOOK_TOKEN")

	return cfg, nil
}
