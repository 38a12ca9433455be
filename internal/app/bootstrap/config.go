package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	MaxDBConns         int32
	KafkaConsumerGroup string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration

	SnapshotCacheTTL time.Duration
	IdempotencyTTL   time.Duration
	EventDedupTTL    time.Duration

	WebhookBearerToken string
	AuthPublicKeyPEM   string

	Scoring domain.ScoringConfig
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL        string   `yaml:"postgres_url"`
		RedisURL           string   `yaml:"redis_url"`
		KafkaBrokers       []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup string   `yaml:"kafka_consumer_group"`
	} `yaml:"dependencies"`
	Security struct {
		WebhookBearerToken string `yaml:"webhook_bearer_token"`
		AuthPublicKeyPEM   string `yaml:"auth_public_key_pem"`
	} `yaml:"security"`
	Scoring *domain.ScoringConfig `yaml:"scoring"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "reputation-service",
		HTTPPort:             8080,
		GRPCPort:             9090,
		MaxDBConns:           20,
		KafkaConsumerGroup:   "reputation-service",
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		ConsumerPollInterval: 2 * time.Second,
		SnapshotCacheTTL:     2 * time.Minute,
		IdempotencyTTL:       7 * 24 * time.Hour,
		EventDedupTTL:        7 * 24 * time.Hour,
		Scoring:              domain.DefaultScoringConfig(),
	}

	if raw, err := os.ReadFile(path); err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Security.WebhookBearerToken != "" {
			cfg.WebhookBearerToken = f.Security.WebhookBearerToken
		}
		if f.Security.AuthPublicKeyPEM != "" {
			cfg.AuthPublicKeyPEM = f.Security.AuthPublicKeyPEM
		}
		if f.Scoring != nil {
			cfg.Scoring = *f.Scoring
		}
	}

	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = trimNonEmpty(strings.Split(brokers, ","))
	}
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.WebhookBearerToken = envOrDefault("REPUTATION_WEBHOOK_BEARER_TOKEN", cfg.WebhookBearerToken)
	cfg.AuthPublicKeyPEM = envOrDefault("AUTH_PUBLIC_KEY_PEM", cfg.AuthPublicKeyPEM)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.SnapshotCacheTTL = time.Duration(envInt("SNAPSHOT_CACHE_TTL_SECONDS", int(cfg.SnapshotCacheTTL.Seconds()))) * time.Second
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_FLUSH_BATCH_SIZE", cfg.OutboxBatchSize)

	// Bad scoring constants must never reach a request path.
	if err := cfg.Scoring.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
