package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// PSD API configuration.
	PSDBaseURL       string
	PSDAPIKey        string
	PSDCommodityCode string
	PSDTimeout       time.Duration
	PSDCacheTTL      time.Duration // 0 keeps entries for the process lifetime
	PSDCacheSize     int
	PSDReferenceYear int

	// Analysis publishing (optional).
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	psdTimeout, err := parsePositiveDuration("PSD_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("PSD_CACHE_TTL", "0s"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid PSD_CACHE_TTL")
	}

	referenceYear, err := strconv.Atoi(sharedcfg.EnvOrDefault("PSD_REFERENCE_YEAR", "2024"))
	if err != nil || referenceYear < 1960 {
		return nil, errors.New("invalid PSD_REFERENCE_YEAR")
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PSDBaseURL:       strings.TrimRight(sharedcfg.EnvOrDefault("PSD_BASE_URL", "https://api.fas.usda.gov"), "/"),
		PSDAPIKey:        os.Getenv("PSD_API_KEY"),
		PSDCommodityCode: sharedcfg.EnvOrDefault("PSD_COMMODITY_CODE", "0711100"),
		PSDTimeout:       psdTimeout,
		PSDCacheTTL:      cacheTTL,
		PSDCacheSize:     parseCacheSize(),
		PSDReferenceYear: referenceYear,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "coffee-trend-analyses"),
	}

	if cfg.PSDAPIKey == "" {
		return nil, errors.New("PSD_API_KEY is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("PSD_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
