package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Lot resolution configuration.
	LotDefCSVPath    string
	AllowDefaultLots bool

	// External description-parser configuration.
	ParserURL       string
	ParserToken     string
	ParserEnabled   bool
	ParserTimeout   time.Duration
	ParserCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	parserTimeoutStr := envOrDefault("PARSER_TIMEOUT", "5s")
	parserTimeout, err2 := time.ParseDuration(parserTimeoutStr)
	if err2 != nil || parserTimeout <= 0 {
		return nil, errors.New("invalid PARSER_TIMEOUT")
	}

	allowDefaults := true
	if v := os.Getenv("ALLOW_DEFAULT_LOTS"); v != "" {
		allowDefaults = v == "true"
	}

	parserURL := os.Getenv("PARSER_URL")
	parserEnabled := parserURL != ""
	if v := os.Getenv("PARSER_ENABLED"); v != "" {
		parserEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-tract-records"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "township-plats"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "plss-plat-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		LotDefCSVPath:    os.Getenv("LOTDEF_CSV_PATH"),
		AllowDefaultLots: allowDefaults,

		ParserURL:       parserURL,
		ParserToken:     os.Getenv("PARSER_TOKEN"),
		ParserEnabled:   parserEnabled,
		ParserTimeout:   parserTimeout,
		ParserCacheSize: parseParserCacheSize(),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.ParserEnabled && cfg.ParserURL == "" {
		return nil, errors.New("PARSER_ENABLED is true but PARSER_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	s := envOrDefault("BATCH_SIZE", "50")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 1000 {
		return 0, errors.New("invalid BATCH_SIZE: must be between 1 and 1000")
	}
	return n, nil
}

func parseBatchFlushInterval() (time.Duration, error) {
	s := envOrDefault("BATCH_FLUSH_INTERVAL", "500ms")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid BATCH_FLUSH_INTERVAL")
	}
	return d, nil
}

func parseParserCacheSize() int {
	if s := os.Getenv("PARSER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
