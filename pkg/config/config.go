package config

import (
	"fmt"
	"keja/pkg/client"
	"keja/pkg/logger"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
)

var (
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

type Config struct {
	MongoURI                 string
	MongoDatabaseName        string
	MongoConnTimeout         time.Duration
	MongoTransactionsEnabled bool

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SearchDefaultPageSize int
	SearchMaxPageSize     int

	PromotionLockTTL  time.Duration
	PromotionLockWait time.Duration

	KafkaEnabled            bool
	KafkaPromotionsTopic    string
	KafkaPromotionsDLQTopic string

	Log    *logger.Logger
	Client *client.Client
	Clock  clock.Clock
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:                 getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName:        getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:         getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoTransactionsEnabled: getEnvBool(EnvMongoTransactionsEnabled, DefaultMongoTransactionsEnabled),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		RateLimitBurst:    getEnvNum(EnvRateLimitBurst, DefaultRateLimitBurst),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SearchDefaultPageSize: getEnvNum(EnvSearchDefaultPageSize, DefaultSearchDefaultPageSize),
		SearchMaxPageSize:     getEnvNum(EnvSearchMaxPageSize, DefaultSearchMaxPageSize),

		PromotionLockTTL:  getEnvDuration(EnvPromotionLockTTL, DefaultPromotionLockTTL),
		PromotionLockWait: getEnvDuration(EnvPromotionLockWait, DefaultPromotionLockWait),

		KafkaEnabled:            getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaPromotionsTopic:    getEnvStr(EnvKafkaPromotionsTopic, DefaultKafkaPromotionsTopic),
		KafkaPromotionsDLQTopic: getEnvStr(EnvKafkaPromotionsDLQTopic, DefaultKafkaPromotionsDLQTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
		Clock:  clock.New(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"PromotionLockTTL", cfg.PromotionLockTTL},
		{"PromotionLockWait", cfg.PromotionLockWait},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitBurst <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitBurst must be positive, got: %d", cfg.RateLimitBurst))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SearchMaxPageSize <= 0 {
		errors = append(errors, fmt.Sprintf("SearchMaxPageSize must be positive, got: %d", cfg.SearchMaxPageSize))
	}
	if cfg.SearchDefaultPageSize <= 0 || cfg.SearchDefaultPageSize > cfg.SearchMaxPageSize {
		errors = append(errors, fmt.Sprintf("SearchDefaultPageSize (%d) must be between 1 and SearchMaxPageSize (%d)", cfg.SearchDefaultPageSize, cfg.SearchMaxPageSize))
	}
	if cfg.PromotionLockWait > cfg.PromotionLockTTL {
		errors = append(errors, fmt.Sprintf("PromotionLockWait (%s) must not exceed PromotionLockTTL (%s)", cfg.PromotionLockWait, cfg.PromotionLockTTL))
	}

	if cfg.KafkaEnabled && cfg.KafkaPromotionsTopic == "" {
		errors = append(errors, "KafkaPromotionsTopic cannot be empty when Kafka is enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"mongo_transactions_enabled", cfg.MongoTransactionsEnabled,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"rate_limit_burst", cfg.RateLimitBurst,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"search_default_page_size", cfg.SearchDefaultPageSize,
		"search_max_page_size", cfg.SearchMaxPageSize,
		"promotion_lock_ttl", cfg.PromotionLockTTL,
		"promotion_lock_wait", cfg.PromotionLockWait,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_promotions_topic", cfg.KafkaPromotionsTopic,
	)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultListLimit
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
