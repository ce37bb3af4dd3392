package config

import "time"

const (
	DefaultMongoURI                 = "mongodb://localhost:27017"
	DefaultMongoDatabaseName        = "keja"
	DefaultMongoConnTimeout         = 10 * time.Second
	DefaultMongoTransactionsEnabled = true

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultRateLimitBurst    = 10

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSearchDefaultPageSize = 12
	DefaultSearchMaxPageSize     = 100

	DefaultPromotionLockTTL  = 10 * time.Second
	DefaultPromotionLockWait = 2 * time.Second

	DefaultKafkaEnabled            = false
	DefaultKafkaPromotionsTopic    = "promotions.events"
	DefaultKafkaPromotionsDLQTopic = "promotions.events.dlq"

	DefaultListLimit       = 20
	DefaultPaginationLimit = 100
)
