package config

const (
	EnvMongoURI                 = "MONGO_URI"
	EnvMongoDatabaseName        = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout         = "MONGO_CONN_TIMEOUT"
	EnvMongoTransactionsEnabled = "MONGO_TRANSACTIONS_ENABLED"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvRateLimitBurst    = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSearchDefaultPageSize = "SEARCH_DEFAULT_PAGE_SIZE"
	EnvSearchMaxPageSize     = "SEARCH_MAX_PAGE_SIZE"

	EnvPromotionLockTTL  = "PROMOTION_LOCK_TTL"
	EnvPromotionLockWait = "PROMOTION_LOCK_WAIT"

	EnvKafkaEnabled            = "KAFKA_ENABLED"
	EnvKafkaPromotionsTopic    = "KAFKA_PROMOTIONS_TOPIC"
	EnvKafkaPromotionsDLQTopic = "KAFKA_PROMOTIONS_DLQ_TOPIC"
)
