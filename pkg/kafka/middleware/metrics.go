package kafka_middleware

import (
	"context"
	"keja/pkg/kafka"
	"keja/pkg/metrics"
	"time"
)

// MetricsProducerMiddleware records publish latency per topic and the
// published-events counter per event type.
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		status := metrics.Status(err)
		metrics.RecordKafkaPublish(msg.Topic, status, time.Since(start).Seconds())
		metrics.RecordEvent(msg.GetEventType(), status)

		return err
	}
}
