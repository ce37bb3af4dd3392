package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrInvalidMessage = errors.New("invalid message")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
)

// PublishError reports a failed write to the primary topic. DeadLettered is
// set when the message was parked on the DLQ instead.
type PublishError struct {
	Topic        string
	Key          string
	DeadLettered bool
	Err          error
}

func (e *PublishError) Error() string {
	if e.DeadLettered {
		return fmt.Sprintf("publish to %s failed, message moved to DLQ: %v", e.Topic, e.Err)
	}
	return fmt.Sprintf("publish to %s failed: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying: deadlines, network
// timeouts and broker errors kafka-go marks as temporary.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) {
		return kafkaErr.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
