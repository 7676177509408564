package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// kafkaBatchTimeout bounds how long a single status event waits for a batch
// to fill before it is flushed.
const kafkaBatchTimeout = 10 * time.Millisecond

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes status changes as JSON messages keyed by entity id.
type KafkaPublisher struct {
	writer Writer
	logger *otelzap.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *otelzap.Logger) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(newKafkaWriter(brokers, topic), logger)
}

func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: kafkaBatchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaPublisherWithWriter allows injecting a writer.
func NewKafkaPublisherWithWriter(w Writer, logger *otelzap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// RecordStatusChange implements Recorder.
func (p *KafkaPublisher) RecordStatusChange(ctx context.Context, entityID, from, to string, metadata map[string]any, note string) error {
	ev := NewStatusEvent(entityID, from, to, metadata, note)
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	msg := kafka.Message{Key: []byte(entityID), Value: b}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Ctx(ctx).Warn("kafka write failed",
			zap.String("entity_id", entityID),
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("publish status event: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ Recorder = (*KafkaPublisher)(nil)
