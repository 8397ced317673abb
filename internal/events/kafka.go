package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tastefeed/server/pkg/config"
	"github.com/tastefeed/server/pkg/logging"
)

// KafkaPublisher writes events to a single topic
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

// NewPublisher returns a Kafka publisher, or Nop when Kafka is not configured
func NewPublisher(cfg *config.KafkaConfig) Publisher {
	if !cfg.Enabled {
		logging.GetLogger().Info("Kafka event publishing disabled")
		return Nop{}
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// NewKafkaPublisher creates a publisher for the given brokers and topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		topic:  topic,
		logger: logging.WithComponent("events-kafka"),
	}
}

// Publish writes ev keyed by subject so events on one subject stay ordered
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.SubjectID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
	if err != nil {
		p.logger.Error("Failed to write Kafka message",
			zap.String("topic", p.topic),
			zap.String("type", ev.Type),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Sent Kafka message",
		zap.String("topic", p.topic),
		zap.String("type", ev.Type),
		zap.String("event_id", ev.EventID))
	return nil
}

// Close flushes pending messages and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
