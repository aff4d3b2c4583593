package outbox

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/tracing"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      logger.ZapLogger
	producer Producer
	topic    string
}

func NewDispatcher(log logger.ZapLogger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	headers := make([]kafka.Header, 0, len(event.Headers)+2)
	for k, v := range event.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers, kafka.Header{Key: "event_type", Value: []byte(event.Type)})
	headers = tracing.InjectKafkaHeaders(tracing.FromTraceparent(ctx, event.Traceparent), headers)

	msg := kafka.Message{
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
	// A writer configured with its own topic rejects messages that also set one.
	if d.topic != "" {
		msg.Topic = d.topic
	}

	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("outbox dispatch failed", zap.Int64("event_id", event.ID), zap.Error(err))
		return err
	}
	d.log.Debug("outbox dispatched", zap.Int64("event_id", event.ID), zap.String("type", event.Type))
	return nil
}

// NewKafkaWriter builds a writer that leaves the topic to each message.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}
