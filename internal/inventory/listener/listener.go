package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/inventory"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/tracing"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const EventInvoiceIssued = "InvoiceIssued"

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Deduper is satisfied by *idempotency.Store.
type Deduper interface {
	MessageKey(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

// InvoiceListener turns invoice events from the sales service into Sale
// stock-outs on the ledger.
type InvoiceListener struct {
	reader Reader
	dedup  Deduper
	uc     inventory.UseCase
	logger logger.ZapLogger
	tracer trace.Tracer
}

func NewKafkaReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

// NewInvoiceListener accepts a nil dedup; redelivered messages are then applied again.
func NewInvoiceListener(reader Reader, dedup Deduper, uc inventory.UseCase, log logger.ZapLogger) *InvoiceListener {
	return &InvoiceListener{
		reader: reader,
		dedup:  dedup,
		uc:     uc,
		logger: log,
		tracer: tracing.Tracer("inventory-invoice-listener"),
	}
}

func (l *InvoiceListener) Start(ctx context.Context) {
	l.logger.Info("Starting invoice listener")
	defer l.reader.Close()

	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping invoice listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if l.duplicate(ctx, msg) {
			_ = l.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := l.tracer.Start(msgCtx, "ConsumeInvoiceIssued")
		l.processMessage(msgCtx, msg.Value)
		span.End()

		if err := l.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			l.logger.Error("Failed to commit kafka message", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (l *InvoiceListener) duplicate(ctx context.Context, msg kafka.Message) bool {
	if l.dedup == nil {
		return false
	}
	key := l.dedup.MessageKey(msg.Topic, msg.Partition, msg.Offset)
	seen, err := l.dedup.Seen(ctx, key)
	if err != nil {
		l.logger.Warn("idempotency check failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if seen {
		l.logger.Info("duplicate message skipped", zap.String("key", key))
	}
	return seen
}

type InvoiceIssuedEvent struct {
	EventType string         `json:"event_type"`
	Payload   InvoicePayload `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

type InvoicePayload struct {
	InvoiceNo    string               `json:"invoice_no"`
	CustomerName string               `json:"customer_name"`
	Items        []InvoiceLinePayload `json:"items"`
}

// InvoiceLinePayload has a zero InventoryItemID for service and labour lines.
type InvoiceLinePayload struct {
	InventoryItemID int64           `json:"inventory_item_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// processMessage applies each part line in its own transaction; a line that
// fails is logged and does not stop the others.
func (l *InvoiceListener) processMessage(ctx context.Context, value []byte) int {
	var event InvoiceIssuedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return 0
	}
	if event.EventType != EventInvoiceIssued {
		return 0
	}

	log := l.logger.With(zap.String("invoice_no", event.Payload.InvoiceNo))
	log.Info("Processing InvoiceIssued event", zap.Int("lines", len(event.Payload.Items)))

	applied := 0
	for _, line := range event.Payload.Items {
		if line.InventoryItemID == 0 || line.Quantity <= 0 {
			continue
		}
		_, err := l.uc.RecordSale(ctx, &dto.SaleInput{
			ItemID:       line.InventoryItemID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			InvoiceNo:    event.Payload.InvoiceNo,
			CustomerName: event.Payload.CustomerName,
		})
		if err != nil {
			var insufficient *apperror.InsufficientStockError
			if errors.As(err, &insufficient) {
				log.Warn("Skipping invoice line", zap.Int64("item_id", line.InventoryItemID), zap.String("reason", err.Error()))
			} else {
				log.Error("Failed to record sale for invoice line", zap.Int64("item_id", line.InventoryItemID), zap.Error(err))
			}
			continue
		}
		applied++
	}
	return applied
}
