package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-workshop-service/pkg/tracing"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RetryCount    int
	LastError     *string
}

// NewEvent marshals payload and captures the trace of ctx so the relay can continue it.
func NewEvent(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       body,
		Traceparent:   tracing.Traceparent(ctx),
		CreatedAt:     time.Now().UTC(),
		Status:        StatusPending,
	}, nil
}

// Publisher records a domain event inside the caller's transaction.
type Publisher interface {
	Publish(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) error
}

// Discard drops events; used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, string, string, string, any) error { return nil }
