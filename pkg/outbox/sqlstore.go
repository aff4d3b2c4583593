package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
)

const maxAttempts = 5

type row struct {
	ID            int64     `db:"id"`
	AggregateType string    `db:"aggregate_type"`
	AggregateID   string    `db:"aggregate_id"`
	Type          string    `db:"type"`
	Payload       []byte    `db:"payload"`
	Headers       *string   `db:"headers"`
	Traceparent   *string   `db:"traceparent"`
	Status        string    `db:"status"`
	RetryCount    int       `db:"retry_count"`
	LastError     *string   `db:"last_error"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r row) event() (Event, error) {
	ev := Event{
		ID:            r.ID,
		AggregateType: r.AggregateType,
		AggregateID:   r.AggregateID,
		Type:          r.Type,
		Payload:       r.Payload,
		CreatedAt:     r.CreatedAt,
		Status:        Status(r.Status),
		RetryCount:    r.RetryCount,
		LastError:     r.LastError,
	}
	if r.Traceparent != nil {
		ev.Traceparent = *r.Traceparent
	}
	if r.Headers != nil && *r.Headers != "" {
		if err := json.Unmarshal([]byte(*r.Headers), &ev.Headers); err != nil {
			return Event{}, fmt.Errorf("decode outbox headers %d: %w", r.ID, err)
		}
	}
	return ev, nil
}

// SQLStore keeps outbox rows in the service database. Publish joins the
// caller's transaction so events commit or roll back with the state change.
type SQLStore struct {
	DB *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) Publish(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) error {
	ev, err := NewEvent(ctx, aggregateType, aggregateID, eventType, payload)
	if err != nil {
		return err
	}
	return s.Enqueue(ctx, ev)
}

func (s *SQLStore) Enqueue(ctx context.Context, ev Event) error {
	var headers *string
	if len(ev.Headers) > 0 {
		raw, err := json.Marshal(ev.Headers)
		if err != nil {
			return err
		}
		h := string(raw)
		headers = &h
	}
	var traceparent *string
	if ev.Traceparent != "" {
		traceparent = &ev.Traceparent
	}

	ex := txn.Executor(ctx, s.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`
        INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status, retry_count, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
    `), ev.AggregateType, ev.AggregateID, ev.Type, ev.Payload, headers, traceparent, string(StatusPending), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

// LockBatch claims pending events, and in-progress ones whose lease has expired.
func (s *SQLStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	query := tx.Rebind(`
        SELECT id, aggregate_type, aggregate_id, type, payload, headers, traceparent, status, retry_count, last_error, created_at
        FROM outbox
        WHERE status = ? OR (status = ? AND lease_until < ?)
        ORDER BY id
        LIMIT ?` + txn.ForUpdateSkipLocked(s.DB))

	var rows []row
	if err := tx.SelectContext(ctx, &rows, query, string(StatusPending), string(StatusInProgress), now, batchSize); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, tx.Commit()
	}

	events := make([]Event, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ev, err := r.event()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
		ids = append(ids, r.ID)
	}

	update, args, err := sqlx.In(`UPDATE outbox SET status = ?, relay_id = ?, lease_until = ? WHERE id IN (?)`,
		string(StatusInProgress), relayID, now.Add(lease), ids)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(update), args...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *SQLStore) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE outbox SET status = ?, lease_until = NULL WHERE id IN (?)`, string(StatusSent), ids)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, s.DB.Rebind(query), args...)
	return err
}

// MarkFailed returns the event to the queue until it has used up its attempts.
func (s *SQLStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
        UPDATE outbox
        SET status = CASE WHEN retry_count + 1 >= ? THEN ? ELSE ? END,
            retry_count = retry_count + 1,
            last_error = ?,
            lease_until = NULL
        WHERE id = ?
    `), maxAttempts, string(StatusFailed), string(StatusPending), errMsg, id)
	return err
}

func (s *SQLStore) ListByStatus(ctx context.Context, status Status) ([]Event, error) {
	var rows []row
	err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(`
        SELECT id, aggregate_type, aggregate_id, type, payload, headers, traceparent, status, retry_count, last_error, created_at
        FROM outbox WHERE status = ? ORDER BY id
    `), string(status))
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		ev, err := r.event()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
