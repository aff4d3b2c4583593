package outbox

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"go.uber.org/zap"
)

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

type RelayConfig struct {
	RelayID   string
	BatchSize int
	Interval  time.Duration
	Lease     time.Duration
}

type Relay struct {
	log      logger.ZapLogger
	store    Store
	dispatch *Dispatcher
	cfg      RelayConfig
}

func NewRelay(log logger.ZapLogger, store Store, dispatch *Dispatcher, cfg RelayConfig) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Second
	}
	return &Relay{log: log, store: store, dispatch: dispatch, cfg: cfg}
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", zap.String("relay_id", r.cfg.RelayID))
			return nil
		case <-t.C:
			if _, err := r.Tick(ctx); err != nil {
				r.log.Error("relay tick failed", zap.Error(err))
			}
		}
	}
}

// Tick publishes one batch and returns how many events were sent.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.cfg.RelayID, r.cfg.BatchSize, r.cfg.Lease)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		if err := r.dispatch.Dispatch(ctx, e); err != nil {
			if mErr := r.store.MarkFailed(ctx, e.ID, err.Error()); mErr != nil {
				r.log.Error("relay mark failed error", zap.Int64("event_id", e.ID), zap.Error(mErr))
			}
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) > 0 {
		if err := r.store.MarkSent(ctx, ids); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
