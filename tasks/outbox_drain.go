package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"car-search-backend/appsearch"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeSearchOutboxDrain is the asynq task type that pushes pending outbox entries
const TypeSearchOutboxDrain = "search:outbox:drain"

// ErrDrainBusy makes asynq retry a task that found another drain running
var ErrDrainBusy = errors.New("outbox drain already running")

// Drainer is satisfied by *appsearch.Relay
type Drainer interface {
	Drain(ctx context.Context, batchSize int) (appsearch.DrainStats, error)
}

type OutboxDrainPayload struct {
	BatchSize int `json:"batch_size"`
}

func NewOutboxDrainTask(batchSize int) (*asynq.Task, error) {
	payload, err := json.Marshal(OutboxDrainPayload{BatchSize: batchSize})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSearchOutboxDrain, payload, asynq.MaxRetry(3), asynq.Timeout(time.Minute)), nil
}

// OutboxDrainHandler processes TypeSearchOutboxDrain tasks
type OutboxDrainHandler struct {
	drainer Drainer
	logger  *zap.Logger
}

func NewOutboxDrainHandler(drainer Drainer, logger *zap.Logger) *OutboxDrainHandler {
	return &OutboxDrainHandler{drainer: drainer, logger: logger}
}

func (h *OutboxDrainHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload OutboxDrainPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Retrying cannot fix a malformed payload
		return fmt.Errorf("decode %s payload: %v: %w", TypeSearchOutboxDrain, err, asynq.SkipRetry)
	}

	stats, err := h.drainer.Drain(ctx, payload.BatchSize)
	if err != nil {
		h.logger.Error("Outbox drain task failed", zap.Error(err))
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("outbox drain: %d entries failed", stats.Failed)
	}
	if stats.Skipped {
		// The running drain may have loaded its batch before these entries
		return ErrDrainBusy
	}

	h.logger.Debug("Outbox drain task finished",
		zap.Int("processed", stats.Processed),
		zap.Int("remaining", stats.Remaining))
	return nil
}

// NewServeMux routes every task type this service handles
func NewServeMux(drainer Drainer, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeSearchOutboxDrain, NewOutboxDrainHandler(drainer, logger))
	return mux
}

// OutboxNotifier enqueues a drain task whenever new outbox entries were committed
type OutboxNotifier struct {
	client    *asynq.Client
	batchSize int
	logger    *zap.Logger
}

func NewOutboxNotifier(client *asynq.Client, batchSize int, logger *zap.Logger) *OutboxNotifier {
	return &OutboxNotifier{client: client, batchSize: batchSize, logger: logger}
}

// OutboxChanged enqueues at most one drain task per second; duplicates are not errors
func (n *OutboxNotifier) OutboxChanged(ctx context.Context) error {
	task, err := NewOutboxDrainTask(n.batchSize)
	if err != nil {
		return err
	}

	_, err = n.client.EnqueueContext(ctx, task, asynq.Unique(time.Second))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		n.logger.Warn("Failed to enqueue outbox drain task", zap.Error(err))
		return err
	}
	return nil
}
