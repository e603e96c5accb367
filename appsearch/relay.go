package appsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"car-search-backend/db/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const DefaultMaxAttempts = 5

// DrainStats summarises one Relay.Drain call
type DrainStats struct {
	Processed int  `json:"processed"`
	Failed    int  `json:"failed"`
	Remaining int  `json:"remaining"` // loaded but left for the next drain
	Skipped   bool `json:"skipped"`   // another drain held the lock
}

// Relay pushes outbox entries to the engine in the order they were written
type Relay struct {
	db          *gorm.DB
	engine      Engine
	logger      *zap.Logger
	limiter     *rate.Limiter
	maxAttempts int
	chunkSize   int
	enabled     bool
}

type RelayOption func(*Relay)

// WithRateLimit bounds engine calls per second; perSecond <= 0 disables it
func WithRateLimit(perSecond float64) RelayOption {
	return func(r *Relay) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithMaxAttempts(attempts int) RelayOption {
	return func(r *Relay) {
		if attempts > 0 {
			r.maxAttempts = attempts
		}
	}
}

func WithRelayChunkSize(size int) RelayOption {
	return func(r *Relay) {
		if size > 0 {
			r.chunkSize = size
		}
	}
}

// WithRelayEnabled leaves entries untouched while indexing is switched off
func WithRelayEnabled(enabled bool) RelayOption {
	return func(r *Relay) { r.enabled = enabled }
}

func NewRelay(db *gorm.DB, engine Engine, logger *zap.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		db:          db,
		engine:      engine,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		chunkSize:   DefaultChunkSize,
		enabled:     true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// drainLockKey is the PostgreSQL advisory lock held by the active drainer
const drainLockKey int64 = 0x63617273 // "cars"

// localDrainMu serialises drains within the process on databases without
// advisory locks
var localDrainMu sync.Mutex

// Drain pushes up to batchSize pending entries in the order they were written.
// Only one drain runs at a time across every Relay sharing the database; a
// drain that finds another one active returns at once with Skipped set.
// Consecutive entries for the same engine and action are sent together and
// processing stops at the first failing group, so later entries never
// overtake earlier ones.
func (r *Relay) Drain(ctx context.Context, batchSize int) (DrainStats, error) {
	var stats DrainStats
	if !r.enabled {
		return stats, nil
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if batchSize <= 0 {
		batchSize = r.chunkSize
	}

	acquired, err := r.withDrainLock(ctx, func(db *gorm.DB) error {
		var err error
		stats, err = r.drain(ctx, db, batchSize)
		return err
	})
	if !acquired && err == nil {
		r.logger.Debug("Outbox drain already running, skipping")
		return DrainStats{Skipped: true}, nil
	}
	if err != nil {
		return stats, err
	}

	if stats.Processed > 0 || stats.Failed > 0 {
		r.logger.Info("Drained search outbox",
			zap.Int("processed", stats.Processed),
			zap.Int("failed", stats.Failed),
			zap.Int("remaining", stats.Remaining))
	}
	return stats, nil
}

// withDrainLock runs fn while holding the drain lock. On PostgreSQL that is a
// session advisory lock on one pinned connection, elsewhere a process mutex.
func (r *Relay) withDrainLock(ctx context.Context, fn func(db *gorm.DB) error) (bool, error) {
	if r.db.Dialector.Name() != "postgres" {
		if !localDrainMu.TryLock() {
			return false, nil
		}
		defer localDrainMu.Unlock()
		return true, fn(r.db.WithContext(ctx))
	}

	var acquired bool
	err := r.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		// Fresh statements per call, all on the pinned connection
		conn = conn.Session(&gorm.Session{})
		if err := conn.Raw("SELECT pg_try_advisory_lock(?)", drainLockKey).Scan(&acquired).Error; err != nil {
			return fmt.Errorf("acquire outbox drain lock: %w", err)
		}
		if !acquired {
			return nil
		}
		defer func() {
			// Unlock even when ctx is already cancelled
			if err := conn.WithContext(context.Background()).Exec("SELECT pg_advisory_unlock(?)", drainLockKey).Error; err != nil {
				r.logger.Error("Failed to release outbox drain lock", zap.Error(err))
			}
		}()
		return fn(conn)
	})
	return acquired, err
}

// drain loads the batch and pushes it group by group. Each group is marked in
// its own short statement so no transaction stays open across engine calls.
func (r *Relay) drain(ctx context.Context, db *gorm.DB, batchSize int) (DrainStats, error) {
	var stats DrainStats

	var entries []models.SearchOutboxEntry
	err := db.Where("processed_at IS NULL AND attempts < ?", r.maxAttempts).
		Order("created_at ASC").
		Order("id ASC").
		Limit(batchSize).
		Find(&entries).Error
	if err != nil {
		return stats, fmt.Errorf("load search outbox: %w", err)
	}

	for start := 0; start < len(entries); {
		end := groupEnd(entries, start, r.chunkSize)
		group := entries[start:end]

		if pushErr := r.push(ctx, group); pushErr != nil {
			stats.Remaining = len(entries) - start
			if ctxErr := ctx.Err(); ctxErr != nil {
				// Cancellation is not the entries' fault
				return stats, ctxErr
			}
			r.logger.Error("Failed to push outbox entries",
				zap.String("engine", group[0].EngineName),
				zap.String("action", string(group[0].Action)),
				zap.Int("count", len(group)),
				zap.Error(pushErr))
			if err := markFailed(db, group, pushErr); err != nil {
				return stats, err
			}
			stats.Failed += len(group)
			stats.Remaining = len(entries) - end
			return stats, nil
		}

		if err := markProcessed(db, group); err != nil {
			return stats, err
		}
		stats.Processed += len(group)
		start = end
	}
	return stats, nil
}

// Pending counts entries still waiting to be pushed
func (r *Relay) Pending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SearchOutboxEntry{}).
		Where("processed_at IS NULL AND attempts < ?", r.maxAttempts).
		Count(&count).Error
	return count, err
}

func (r *Relay) push(ctx context.Context, group []models.SearchOutboxEntry) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	engineName := group[0].EngineName
	switch group[0].Action {
	case models.SearchOutboxActionIndex:
		docs := make([]Document, 0, len(group))
		for _, entry := range group {
			var doc Document
			if err := json.Unmarshal(entry.Payload, &doc); err != nil {
				return fmt.Errorf("decode outbox entry %s: %w", entry.ID, err)
			}
			docs = append(docs, doc)
		}
		return r.engine.IndexDocuments(ctx, engineName, docs)
	case models.SearchOutboxActionDelete:
		ids := make([]string, 0, len(group))
		for _, entry := range group {
			ids = append(ids, entry.DocumentID)
		}
		return r.engine.DeleteDocuments(ctx, engineName, ids)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutboxEntry, group[0].Action)
	}
}

// groupEnd returns the end of the run starting at start that shares engine and action
func groupEnd(entries []models.SearchOutboxEntry, start, limit int) int {
	end := start + 1
	for end < len(entries) && end-start < limit &&
		entries[end].EngineName == entries[start].EngineName &&
		entries[end].Action == entries[start].Action {
		end++
	}
	return end
}

func entryIDs(group []models.SearchOutboxEntry) []interface{} {
	ids := make([]interface{}, 0, len(group))
	for _, entry := range group {
		ids = append(ids, entry.ID)
	}
	return ids
}

func markProcessed(db *gorm.DB, group []models.SearchOutboxEntry) error {
	now := time.Now()
	err := db.Model(&models.SearchOutboxEntry{}).
		Where("id IN ?", entryIDs(group)).
		Updates(map[string]interface{}{"processed_at": now, "last_error": ""}).Error
	if err != nil {
		return fmt.Errorf("mark outbox entries processed: %w", err)
	}
	return nil
}

func markFailed(db *gorm.DB, group []models.SearchOutboxEntry, cause error) error {
	err := db.Model(&models.SearchOutboxEntry{}).
		Where("id IN ?", entryIDs(group)).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + ?", 1),
			"last_error": cause.Error(),
		}).Error
	if err != nil {
		return fmt.Errorf("mark outbox entries failed: %w", err)
	}
	return nil
}
