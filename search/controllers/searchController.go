package controllers

import (
	"context"

	"car-search-backend/appsearch"
)

// OutboxRelay is satisfied by *appsearch.Relay
type OutboxRelay interface {
	Drain(ctx context.Context, batchSize int) (appsearch.DrainStats, error)
	Pending(ctx context.Context) (int64, error)
}

type SearchController struct {
	engine         appsearch.Engine
	relay          OutboxRelay
	drainBatchSize int
}

func NewSearchController(engine appsearch.Engine, relay OutboxRelay, drainBatchSize int) *SearchController {
	return &SearchController{engine: engine, relay: relay, drainBatchSize: drainBatchSize}
}
