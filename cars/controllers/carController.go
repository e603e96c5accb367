package controllers

import (
	"context"
	"time"

	"car-search-backend/appsearch"
	"car-search-backend/cars/repositories"
	"car-search-backend/config"
	"car-search-backend/utils"

	"go.uber.org/zap"
)

const carCacheResource = "cars"

// OutboxNotifier is told when a write committed new search outbox entries
type OutboxNotifier interface {
	OutboxChanged(ctx context.Context) error
}

type CarController struct {
	CarRepo  repositories.CarRepository
	Cache    *utils.ResponseCache
	Notifier OutboxNotifier
	Engine   appsearch.Engine
	Sync     *appsearch.Synchroniser
}

// CarRequest is the body of create and update requests. No field is required:
// the model itself accepts empty values.
type CarRequest struct {
	Make             string    `json:"make"`
	Model            string    `json:"model"`
	YearManufactured time.Time `json:"year_manufactured"`
}

func (cc *CarController) afterWrite(ctx context.Context) {
	cc.Cache.InvalidateCacheAsync(carCacheResource)

	if cc.Notifier == nil {
		return
	}
	if err := cc.Notifier.OutboxChanged(ctx); err != nil {
		// The scheduled drain still picks the entries up
		config.Logger.Warn("Failed to notify search outbox", zap.Error(err))
	}
}
