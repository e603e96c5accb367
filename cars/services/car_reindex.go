package services

import (
	"context"
	"fmt"

	"car-search-backend/appsearch"
	"car-search-backend/db/models"
)

// CarLister is the part of the car repository a full re-index needs
type CarLister interface {
	GetAllCars(ctx context.Context) ([]models.Car, error)
}

// ReindexCars drops the "cars" engine and indexes every stored car again.
// It does nothing while indexing is disabled.
func ReindexCars(ctx context.Context, lister CarLister, engine appsearch.Engine, sync *appsearch.Synchroniser) (int, error) {
	if !sync.Enabled() {
		return 0, nil
	}

	cars, err := lister.GetAllCars(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cars for re-index: %w", err)
	}

	if err := engine.DropEngine(ctx, CarEngineName); err != nil {
		return 0, fmt.Errorf("drop %s engine: %w", CarEngineName, err)
	}

	records := make([]appsearch.Indexable, 0, len(cars))
	for _, car := range cars {
		records = append(records, car)
	}
	if err := sync.Index(ctx, records...); err != nil {
		return 0, err
	}
	return len(records), nil
}
