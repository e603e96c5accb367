package seeds

import (
	"context"
	"fmt"
	"time"

	"car-search-backend/cars/repositories"
	"car-search-backend/config"
	"car-search-backend/db/models"

	"go.uber.org/zap"
)

func manufactured(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// DemoCars is the sample inventory written by SeedDemoCars
var DemoCars = []models.Car{
	{Make: "Toyota", Model: "Corolla", YearManufactured: manufactured(2019, time.March)},
	{Make: "Toyota", Model: "Hilux", YearManufactured: manufactured(2021, time.July)},
	{Make: "Honda", Model: "Civic", YearManufactured: manufactured(2018, time.January)},
	{Make: "Ford", Model: "Ranger", YearManufactured: manufactured(2022, time.September)},
	{Make: "Volkswagen", Model: "Golf", YearManufactured: manufactured(2017, time.May)},
	{Make: "Mazda", Model: "CX-5", YearManufactured: manufactured(2020, time.November)},
}

// SeedDemoCars inserts DemoCars through the repository so every seeded car
// also lands in the search outbox. It does nothing when cars already exist.
func SeedDemoCars(ctx context.Context, carRepo repositories.CarRepository) (int, error) {
	_, total, err := carRepo.GetFilteredCars(ctx, 1, 0, nil)
	if err != nil {
		return 0, fmt.Errorf("count existing cars: %w", err)
	}
	if total > 0 {
		config.Logger.Info("Cars already present, skipping demo seed", zap.Int64("existing", total))
		return 0, nil
	}

	for i := range DemoCars {
		car := DemoCars[i]
		if _, err := carRepo.CreateCar(ctx, &car); err != nil {
			return i, fmt.Errorf("seed car %s %s: %w", car.Make, car.Model, err)
		}
	}

	config.Logger.Info("Seeded demo cars", zap.Int("count", len(DemoCars)))
	return len(DemoCars), nil
}
