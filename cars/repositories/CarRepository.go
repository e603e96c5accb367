package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"car-search-backend/appsearch"
	"car-search-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCarNotFound   = errors.New("car not found")
	ErrInvalidFilter = errors.New("invalid car filter")
)

type CarRepository interface {
	CreateCar(ctx context.Context, car *models.Car) (*models.Car, error)
	UpdateCar(ctx context.Context, car *models.Car) (*models.Car, error)
	DeleteCar(ctx context.Context, id uuid.UUID) error
	GetCarByID(ctx context.Context, id uuid.UUID) (*models.Car, error)
	GetAllCars(ctx context.Context) ([]models.Car, error)
	GetFilteredCars(ctx context.Context, pageSize int, offset int, filters map[string]string) ([]models.Car, int64, error)
}

type carRepository struct {
	db     *gorm.DB
	outbox *appsearch.Outbox
}

// NewCarRepository returns a repository whose writes also record the matching
// search outbox entry in the same transaction
func NewCarRepository(db *gorm.DB, outbox *appsearch.Outbox) CarRepository {
	return &carRepository{
		db:     db,
		outbox: outbox,
	}
}

func (r *carRepository) CreateCar(ctx context.Context, car *models.Car) (*models.Car, error) {
	if car.ID == uuid.Nil {
		car.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(car).Error; err != nil {
			return err
		}
		return r.outbox.Enqueue(tx, models.SearchOutboxActionIndex, car)
	})
	if err != nil {
		return nil, err
	}
	return car, nil
}

// UpdateCar overwrites make, model and year_manufactured of an existing car
func (r *carRepository) UpdateCar(ctx context.Context, car *models.Car) (*models.Car, error) {
	var updated models.Car

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, "id = ?", car.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrCarNotFound, car.ID)
			}
			return err
		}

		// A map so empty strings are written too
		changes := map[string]interface{}{
			"make":              car.Make,
			"model":             car.Model,
			"year_manufactured": car.YearManufactured,
		}
		if err := tx.Model(&updated).Updates(changes).Error; err != nil {
			return err
		}
		if err := tx.First(&updated, "id = ?", car.ID).Error; err != nil {
			return err
		}
		return r.outbox.Enqueue(tx, models.SearchOutboxActionIndex, updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *carRepository) DeleteCar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var car models.Car
		if err := tx.First(&car, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrCarNotFound, id)
			}
			return err
		}
		if err := tx.Delete(&car).Error; err != nil {
			return err
		}
		return r.outbox.Enqueue(tx, models.SearchOutboxActionDelete, car)
	})
}

func (r *carRepository) GetCarByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	var car models.Car
	err := r.db.WithContext(ctx).First(&car, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCarNotFound, id)
		}
		return nil, err
	}
	return &car, nil
}

func (r *carRepository) GetAllCars(ctx context.Context) ([]models.Car, error) {
	var cars []models.Car
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// GetFilteredCars retrieves cars with filtering and pagination. Supported
// filters: make, model (case-insensitive substring), year_from, year_to (inclusive years).
func (r *carRepository) GetFilteredCars(ctx context.Context, pageSize int, offset int, filters map[string]string) ([]models.Car, int64, error) {
	var cars []models.Car
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Car{})

	for key, value := range filters {
		switch key {
		case "make":
			db = db.Where(`LOWER(make) LIKE ? ESCAPE '\'`, containsPattern(value))
		case "model":
			db = db.Where(`LOWER(model) LIKE ? ESCAPE '\'`, containsPattern(value))
		case "year_from":
			year, err := parseYear(value)
			if err != nil {
				return nil, 0, err
			}
			db = db.Where("year_manufactured >= ?", startOfYear(year))
		case "year_to":
			year, err := parseYear(value)
			if err != nil {
				return nil, 0, err
			}
			db = db.Where("year_manufactured < ?", startOfYear(year+1))
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Limit(pageSize).Offset(offset).Order("created_at DESC").Find(&cars).Error; err != nil {
		return nil, 0, err
	}

	return cars, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches value literally anywhere in a lower-cased column
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}

func parseYear(value string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidFilter, value)
	}
	return year, nil
}

func startOfYear(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
