package controllers

import (
	"errors"

	"car-search-backend/cars/repositories"
	"car-search-backend/config"
	"car-search-backend/db/models"
	"car-search-backend/utils"
	"car-search-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var carFilterKeys = []string{"make", "model", "year_from", "year_to"}

type filteredCarsPage struct {
	Cars  []models.Car `json:"cars"`
	Total int64        `json:"total"`
}

func (cc *CarController) GetFilteredCarsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c, carFilterKeys...)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx := c.UserContext()
	cacheKey := utils.QueryKey(carCacheResource, params.Filters, params.Page, params.PageSize)

	var page filteredCarsPage
	hit, err := cc.Cache.Get(ctx, cacheKey, &page)
	if err != nil {
		config.Logger.Warn("Failed to read cars cache", zap.String("key", cacheKey), zap.Error(err))
	}

	if !hit {
		cars, total, err := cc.CarRepo.GetFilteredCars(ctx, params.PageSize, params.Offset(), params.Filters)
		if err != nil {
			if errors.Is(err, repositories.ErrInvalidFilter) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			config.Logger.Error("Failed to fetch paginated cars", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch cars"})
		}
		page = filteredCarsPage{Cars: cars, Total: total}

		if err := cc.Cache.Set(ctx, cacheKey, page); err != nil {
			config.Logger.Warn("Failed to write cars cache", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	if page.Cars == nil {
		page.Cars = []models.Car{}
	}
	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, page.Cars, page.Total, params))
}
