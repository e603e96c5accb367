package controllers

import (
	"strings"

	carServices "car-search-backend/cars/services"
	"car-search-backend/config"
	"car-search-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var carSearchFilters = []string{"make", "model"}

// SearchCarsController queries the cars engine: q is free text, make and model
// are phrase filters, sort is a comma separated field list ("-" for descending)
func (sc *SearchController) SearchCarsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c, carSearchFilters...)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var sortBy []string
	if sortStr := strings.TrimSpace(c.Query("sort")); sortStr != "" {
		for _, field := range strings.Split(sortStr, ",") {
			if field = strings.TrimSpace(field); field != "" {
				sortBy = append(sortBy, field)
			}
		}
	}

	results, err := sc.engine.Search(c.UserContext(), carServices.CarEngineName, appsearchRequest(c.Query("q"), params, sortBy))
	if err != nil {
		config.Logger.Error("Car search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Car search failed",
		})
	}

	matches := make([]map[string]interface{}, 0, len(results.Hits))
	for _, hit := range results.Hits {
		matches = append(matches, hit.Fields)
	}

	return c.JSON(fiber.Map{
		"results": matches,
		"total":   results.Total,
		"page":    params.Page,
	})
}
