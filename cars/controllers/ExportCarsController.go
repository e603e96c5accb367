package controllers

import (
	"errors"
	"fmt"
	"time"

	"car-search-backend/cars/repositories"
	"car-search-backend/cars/services"
	"car-search-backend/config"
	"car-search-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxExportRows = 10000

// ExportCarsController streams the filtered cars as an .xlsx workbook
func (cc *CarController) ExportCarsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c, carFilterKeys...)

	cars, _, err := cc.CarRepo.GetFilteredCars(c.UserContext(), maxExportRows, 0, params.Filters)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidFilter) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		config.Logger.Error("Failed to fetch cars for export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch cars"})
	}

	buf, err := services.ExportCarsToExcel(cars)
	if err != nil {
		config.Logger.Error("Failed to generate cars export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate export"})
	}

	fileName := fmt.Sprintf("cars_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))

	config.Logger.Info("Cars exported", zap.Int("count", len(cars)))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
