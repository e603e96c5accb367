package controllers

import (
	"car-search-backend/cars/services"
	"car-search-backend/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReindexCarsController rebuilds the cars engine from the database
func (cc *CarController) ReindexCarsController(c *fiber.Ctx) error {
	count, err := services.ReindexCars(c.UserContext(), cc.CarRepo, cc.Engine, cc.Sync)
	if err != nil {
		config.Logger.Error("Failed to re-index cars", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to re-index cars",
			"error":   err.Error(),
		})
	}

	config.Logger.Info("Cars re-indexed", zap.Int("count", count))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Cars re-indexed successfully",
		"indexed": count,
	})
}
