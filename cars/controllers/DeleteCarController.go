package controllers

import (
	"errors"

	"car-search-backend/cars/repositories"
	"car-search-backend/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (cc *CarController) DeleteCarController(c *fiber.Ctx) error {
	id, err := parseCarID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid car ID"})
	}

	if err := cc.CarRepo.DeleteCar(c.UserContext(), id); err != nil {
		if errors.Is(err, repositories.ErrCarNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
		}
		config.Logger.Error("Failed to delete car", zap.String("carID", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error: Could not delete car",
			"error":   err.Error(),
		})
	}

	cc.afterWrite(c.UserContext())

	config.Logger.Info("Car deleted successfully", zap.String("carID", id.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Car deleted successfully"})
}
