package controllers

import (
	"errors"

	"car-search-backend/cars/repositories"
	"car-search-backend/config"
	"car-search-backend/db/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (cc *CarController) UpdateCarController(c *fiber.Ctx) error {
	id, err := parseCarID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid car ID"})
	}

	var req CarRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	updatedCar, err := cc.CarRepo.UpdateCar(c.UserContext(), &models.Car{
		ID:               id,
		Make:             req.Make,
		Model:            req.Model,
		YearManufactured: req.YearManufactured,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCarNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
		}
		config.Logger.Error("Failed to update car", zap.String("carID", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error: Could not update car",
			"error":   err.Error(),
		})
	}

	cc.afterWrite(c.UserContext())

	config.Logger.Info("Car updated successfully", zap.String("carID", id.String()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Car updated successfully",
		"data":    updatedCar,
	})
}
