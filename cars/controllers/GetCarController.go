package controllers

import (
	"errors"

	"car-search-backend/cars/repositories"
	"car-search-backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func parseCarID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func (cc *CarController) GetCarController(c *fiber.Ctx) error {
	id, err := parseCarID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid car ID"})
	}

	car, err := cc.CarRepo.GetCarByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrCarNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car not found"})
		}
		config.Logger.Error("Failed to fetch car", zap.String("carID", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch car"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": car})
}
