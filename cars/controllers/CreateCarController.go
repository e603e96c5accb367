package controllers

import (
	"car-search-backend/config"
	"car-search-backend/db/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (cc *CarController) CreateCarController(c *fiber.Ctx) error {
	var req CarRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	car := models.Car{
		Make:             req.Make,
		Model:            req.Model,
		YearManufactured: req.YearManufactured,
	}

	createdCar, err := cc.CarRepo.CreateCar(c.UserContext(), &car)
	if err != nil {
		config.Logger.Error("Failed to create car", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error: Could not create car",
			"error":   err.Error(),
		})
	}

	cc.afterWrite(c.UserContext())

	config.Logger.Info("Car created successfully",
		zap.String("carID", createdCar.ID.String()),
		zap.String("make", createdCar.Make),
		zap.String("model", createdCar.Model))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Car created successfully",
		"data":    createdCar,
	})
}
