package controllers

import (
	"errors"

	"car-search-backend/appsearch"
	carServices "car-search-backend/cars/services"
	"car-search-backend/config"
	"car-search-backend/db/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetCarDocumentController returns the indexed document of one car, which is
// what search currently sees for it
func (sc *SearchController) GetCarDocumentController(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid car ID"})
	}

	documentID := models.Car{ID: id}.AppSearchDocumentID()
	doc, err := sc.engine.GetDocument(c.UserContext(), carServices.CarEngineName, documentID)
	if errors.Is(err, appsearch.ErrDocumentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Car is not indexed"})
	}
	if err != nil {
		config.Logger.Error("Failed to load car document",
			zap.String("document_id", documentID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load car document",
		})
	}

	return c.JSON(fiber.Map{"document": doc})
}
