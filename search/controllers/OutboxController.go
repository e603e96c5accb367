package controllers

import (
	"car-search-backend/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OutboxStatusController reports how many outbox entries wait to be pushed
func (sc *SearchController) OutboxStatusController(c *fiber.Ctx) error {
	pending, err := sc.relay.Pending(c.UserContext())
	if err != nil {
		config.Logger.Error("Failed to count pending outbox entries", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read search outbox"})
	}
	return c.JSON(fiber.Map{"pending": pending})
}

// DrainOutboxController pushes pending outbox entries now
func (sc *SearchController) DrainOutboxController(c *fiber.Ctx) error {
	batchSize := c.QueryInt("batch_size", sc.drainBatchSize)
	if batchSize <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch_size parameter"})
	}

	stats, err := sc.relay.Drain(c.UserContext(), batchSize)
	if err != nil {
		config.Logger.Error("Manual outbox drain failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to drain search outbox",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Search outbox drained", "stats": stats})
}
