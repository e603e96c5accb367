package routes

import (
	"car-search-backend/search/controllers"

	"github.com/gofiber/fiber/v2"
)

func InitSearchRoutes(app *fiber.App, controller *controllers.SearchController) {
	api := app.Group("/api/v1/search")

	api.Get("/cars", controller.SearchCarsController)
	api.Get("/cars/:id", controller.GetCarDocumentController)
	api.Get("/outbox", controller.OutboxStatusController)
	api.Post("/outbox/drain", controller.DrainOutboxController)
}
