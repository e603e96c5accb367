package routes

import (
	"car-search-backend/cars/controllers"

	"github.com/gofiber/fiber/v2"
)

func CarRouterInit(app *fiber.App, carController *controllers.CarController) {
	carRoutes := app.Group("/api/v1/cars")

	carRoutes.Post("/", carController.CreateCarController)
	carRoutes.Get("/", carController.GetFilteredCarsController)
	carRoutes.Get("/export", carController.ExportCarsController)
	carRoutes.Post("/reindex", carController.ReindexCarsController)
	carRoutes.Get("/:id", carController.GetCarController)
	carRoutes.Put("/:id", carController.UpdateCarController)
	carRoutes.Delete("/:id", carController.DeleteCarController)
}
