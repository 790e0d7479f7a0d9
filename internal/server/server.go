package server

import (
	"context"
	"time"

	"github.com/stackpick/stackpick/internal/controllers"
	"github.com/stackpick/stackpick/internal/middlewares"
	"github.com/stackpick/stackpick/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/rs/zerolog/log"
)

type HTTPServerDependencies struct {
	PickerController *controllers.PickerController
}

func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "stackpick",
	})

	// Add basic middleware
	router.Use(cors.New())
	router.Use(logger.New())
	router.Use(middlewares.RequestIDMiddleware())

	// Health check endpoint (no upstream call)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "stackpick",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if deps.PickerController == nil {
		log.Fatal().Msg("Picker controller is nil, please set up the server with a configured gateway")
	}

	api := router.Group("/api")

	connections := api.Group("/connections")
	connections.Get("/", deps.PickerController.ListConnections)
	connections.Get("/:connectionID/resources/children", deps.PickerController.ListConnectionChildren)

	knowledgeBases := api.Group("/knowledge-bases")
	knowledgeBases.Get("/", deps.PickerController.ListKnowledgeBases)
	knowledgeBases.Post("/", deps.PickerController.CreateKnowledgeBase)
	knowledgeBases.Post("/sync", deps.PickerController.TriggerSync)
	knowledgeBases.Delete("/resources", deps.PickerController.DeleteResource)
	knowledgeBases.Get("/:knowledgeBaseID/resources/children", deps.PickerController.ListKnowledgeBaseChildren)

	return router
}
