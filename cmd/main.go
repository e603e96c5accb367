package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-search-backend/appsearch"
	"car-search-backend/config"
	"car-search-backend/internal/bootstrap"
	"car-search-backend/middleware"
	"car-search-backend/seeds"
	"car-search-backend/tasks"
	"car-search-backend/utils"

	// Repositories
	car_repositories "car-search-backend/cars/repositories"

	// Routes
	car_controllers "car-search-backend/cars/controllers"
	car_routes "car-search-backend/cars/routes"
	search_controllers "car-search-backend/search/controllers"
	search_routes "car-search-backend/search/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables; a missing .env is fine outside development
	envErr := godotenv.Load(".env")

	config.InitLogger()
	defer config.Logger.Sync()

	if envErr != nil {
		config.Logger.Warn("No .env file loaded, using process environment", zap.Error(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := config.GetEnvOrDefault("PORT", "8080")
	settings := config.LoadAppSearchSettings()

	db, err := config.ConfigureDatabase()
	if err != nil {
		config.Logger.Fatal("Database setup failed", zap.Error(err))
	}

	// ------ Search integration ------
	registry, err := bootstrap.NewRegistry()
	if err != nil {
		config.Logger.Fatal("Search registry setup failed", zap.Error(err))
	}

	engine, err := bootstrap.NewSearchEngine(ctx, settings)
	if err != nil {
		config.Logger.Fatal("Search engine setup failed", zap.Error(err))
	}
	defer engine.Close()

	synchroniser := appsearch.NewSynchroniser(registry, engine, config.Logger,
		appsearch.WithChunkSize(settings.ChunkSize),
		appsearch.WithIndexingEnabled(settings.IndexingEnabled),
	)
	relay := appsearch.NewRelay(db, engine, config.Logger,
		appsearch.WithRelayChunkSize(settings.ChunkSize),
		appsearch.WithRelayEnabled(settings.IndexingEnabled),
		appsearch.WithMaxAttempts(settings.MaxAttempts),
		appsearch.WithRateLimit(settings.RateLimit),
	)
	outbox := appsearch.NewOutbox(registry)

	// ------ Redis: response cache and asynq ------
	var cache *utils.ResponseCache
	redisClient, err := config.InitRedisServer(ctx)
	if err != nil {
		config.Logger.Warn("Redis unavailable, response cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cache = utils.NewResponseCache(redisClient, utils.DefaultCacheTTL, config.Logger)
	}

	var notifier car_controllers.OutboxNotifier
	if redisClient != nil {
		asynqClient := asynq.NewClient(config.AsynqRedisOpt())
		defer asynqClient.Close()
		notifier = tasks.NewOutboxNotifier(asynqClient, settings.DrainBatchSize, config.Logger)

		asynqServer := asynq.NewServer(config.AsynqRedisOpt(), asynq.Config{
			Concurrency: 1,
			Logger:      config.Logger.Sugar(),
		})
		if err := asynqServer.Start(tasks.NewServeMux(relay, config.Logger)); err != nil {
			config.Logger.Fatal("Failed to start task server", zap.Error(err))
		}
		defer asynqServer.Shutdown()
	}

	scheduler, err := tasks.StartOutboxDrainSchedule(relay, settings.DrainSchedule, settings.DrainBatchSize, settings.DrainTimeout, config.Logger)
	if err != nil {
		config.Logger.Fatal("Invalid OUTBOX_DRAIN_SCHEDULE", zap.String("schedule", settings.DrainSchedule), zap.Error(err))
	}
	defer scheduler.Stop()

	// Repositories
	carRepo := car_repositories.NewCarRepository(db, outbox)

	if config.GetEnvBool("SEED_DEMO_DATA", false) {
		if _, err := seeds.SeedDemoCars(ctx, carRepo); err != nil {
			config.Logger.Error("Demo seeding failed", zap.Error(err))
		}
	}

	if config.GetEnvBool("REINDEX_ON_START", false) {
		bootstrap.IndexSearchData(ctx, carRepo, engine, synchroniser)
	}

	// ------ HTTP ------
	app := fiber.New()
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(config.Logger))
	middleware.InitCors(app)

	carController := &car_controllers.CarController{
		CarRepo:  carRepo,
		Cache:    cache,
		Notifier: notifier,
		Engine:   engine,
		Sync:     synchroniser,
	}
	car_routes.CarRouterInit(app, carController)

	searchController := search_controllers.NewSearchController(engine, relay, settings.DrainBatchSize)
	search_routes.InitSearchRoutes(app, searchController)

	go func() {
		<-ctx.Done()
		config.Logger.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			config.Logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	config.Logger.Info("Server starting",
		zap.String("port", port),
		zap.String("search_backend", settings.Backend))
	if err := app.Listen(":" + port); err != nil {
		config.Logger.Error("Server failed", zap.String("port", port), zap.Error(err))
	}
}
