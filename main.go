package main

import (
	"context"
	"os"
	"time"

	controller "food-ordering-backend/controllers"
	"food-ordering-backend/database"
	"food-ordering-backend/helpers"
	"food-ordering-backend/logger"
	"food-ordering-backend/notify"
	"food-ordering-backend/orderstate"
	"food-ordering-backend/registry"
	"food-ordering-backend/routes"
	"food-ordering-backend/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Logger.Warn().Msg(".env file not found, using environment")
	}

	logLevel := logger.Level(os.Getenv("LOG_LEVEL"))
	logger.Init(logger.Config{Level: logLevel, JSONOutput: true})
	log := logger.With("main")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	ctx := context.Background()
	if err := database.EnsureIndexes(ctx, database.Client); err != nil {
		log.Error().Err(err).Msg("index creation failed")
	}

	// Fan-out wiring: registry -> dispatcher <- push transport.
	connectionRegistry := registry.New()
	controller.UseRegistry(connectionRegistry)

	fcm, err := notify.NewFCMProviderFromEnv(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("firebase initialization failed")
	}

	deviceStore := controller.DeviceStore()
	restaurantStore := controller.RestaurantStore()

	// The transport is always constructed; without credentials its provider
	// stays nil and every send is audited as dropped.
	var provider notify.Provider
	if fcm != nil {
		provider = fcm
	} else {
		log.Warn().Msg("firebase credentials not configured, push notifications disabled")
	}
	push := notify.NewPushTransport(provider, deviceStore)
	dispatcher := notify.NewDispatcher(connectionRegistry, push, restaurantStore)

	orderStore := orderstate.NewMongoStore(controller.OrderCollection())
	machine := orderstate.NewMachine(orderStore, dispatcher)
	controller.UseOrderMachine(machine)

	// Orders stuck in Placed across a restart lose their in-process timers.
	if err := machine.RecoverStale(ctx); err != nil {
		log.Error().Err(err).Msg("stale order recovery failed")
	}

	sched := scheduler.New()
	sched.Add("heartbeat-sweep", scheduler.HeartbeatInterval, func(ctx context.Context) error {
		connectionRegistry.HeartbeatSweep()
		return nil
	})
	sched.Add("token-sweep", scheduler.TokenSweepInterval, deviceStore.SweepExpired)
	sched.Add("auto-cancel-watchdog", scheduler.WatchdogInterval, machine.RecoverStale)
	sched.Add("opening-time-watcher", scheduler.OpeningTimeInterval, restaurantStore.OpenDue)
	sched.Start(ctx)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:9000"},
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, helpers.HealthPayload(connectionRegistry.Count(), time.Now()))
	})

	routes.UserRoutes(router)
	routes.RestaurantRoutes(router)
	routes.OrderRoutes(router)

	log.Info().Str("port", port).Msg("server starting")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
