package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/growmetrics/marketing-api/configs"
	"github.com/growmetrics/marketing-api/internal/api/handlers"
	"github.com/growmetrics/marketing-api/internal/api/middleware"
	"github.com/growmetrics/marketing-api/internal/cache"
	job "github.com/growmetrics/marketing-api/internal/jobs"
	"github.com/growmetrics/marketing-api/internal/queue"
	"github.com/growmetrics/marketing-api/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	storage, localMedia := buildStorage(cfg)
	if localMedia {
		app.Static("/uploads", cfg.UploadDir)
	}

	mediaService := service.NewMediaService(storage)
	cloudinaryService := service.NewCloudinaryService(cfg.Cloudinary)
	instagramService := service.NewInstagramService(*cfg)
	aiService := service.NewAIService(*cfg)
	appsflyerService := service.NewAppsFlyerService(*cfg)
	suggestionCache := cache.NewSuggestionCache(rdb)

	var driveService service.DriveService
	if cfg.GoogleDrive.ClientEmail != "" && cfg.GoogleDrive.PrivateKey != "" {
		ds, err := service.NewDriveService(context.Background(), *cfg)
		if err != nil {
			log.Printf("Warning: Google Drive disabled: %v", err)
		} else {
			driveService = ds
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(*cfg)
	cronMiddleware := middleware.NewCronMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, instagramService)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)
	app.Get("/auth/instagram", auth.ConnectInstagram)
	app.Get("/auth/instagram/callback", auth.InstagramCallback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())
	api.Get("/session", auth.Session)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.UploadMedia)
	api.Get("/media", media.ListMedia)
	api.Post("/media/remove", media.RemoveMedia)

	publish := handlers.NewPublishHandler(instagramService, cloudinaryService, mediaService)
	api.Post("/publish", publish.PublishPost)

	content := handlers.NewContentHandler(driveService, suggestionCache, client)
	api.Get("/content", content.ListContent)
	api.Post("/content/approve", content.ApproveContent)
	api.Get("/content/suggestions", content.GetSuggestions)

	ai := handlers.NewAIHandler(aiService, appsflyerService, instagramService)
	api.Post("/ai/captions", ai.GenerateCaptions)
	api.Post("/ai/insights", ai.GenerateInsights)
	api.Get("/ai/recommendations", ai.GetRecommendations)

	analytics := handlers.NewAnalyticsHandler(appsflyerService, instagramService)
	api.Get("/analytics/appsflyer", analytics.GetAppsFlyerMetrics)
	api.Get("/analytics/instagram", analytics.GetInstagramAnalytics)
	api.Delete("/analytics/instagram/:id", analytics.RemoveInstagramPost)

	// endpoints for external schedulers
	cronAPI := app.Group("/cron")
	cronAPI.Use(cronMiddleware.CronMiddleware())
	cronAPI.Post("/suggestions", content.UploadSuggestions)
	cronAPI.Get("/analytics/snapshot", analytics.CollectSnapshot)

	// cron jobs
	suggestionsJob := job.NewDailySuggestionsJob(appsflyerService, aiService, suggestionCache)

	// queue
	queueW := queue.NewQueue(instagramService, cloudinaryService, mediaService, driveService)

	c := cron.New()
	c.AddFunc("0 0 9 * * *", suggestionsJob.GenerateSuggestions)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app)
}

func buildStorage(cfg *config.Config) (service.MediaStorage, bool) {
	if cfg.R2.AccountID != "" && cfg.R2.AccessKey != "" {
		storage, err := service.NewR2Storage(cfg.R2)
		if err == nil {
			log.Println("Using R2 media storage")
			return storage, false
		}
		log.Printf("Warning: R2 storage unavailable, using local disk: %v", err)
	}

	storage, err := service.NewLocalStorage(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}
	return storage, true
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
