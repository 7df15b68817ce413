package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pawnics/pawnics-api/api/swagger"
	"github.com/pawnics/pawnics-api/internal/handler"
	"github.com/pawnics/pawnics-api/internal/middleware"
	"github.com/pawnics/pawnics-api/internal/models"
	"github.com/pawnics/pawnics-api/internal/relay"
	"github.com/pawnics/pawnics-api/internal/repository"
	"github.com/pawnics/pawnics-api/internal/service"
	"github.com/pawnics/pawnics-api/pkg/cache"
	"github.com/pawnics/pawnics-api/pkg/config"
	"github.com/pawnics/pawnics-api/pkg/database"
	"github.com/pawnics/pawnics-api/pkg/jobs"
	"github.com/pawnics/pawnics-api/pkg/logger"
	corsmiddleware "github.com/pawnics/pawnics-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pawnics/pawnics-api/pkg/middleware/requestid"
	"github.com/pawnics/pawnics-api/pkg/storage"
)

// @title Pawnics API
// @version 1.0.0
// @description Pet adoption platform backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	photos, err := storage.NewPhotoStore(cfg.Uploads.StorageDir, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedMIMEs)
	if err != nil {
		logr.Sugar().Fatalw("failed to init photo store", "error", err)
	}

	validate := validator.New()

	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	petRepo := repository.NewPetRepository(db)
	eventRepo := repository.NewEventRepository(db)
	adoptionRepo := repository.NewAdoptionRequestRepository(db)
	applicationRepo := repository.NewEventApplicationRepository(db)
	reportRepo := repository.NewLostFoundRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, metricsSvc, logr)
	defer cacheRepo.Close() //nolint:errcheck

	// Services.
	authSvc := service.NewAuthService(userRepo, tokenRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	petSvc := service.NewPetService(petRepo, validate, logr)
	eventSvc := service.NewEventService(eventRepo, validate, logr)

	adoptionBinding := service.SubjectBinding{
		Kind: models.KindAdoption,
		LoadSubjectOwner: func(ctx context.Context, subjectID string) (string, error) {
			pet, err := petRepo.FindByID(ctx, subjectID)
			if err != nil {
				return "", err
			}
			return pet.OwnerID, nil
		},
		OnAccept: func(ctx context.Context, subjectID string) error {
			return petSvc.MarkAdopted(ctx, subjectID)
		},
		TerminalStatuses: []models.RequestStatus{models.RequestStatusAccepted, models.RequestStatusNotAccepted},
	}
	applicationBinding := service.SubjectBinding{
		Kind: models.KindEventApplication,
		LoadSubjectOwner: func(ctx context.Context, subjectID string) (string, error) {
			event, err := eventRepo.FindByID(ctx, subjectID)
			if err != nil {
				return "", err
			}
			return event.OrganizerID, nil
		},
		TerminalStatuses: []models.RequestStatus{models.RequestStatusAccepted, models.RequestStatusDeclined},
	}

	var adoptionSvc *service.LifecycleService
	repairQueue := jobs.NewQueue("adoption-accept-repair", func(ctx context.Context, job jobs.Job) error {
		return adoptionSvc.RepairHandler()(ctx, job)
	}, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Adoptions.SideEffectRetries,
		RetryDelay: cfg.Adoptions.SideEffectDelay,
		Logger:     logr,
	})
	adoptionSvc = service.NewLifecycleService(adoptionRepo, adoptionBinding, repairQueue, validate, logr)
	applicationSvc := service.NewLifecycleService(applicationRepo, applicationBinding, nil, validate, logr)

	repairQueue.Start(context.Background())
	defer repairQueue.Stop()

	messageSvc := service.NewMessageService(messageRepo, userRepo, reportRepo, cacheRepo, validate, logr)
	lostFoundSvc := service.NewLostFoundService(reportRepo, messageSvc, cacheRepo, cfg.LostFound.CacheTTL, validate, logr)
	exportSvc := service.NewExportService(adoptionRepo, logr)

	hub := relay.NewHub(cfg.Relay.SendBuffer, metricsSvc, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	petHandler := handler.NewPetHandler(petSvc, photos)
	eventHandler := handler.NewEventHandler(eventSvc)
	adoptionHandler := handler.NewRequestHandler(adoptionSvc)
	applicationHandler := handler.NewRequestHandler(applicationSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	lostFoundHandler := handler.NewLostFoundHandler(lostFoundSvc, photos)
	messageHandler := handler.NewMessageHandler(messageSvc)
	wsHandler := handler.NewWSHandler(hub, cfg.Relay.MaxMessageSize, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static("/uploads", photos.BaseDir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/ws", middleware.OptionalJWT(authSvc), wsHandler.Serve)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/logout-all", middleware.JWT(authSvc), authHandler.LogoutAll)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		pets := api.Group("/pets")
		{
			pets.GET("", petHandler.List)
			pets.GET("/mine", middleware.JWT(authSvc), petHandler.ListMine)
			pets.GET("/:id", petHandler.Get)
			pets.POST("", middleware.JWT(authSvc), petHandler.Create)
			pets.PUT("/:id", middleware.JWT(authSvc), petHandler.Update)
			pets.DELETE("/:id", middleware.JWT(authSvc), petHandler.Delete)
		}

		events := api.Group("/events")
		{
			events.GET("", eventHandler.List)
			events.GET("/mine", middleware.JWT(authSvc), eventHandler.ListMine)
			events.GET("/:id", eventHandler.Get)
			events.POST("", middleware.JWT(authSvc), eventHandler.Create)
			events.PUT("/:id", middleware.JWT(authSvc), eventHandler.Update)
			events.DELETE("/:id", middleware.JWT(authSvc), eventHandler.Delete)
		}

		adoptions := api.Group("/adoption-requests", middleware.JWT(authSvc))
		{
			adoptions.POST("", adoptionHandler.Create)
			adoptions.GET("/received", adoptionHandler.ListReceived)
			adoptions.GET("/sent", adoptionHandler.ListSent)
			adoptions.GET("/subject/:subjectId", adoptionHandler.ListBySubject)
			adoptions.GET("/export", exportHandler.ReceivedRequests)
			adoptions.PATCH("/:id", adoptionHandler.Transition)
			adoptions.DELETE("/:id", adoptionHandler.Delete)
		}

		applications := api.Group("/event-applications", middleware.JWT(authSvc))
		{
			applications.POST("", applicationHandler.Create)
			applications.GET("/received", applicationHandler.ListReceived)
			applications.GET("/sent", applicationHandler.ListSent)
			applications.GET("/subject/:subjectId", applicationHandler.ListBySubject)
			applications.PATCH("/:id", applicationHandler.Transition)
			applications.DELETE("/:id", applicationHandler.Delete)
		}

		lostFound := api.Group("/lost-found")
		{
			lostFound.GET("", lostFoundHandler.List)
			lostFound.GET("/mine", middleware.JWT(authSvc), lostFoundHandler.ListMine)
			lostFound.GET("/:id", lostFoundHandler.Get)
			lostFound.POST("", middleware.JWT(authSvc), lostFoundHandler.Create)
			lostFound.PUT("/:id", middleware.JWT(authSvc), lostFoundHandler.Update)
			lostFound.PATCH("/:id/resolve", middleware.JWT(authSvc), lostFoundHandler.Resolve)
			lostFound.DELETE("/:id", middleware.JWT(authSvc), lostFoundHandler.Delete)
		}

		messages := api.Group("/messages", middleware.JWT(authSvc))
		{
			messages.POST("", messageHandler.Send)
			messages.GET("/conversations", messageHandler.Conversations)
			messages.GET("/conversation/:id", messageHandler.Conversation)
			messages.PATCH("/conversation/:id/read", messageHandler.MarkRead)
		}

		if cfg.Chatbot.Enabled {
			chatbotHandler := handler.NewChatbotHandler(service.NewChatbotService(0, logr))
			api.POST("/chatbot", chatbotHandler.Ask)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
