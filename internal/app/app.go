package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"leadrouter_backend/database"
	"leadrouter_backend/internal/cache"
	"leadrouter_backend/internal/config"
	"leadrouter_backend/internal/handlers"
	"leadrouter_backend/internal/logger"
	"leadrouter_backend/internal/middleware"
	"leadrouter_backend/internal/pii"
	"leadrouter_backend/internal/repositories"
	"leadrouter_backend/internal/routes"
	"leadrouter_backend/internal/scheduler"
	"leadrouter_backend/internal/services"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	// Потеря связи с хранилищем на старте - единственная фатальная ошибка
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	codec, err := pii.NewCodec(cfg.PII.Secret)
	if err != nil {
		logger.Fatal("Failed to initialize PII codec", "error", err)
	}

	refCache := cache.NewReferenceCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)

	container, requestRepo, distributionRepo := initializeServices(cfg, gormDB, codec, refCache)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Цикл распределения: один экземпляр на хранилище
	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()
	distScheduler := scheduler.New(requestRepo, distributionRepo, container.LifecycleService, ticker.C)
	go distScheduler.Run(ctx)

	retention := scheduler.NewRetentionJob(requestRepo, cfg.Retention.CronSpec, cfg.RetentionMaxAge())
	if err := retention.Start(); err != nil {
		logger.Fatal("Failed to start retention job", "error", err)
	}
	defer retention.Stop()

	ginRouter := setupRouter(cfg, container)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, codec *pii.Codec, refCache *cache.ReferenceCache) (*services.ServiceContainer, repositories.RequestRepository, repositories.DistributionRepository) {
	userRepo := repositories.NewUserRepository(gormDB)
	referenceRepo := repositories.NewReferenceRepository(gormDB)
	requestRepo := repositories.NewRequestRepository(gormDB)
	distributionRepo := repositories.NewDistributionRepository(gormDB)
	auditRepo := repositories.NewAuditRepository(gormDB)

	matchingService := services.NewMatchingService(userRepo, distributionRepo)
	allocationService := services.NewAllocationService(distributionRepo, services.AllocatorConfig{
		PrimarySize:           cfg.Distribution.PrimarySize,
		ReserveSize:           cfg.Distribution.ReserveSize,
		DistributionTTL:       cfg.DistributionTTL(),
		ExcludePriorAssignees: cfg.Distribution.ExcludePriorAssignees,
	})
	lifecycleService := services.NewLifecycleService(requestRepo, distributionRepo, matchingService, allocationService, services.LifecycleConfig{
		MaxRounds:     cfg.Distribution.MaxRounds,
		RoundInterval: cfg.RoundInterval(),
	})
	userService := services.NewUserService(userRepo, referenceRepo, distributionRepo, codec)
	referenceService := services.NewReferenceService(referenceRepo, refCache)
	requestService := services.NewRequestService(requestRepo, distributionRepo, userRepo, referenceRepo, auditRepo, lifecycleService, codec)

	return &services.ServiceContainer{
		UserService:       userService,
		ReferenceService:  referenceService,
		RequestService:    requestService,
		MatchingService:   matchingService,
		AllocationService: allocationService,
		LifecycleService:  lifecycleService,
	}, requestRepo, distributionRepo
}

func setupRouter(cfg *config.Config, container *services.ServiceContainer) *gin.Engine {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())

	baseHandler := handlers.NewBaseHandler()
	appHandlers := &handlers.AppHandlers{
		UserHandler:         handlers.NewUserHandler(baseHandler, container.UserService),
		ReferenceHandler:    handlers.NewReferenceHandler(baseHandler, container.ReferenceService),
		RequestHandler:      handlers.NewRequestHandler(baseHandler, container.RequestService, container.LifecycleService),
		DistributionHandler: handlers.NewDistributionHandler(baseHandler, container.RequestService),
	}

	routes.RegisterRoutes(router, appHandlers)
	return router
}
