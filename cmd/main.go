package main

import (
	"github.com/chatstack/chatroom/internal/handler"
	"github.com/chatstack/chatroom/internal/middleware"
	"github.com/chatstack/chatroom/internal/registry"
	"github.com/chatstack/chatroom/internal/tenantdb"
	"github.com/chatstack/chatroom/pkg/config"
	"github.com/chatstack/chatroom/pkg/database"
	"github.com/chatstack/chatroom/pkg/jwtutil"
	"github.com/chatstack/chatroom/pkg/logger"
	"github.com/chatstack/chatroom/prometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("chatroom")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting chatroom service...", cfg.LogConfig()...)

	// Open the shared tenant registry store
	registryDB, err := database.OpenRegistry(&cfg.Registry)
	if err != nil {
		log.Fatal("Failed to open tenant registry store", zap.Error(err))
	}
	log.Info("Tenant registry store opened")

	// Wire the tenant routing layer: locator -> session factory -> registry
	locator := tenantdb.NewLocator(cfg.TenantStore.DataDir)
	factory := tenantdb.NewFactory(locator, cfg.TenantStore.MaxEngines, cfg.Registry.LogLevel)

	reg, err := registry.New(registryDB, factory)
	if err != nil {
		log.Fatal("Failed to initialize tenant registry", zap.Error(err))
	}
	factory.SetFinder(reg)
	log.Info("Tenant session factory initialized")

	// Initialize JWT utility
	jwtutil.Initialize(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	// Initialize Prometheus metrics
	prometheus.InitMetrics()
	log.Info("Prometheus metrics initialized")

	// Wire handlers
	handler.Init(reg, factory)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Register routes
	handler.RegisterRoutes(e)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
