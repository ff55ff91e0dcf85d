package main

import (
	"os"
	"time"

	_ "nfe-backend/api/swagger" // swagger docs
	"nfe-backend/internal/database"
	"nfe-backend/internal/handler"
	"nfe-backend/internal/notify"
	"nfe-backend/internal/repository"
	"nfe-backend/internal/service"
	"nfe-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           NF-e Pricing API
// @version         1.0
// @description     Imports NF-e invoices and computes resale prices per sales channel.
// @host            localhost:8080
// @BasePath        /
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Info("no configs/.env file found")
	}

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "postgres")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL")

	// Set up WebSocket Hub and the debounced update notifier
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	notifier := notify.New(notify.HubSink{Ch: wsHub.Broadcast}, notify.DefaultDelay)

	// Set up dependencies (Repository -> Service -> Handler)
	nfeRepo := repository.NewNfeRepository(db)
	itemRepo := repository.NewItemRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	txManager := repository.NewTransactionManager(db)

	nfeService := service.NewNfeService(nfeRepo, snapshotRepo, txManager, notifier, logger)
	catalogService := service.NewCatalogService(itemRepo)
	statisticsService := service.NewStatisticsService(db)

	nfeHandler := handler.NewNfeHandler(nfeService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/api/status", func(c *gin.Context) {
		sqlDB, dbErr := db.DB()
		dbStatus := "connected"
		if dbErr != nil || sqlDB.Ping() != nil {
			dbStatus = "unreachable"
		}
		c.JSON(200, gin.H{
			"status":    "online",
			"database":  dbStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	// Register API Routes
	nfeHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := getenv("PORT", "8080")
	logger.Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
