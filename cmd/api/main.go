package main

import (
	"fmt"
	"log"
	"net/http"

	"escrowpay/internal/cache"
	"escrowpay/internal/config"
	"escrowpay/internal/gateway"
	"escrowpay/internal/handler"
	"escrowpay/internal/middleware"
	"escrowpay/internal/repository"
	"escrowpay/internal/service"
	"escrowpay/pkg/db"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	dbPool, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	txRepo := repository.NewTransactionRepository(dbPool)
	escrowRepo := repository.NewEscrowRepository(dbPool)

	paymentService := service.NewPaymentService(
		txRepo,
		escrowRepo,
		gateway.NewSimulatedGateway(logger),
		cache.NewListingCache(rdb, logger),
		logger,
		cfg.DefaultCurrency,
		cfg.ReceiptBaseURL,
		cfg.SettlementTimeout,
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Client-Info"},
		AllowCredentials: cfg.FrontendOrigin != "*",
	}))
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "method not allowed"})
	})

	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	paymentHandler.RegisterRoutes(router, middleware.Auth(cfg.JWTSecret))

	logger.Info("payment service started", zap.String("port", cfg.AppPort))
	if err := router.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
