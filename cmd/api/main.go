package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"beast-summon-backend/internal/config"
	"beast-summon-backend/internal/gacha"
	"beast-summon-backend/internal/handlers"
	"beast-summon-backend/internal/middleware"
	"beast-summon-backend/internal/observability"
	"beast-summon-backend/internal/pricing"
	"beast-summon-backend/internal/randomness"
	"beast-summon-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	catalog, err := gacha.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Fatal("catalog load failed", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Int("templates", catalog.Size()))

	ledger, err := services.NewLedgerService(cfg, logger)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer ledger.Close()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	registry := services.NewBeastRegistry(ledger, logger)

	oracle := pricing.NewStaticOracle(cfg.StaticAssetPrice)
	quoter := pricing.NewQuoter(oracle, cfg.TokenPriceUSD, cfg.OracleMaxAge)
	purchases := services.NewPurchaseService(ledger, quoter, logger)

	rollPrice, err := cfg.RollPriceAmount()
	if err != nil {
		logger.Fatal("invalid roll price", zap.Error(err))
	}

	provider := randomness.NewLocalProvider(cfg.FulfillDelay, logger)
	engine := gacha.NewEngine(catalog, ledger, provider, registry, rollPrice, logger)
	engine.SetJournal(ledger)
	provider.SetFulfiller(engine)

	// Accepted limitation: a request the provider never answers leaves its
	// user rolling forever with the payment already burned. There is no
	// timeout or recovery path by contract with the provider.
	logger.Info("gacha engine ready",
		zap.String("roll_price", rollPrice.String()),
		zap.Duration("local_fulfill_delay", cfg.FulfillDelay))

	wsHandler := handlers.NewWebSocketHandler(ledger, logger)
	engine.SetNotifier(wsHandler)
	purchases.SetNotifier(wsHandler)

	authHandler := handlers.NewAuthHandler(ledger, jwtService, logger)
	userHandler := handlers.NewUserHandler(ledger, logger)
	storeHandler := handlers.NewStoreHandler(purchases, ledger, logger)
	summonHandler := handlers.NewSummonHandler(engine, catalog, registry, ledger, logger)
	callbackHandler := handlers.NewCallbackHandler(engine, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.POST("/auth/login", authHandler.Login)

	vrf := router.Group("/vrf")
	vrf.Use(middleware.ProviderAuthMiddleware(cfg.ProviderSecret))
	{
		vrf.POST("/fulfill", callbackHandler.Fulfill)
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/logout", userHandler.Logout)
		protected.GET("/ws", wsHandler.HandleWebSocket)

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balance", userHandler.GetBalance)
			wallet.POST("/deposit", storeHandler.Deposit)
		}

		store := protected.Group("/store")
		{
			store.GET("/quote", storeHandler.GetQuote)
			store.POST("/purchase", storeHandler.Purchase)
		}

		summon := protected.Group("/summon")
		{
			summon.POST("/roll", summonHandler.Roll)
			summon.GET("/state", summonHandler.GetState)
			summon.GET("/collection", summonHandler.GetCollection)
			summon.GET("/history", summonHandler.GetHistory)
			summon.GET("/templates", summonHandler.GetTemplates)
		}
	}

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
