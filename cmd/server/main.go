package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"taskdeck/internal/config"
	"taskdeck/internal/database"
	"taskdeck/internal/handlers"
	"taskdeck/internal/jobs"
	"taskdeck/internal/logging"
	"taskdeck/internal/middleware"
	"taskdeck/internal/services"
	"taskdeck/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting TaskDeck Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err == nil {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Relational store: boards, lists, cards, orgs, memberships
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	log.Printf("✅ Database connected (%s)", db.Dialect())

	// Document store: conversations and messages
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())

	if err := mongoDB.Initialize(context.Background()); err != nil {
		log.Fatalf("❌ Failed to initialize MongoDB indexes: %v", err)
	}
	log.Println("✅ MongoDB connected successfully")

	// Redis is optional. Without it the server runs single-instance and
	// skips cross-instance fan-out.
	var redisService *services.RedisService
	var pubsubService *services.PubSubService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (cross-instance fan-out disabled)", err)
			redisService = nil
		} else {
			instanceID := fmt.Sprintf("instance-%d", time.Now().UnixNano()%10000)
			pubsubService = services.NewPubSubService(redisService, instanceID)
			if err := pubsubService.Start(); err != nil {
				log.Printf("⚠️ Failed to start PubSub service: %v", err)
				pubsubService = nil
			} else {
				log.Printf("✅ Redis pub/sub initialized (instance: %s)", instanceID)
			}
		}
	} else {
		log.Println("⚠️ REDIS_URL not set - running single-instance")
	}

	// Plan tiers with hot reload
	tierService := services.NewTierService(cfg.PlansFile)
	if err := tierService.Reload(); err != nil {
		log.Printf("⚠️ Failed to load plans file: %v (using defaults)", err)
	}
	if cfg.PlansFile != "" {
		stopWatch, err := tierService.Watch()
		if err != nil {
			log.Printf("⚠️ Failed to watch plans file: %v", err)
		} else {
			defer stopWatch()
			log.Printf("✅ Watching %s for plan changes", cfg.PlansFile)
		}
	}

	// Core services
	userService := services.NewUserService(db)
	orgService := services.NewOrgService(db, tierService)
	boardService := services.NewBoardService(db, orgService, tierService)
	listService := services.NewListService(db, boardService)
	cardService := services.NewCardService(db, orgService, boardService, tierService)
	chatService := services.NewChatService(mongoDB, orgService, tierService)
	exportService := services.NewExportService(boardService)

	// Realtime layer
	connManager := services.NewConnectionManager()

	metrics := services.InitMetrics(connManager)
	log.Println("✅ Prometheus metrics initialized")

	broadcaster := services.NewBroadcaster(connManager, pubsubService, metrics)

	// Authentication
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret == "" {
		if os.Getenv("ENVIRONMENT") == "production" {
			log.Fatal("❌ CRITICAL SECURITY ERROR: JWT_SECRET is required in production. Generate with: openssl rand -hex 64")
		}
		log.Println("⚠️  JWT_SECRET not set - authentication disabled (development mode)")
	} else {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT authentication: %v", err)
		}
		log.Printf("✅ JWT authentication initialized (access: %v, refresh: %v)", cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	}

	// Background jobs
	scheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	staleSweeper := jobs.NewStaleConnectionSweeper(connManager, cfg.WSReadTimeout)
	if err := scheduler.Every("stale-connections", time.Minute, staleSweeper.Run); err != nil {
		log.Fatalf("❌ Failed to register stale connection sweeper: %v", err)
	}
	retention := jobs.NewRetentionCleanup(db, chatService, tierService)
	if err := scheduler.Daily("retention-cleanup", 3, retention.Run); err != nil {
		log.Fatalf("❌ Failed to register retention cleanup: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Handlers
	authHandler := handlers.NewLocalAuthHandler(jwtAuth, userService)
	orgHandler := handlers.NewOrganizationHandler(orgService)
	boardHandler := handlers.NewBoardHandler(boardService, exportService, broadcaster)
	listHandler := handlers.NewListHandler(listService, broadcaster)
	cardHandler := handlers.NewCardHandler(cardService, chatService, broadcaster, metrics)
	chatHandler := handlers.NewChatHandler(chatService, broadcaster, metrics)
	healthHandler := handlers.NewHealthHandler(db, mongoDB, redisService, connManager)
	wsHandler := handlers.NewWebSocketHandler(connManager, boardService, chatService, broadcaster, redisService, metrics, cfg.WSPingInterval, cfg.WSReadTimeout)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:        "TaskDeck v1.0",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		BodyLimit:      5 * 1024 * 1024,
		ReadBufferSize: 16384,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("taskdeck")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Auth=%d/min, WS=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.AuthenticatedMax,
		rateLimitConfig.WebSocketMax,
	)

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Connection-ID",
		AllowCredentials: allowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", allowedOrigins)

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	requireAuth := middleware.LocalAuthMiddleware(jwtAuth)
	authLimiter := middleware.AuthenticatedRateLimiter(rateLimitConfig)
	loginLimiter := middleware.LoginRateLimiter(rateLimitConfig)
	exportLimiter := middleware.ExportRateLimiter(rateLimitConfig)

	// Routes

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", loginLimiter, authHandler.Register)
	authRoutes.Post("/login", loginLimiter, authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", requireAuth, authHandler.Logout)
	authRoutes.Get("/me", requireAuth, authHandler.GetCurrentUser)
	authRoutes.Put("/me", requireAuth, authHandler.UpdateProfile)

	api.Get("/users/search", requireAuth, authHandler.SearchUsers)
	api.Get("/presence/online", requireAuth, wsHandler.Online)

	// Organizations and membership
	orgs := api.Group("/organizations", requireAuth, authLimiter)
	orgs.Post("/", orgHandler.Create)
	orgs.Get("/", orgHandler.List)
	orgs.Get("/:id", orgHandler.Get)
	orgs.Put("/:id", orgHandler.Update)
	orgs.Delete("/:id", orgHandler.Delete)
	orgs.Get("/:id/members", orgHandler.ListMembers)
	orgs.Post("/:id/members", orgHandler.AddMember)
	orgs.Put("/:id/members/:userId", orgHandler.UpdateMember)
	orgs.Delete("/:id/members/:userId", orgHandler.RemoveMember)
	orgs.Get("/:id/boards", boardHandler.List)

	// Boards
	boards := api.Group("/boards", requireAuth, authLimiter)
	boards.Get("/", boardHandler.List)
	boards.Post("/", boardHandler.Create)
	boards.Post("/lists", listHandler.Create)
	boards.Get("/:id", boardHandler.Get)
	boards.Put("/:id", boardHandler.Update)
	boards.Delete("/:id", boardHandler.Delete)
	boards.Post("/:id/reorder-lists", boardHandler.ReorderLists)
	boards.Post("/:id/clients", boardHandler.ShareWithClient)
	boards.Delete("/:id/clients/:userId", boardHandler.RevokeClient)
	boards.Get("/:id/export", exportLimiter, boardHandler.Export)

	// Lists
	lists := api.Group("/lists", requireAuth, authLimiter)
	lists.Post("/", listHandler.Create)
	lists.Get("/:id", listHandler.Get)
	lists.Put("/:id", listHandler.Update)
	lists.Delete("/:id", listHandler.Delete)

	// Cards
	cards := api.Group("/cards", requireAuth, authLimiter)
	cards.Get("/", cardHandler.List)
	cards.Post("/", cardHandler.Create)
	cards.Get("/:id", cardHandler.Get)
	cards.Put("/:id", cardHandler.Update)
	cards.Delete("/:id", cardHandler.Delete)
	cards.Patch("/:id/move", cardHandler.Move)
	cards.Post("/:id/archive", cardHandler.Archive)
	cards.Post("/:id/unarchive", cardHandler.Unarchive)
	cards.Post("/:id/members", cardHandler.AddMember)
	cards.Delete("/:id/members/:userId", cardHandler.RemoveMember)
	cards.Post("/:id/comments", cardHandler.AddComment)
	cards.Delete("/:id/comments/:commentId", cardHandler.DeleteComment)

	// Chat
	chat := api.Group("/chat", requireAuth, authLimiter)
	chat.Post("/conversations", chatHandler.CreateConversation)
	chat.Get("/conversations", chatHandler.ListConversations)
	chat.Get("/conversations/:id", chatHandler.GetConversation)
	chat.Post("/conversations/:id/participants", chatHandler.AddParticipant)
	chat.Delete("/conversations/:id/participants/:userId", chatHandler.RemoveParticipant)
	chat.Post("/conversations/:id/messages", chatHandler.SendMessage)
	chat.Get("/conversations/:id/messages", chatHandler.ListMessages)
	chat.Post("/conversations/:id/messages/:messageId/read", chatHandler.MarkRead)

	// WebSocket gateway. Auth runs before the upgrade; the token may come
	// from the Authorization header or the ?token= query parameter.
	app.Use("/ws", middleware.WebSocketRateLimiter(rateLimitConfig), requireAuth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("client_ip", c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.Handle))

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down server...")
		if pubsubService != nil {
			pubsubService.Stop()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Shutdown error: %v", err)
		}
	}()

	log.Printf("🌐 Server listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	log.Println("✅ Server stopped")
}
