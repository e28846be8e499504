package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/internal/api/handlers"
	"github.com/sardorismatullaev707-collab/suprt/internal/knowledge"
	"github.com/sardorismatullaev707-collab/suprt/internal/llm"
	"github.com/sardorismatullaev707-collab/suprt/internal/metrics"
	"github.com/sardorismatullaev707-collab/suprt/internal/middleware/ratelimit"
	"github.com/sardorismatullaev707-collab/suprt/internal/middleware/security"
	"github.com/sardorismatullaev707-collab/suprt/internal/middleware/validation"
	"github.com/sardorismatullaev707-collab/suprt/internal/respond"
	"github.com/sardorismatullaev707-collab/suprt/internal/schedule"
	"github.com/sardorismatullaev707-collab/suprt/internal/session"
	"github.com/sardorismatullaev707-collab/suprt/internal/storage/sqlite"
	"github.com/sardorismatullaev707-collab/suprt/internal/storage/workbook"
	"github.com/sardorismatullaev707-collab/suprt/pkg/config"
	appLogger "github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting support bot API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// The workbook, when configured, is the externally owned source of truth
	// for both the schedule and the knowledge base. SQLite keeps the
	// interaction log either way.
	var (
		slotStore schedule.SlotStore = sqliteClient
		slotAdder handlers.SlotAdder = sqliteClient
		kb        []knowledge.Entry
	)
	if cfg.Workbook.Path != "" {
		wb, err := workbook.Open(cfg.Workbook.Path)
		if err != nil {
			appLogger.Fatal("Failed to open workbook", zap.Error(err))
		}
		slotStore = wb
		slotAdder = nil

		kb, err = wb.Knowledge(context.Background())
		if err != nil {
			appLogger.Fatal("Failed to load workbook knowledge base", zap.Error(err))
		}
	} else {
		kb, err = sqliteClient.LoadKnowledge(context.Background())
		if err != nil {
			appLogger.Fatal("Failed to load knowledge base", zap.Error(err))
		}
	}
	appLogger.Info("Knowledge base loaded", zap.Int("entries", len(kb)))

	var sessions session.Store
	if cfg.Redis.Enabled {
		redisStore, err := session.NewRedis(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Session.TTLMinutes)*time.Minute,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis session store", zap.Error(err))
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		sessions = session.NewMemory(
			time.Duration(cfg.Session.TTLMinutes)*time.Minute,
			cfg.Session.MaxSessions,
		)
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	engine := respond.NewEngine(kb, slotStore, sessions, llmClient, sqliteClient, respond.Config{
		HistoryTurns:     cfg.Bot.HistoryTurns,
		SlotListLimit:    cfg.Bot.SlotListLimit,
		MaxMessageLength: cfg.Bot.MaxMessageLength,
	})

	limiter := ratelimit.New(ratelimit.Config{
		Interval: time.Duration(cfg.Bot.RateLimitSeconds) * time.Second,
		Logger:   appLogger.GetLogger(),
	})
	defer limiter.Stop()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(validation.Middleware(validation.Config{
		MaxMessageLength: cfg.Bot.MaxMessageLength,
		Logger:           appLogger.GetLogger(),
	}))

	messageHandler := handlers.NewMessageHandler(engine, limiter, sqliteClient)
	telegramHandler := handlers.NewTelegramHandler(engine, limiter)
	scheduleHandler := handlers.NewScheduleHandler(slotStore, slotAdder, kb)
	wsHandler := handlers.NewWebSocketHandler(engine, limiter)

	api := app.Group("/api/v1")

	api.Post("/messages", messageHandler.HandleMessage)
	api.Get("/messages/history", messageHandler.GetHistory)
	api.Post("/telegram/webhook", telegramHandler.HandleUpdate)

	api.Get("/slots", scheduleHandler.ListSlots)
	api.Post("/slots", scheduleHandler.AddSlot)
	api.Get("/knowledge", scheduleHandler.ListKnowledge)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
