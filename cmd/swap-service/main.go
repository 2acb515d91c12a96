package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/swapspot-api/internal/config"
	"github.com/rajivgeraev/swapspot-api/internal/db"
	"github.com/rajivgeraev/swapspot-api/internal/services/notification"
	"github.com/rajivgeraev/swapspot-api/internal/services/swap"
	"github.com/rajivgeraev/swapspot-api/internal/services/swipe"
	"github.com/rajivgeraev/swapspot-api/internal/storage/postgres"
	"github.com/rajivgeraev/swapspot-api/internal/utils"
	"github.com/rajivgeraev/swapspot-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	store := postgres.NewStore(db.Pool)

	// Запускаем WebSocket-сервер на отдельном порту
	wsManager := websocket.NewManager(store)
	defer wsManager.Shutdown()

	wsHandler := websocket.NewHandler(wsManager, utils.NewJWTService(cfg.JWTSecret))
	go func() {
		if err := websocket.Serve(cfg.WebSocketAddr, wsHandler); err != nil {
			log.Fatalf("❌ Ошибка WebSocket сервера: %v", err)
		}
	}()

	// Запускаем асинхронную доставку уведомлений
	notifier := notification.NewDispatcher(store, wsManager)
	notifier.Start()
	defer notifier.Stop()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "SwapSpot API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	swipeService := swipe.NewSwipeService(cfg, store, notifier)
	swapService := swap.NewSwapService(cfg, store, notifier, wsManager)
	notificationService := notification.NewNotificationService(cfg, store)

	// Регистрируем маршруты
	swipeService.SetupRoutes(app)
	swapService.SetupRoutes(app)
	notificationService.SetupRoutes(app)

	// Запускаем фоновый сброс просроченных предложений места встречи
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()
	sweeper := swap.NewSweeper(swapService, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)
	go sweeper.Run(sweeperCtx)

	// Запускаем сервер
	log.Printf("✅ SwapSpot API запущен на %s", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
