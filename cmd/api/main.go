package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/services/admin"
	"github.com/tedlist/tedlist-api/internal/services/auth"
	"github.com/tedlist/tedlist-api/internal/services/deal"
	"github.com/tedlist/tedlist-api/internal/services/item"
	"github.com/tedlist/tedlist-api/internal/services/match"
	"github.com/tedlist/tedlist-api/internal/services/notification"
	"github.com/tedlist/tedlist-api/internal/services/rewards"
	"github.com/tedlist/tedlist-api/internal/services/trading"
	"github.com/tedlist/tedlist-api/internal/services/upload"
	"github.com/tedlist/tedlist-api/internal/services/vision"
	"github.com/tedlist/tedlist-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Tedlist API",
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

	// Запускаем менеджер WebSocket соединений
	wsManager := websocket.NewManager()
	wsManager.StartHeartbeat(30 * time.Second)

	wsHandler := websocket.NewHandler(cfg, wsManager)
	wsHandler.SetupRoutes(app)

	// Создаём сервисы
	authService := auth.NewAuthService(cfg)
	notificationService := notification.NewNotificationService(cfg, wsManager)
	tradingService := trading.NewTradingService(cfg, notificationService)
	itemService := item.NewItemService(cfg)
	dealService := deal.NewDealService(cfg)
	matchService := match.NewMatchService(cfg)
	rewardsService := rewards.NewRewardsService(cfg)
	adminService := admin.NewAdminService(cfg)
	visionService := vision.NewVisionService(cfg)
	uploadService := upload.NewUploadService(cfg)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	notificationService.SetupRoutes(app)
	tradingService.SetupRoutes(app)
	itemService.SetupRoutes(app)
	itemService.SetupPublicRoutes(app)
	dealService.SetupRoutes(app)
	matchService.SetupRoutes(app)
	rewardsService.SetupRoutes(app)
	adminService.SetupRoutes(app)
	visionService.SetupRoutes(app)
	uploadService.SetupRoutes(app)

	// Останавливаем сервер по сигналу
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Останавливаем сервер...")
		wsManager.Shutdown()
		_ = app.Shutdown()
	}()

	// Запускаем сервер
	log.Printf("✅ Tedlist API запущен на порту %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Ошибка сервера: %v", err)
	}
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
