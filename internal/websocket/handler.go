package websocket

import (
	"log"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/valyala/fasthttp"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/utils"
)

// Handler обслуживает WebSocket эндпоинт /ws
type Handler struct {
	manager    *Manager
	jwtService *utils.JWTService
	upgrader   websocket.FastHTTPUpgrader
}

// NewHandler создает новый экземпляр Handler
func NewHandler(cfg *config.Config, manager *Manager) *Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}

	return &Handler{
		manager:    manager,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
				origin := string(ctx.Request.Header.Peek("Origin"))
				if origin == "" {
					return true
				}
				if !allowed[origin] {
					log.Printf("Отклонено WebSocket соединение с origin: %s", origin)
					return false
				}
				return true
			},
		},
	}
}

// SetupRoutes настраивает маршрут WebSocket канала
func (h *Handler) SetupRoutes(app *fiber.App) {
	app.Get("/ws", h.Serve)
}

// Serve повышает HTTP соединение до WebSocket и запускает клиента
func (h *Handler) Serve(c fiber.Ctx) error {
	err := h.upgrader.Upgrade(c.RequestCtx(), func(conn *websocket.Conn) {
		client := NewClient(conn, h.manager, h.jwtService)
		client.Run()
	})
	if err != nil {
		log.Printf("Ошибка обновления соединения до WebSocket: %v", err)
		return fiber.ErrUpgradeRequired
	}
	return nil
}
