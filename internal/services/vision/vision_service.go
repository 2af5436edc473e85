package vision

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/utils"
)

// Analyzer описывает анализатор изображений: по URL изображения
// возвращает структурированное описание вещи
type Analyzer interface {
	Ready() bool
	Analyze(ctx context.Context, imageURL string) (*ItemDetails, error)
}

// VisionService представляет сервис анализа изображений вещей
type VisionService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	analyzer   Analyzer
}

// NewVisionService создает новый экземпляр VisionService
func NewVisionService(cfg *config.Config) *VisionService {
	if cfg.OpenAIAPIKey == "" {
		log.Println("Внимание: OPENAI_API_KEY не задан, анализ изображений недоступен")
	}

	return &VisionService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		analyzer:   NewOpenAIClient(cfg.OpenAIAPIKey),
	}
}

// Analyze анализирует изображение по URL и возвращает
// структурированное описание вещи
func (s *VisionService) Analyze(c fiber.Ctx) error {
	if _, ok := currentUser(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	if !s.analyzer.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Анализ изображений не настроен"})
	}

	var requestData struct {
		ImageURL string `json:"image_url"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	url := strings.TrimSpace(requestData.ImageURL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Не указан URL изображения"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	details, err := s.analyzer.Analyze(ctx, url)
	if err != nil {
		log.Printf("Ошибка анализа изображения %s: %v", url, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка анализа изображения"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    details,
	})
}

// currentUser извлекает UUID текущего пользователя из контекста запроса
func currentUser(c fiber.Ctx) (uuid.UUID, bool) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return uuid.Nil, false
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false
	}

	return userUUID, true
}
