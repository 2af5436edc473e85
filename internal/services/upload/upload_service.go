package upload

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/utils"
)

// UploadService предоставляет методы для работы с изображениями в Cloudinary
type UploadService struct {
	cfg          *config.Config
	jwtService   *utils.JWTService
	cld          *cloudinary.Cloudinary
	uploadFolder string
	uploadPreset string
}

// NewUploadService создает новый экземпляр UploadService.
// Без настроенного Cloudinary сервис поднимается, но удаление
// изображений будет недоступно.
func NewUploadService(cfg *config.Config) *UploadService {
	var cld *cloudinary.Cloudinary
	if cfg.CloudinaryConfig.CloudName != "" {
		var err error
		cld, err = cloudinary.NewFromParams(
			cfg.CloudinaryConfig.CloudName,
			cfg.CloudinaryConfig.APIKey,
			cfg.CloudinaryConfig.APISecret,
		)
		if err != nil {
			log.Printf("Ошибка инициализации Cloudinary: %v", err)
			cld = nil
		}
	} else {
		log.Println("Внимание: CLOUDINARY_CLOUD_NAME не задан, удаление изображений недоступно")
	}

	return &UploadService{
		cfg:          cfg,
		jwtService:   utils.NewJWTService(cfg.JWTSecret),
		cld:          cld,
		uploadFolder: cfg.CloudinaryConfig.UploadFolder,
		uploadPreset: cfg.CloudinaryConfig.UploadPreset,
	}
}

// GenerateSignature создаёт корректную подпись для Cloudinary
func (s *UploadService) GenerateSignature(params map[string]string) string {
	// Сортируем ключи параметров
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Формируем строку для подписи
	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	// Добавляем API-секрет в конец строки
	signatureString += s.cfg.CloudinaryConfig.APISecret

	// Создаем SHA-1 хеш
	h := sha1.New()
	h.Write([]byte(signatureString))

	// Возвращаем подпись в виде шестнадцатеричной строки
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams создаёт параметры для подписанной загрузки изображений
func (s *UploadService) GenerateUploadParams(c fiber.Ctx) error {
	// Генерируем ID для вещи, если не передан
	itemID := c.Query("item_id")
	if itemID == "" {
		itemID = uuid.New().String()
	}

	// Текущий timestamp
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Параметры для подписи
	params := map[string]string{
		"timestamp": timestamp,
	}
	if s.uploadFolder != "" {
		params["folder"] = s.uploadFolder
	}

	// Генерируем подпись
	signature := s.GenerateSignature(params)

	// Возвращаем параметры
	response := fiber.Map{
		"timestamp":  timestamp,
		"signature":  signature,
		"api_key":    s.cfg.CloudinaryConfig.APIKey,
		"cloud_name": s.cfg.CloudinaryConfig.CloudName,
		"item_id":    itemID,
	}
	if s.uploadFolder != "" {
		response["folder"] = s.uploadFolder
	}

	return c.JSON(response)
}

// DeleteImage удаляет изображение из Cloudinary по public_id
func (s *UploadService) DeleteImage(c fiber.Ctx) error {
	if _, ok := currentUser(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		PublicID string `json:"public_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil || requestData.PublicID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Не указан public_id изображения"})
	}

	if s.cld == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Cloudinary не настроен"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: requestData.PublicID,
	})
	if err != nil {
		log.Printf("Ошибка удаления изображения %s: %v", requestData.PublicID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления изображения"})
	}

	return c.JSON(fiber.Map{"result": result.Result})
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
