package rewards

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/utils"
)

const (
	// Ежедневная награда за вход
	dailyStreakReward = 2

	// Бонус за каждую полную неделю серии
	weeklyStreakBonus = 10
)

// RewardsService представляет сервис наградной системы
type RewardsService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// TeddyTransaction представляет запись журнала начислений
type TeddyTransaction struct {
	ID          uuid.UUID `json:"id"`
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRewardsService создает новый экземпляр RewardsService
func NewRewardsService(cfg *config.Config) *RewardsService {
	return &RewardsService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetRewards возвращает баланс теддиков и журнал начислений
func (s *RewardsService) GetRewards(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var teddies int
	err := db.Pool.QueryRow(ctx, `
		SELECT teddies FROM users WHERE id = $1
	`, userUUID).Scan(&teddies)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
		}
		log.Printf("Ошибка запроса баланса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения наград"})
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, amount, description, created_at
		FROM teddy_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 50
	`, userUUID)

	if err != nil {
		log.Printf("Ошибка запроса журнала начислений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения наград"})
	}
	defer rows.Close()

	transactions := []TeddyTransaction{}
	for rows.Next() {
		var tr TeddyTransaction
		if err := rows.Scan(&tr.ID, &tr.Amount, &tr.Description, &tr.CreatedAt); err != nil {
			log.Printf("Ошибка сканирования транзакции: %v", err)
			continue
		}
		transactions = append(transactions, tr)
	}

	return c.JSON(fiber.Map{
		"teddies":      teddies,
		"transactions": transactions,
	})
}

// AddTeddies начисляет пользователю теддиков
func (s *RewardsService) AddTeddies(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		Amount      int    `json:"amount"`
		Description string `json:"description"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сумма начисления должна быть положительной"})
	}

	if requestData.Description == "" {
		requestData.Description = "Reward"
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var teddies int
	err := db.Pool.QueryRow(ctx, `
		UPDATE users SET teddies = teddies + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING teddies
	`, requestData.Amount, userUUID).Scan(&teddies)

	if err != nil {
		log.Printf("Ошибка начисления теддиков: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка начисления награды"})
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO teddy_transactions (user_id, amount, description)
		VALUES ($1, $2, $3)
	`, userUUID, requestData.Amount, requestData.Description)
	if err != nil {
		log.Printf("Ошибка записи транзакции: %v", err)
	}

	return c.JSON(fiber.Map{"teddies": teddies})
}

// AddBadge добавляет пользователю значок
func (s *RewardsService) AddBadge(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		Badge string `json:"badge"`
	}

	if err := c.Bind().Body(&requestData); err != nil || requestData.Badge == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Значок не указан"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Добавляем значок только если его ещё нет
	var badgesData []byte
	err := db.Pool.QueryRow(ctx, `
		UPDATE users
		SET badges = CASE
		        WHEN badges ? $1 THEN badges
		        ELSE badges || to_jsonb($1::text)
		    END,
		    updated_at = NOW()
		WHERE id = $2
		RETURNING badges
	`, requestData.Badge, userUUID).Scan(&badgesData)

	if err != nil {
		log.Printf("Ошибка добавления значка: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка добавления значка"})
	}

	return c.JSON(fiber.Map{"badges": badgesData})
}

// UpdateStreak обновляет серию ежедневных входов.
// Повторный вызов в тот же день — no-op; пропуск дня сбрасывает серию.
func (s *RewardsService) UpdateStreak(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var streakCount int
	var lastLogin *time.Time
	err := db.Pool.QueryRow(ctx, `
		SELECT streak_count, streak_last_login FROM users WHERE id = $1
	`, userUUID).Scan(&streakCount, &lastLogin)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
		}
		log.Printf("Ошибка запроса серии входов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления серии"})
	}

	now := time.Now().UTC()
	newCount, bonus := NextStreak(streakCount, lastLogin, now)

	if newCount == streakCount && bonus == 0 {
		// Сегодня уже засчитано
		return c.JSON(fiber.Map{"streak": streakCount, "bonus": 0})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET streak_count = $1, streak_last_login = $2, teddies = teddies + $3, updated_at = NOW()
		WHERE id = $4
	`, newCount, now, bonus, userUUID)
	if err != nil {
		log.Printf("Ошибка обновления серии: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления серии"})
	}

	if bonus > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO teddy_transactions (user_id, amount, description)
			VALUES ($1, $2, 'Daily streak')
		`, userUUID, bonus)
		if err != nil {
			log.Printf("Ошибка записи транзакции: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления серии"})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"streak": newCount, "bonus": bonus})
}

// NextStreak вычисляет новое значение серии и бонус по времени последнего входа.
// Возврат прежнего значения с нулевым бонусом означает, что сегодня уже засчитано.
func NextStreak(current int, lastLogin *time.Time, now time.Time) (int, int) {
	today := truncateToDay(now)

	if lastLogin == nil {
		// Первый вход
		return 1, dailyStreakReward
	}

	last := truncateToDay(lastLogin.UTC())
	switch days := int(today.Sub(last).Hours() / 24); {
	case days == 0:
		// Уже засчитано сегодня
		return current, 0
	case days == 1:
		// Серия продолжается
		next := current + 1
		bonus := dailyStreakReward
		if next%7 == 0 {
			bonus += weeklyStreakBonus
		}
		return next, bonus
	default:
		// Серия прервана
		return 1, dailyStreakReward
	}
}

// truncateToDay обнуляет время в пределах суток UTC
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
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
