package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tedlist/tedlist-api/internal/models"
)

// ErrUserNotFound возвращается, когда пользователь не найден
var ErrUserNotFound = fmt.Errorf("пользователь не найден")

// CreateUser создает нового пользователя с хешированным паролем
func CreateUser(name, email, passwordHash string) (*models.User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var user models.User
	err := Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, teddies, created_at, updated_at
	`, name, email, passwordHash).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Teddies,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	return &user, nil
}

// GetUserByEmail возвращает пользователя и хеш пароля по email
func GetUserByEmail(email string) (*models.User, string, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var user models.User
	var passwordHash string
	var avatarURL *string

	err := Pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, avatar_url, teddies, is_admin, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&passwordHash,
		&avatarURL,
		&user.Teddies,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}

	if avatarURL != nil {
		user.AvatarURL = *avatarURL
	}

	return &user, passwordHash, nil
}

// GetUserByID возвращает профиль пользователя со всеми полями,
// включая торговую сессию и серию входов
func GetUserByID(userID uuid.UUID) (*models.User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var user models.User
	var avatarURL *string
	var badgesData []byte
	var activeItemID *uuid.UUID
	var sessionStartedAt *time.Time
	var streakCount int
	var streakLastLogin *time.Time

	err := Pool.QueryRow(ctx, `
		SELECT id, name, email, avatar_url, teddies, badges, is_admin,
		       active_item_id, session_started_at, streak_count, streak_last_login,
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&avatarURL,
		&user.Teddies,
		&badgesData,
		&user.IsAdmin,
		&activeItemID,
		&sessionStartedAt,
		&streakCount,
		&streakLastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	if avatarURL != nil {
		user.AvatarURL = *avatarURL
	}

	if len(badgesData) > 0 {
		if err := json.Unmarshal(badgesData, &user.Badges); err != nil {
			user.Badges = []string{}
		}
	}

	// Сессия считается активной только при наличии активного предмета
	if activeItemID != nil && sessionStartedAt != nil {
		user.TradingSession = &models.TradingSession{
			ActiveItemID: *activeItemID,
			StartedAt:    *sessionStartedAt,
		}
	}

	user.Streak = &models.Streak{
		Count:     streakCount,
		LastLogin: streakLastLogin,
	}

	return &user, nil
}

// UserExists проверяет существование пользователя
func UserExists(ctxUserID uuid.UUID) (bool, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var exists bool
	err := Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, ctxUserID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке пользователя: %w", err)
	}

	return exists, nil
}
