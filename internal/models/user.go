package models

import (
	"time"

	"github.com/google/uuid"
)

// User представляет пользователя в системе
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Teddies   int       `json:"teddies"`
	Badges    []string  `json:"badges,omitempty"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Состояние торговой сессии (активный предмет и время старта)
	TradingSession *TradingSession `json:"trading_session,omitempty"`

	// Серия ежедневных входов
	Streak *Streak `json:"streak,omitempty"`
}

// TradingSession представляет активную торговую сессию пользователя.
// У пользователя может быть не более одной сессии: предмет, который он
// сейчас предлагает к обмену, и момент старта.
type TradingSession struct {
	ActiveItemID uuid.UUID `json:"active_item_id"`
	StartedAt    time.Time `json:"started_at"`
}

// Streak представляет серию ежедневных входов пользователя
type Streak struct {
	Count     int        `json:"count"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// UserInfo представляет минимальную информацию о пользователе для API
type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}
