package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы предмета
const (
	ItemStatusAvailable = "available"
	ItemStatusTraded    = "traded"
	ItemStatusDeleted   = "deleted"
)

// Item представляет предмет (вещь) в системе
type Item struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Condition   string    `json:"condition"` // New, Like New, Excellent, Good, Fair, Poor
	Type        string    `json:"type"`      // trade, sell
	Status      string    `json:"status"`    // available, traded, deleted
	TeddyBonus  int       `json:"teddy_bonus,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Дополнительные поля для API
	User *UserInfo `json:"user,omitempty"`
}

// ValidConditions содержит допустимые состояния предмета
var ValidConditions = map[string]bool{
	"New":       true,
	"Like New":  true,
	"Excellent": true,
	"Good":      true,
	"Fair":      true,
	"Poor":      true,
}
