package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы совпадения
const (
	MatchStatusDetected = "detected"
	MatchStatusAccepted = "accepted"
	MatchStatusRejected = "rejected"
)

// Match представляет зафиксированное взаимное совпадение: оба пользователя
// свайпнули вправо предметы друг друга. Это ещё не сделка — сделка (Deal)
// создаётся при принятии обмена.
type Match struct {
	ID            uuid.UUID `json:"id"`
	ItemID        uuid.UUID `json:"item_id"`
	MatchedUserID uuid.UUID `json:"matched_user_id"`
	MatchedItemID uuid.UUID `json:"matched_item_id"`
	Status        string    `json:"status"` // detected, accepted, rejected
	CreatedAt     time.Time `json:"created_at"`

	// Дополнительные поля для API
	Item        *Item `json:"item,omitempty"`
	MatchedItem *Item `json:"matched_item,omitempty"`
}
