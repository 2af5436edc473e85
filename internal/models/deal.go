package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы сделки
const (
	DealStatusPending   = "pending"
	DealStatusAccepted  = "accepted"
	DealStatusDeclined  = "declined"
	DealStatusCountered = "countered"
	DealStatusCompleted = "completed"
)

// Deal представляет зафиксированную сделку обмена между двумя пользователями.
// Именно сделка переводит участвующие предметы в статус traded.
type Deal struct {
	ID             uuid.UUID   `json:"id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	ReceiverID     uuid.UUID   `json:"receiver_id"`
	SenderItems    []uuid.UUID `json:"sender_items"`
	ReceiverItems  []uuid.UUID `json:"receiver_items"`
	Status         string      `json:"status"` // pending, accepted, declined, countered, completed
	TeddiesEarned  int         `json:"teddies_earned"`
	LastActivityAt time.Time   `json:"last_activity_at"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	// Дополнительные поля для API
	Sender            *UserInfo `json:"sender,omitempty"`
	Receiver          *UserInfo `json:"receiver,omitempty"`
	SenderItemsData   []Item    `json:"sender_items_data,omitempty"`
	ReceiverItemsData []Item    `json:"receiver_items_data,omitempty"`
}
