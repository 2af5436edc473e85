package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений
const (
	NotificationTypeOffer   = "offer"
	NotificationTypeMatch   = "match"
	NotificationTypeMessage = "message"
	NotificationTypeSystem  = "system"
)

// Notification представляет уведомление пользователя
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	FromUser  *uuid.UUID `json:"from_user_id,omitempty"`
	ItemID    *uuid.UUID `json:"item_id,omitempty"`
	Type      string     `json:"type"` // offer, match, message, system
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	FromUserData *UserInfo `json:"from_user,omitempty"`
	Item         *Item     `json:"item,omitempty"`
}

// NotificationTitle возвращает заголовок уведомления по его типу
func NotificationTitle(notificationType string) string {
	switch notificationType {
	case NotificationTypeOffer:
		return "New Trade Offer"
	case NotificationTypeMatch:
		return "New Match!"
	case NotificationTypeMessage:
		return "New Message"
	default:
		return "System Notification"
	}
}

// IsValidNotificationType проверяет допустимость типа уведомления
func IsValidNotificationType(notificationType string) bool {
	switch notificationType {
	case NotificationTypeOffer, NotificationTypeMatch, NotificationTypeMessage, NotificationTypeSystem:
		return true
	}
	return false
}
