package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationTitle(t *testing.T) {
	assert.Equal(t, "New Trade Offer", NotificationTitle(NotificationTypeOffer))
	assert.Equal(t, "New Match!", NotificationTitle(NotificationTypeMatch))
	assert.Equal(t, "New Message", NotificationTitle(NotificationTypeMessage))
	assert.Equal(t, "System Notification", NotificationTitle(NotificationTypeSystem))

	// Неизвестный тип получает системный заголовок
	assert.Equal(t, "System Notification", NotificationTitle("unknown"))
}

func TestIsValidNotificationType(t *testing.T) {
	for _, valid := range []string{
		NotificationTypeOffer,
		NotificationTypeMatch,
		NotificationTypeMessage,
		NotificationTypeSystem,
	} {
		assert.True(t, IsValidNotificationType(valid), valid)
	}

	assert.False(t, IsValidNotificationType(""))
	assert.False(t, IsValidNotificationType("push"))
	assert.False(t, IsValidNotificationType("Offer"))
}
