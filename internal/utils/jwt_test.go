package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndExtractUserID(t *testing.T) {
	service := NewJWTService("test-secret")
	userID := uuid.New().String()

	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	extracted, err := service.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID, extracted)
}

func TestExtractUserIDRejectsWrongSecret(t *testing.T) {
	service := NewJWTService("test-secret")
	other := NewJWTService("another-secret")

	token, err := service.GenerateToken(uuid.New().String())
	require.NoError(t, err)

	_, err = other.ExtractUserID(token)
	assert.Error(t, err)
}

func TestExtractUserIDRejectsGarbage(t *testing.T) {
	service := NewJWTService("test-secret")

	_, err := service.ExtractUserID("not-a-token")
	assert.Error(t, err)

	_, err = service.ExtractUserID("")
	assert.Error(t, err)
}

func TestExtractUserIDRejectsTamperedToken(t *testing.T) {
	service := NewJWTService("test-secret")

	token, err := service.GenerateToken(uuid.New().String())
	require.NoError(t, err)

	// Портим последний символ подписи
	tampered := token[:len(token)-1] + "x"
	if tampered == token {
		tampered = token[:len(token)-1] + "y"
	}

	_, err = service.ExtractUserID(tampered)
	assert.Error(t, err)
}
