package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tedlist/tedlist-api/internal/config"
)

func newTestService(secret string) *UploadService {
	cfg := &config.Config{}
	cfg.CloudinaryConfig.APISecret = secret
	return &UploadService{cfg: cfg}
}

func TestGenerateSignatureDeterministic(t *testing.T) {
	s := newTestService("api-secret")

	params := map[string]string{
		"timestamp": "1700000000",
		"folder":    "items",
	}

	first := s.GenerateSignature(params)
	second := s.GenerateSignature(params)

	assert.Equal(t, first, second)
	assert.Len(t, first, 40) // hex-представление SHA-1
}

func TestGenerateSignatureSortsKeys(t *testing.T) {
	s := newTestService("api-secret")

	// Порядок добавления ключей не должен влиять на подпись
	a := map[string]string{"timestamp": "1700000000", "folder": "items", "public_id": "abc"}
	b := map[string]string{"public_id": "abc", "folder": "items", "timestamp": "1700000000"}

	assert.Equal(t, s.GenerateSignature(a), s.GenerateSignature(b))
}

func TestGenerateSignatureDependsOnSecret(t *testing.T) {
	params := map[string]string{"timestamp": "1700000000"}

	first := newTestService("secret-one").GenerateSignature(params)
	second := newTestService("secret-two").GenerateSignature(params)

	assert.NotEqual(t, first, second)
}

func TestGenerateSignatureDependsOnParams(t *testing.T) {
	s := newTestService("api-secret")

	first := s.GenerateSignature(map[string]string{"timestamp": "1700000000"})
	second := s.GenerateSignature(map[string]string{"timestamp": "1700000001"})

	assert.NotEqual(t, first, second)
}
