package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	ready   bool
	details *ItemDetails
	err     error
}

func (f *fakeAnalyzer) Ready() bool { return f.ready }

func (f *fakeAnalyzer) Analyze(ctx context.Context, imageURL string) (*ItemDetails, error) {
	return f.details, f.err
}

func setupVisionApp(analyzer Analyzer) *fiber.App {
	s := &VisionService{analyzer: analyzer}

	app := fiber.New()
	app.Post("/api/vision/analyze", func(c fiber.Ctx) error {
		c.Locals("userID", uuid.New().String())
		return s.Analyze(c)
	})
	return app
}

func analyzeRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/vision/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAnalyzeReturnsDetails(t *testing.T) {
	analyzer := &fakeAnalyzer{
		ready: true,
		details: &ItemDetails{
			Title:     "Wooden chair",
			Category:  "Furniture",
			Condition: "Good",
			Keywords:  []string{"chair", "wood"},
		},
	}

	app := setupVisionApp(analyzer)

	resp, err := app.Test(analyzeRequest(`{"image_url": "https://example.com/chair.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload struct {
		Success bool        `json:"success"`
		Data    ItemDetails `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "Wooden chair", payload.Data.Title)
}

func TestAnalyzeRejectsBadURL(t *testing.T) {
	app := setupVisionApp(&fakeAnalyzer{ready: true})

	for _, body := range []string{
		`{"image_url": ""}`,
		`{"image_url": "ftp://example.com/x.jpg"}`,
		`{}`,
	} {
		resp, err := app.Test(analyzeRequest(body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "тело: %s", body)
	}
}

func TestAnalyzeWithoutConfiguredAnalyzer(t *testing.T) {
	app := setupVisionApp(&fakeAnalyzer{ready: false})

	resp, err := app.Test(analyzeRequest(`{"image_url": "https://example.com/chair.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAnalyzeReportsAnalyzerError(t *testing.T) {
	app := setupVisionApp(&fakeAnalyzer{ready: true, err: errors.New("upstream down")})

	resp, err := app.Test(analyzeRequest(`{"image_url": "https://example.com/chair.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestOpenAIClientReady(t *testing.T) {
	assert.False(t, NewOpenAIClient("").Ready())
	assert.True(t, NewOpenAIClient("sk-test").Ready())
}
