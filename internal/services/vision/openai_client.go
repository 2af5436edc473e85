package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	openAIModel    = "gpt-4o"
	maxTokens      = 1000
)

const analysisSystemPrompt = "You are an expert at analyzing images of items and providing detailed descriptions. " +
	"Focus on identifying the item, its condition, features, brand if visible, and any text that appears in the image."

const extractionSystemPrompt = "You are an expert at extracting structured information from text descriptions of items."

// OpenAIClient выполняет запросы к OpenAI Chat Completions API
type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIClient создает клиент OpenAI. Пустой ключ допустим,
// в этом случае запросы будут возвращать ошибку.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Ready сообщает, сконфигурирован ли клиент
func (c *OpenAIClient) Ready() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalysisResult содержит результат первичного анализа изображения
type AnalysisResult struct {
	Analysis string `json:"analysis"`
	Model    string `json:"model"`
}

// Analyze описывает изображение и извлекает из описания
// структурированные поля вещи
func (c *OpenAIClient) Analyze(ctx context.Context, imageURL string) (*ItemDetails, error) {
	analysis, err := c.AnalyzeImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	return c.ExtractItemDetails(ctx, analysis), nil
}

// AnalyzeImage описывает изображение по URL через Vision-модель
func (c *OpenAIClient) AnalyzeImage(ctx context.Context, url string) (*AnalysisResult, error) {
	if !c.Ready() {
		return nil, fmt.Errorf("клиент OpenAI не сконфигурирован")
	}

	req := chatRequest{
		Model: openAIModel,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: "Analyze this image and provide detailed information about the item shown."},
				{Type: "image_url", ImageURL: &imageURL{URL: url}},
			}},
		},
		MaxTokens: maxTokens,
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AnalysisResult{
		Analysis: resp.Choices[0].Message.Content,
		Model:    resp.Model,
	}, nil
}

// ItemDetails — структурированное описание вещи, извлечённое из анализа
type ItemDetails struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Condition      string   `json:"condition"`
	Brand          *string  `json:"brand"`
	EstimatedValue *string  `json:"estimatedValue"`
	Keywords       []string `json:"keywords"`
	AIAnalysis     string   `json:"aiAnalysis"`
}

const extractionPromptTemplate = `Based on this analysis of an item, extract the following information in JSON format:
{
  "title": "A concise title for the item",
  "description": "A detailed description of the item (2-3 sentences)",
  "category": "One of: Electronics, Clothing, Furniture, Kitchen, Books, Toys, Sports, Home Decor, or Other",
  "condition": "One of: New, Like New, Good, Fair, Poor",
  "brand": "Brand name if identifiable, otherwise null",
  "estimatedValue": "Estimated value range in USD if possible, otherwise null",
  "keywords": ["array", "of", "relevant", "keywords"]
}

Analysis text: %s`

// ExtractItemDetails извлекает структурированные поля вещи из текста анализа.
// При ошибке возвращает заполненный по умолчанию результат, а не ошибку.
func (c *OpenAIClient) ExtractItemDetails(ctx context.Context, analysis *AnalysisResult) *ItemDetails {
	fallback := &ItemDetails{
		Title:       "Item",
		Description: "No description available",
		Category:    "Other",
		Condition:   "Good",
		Keywords:    []string{},
		AIAnalysis:  analysis.Analysis,
	}

	req := chatRequest{
		Model: openAIModel,
		Messages: []chatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(extractionPromptTemplate, analysis.Analysis)},
		},
		MaxTokens:      maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return fallback
	}

	var details ItemDetails
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &details); err != nil {
		return fallback
	}
	if details.Keywords == nil {
		details.Keywords = []string{}
	}
	details.AIAnalysis = analysis.Analysis

	return &details
}

func (c *OpenAIClient) complete(ctx context.Context, req chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к OpenAI: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа OpenAI: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("OpenAI API: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("пустой ответ от OpenAI API")
	}

	return &resp, nil
}
