package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/prompts"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig holds configuration for an OpenAI-compatible chat completions model.
type OpenAIConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// OpenAICaptionModel calls an OpenAI-compatible /chat/completions endpoint.
type OpenAICaptionModel struct {
	client      *resty.Client
	model       string
	endpoint    string
	maxTokens   int
	temperature float32
}

// NewOpenAICaptionModel creates a new chat completions client.
// Parameters:
//   - cfg: model name, key, endpoint and sampling settings.
//
// Returns:
//   - *OpenAICaptionModel: initialized client wrapper.
func NewOpenAICaptionModel(cfg *OpenAIConfig) *OpenAICaptionModel {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	return &OpenAICaptionModel{
		client:      client,
		model:       cfg.Model,
		endpoint:    baseURL + "/chat/completions",
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

// Name returns the provider name.
func (m *OpenAICaptionModel) Name() string {
	return "openai"
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string, or []interface{} for user content with an image
}

type chatTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatImageContent struct {
	Type     string       `json:"type"`
	ImageURL chatImageURL `json:"image_url"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// GenerateCaption requests a JSON caption for the rendered prompt.
// The image, when present, is sent inline as a data URL.
func (m *OpenAICaptionModel) GenerateCaption(ctx context.Context, prompt string, image *domain.ImageInput) (*ModelCaption, error) {
	var userContent interface{} = prompt
	if image.Size() > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s", image.MIMEType, base64.StdEncoding.EncodeToString(image.Data))
		userContent = []interface{}{
			chatTextContent{Type: "text", Text: prompt},
			chatImageContent{
				Type:     "image_url",
				ImageURL: chatImageURL{URL: dataURL, Detail: "auto"},
			},
		}
	}

	req := chatRequest{
		Model: m.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.CaptionSystemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens:      m.maxTokens,
		Temperature:    m.temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var resp chatResponse
	httpResp, err := m.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(m.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat completions API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return nil, fmt.Errorf("chat completions API returned error: HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return nil, fmt.Errorf("chat completions API returned error: HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("chat completions API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response (status: %d)", httpResp.StatusCode())
	}

	return parseModelCaption(resp.Choices[0].Message.Content)
}
