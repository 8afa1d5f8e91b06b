package service

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/prompts"
)

// GeminiConfig holds configuration for the Gemini caption model.
type GeminiConfig struct {
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float32
}

// GeminiCaptionModel writes captions with the Gemini API.
type GeminiCaptionModel struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

// NewGeminiCaptionModel creates a Gemini client for the configured model.
func NewGeminiCaptionModel(ctx context.Context, cfg *GeminiConfig) (*GeminiCaptionModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	maxTokens := int32(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 300
	}

	return &GeminiCaptionModel{
		client:      client,
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Name returns the provider name.
func (m *GeminiCaptionModel) Name() string {
	return "gemini"
}

// GenerateCaption requests a JSON caption; the image is sent as an inline part.
func (m *GeminiCaptionModel) GenerateCaption(ctx context.Context, prompt string, image *domain.ImageInput) (*ModelCaption, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if image.Size() > 0 {
		parts = append(parts, genai.NewPartFromBytes(image.Data, image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompts.CaptionSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		MaxOutputTokens:   m.maxTokens,
	}
	if m.temperature > 0 {
		genCfg.Temperature = genai.Ptr[float32](m.temperature)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned no text")
	}
	return parseModelCaption(text)
}
