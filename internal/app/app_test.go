package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/captionly/internal/config"
	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/service"
)

func baseConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "memory"},
		LLM: config.LLMConfig{
			Provider: config.ProviderNone,
			Model:    "gpt-4o",
			Timeout:  time.Second,
		},
		Generation: config.GenerationConfig{
			FallbackEnabled: true,
			FallbackPolicy:  config.FallbackPerTone,
			Concurrency:     2,
		},
		Upload: config.UploadConfig{MaxImageBytes: config.DefaultMaxImageBytes},
	}
}

func TestBuildModel(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LLMConfig
		wantName string
	}{
		{"none", config.LLMConfig{Provider: config.ProviderNone}, ""},
		{"openai without key", config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o"}, ""},
		{"openai", config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o", APIKey: "sk-test"}, "openai"},
		{"gemini", config.LLMConfig{Provider: config.ProviderGemini, Model: "gemini-2.5-flash", APIKey: "test"}, "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := BuildModel(context.Background(), &tt.cfg)
			require.NoError(t, err)
			if tt.wantName == "" {
				assert.Nil(t, model)
				return
			}
			require.NotNil(t, model)
			assert.Equal(t, tt.wantName, model.Name())
		})
	}
}

func TestBuild_MemoryStoreWithFallback(t *testing.T) {
	a, err := Build(context.Background(), baseConfig(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Model)
	assert.Equal(t, int64(config.DefaultMaxImageBytes), a.Validator.MaxImageBytes())

	rec, err := a.Captions.Generate(context.Background(), &domain.GenerationRequest{
		Description: "Golden sunset over the calm ocean waves",
		Tones:       []string{"poetic"},
	})
	require.NoError(t, err)
	assert.Len(t, rec.Results, 1)
}

func TestBuild_KeylessModelWithoutFallbackFails(t *testing.T) {
	cfg := baseConfig()
	cfg.LLM.Provider = config.ProviderOpenAI
	cfg.Generation.FallbackEnabled = false
	require.Error(t, cfg.Validate())

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	results, err := a.Captions.GenerateCaptions(context.Background(), &domain.GenerationRequest{
		Description: "A cozy coffee shop corner with warm light",
		Tones:       []string{"witty"},
	})
	assert.Nil(t, results)
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.True(t, errors.Is(err, service.ErrNoCaptionModel))
	assert.Equal(t, "witty", perr.Tone)
}

func TestBuild_SQLiteStore(t *testing.T) {
	cfg := baseConfig()
	cfg.Database = config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "captions.db"),
		AutoMigrate: true,
	}

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	rec, err := a.Captions.Generate(context.Background(), &domain.GenerationRequest{
		Description: "A steaming cup of coffee on a rustic wooden table",
		Tones:       []string{"witty", "casual"},
	})
	require.NoError(t, err)

	got, err := a.Captions.GetCaption(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Results, got.Results)

	require.NoError(t, a.Close())
}

func TestBuild_UnknownDriver(t *testing.T) {
	cfg := baseConfig()
	cfg.Database.Driver = "mysql"

	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}
