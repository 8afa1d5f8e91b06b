// Package app wires configuration into the caption service for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/timmy/captionly/internal/config"
	"github.com/timmy/captionly/internal/logger"
	"github.com/timmy/captionly/internal/repository"
	"github.com/timmy/captionly/internal/service"
	"github.com/timmy/captionly/internal/storage"
)

// App holds the wired services and the resources to release on exit.
type App struct {
	Captions  *service.CaptionService
	Validator *service.Validator
	Model     service.CaptionModel // nil when captions come from the fallback only

	closers []func() error
}

// Build creates the store, caption model, optional image archive and caption service.
// Parameters:
//   - ctx: used for client construction and bucket checks.
//   - cfg: loaded configuration.
//   - log: base logger for the service.
//
// Returns:
//   - *App: wired application; call Close when done.
//   - error: non-nil if a configured backend cannot be initialized.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.GetDefault()
	}
	a := &App{}

	store, err := a.buildStore(&cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}

	model, err := BuildModel(ctx, &cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}
	if model == nil {
		log.WithField(logger.FieldProvider, cfg.LLM.Provider).Warn("No caption model configured, using fallback captions only")
	} else {
		log.WithFields(logger.Fields{
			logger.FieldProvider: model.Name(),
			"model":              cfg.LLM.Model,
		}).Info("Caption model enabled")
	}
	a.Model = model

	var images storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3Storage(ctx, &storage.S3Config{
			Endpoint:     cfg.Storage.Endpoint,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			UseSSL:       cfg.Storage.UseSSL,
			Bucket:       cfg.Storage.Bucket,
			Region:       cfg.Storage.Region,
			PublicURL:    cfg.Storage.PublicURL,
			CreateBucket: cfg.Storage.CreateBucket,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ensure storage bucket: %w", err)
		}
		images = s3Storage
	}

	a.Validator = service.NewValidator(cfg.Upload.MaxImageBytes)
	a.Captions = service.NewCaptionService(store, model, nil, images, log, &service.CaptionServiceConfig{
		FallbackEnabled: cfg.Generation.FallbackEnabled,
		FallbackPolicy:  cfg.Generation.FallbackPolicy,
		Concurrency:     cfg.Generation.Concurrency,
		CallTimeout:     cfg.LLM.Timeout,
		ImagePrefix:     cfg.Storage.Prefix,
	})

	return a, nil
}

func (a *App) buildStore(cfg *config.DatabaseConfig) (service.CaptionStore, error) {
	if cfg.Driver == "memory" {
		return repository.NewMemoryCaptionStore(), nil
	}

	db, err := repository.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	return repository.NewCaptionRepository(db), nil
}

// BuildModel returns the configured caption model, or nil when the provider is
// "none" or has no API key.
func BuildModel(ctx context.Context, cfg *config.LLMConfig) (service.CaptionModel, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return service.NewOpenAICaptionModel(&service.OpenAIConfig{
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil
	case config.ProviderGemini:
		model, err := service.NewGeminiCaptionModel(ctx, &service.GeminiConfig{
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// Close releases database connections.
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
