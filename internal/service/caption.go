package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/timmy/captionly/internal/config"
	"github.com/timmy/captionly/internal/domain"
	"github.com/timmy/captionly/internal/logger"
	"github.com/timmy/captionly/internal/prompts"
	"github.com/timmy/captionly/internal/storage"
	"github.com/timmy/captionly/internal/tone"
)

// ErrNoCaptionModel is reported when no model is configured and fallback is disabled.
var ErrNoCaptionModel = errors.New("no caption model configured")

// PlaceholderCaption replaces an empty caption returned by a successful model call.
const PlaceholderCaption = "Unable to generate caption"

const defaultConcurrency = 3

// CaptionStore persists generated caption records.
type CaptionStore interface {
	Create(ctx context.Context, in *domain.NewCaption) (*domain.CaptionRecord, error)
	GetByID(ctx context.Context, id string) (*domain.CaptionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.CaptionRecord, error)
}

// CaptionServiceConfig holds orchestration settings.
type CaptionServiceConfig struct {
	FallbackEnabled bool
	FallbackPolicy  string // per_tone, all_tones
	Concurrency     int
	CallTimeout     time.Duration
	ImagePrefix     string
}

// CaptionService turns validated requests into stored caption records.
type CaptionService struct {
	store    CaptionStore
	model    CaptionModel
	fallback *FallbackGenerator
	images   storage.ObjectStorage
	logger   *logger.Logger
	cfg      CaptionServiceConfig
}

// NewCaptionService wires the orchestrator.
// Parameters:
//   - store: caption persistence.
//   - model: external caption model; nil means every tone uses the fallback.
//   - fallback: local template generator; nil creates a clock-seeded one.
//   - images: optional image archive; nil disables archiving.
//   - log: logger used when the request context carries none.
//   - cfg: fallback policy, concurrency and per-call timeout.
//
// Returns:
//   - *CaptionService: ready to serve requests.
func NewCaptionService(
	store CaptionStore,
	model CaptionModel,
	fallback *FallbackGenerator,
	images storage.ObjectStorage,
	log *logger.Logger,
	cfg *CaptionServiceConfig,
) *CaptionService {
	if fallback == nil {
		fallback = NewFallbackGenerator(0)
	}
	c := CaptionServiceConfig{FallbackEnabled: true, FallbackPolicy: config.FallbackPerTone}
	if cfg != nil {
		c = *cfg
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.FallbackPolicy == "" {
		c.FallbackPolicy = config.FallbackPerTone
	}
	return &CaptionService{
		store:    store,
		model:    model,
		fallback: fallback,
		images:   images,
		logger:   log,
		cfg:      c,
	}
}

func (s *CaptionService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// GenerateCaptions produces exactly one result per requested tone, in request order.
// Model failures are replaced by fallback output according to the configured policy;
// with fallback disabled the first failure is returned as a *domain.ProviderError.
func (s *CaptionService) GenerateCaptions(ctx context.Context, req *domain.GenerationRequest) ([]domain.CaptionResult, error) {
	results := make([]domain.CaptionResult, len(req.Tones))

	for _, t := range req.Tones {
		if !tone.Known(t) {
			s.log(ctx).WithField(logger.FieldTone, t).Debugf("Unknown tone, using %s instructions", tone.Default)
		}
	}

	if s.model == nil {
		if !s.cfg.FallbackEnabled {
			perr := &domain.ProviderError{Provider: "none", Transport: true, Err: ErrNoCaptionModel}
			if len(req.Tones) > 0 {
				perr.Tone = req.Tones[0]
			}
			return nil, perr
		}
		for i, t := range req.Tones {
			results[i] = s.fallback.Result(req.Description, t)
		}
		return results, nil
	}

	failures := make([]*domain.ProviderError, len(req.Tones))
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, t := range req.Tones {
		g.Go(func() error {
			result, err := s.generateOne(ctx, req, t)
			if err != nil {
				failures[i] = &domain.ProviderError{
					Provider:  s.model.Name(),
					Tone:      t,
					Transport: isTransportError(err),
					Err:       err,
				}
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var firstFailure *domain.ProviderError
	anyTransport := false
	for _, f := range failures {
		if f == nil {
			continue
		}
		if firstFailure == nil {
			firstFailure = f
		}
		if f.Transport {
			anyTransport = true
		}
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldTone:     f.Tone,
			logger.FieldProvider: f.Provider,
		}).WithError(f.Err).Warn("Caption model call failed")
	}

	if firstFailure != nil && !s.cfg.FallbackEnabled {
		return nil, firstFailure
	}

	replaceAll := anyTransport && s.cfg.FallbackPolicy == config.FallbackAllTones
	fallbacks := 0
	for i, t := range req.Tones {
		if failures[i] != nil || replaceAll {
			results[i] = s.fallback.Result(req.Description, t)
			fallbacks++
		}
	}

	logger.With(logger.Fields{"fallbacks": fallbacks}).
		WithDuration(time.Since(start).Milliseconds()).
		WithCount(len(results)).
		Debug(ctx, "Captions generated")

	return results, nil
}

func (s *CaptionService) generateOne(ctx context.Context, req *domain.GenerationRequest, t string) (domain.CaptionResult, error) {
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	def := tone.Resolve(t)
	prompt := prompts.BuildCaptionPrompt(def, t, req.Description, req.Image.Size() > 0)

	out, err := s.model.GenerateCaption(ctx, prompt, req.Image)
	if err != nil {
		return domain.CaptionResult{}, err
	}

	text := out.Caption
	if text == "" {
		text = PlaceholderCaption
	}
	return domain.NewCaptionResult(t, text, normalizeHashtags(out.Hashtags)), nil
}

// Generate runs the orchestrator, archives the image when configured and persists the record.
// Nothing is stored when generation fails or the context is cancelled.
func (s *CaptionService) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.CaptionRecord, error) {
	ctx = logger.SetComponent(ctx, "caption")

	results, err := s.GenerateCaptions(ctx, req)
	if err != nil {
		return nil, err
	}

	imageKey, imageURL := s.archiveImage(ctx, req.Image)

	rec, err := s.store.Create(ctx, &domain.NewCaption{
		Description: req.Description,
		Tones:       req.Tones,
		Results:     results,
		ImageURL:    imageURL,
	})
	if err != nil {
		if imageKey != "" {
			if delErr := s.images.Delete(context.WithoutCancel(ctx), imageKey); delErr != nil {
				s.log(ctx).WithField("key", imageKey).WithError(delErr).Warn("Failed to remove archived image")
			}
		}
		return nil, err
	}

	ctx = logger.SetCaptionID(ctx, rec.ID)
	logger.With(logger.Fields{"tones": len(req.Tones)}).Info(ctx, "Caption record stored")
	return rec, nil
}

// archiveImage uploads the image when an archive is configured. Upload failures
// are logged and the record is stored without an image URL.
func (s *CaptionService) archiveImage(ctx context.Context, image *domain.ImageInput) (key, url string) {
	if s.images == nil || image.Size() == 0 {
		return "", ""
	}

	key = storage.ImageKey(s.cfg.ImagePrefix, uuid.NewString(), image.MIMEType)
	if err := s.images.Upload(ctx, key, bytes.NewReader(image.Data), int64(image.Size()), image.MIMEType); err != nil {
		s.log(ctx).WithFields(logger.Fields{
			"key":             key,
			logger.FieldSize: image.Size(),
		}).WithError(err).Warn("Failed to archive image")
		return "", ""
	}
	return key, s.images.GetURL(key)
}

// GetCaption returns a stored record; domain.ErrNotFound when unknown.
func (s *CaptionService) GetCaption(ctx context.Context, id string) (*domain.CaptionRecord, error) {
	return s.store.GetByID(ctx, id)
}

// ListRecent returns the most recent records, newest first.
func (s *CaptionService) ListRecent(ctx context.Context, limit int) ([]domain.CaptionRecord, error) {
	return s.store.ListRecent(ctx, limit)
}
