package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/captionly/internal/domain"
	"gorm.io/gorm"
)

const (
	// DefaultListLimit is used when a caller asks for a non-positive limit.
	DefaultListLimit = 10
	// MaxListLimit caps recency listings.
	MaxListLimit = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// CaptionRepository persists caption records with GORM.
type CaptionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCaptionRepository creates a new CaptionRepository.
func NewCaptionRepository(db *gorm.DB) *CaptionRepository {
	return &CaptionRepository{db: db, now: time.Now}
}

// Create assigns an id and timestamp and inserts the record in a single statement.
func (r *CaptionRepository) Create(ctx context.Context, in *domain.NewCaption) (*domain.CaptionRecord, error) {
	rec := newRecord(in, r.now())
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, &domain.StorageError{Op: "create", Err: err}
	}
	return rec.Clone(), nil
}

// GetByID retrieves a record; domain.ErrNotFound when the id is unknown.
func (r *CaptionRepository) GetByID(ctx context.Context, id string) (*domain.CaptionRecord, error) {
	var rec domain.CaptionRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StorageError{Op: "get", Err: err}
	}
	return rec.Clone(), nil
}

// ListRecent returns the newest records first. Ids are UUIDv7, so records sharing
// a timestamp come back in reverse creation order.
func (r *CaptionRepository) ListRecent(ctx context.Context, limit int) ([]domain.CaptionRecord, error) {
	var recs []domain.CaptionRecord
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(clampLimit(limit)).
		Find(&recs).Error; err != nil {
		return nil, &domain.StorageError{Op: "list", Err: err}
	}
	return recs, nil
}

func newRecord(in *domain.NewCaption, now time.Time) *domain.CaptionRecord {
	rec := &domain.CaptionRecord{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Description: in.Description,
		Tones:       domain.StringArray(in.Tones),
		Results:     domain.CaptionResults(in.Results),
		ImageURL:    in.ImageURL,
		CreatedAt:   now.UTC(),
	}
	// detach from the caller's slices
	return rec.Clone()
}
