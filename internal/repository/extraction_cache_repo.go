// Package repository provides data access implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ytarr/ytarr/internal/models"
)

// ExtractionCacheRepository stores cached extraction payloads keyed by
// video ID.
type ExtractionCacheRepository interface {
	// Get returns the entry for the video ID, or nil when absent or
	// expired.
	Get(ctx context.Context, videoID string) (*models.ExtractionCacheEntry, error)
	// Put inserts or replaces the entry for its video ID.
	Put(ctx context.Context, entry *models.ExtractionCacheEntry) error
	// Prune deletes expired entries, returning the number removed.
	Prune(ctx context.Context) (int64, error)
}

// extractionCacheRepository implements ExtractionCacheRepository using GORM.
type extractionCacheRepository struct {
	db *gorm.DB
}

// NewExtractionCacheRepository creates a new ExtractionCacheRepository.
func NewExtractionCacheRepository(db *gorm.DB) ExtractionCacheRepository {
	return &extractionCacheRepository{db: db}
}

// Get retrieves a non-expired cache entry by video ID.
func (r *extractionCacheRepository) Get(ctx context.Context, videoID string) (*models.ExtractionCacheEntry, error) {
	var entry models.ExtractionCacheEntry
	err := r.db.WithContext(ctx).First(&entry, "video_id = ?", videoID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if entry.Expired(time.Now()) {
		return nil, nil
	}
	return &entry, nil
}

// Put upserts a cache entry.
func (r *extractionCacheRepository) Put(ctx context.Context, entry *models.ExtractionCacheEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}},
			UpdateAll: true,
		}).
		Create(entry).Error
}

// Prune deletes all expired entries.
func (r *extractionCacheRepository) Prune(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.ExtractionCacheEntry{})
	return result.RowsAffected, result.Error
}
