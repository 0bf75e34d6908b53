package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ytarr/ytarr/internal/models"
	"github.com/ytarr/ytarr/internal/repository"
	"github.com/ytarr/ytarr/internal/urlutil"
)

// defaultTTL bounds how long a cached catalog is served. Extracted media
// URLs carry signed expiry tokens, so long TTLs would hand out dead links.
const defaultTTL = 30 * time.Minute

// Caching decorates an Extractor with a repository-backed payload cache.
// Payloads are stored as brotli-compressed JSON keyed by video ID. Cache
// failures are logged and degrade to a direct extraction, never surfaced.
type Caching struct {
	inner  Extractor
	repo   repository.ExtractionCacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewCaching wraps the given extractor.
func NewCaching(inner Extractor, repo repository.ExtractionCacheRepository) *Caching {
	return &Caching{
		inner:  inner,
		repo:   repo,
		ttl:    defaultTTL,
		logger: slog.Default(),
	}
}

// WithTTL overrides the cache TTL.
func (c *Caching) WithTTL(ttl time.Duration) *Caching {
	if ttl > 0 {
		c.ttl = ttl
	}
	return c
}

// WithLogger sets the logger.
func (c *Caching) WithLogger(logger *slog.Logger) *Caching {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Extract implements Extractor.
func (c *Caching) Extract(ctx context.Context, watchURL string) (*models.ExtractResult, error) {
	videoID := urlutil.ExtractVideoID(watchURL)
	if videoID == "" {
		// Uncacheable URL shape; pass straight through.
		return c.inner.Extract(ctx, watchURL)
	}

	if entry, err := c.repo.Get(ctx, videoID); err != nil {
		c.logger.Warn("extraction cache lookup failed",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
	} else if entry != nil {
		result, err := decodePayload(entry.Payload)
		if err == nil {
			c.logger.Debug("extraction cache hit", slog.String("video_id", videoID))
			return result, nil
		}
		c.logger.Warn("discarding undecodable cache entry",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
	}

	result, err := c.inner.Extract(ctx, watchURL)
	if err != nil {
		return nil, err
	}

	payload, err := encodePayload(result)
	if err != nil {
		c.logger.Warn("encoding extraction payload failed",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}

	now := time.Now()
	entry := &models.ExtractionCacheEntry{
		VideoID:   videoID,
		Payload:   payload,
		FetchedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	if err := c.repo.Put(ctx, entry); err != nil {
		c.logger.Warn("storing extraction cache entry failed",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

// encodePayload serializes and brotli-compresses a catalog.
func encodePayload(result *models.ExtractResult) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshaling catalog: %w", err)
	}

	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("compressing catalog: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compressing catalog: %w", err)
	}
	return buf.Bytes(), nil
}

// decodePayload reverses encodePayload.
func decodePayload(payload []byte) (*models.ExtractResult, error) {
	raw, err := io.ReadAll(brotli.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return nil, fmt.Errorf("decompressing catalog: %w", err)
	}

	var result models.ExtractResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshaling catalog: %w", err)
	}
	return &result, nil
}
