// Package extractor defines the media-extraction collaborator contract and
// its yt-dlp implementation. The synthesizer and resolver depend only on
// the Extractor interface, so tests never touch a network-capable binary.
package extractor

import (
	"context"

	"github.com/ytarr/ytarr/internal/models"
)

// Extractor turns a canonical watch URL into a catalog of media formats
// and subtitle tracks.
type Extractor interface {
	// Extract may block on network I/O and honors ctx cancellation.
	Extract(ctx context.Context, watchURL string) (*models.ExtractResult, error)
}
