// Package urlutil provides YouTube URL recognition and video-identifier
// extraction.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// watchURLFormat is the canonical public watch URL for a video ID. It is
// used both to invoke the extraction collaborator and for app intents.
const watchURLFormat = "https://www.youtube.com/watch?v=%s"

// videoIDParams are the query parameter names a video identifier may hide
// behind, in precedence order.
var videoIDParams = []string{"video_id", "videoid", "v"}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLFormat, videoID)
}

// IsRecognizedSource reports whether the URL points at a known video
// source: any of the given plugin IDs (our own or a sibling integration)
// or youtube.com itself. Matching is a case-insensitive substring test,
// mirroring how host players embed plugin IDs in playback URLs.
func IsRecognizedSource(rawURL string, pluginIDs ...string) bool {
	if rawURL == "" {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, id := range pluginIDs {
		if id != "" && strings.Contains(lower, strings.ToLower(id)) {
			return true
		}
	}
	return strings.Contains(lower, "youtube.com")
}

// ExtractVideoID pulls a video identifier out of a recognized source URL.
// Returns the empty string when the URL does not match any recognized
// source pattern or carries no identifier.
func ExtractVideoID(rawURL string, pluginIDs ...string) string {
	if !IsRecognizedSource(rawURL, pluginIDs...) {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	query := parsed.Query()
	for _, param := range videoIDParams {
		if id := query.Get(param); id != "" {
			return id
		}
	}
	return ""
}
