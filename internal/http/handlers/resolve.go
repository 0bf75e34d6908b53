// Package handlers provides HTTP API handlers for ytarr.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ytarr/ytarr/internal/addons"
	"github.com/ytarr/ytarr/internal/models"
	"github.com/ytarr/ytarr/internal/urlutil"
)

// PlaybackResolver resolves a video ID into a playable item.
type PlaybackResolver interface {
	Resolve(ctx context.Context, videoID string, mode models.PlaybackMode) (*models.PlayableItem, error)
}

// ResolveHandler handles playback resolution requests.
type ResolveHandler struct {
	resolver PlaybackResolver
	logger   *slog.Logger
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(resolver PlaybackResolver, logger *slog.Logger) *ResolveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveHandler{resolver: resolver, logger: logger}
}

// ResolveRequest is the body for the resolve endpoint.
type ResolveRequest struct {
	VideoID string `json:"video_id" minLength:"1" doc:"YouTube video identifier, or a watch/plugin URL carrying one"`
	Mode    string `json:"mode,omitempty" doc:"Playback mode override (intent, youtube-plugin, tubed-plugin, extract)"`
}

// ResolveInput is the input for the resolve endpoint.
type ResolveInput struct {
	Body ResolveRequest
}

// ResolveResponse describes the resolved playable item.
type ResolveResponse struct {
	VideoID         string            `json:"video_id"`
	Path            string            `json:"path,omitempty" doc:"Playback URI or deep link"`
	ManifestURL     string            `json:"manifest_url,omitempty" doc:"Relative URL of the staged manifest"`
	RequestHeaders  map[string]string `json:"request_headers,omitempty"`
	InputStream     string            `json:"inputstream,omitempty"`
	RemoveFrameRate bool              `json:"remove_framerate,omitempty"`
	Launched        bool              `json:"launched,omitempty"`
}

// ResolveOutput is the output for the resolve endpoint.
type ResolveOutput struct {
	Body ResolveResponse
}

// Register registers the resolve route with the API.
func (h *ResolveHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "resolvePlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/resolve",
		Summary:     "Resolve playback",
		Description: "Resolves a video ID into a playable item using the configured playback mode",
		Tags:        []string{"Playback"},
	}, h.Resolve)
}

// Resolve resolves a video ID into a playable item.
func (h *ResolveHandler) Resolve(ctx context.Context, input *ResolveInput) (*ResolveOutput, error) {
	mode := models.PlaybackMode(input.Body.Mode)
	if input.Body.Mode != "" && !mode.Valid() {
		return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("unknown playback mode %q", input.Body.Mode))
	}

	// Accept full watch or plugin URLs in place of a bare video ID. Our
	// own deep links and both sibling plugins' are recognized sources.
	videoID := input.Body.VideoID
	if id := urlutil.ExtractVideoID(videoID, addons.PluginSelf, addons.PluginYouTube, addons.PluginTubed); id != "" {
		videoID = id
	}

	item, err := h.resolver.Resolve(ctx, videoID, mode)
	if err != nil {
		return nil, mapResolveError(err)
	}

	resp := ResolveResponse{
		VideoID:         item.VideoID,
		Path:            item.Path,
		RequestHeaders:  item.RequestHeaders,
		InputStream:     item.InputStream,
		RemoveFrameRate: item.RemoveFrameRate,
		Launched:        item.Launched,
	}
	// Staged manifests are also reachable over HTTP for remote players.
	if item.InputStream == models.InputStreamMPD && item.Path != "" {
		resp.ManifestURL = "/manifests/" + filepath.Base(item.Path)
	}

	return &ResolveOutput{Body: resp}, nil
}

// mapResolveError converts resolver errors to HTTP status errors.
func mapResolveError(err error) error {
	switch {
	case errors.Is(err, models.ErrNoPlaybackMode):
		return huma.Error422UnprocessableEntity("no playback strategy for the requested mode", err)
	case errors.Is(err, models.ErrRedirectLoop):
		return huma.Error409Conflict("target add-on would redirect playback back here", err)
	default:
		var noFormats models.ErrNoPlayableFormats
		if errors.As(err, &noFormats) {
			return huma.Error404NotFound(noFormats.Error())
		}
		var exErr models.ErrExtractionFailed
		if errors.As(err, &exErr) {
			return huma.Error502BadGateway(exErr.Error())
		}
		return huma.Error500InternalServerError("resolving playback", err)
	}
}
