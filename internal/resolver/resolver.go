// Package resolver picks among playback strategies for a video identifier:
// hand off to an external app, deep-link a sibling plugin, or extract and
// synthesize a DASH manifest locally.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ytarr/ytarr/internal/addons"
	"github.com/ytarr/ytarr/internal/extractor"
	"github.com/ytarr/ytarr/internal/manifest"
	"github.com/ytarr/ytarr/internal/models"
	"github.com/ytarr/ytarr/internal/urlutil"
)

// Deep-link path shapes for the sibling plugins. Opaque to everything but
// the target plugin beyond the video_id parameter.
const (
	youtubePluginLink = "plugin://%s/play/?video_id=%s"
	tubedPluginLink   = "plugin://%s/?mode=play&video_id=%s"
)

// Notifier surfaces a user-visible notice, e.g. when playback falls back
// to a secondary mode.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// slogNotifier is the default Notifier; it only logs.
type slogNotifier struct {
	logger *slog.Logger
}

// Notify implements Notifier.
func (n *slogNotifier) Notify(ctx context.Context, message string) {
	n.logger.WarnContext(ctx, "playback notice", slog.String("message", message))
}

// strategy resolves one playback mode.
type strategy func(ctx context.Context, videoID string) (*models.PlayableItem, error)

// Resolver dispatches resolve calls to the configured playback strategy
// with an iterative, single-hop fallback for extraction failures.
type Resolver struct {
	extractor   extractor.Extractor
	synthesizer *manifest.Synthesizer
	store       *manifest.Store
	guard       *RedirectGuard
	launcher    IntentLauncher
	notifier    Notifier
	logger      *slog.Logger

	defaultMode  models.PlaybackMode
	fallbackMode models.PlaybackMode
	intentApp    string
	intentAction string

	strategies map[models.PlaybackMode]strategy
}

// New creates a Resolver. The extractor, synthesizer, store and guard are
// required; launcher and notifier have working defaults.
func New(ext extractor.Extractor, synth *manifest.Synthesizer, store *manifest.Store, guard *RedirectGuard) *Resolver {
	r := &Resolver{
		extractor:    ext,
		synthesizer:  synth,
		store:        store,
		guard:        guard,
		launcher:     NewExecLauncher(),
		notifier:     &slogNotifier{logger: slog.Default()},
		logger:       slog.Default(),
		defaultMode:  models.ModeExtract,
		intentAction: DefaultIntentAction,
	}
	r.strategies = map[models.PlaybackMode]strategy{
		models.ModeIntent:        r.playIntent,
		models.ModeYouTubePlugin: r.playYouTubePlugin,
		models.ModeTubedPlugin:   r.playTubedPlugin,
		models.ModeExtract:       r.playExtract,
	}
	return r
}

// WithModes sets the default and fallback playback modes.
func (r *Resolver) WithModes(defaultMode, fallbackMode models.PlaybackMode) *Resolver {
	if defaultMode != "" {
		r.defaultMode = defaultMode
	}
	r.fallbackMode = fallbackMode
	return r
}

// WithIntent sets the target application and intent action for the
// external-app strategy.
func (r *Resolver) WithIntent(appID, action string) *Resolver {
	r.intentApp = appID
	if action != "" {
		r.intentAction = action
	}
	return r
}

// WithLauncher sets the intent launcher.
func (r *Resolver) WithLauncher(l IntentLauncher) *Resolver {
	if l != nil {
		r.launcher = l
	}
	return r
}

// WithNotifier sets the user notifier.
func (r *Resolver) WithNotifier(n Notifier) *Resolver {
	if n != nil {
		r.notifier = n
	}
	return r
}

// WithLogger sets the logger.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Resolve picks the strategy for the given mode (or the configured default
// when mode is empty) and runs it. When the extraction path fails and a
// fallback mode is configured, exactly one user notice is emitted and the
// fallback strategy is run once; no further hops are attempted because the
// fallback comes from static configuration, not from the failed attempt.
func (r *Resolver) Resolve(ctx context.Context, videoID string, mode models.PlaybackMode) (*models.PlayableItem, error) {
	if mode == "" {
		mode = r.defaultMode
	}

	item, err := r.dispatch(ctx, videoID, mode)
	if err == nil {
		return item, nil
	}

	var exErr models.ErrExtractionFailed
	if errors.As(err, &exErr) && r.fallbackMode != "" && r.fallbackMode != mode {
		r.logger.WarnContext(ctx, "extraction failed, using fallback mode",
			slog.String("video_id", videoID),
			slog.String("mode", mode.String()),
			slog.String("fallback", r.fallbackMode.String()),
			slog.String("error", exErr.Error()),
		)
		r.notifier.Notify(ctx, exErr.Error())
		return r.dispatch(ctx, videoID, r.fallbackMode)
	}

	return nil, err
}

// dispatch runs a single strategy with no fallback handling.
func (r *Resolver) dispatch(ctx context.Context, videoID string, mode models.PlaybackMode) (*models.PlayableItem, error) {
	play, ok := r.strategies[mode]
	if !ok {
		return nil, models.ErrNoPlaybackMode
	}
	return play(ctx, videoID)
}

// playIntent hands playback to an external application and returns a
// terminal, pathless item.
func (r *Resolver) playIntent(ctx context.Context, videoID string) (*models.PlayableItem, error) {
	watchURL := urlutil.WatchURL(videoID)
	if err := r.launcher.Launch(ctx, r.intentApp, r.intentAction, watchURL); err != nil {
		return nil, fmt.Errorf("launching intent for video %s: %w", videoID, err)
	}
	return &models.PlayableItem{VideoID: videoID, Launched: true}, nil
}

// playYouTubePlugin deep-links the mainstream YouTube plugin.
func (r *Resolver) playYouTubePlugin(_ context.Context, videoID string) (*models.PlayableItem, error) {
	if err := r.guard.AssertSafe(addons.PluginYouTube); err != nil {
		return nil, err
	}
	return &models.PlayableItem{
		VideoID: videoID,
		Path:    fmt.Sprintf(youtubePluginLink, addons.PluginYouTube, videoID),
	}, nil
}

// playTubedPlugin deep-links the Tubed plugin.
func (r *Resolver) playTubedPlugin(_ context.Context, videoID string) (*models.PlayableItem, error) {
	if err := r.guard.AssertSafe(addons.PluginTubed); err != nil {
		return nil, err
	}
	return &models.PlayableItem{
		VideoID: videoID,
		Path:    fmt.Sprintf(tubedPluginLink, addons.PluginTubed, videoID),
	}, nil
}

// playExtract runs the extraction collaborator and synthesizes a manifest.
// Every failure on this path is wrapped so the fallback logic can catch it
// uniformly.
func (r *Resolver) playExtract(ctx context.Context, videoID string) (*models.PlayableItem, error) {
	catalog, err := r.extractor.Extract(ctx, urlutil.WatchURL(videoID))
	if err != nil {
		return nil, models.ErrExtractionFailed{VideoID: videoID, Cause: err}
	}

	doc, err := r.synthesizer.Build(videoID, catalog)
	if err != nil {
		return nil, models.ErrExtractionFailed{VideoID: videoID, Cause: err}
	}

	path, err := r.store.Stage(doc)
	if err != nil {
		return nil, models.ErrExtractionFailed{VideoID: videoID, Cause: err}
	}

	return &models.PlayableItem{
		VideoID:        videoID,
		Path:           path,
		RequestHeaders: doc.RequestHeaders,
		InputStream:    models.InputStreamMPD,
		// Upstream frame rates like 24 may really be 23.976; tell the
		// player to measure instead of trusting the declared values.
		RemoveFrameRate: true,
	}, nil
}
