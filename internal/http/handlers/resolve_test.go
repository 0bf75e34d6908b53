package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytarr/ytarr/internal/models"
)

// fakeResolver returns a canned item or error.
type fakeResolver struct {
	item        *models.PlayableItem
	err         error
	lastVideoID string
	lastMode    models.PlaybackMode
}

func (f *fakeResolver) Resolve(_ context.Context, videoID string, mode models.PlaybackMode) (*models.PlayableItem, error) {
	f.lastVideoID = videoID
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.item, nil
}

func TestResolveHandler_ExtractOutcome(t *testing.T) {
	fake := &fakeResolver{item: &models.PlayableItem{
		VideoID:         "vid123",
		Path:            "/data/manifests/yt-abc.mpd",
		RequestHeaders:  map[string]string{"User-Agent": "ua"},
		InputStream:     models.InputStreamMPD,
		RemoveFrameRate: true,
	}}
	handler := NewResolveHandler(fake, nil)

	output, err := handler.Resolve(context.Background(), &ResolveInput{
		Body: ResolveRequest{VideoID: "vid123", Mode: "extract"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ModeExtract, fake.lastMode)
	assert.Equal(t, "vid123", output.Body.VideoID)
	assert.Equal(t, "/manifests/yt-abc.mpd", output.Body.ManifestURL)
	assert.Equal(t, "mpd", output.Body.InputStream)
	assert.True(t, output.Body.RemoveFrameRate)
}

func TestResolveHandler_LaunchedOutcomeHasNoManifestURL(t *testing.T) {
	fake := &fakeResolver{item: &models.PlayableItem{VideoID: "vid123", Launched: true}}
	handler := NewResolveHandler(fake, nil)

	output, err := handler.Resolve(context.Background(), &ResolveInput{
		Body: ResolveRequest{VideoID: "vid123", Mode: "intent"},
	})
	require.NoError(t, err)

	assert.True(t, output.Body.Launched)
	assert.Empty(t, output.Body.ManifestURL)
}

func TestResolveHandler_AcceptsWatchURL(t *testing.T) {
	fake := &fakeResolver{item: &models.PlayableItem{VideoID: "vid123", Launched: true}}
	handler := NewResolveHandler(fake, nil)

	_, err := handler.Resolve(context.Background(), &ResolveInput{
		Body: ResolveRequest{VideoID: "https://www.youtube.com/watch?v=vid123", Mode: "intent"},
	})
	require.NoError(t, err)
	assert.Equal(t, "vid123", fake.lastVideoID)
}

func TestResolveHandler_AcceptsPluginURL(t *testing.T) {
	tests := []struct {
		name    string
		videoID string
	}{
		{
			name:    "tubed deep link",
			videoID: "plugin://plugin.video.tubed/?mode=play&video_id=abc",
		},
		{
			name:    "youtube deep link",
			videoID: "plugin://plugin.video.youtube/play/?video_id=abc",
		},
		{
			name:    "own deep link",
			videoID: "plugin://plugin.video.ytarr/play/?video_id=abc",
		},
		{
			name:    "bare id",
			videoID: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeResolver{item: &models.PlayableItem{VideoID: "abc", Launched: true}}
			handler := NewResolveHandler(fake, nil)

			_, err := handler.Resolve(context.Background(), &ResolveInput{
				Body: ResolveRequest{VideoID: tt.videoID, Mode: "intent"},
			})
			require.NoError(t, err)
			assert.Equal(t, "abc", fake.lastVideoID)
		})
	}
}

func TestResolveHandler_UnknownModeRejected(t *testing.T) {
	handler := NewResolveHandler(&fakeResolver{}, nil)

	_, err := handler.Resolve(context.Background(), &ResolveInput{
		Body: ResolveRequest{VideoID: "vid123", Mode: "bogus"},
	})
	requireStatus(t, err, 422)
}

func TestResolveHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "no playback mode",
			err:        models.ErrNoPlaybackMode,
			wantStatus: 422,
		},
		{
			name:       "redirect loop",
			err:        models.ErrRedirectLoop,
			wantStatus: 409,
		},
		{
			name: "no playable formats",
			err: models.ErrExtractionFailed{
				VideoID: "vid123",
				Cause:   models.ErrNoPlayableFormats{VideoID: "vid123"},
			},
			wantStatus: 404,
		},
		{
			name:       "extraction failure",
			err:        models.ErrExtractionFailed{VideoID: "vid123", Cause: errors.New("boom")},
			wantStatus: 502,
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewResolveHandler(&fakeResolver{err: tt.err}, nil)
			_, err := handler.Resolve(context.Background(), &ResolveInput{
				Body: ResolveRequest{VideoID: "vid123"},
			})
			requireStatus(t, err, tt.wantStatus)
		})
	}
}

func requireStatus(t *testing.T, err error, want int) {
	t.Helper()
	require.Error(t, err)
	var statusErr huma.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, want, statusErr.GetStatus())
}
