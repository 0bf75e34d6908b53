package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytarr/ytarr/internal/models"
)

func videoFormat() models.FormatDescriptor {
	return models.FormatDescriptor{
		ID:             "137",
		Container:      models.ContainerMP4Dash,
		VideoCodec:     "avc1",
		AudioCodec:     models.CodecNone,
		Bitrate:        500000,
		Width:          640,
		Height:         360,
		FrameRate:      30,
		Language:       "en",
		FormatLabel:    "137 - 640x360 (original)",
		ByteRangeIndex: models.ByteRange{Start: 820, End: 2000},
		ByteRangeInit:  models.ByteRange{Start: 0, End: 819},
		MediaURL:       "https://v.example.com/video.mp4",
		RequestHeaders: map[string]string{"User-Agent": "test-agent"},
	}
}

func audioFormat() models.FormatDescriptor {
	return models.FormatDescriptor{
		ID:             "140",
		Container:      models.ContainerM4ADash,
		VideoCodec:     models.CodecNone,
		AudioCodec:     "mp4a.40.2",
		Bitrate:        128000,
		Language:       "en",
		FormatLabel:    "140 - audio (default)",
		ByteRangeIndex: models.ByteRange{Start: 700, End: 1500},
		ByteRangeInit:  models.ByteRange{Start: 0, End: 699},
		MediaURL:       "https://a.example.com/audio.m4a",
		RequestHeaders: map[string]string{"Authorization": "token"},
	}
}

func TestBuild_GroupsByMimeBucket(t *testing.T) {
	catalog := &models.ExtractResult{
		Duration: 120,
		Formats:  []models.FormatDescriptor{videoFormat(), audioFormat()},
	}

	doc, err := NewSynthesizer().Build("vid123", catalog)
	require.NoError(t, err)

	require.Len(t, doc.AdaptationSets, 2)

	video := doc.AdaptationSets[0]
	assert.Equal(t, "0", video.ID)
	assert.Equal(t, "video", video.ContentType)
	assert.Equal(t, MimeVideoMP4, video.MimeType)
	assert.Equal(t, "en", video.Language)
	assert.True(t, video.Original)
	assert.False(t, video.Default)
	require.Len(t, video.Representations, 1)
	assert.Equal(t, "avc1", video.Representations[0].Codec)
	assert.Equal(t, int64(500000), video.Representations[0].Bandwidth)
	assert.Equal(t, 640, video.Representations[0].Width)

	audio := doc.AdaptationSets[1]
	assert.Equal(t, "audio", audio.ContentType)
	assert.Equal(t, MimeAudioMP4, audio.MimeType)
	assert.True(t, audio.Default)
	require.Len(t, audio.Representations, 1)
	assert.Equal(t, "mp4a.40.2", audio.Representations[0].Codec)
	assert.True(t, audio.Representations[0].HasAudio)
	assert.False(t, audio.Representations[0].HasVideo)

	// Merged header map is the union of both descriptors' maps.
	assert.Equal(t, map[string]string{
		"User-Agent":    "test-agent",
		"Authorization": "token",
	}, doc.RequestHeaders)
}

func TestBuild_WebmBucketSplitsOnVideoCodec(t *testing.T) {
	withVideo := videoFormat()
	withVideo.ID = "248"
	withVideo.Container = models.ContainerWebmDash
	withVideo.VideoCodec = "vp9"

	audioOnly := audioFormat()
	audioOnly.ID = "251"
	audioOnly.Container = models.ContainerWebmDash
	audioOnly.AudioCodec = "opus"

	catalog := &models.ExtractResult{
		Duration: 60,
		Formats:  []models.FormatDescriptor{withVideo, audioOnly},
	}

	doc, err := NewSynthesizer().Build("vid123", catalog)
	require.NoError(t, err)
	require.Len(t, doc.AdaptationSets, 2)
	assert.Equal(t, MimeVideoWebm, doc.AdaptationSets[0].MimeType)
	assert.Equal(t, MimeAudioWebm, doc.AdaptationSets[1].MimeType)
}

func TestBuild_PreservesDescriptorOrderWithinBucket(t *testing.T) {
	first := videoFormat()
	second := videoFormat()
	second.ID = "136"
	second.Bitrate = 250000
	second.Width = 426
	second.Height = 240

	catalog := &models.ExtractResult{
		Duration: 30,
		Formats:  []models.FormatDescriptor{first, second},
	}

	doc, err := NewSynthesizer().Build("vid123", catalog)
	require.NoError(t, err)
	require.Len(t, doc.AdaptationSets, 1)
	reps := doc.AdaptationSets[0].Representations
	require.Len(t, reps, 2)
	assert.Equal(t, "137", reps[0].ID)
	assert.Equal(t, "136", reps[1].ID)
}

func TestBuild_PartitionsAudioVideoByLanguage(t *testing.T) {
	en := audioFormat()
	de := audioFormat()
	de.ID = "140-de"
	de.Language = "de"

	catalog := &models.ExtractResult{
		Duration: 30,
		Formats:  []models.FormatDescriptor{en, de},
	}

	doc, err := NewSynthesizer().Build("vid123", catalog)
	require.NoError(t, err)
	require.Len(t, doc.AdaptationSets, 2)
	assert.Equal(t, "en", doc.AdaptationSets[0].Language)
	assert.Equal(t, "de", doc.AdaptationSets[1].Language)
}

func TestBuild_NoPlayableFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []models.FormatDescriptor
	}{
		{
			name:    "empty catalog",
			formats: nil,
		},
		{
			name: "only unrecognized containers",
			formats: []models.FormatDescriptor{
				{ID: "hls-1", Container: "hls", VideoCodec: "avc1", MediaURL: "https://example.com/x.m3u8"},
				{ID: "no-container", VideoCodec: "avc1", MediaURL: "https://example.com/y"},
			},
		},
		{
			name: "mp4_dash without video codec is dropped",
			formats: []models.FormatDescriptor{
				{ID: "x", Container: models.ContainerMP4Dash, VideoCodec: models.CodecNone, AudioCodec: "mp4a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &models.ExtractResult{Duration: 10, Formats: tt.formats}
			_, err := NewSynthesizer().Build("vid123", catalog)
			var notFound models.ErrNoPlayableFormats
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, "vid123", notFound.VideoID)
		})
	}
}

func TestBuild_MalformedFormat(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.FormatDescriptor)
		field   string
	}{
		{"missing width", func(f *models.FormatDescriptor) { f.Width = 0 }, "width"},
		{"missing height", func(f *models.FormatDescriptor) { f.Height = 0 }, "height"},
		{"missing fps", func(f *models.FormatDescriptor) { f.FrameRate = 0 }, "fps"},
		{"missing bitrate", func(f *models.FormatDescriptor) { f.Bitrate = 0 }, "bitrate"},
		{"missing url", func(f *models.FormatDescriptor) { f.MediaURL = "" }, "url"},
		{"missing index range", func(f *models.FormatDescriptor) { f.ByteRangeIndex = models.ByteRange{} }, "index_range"},
		{"missing init range", func(f *models.FormatDescriptor) { f.ByteRangeInit = models.ByteRange{} }, "init_range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := videoFormat()
			tt.mutate(&f)
			catalog := &models.ExtractResult{Duration: 10, Formats: []models.FormatDescriptor{f}}
			_, err := NewSynthesizer().Build("vid123", catalog)
			var malformed models.ErrMalformedFormat
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.field, malformed.Field)
			assert.Equal(t, "137", malformed.FormatID)
		})
	}
}

func TestBuild_AuthoredSubtitles(t *testing.T) {
	catalog := &models.ExtractResult{
		Duration: 60,
		Formats:  []models.FormatDescriptor{videoFormat()},
		Subtitles: []models.SubtitleTrack{
			{
				LanguageTag: "en",
				Variants: []models.SubtitleVariant{
					{Format: "srv3", DeliveryProtocol: "https", URL: "https://example.com/en.srv3"},
					{Format: "vtt", DeliveryProtocol: "m3u8_native", URL: "https://example.com/en.m3u8"},
					{Format: "vtt", DeliveryProtocol: "https", URL: "https://example.com/en.vtt"},
				},
			},
			{
				// No eligible variant: skipped without error.
				LanguageTag: "fr",
				Variants: []models.SubtitleVariant{
					{Format: "srv3", DeliveryProtocol: "https", URL: "https://example.com/fr.srv3"},
				},
			},
		},
	}

	doc, err := NewSynthesizer().WithSubtitles(true).Build("vid123", catalog)
	require.NoError(t, err)
	require.Len(t, doc.AdaptationSets, 2)

	text := doc.AdaptationSets[1]
	assert.Equal(t, "caption_0", text.ID)
	assert.Equal(t, "text", text.ContentType)
	assert.Equal(t, MimeTextVTT, text.MimeType)
	assert.Equal(t, "en", text.Language)
	require.Len(t, text.Representations, 1)
	assert.Equal(t, "caption_rep_0", text.Representations[0].ID)
	assert.Equal(t, "https://example.com/en.vtt", text.Representations[0].MediaURL)
}

func TestBuild_AutoCaptions(t *testing.T) {
	catalog := &models.ExtractResult{
		Duration: 60,
		Formats:  []models.FormatDescriptor{videoFormat()},
		AutomaticCaptions: []models.SubtitleTrack{
			{
				// Original-language machine track is excluded.
				LanguageTag:   "en-orig",
				AutoGenerated: true,
				Variants: []models.SubtitleVariant{
					{Format: "vtt", DeliveryProtocol: "https", URL: "https://example.com/en-orig.vtt"},
				},
			},
			{
				LanguageTag:   "de",
				AutoGenerated: true,
				Variants: []models.SubtitleVariant{
					{Format: "vtt", DeliveryProtocol: "https", URL: "https://example.com/de.vtt"},
				},
			},
		},
	}

	doc, err := NewSynthesizer().WithAutoSubtitles(true).Build("vid123", catalog)
	require.NoError(t, err)
	require.Len(t, doc.AdaptationSets, 2)

	text := doc.AdaptationSets[1]
	assert.Equal(t, "caption_0", text.ID)
	assert.Equal(t, "de-(auto-translated)", text.Language)
}

func TestBuild_AutoCaptionsDisabledByDefault(t *testing.T) {
	catalog := &models.ExtractResult{
		Duration: 60,
		Formats:  []models.FormatDescriptor{videoFormat()},
		Subtitles: []models.SubtitleTrack{
			{LanguageTag: "en", Variants: []models.SubtitleVariant{
				{Format: "vtt", DeliveryProtocol: "https", URL: "https://example.com/en.vtt"},
			}},
		},
	}

	doc, err := NewSynthesizer().Build("vid123", catalog)
	require.NoError(t, err)
	assert.Len(t, doc.AdaptationSets, 1)
}

func TestBuild_CaptionNumberingContinuesAcrossTrackKinds(t *testing.T) {
	vtt := []models.SubtitleVariant{{Format: "vtt", DeliveryProtocol: "https", URL: "https://example.com/s.vtt"}}
	catalog := &models.ExtractResult{
		Duration:          60,
		Formats:           []models.FormatDescriptor{videoFormat()},
		Subtitles:         []models.SubtitleTrack{{LanguageTag: "en", Variants: vtt}},
		AutomaticCaptions: []models.SubtitleTrack{{LanguageTag: "de", AutoGenerated: true, Variants: vtt}},
	}

	doc, err := NewSynthesizer().WithSubtitles(true).WithAutoSubtitles(true).Build("vid123", catalog)
	require.NoError(t, err)
	require.Len(t, doc.AdaptationSets, 3)
	assert.Equal(t, "caption_0", doc.AdaptationSets[1].ID)
	assert.Equal(t, "caption_1", doc.AdaptationSets[2].ID)
}

func TestEscapeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ampersand and angle brackets",
			input:    "https://example.com/a?x=1&y=2<z>",
			expected: "https://example.com/a?x=1&amp;y=2&lt;z&gt;",
		},
		{
			name:     "percent-encoded ampersand decoded then escaped once",
			input:    "https://example.com/a?x=%26y",
			expected: "https://example.com/a?x=&amp;y",
		},
		{
			name:     "quotes",
			input:    `https://example.com/a?q="v"`,
			expected: "https://example.com/a?q=&quot;v&quot;",
		},
		{
			name:     "invalid percent sequence passes through",
			input:    "https://example.com/a?x=%zz&y=1",
			expected: "https://example.com/a?x=%zz&amp;y=1",
		},
		{
			name:     "plain url untouched",
			input:    "https://example.com/video.mp4",
			expected: "https://example.com/video.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeURL(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.NotContains(t, got, "&amp;amp;")
		})
	}
}

func TestBuild_WrapsNothingSilently(t *testing.T) {
	// A malformed descriptor in a recognized bucket is an error, not a
	// silent drop.
	f := videoFormat()
	f.Width = 0
	catalog := &models.ExtractResult{Duration: 10, Formats: []models.FormatDescriptor{videoFormat(), f}}
	_, err := NewSynthesizer().Build("vid123", catalog)
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrNoPlaybackMode))
}
