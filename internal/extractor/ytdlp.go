package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ytarr/ytarr/internal/models"
)

// Default yt-dlp invocation values.
const (
	defaultBinary  = "yt-dlp"
	defaultTimeout = 60 * time.Second
	// formatSelector mirrors the extractor options the add-on has always
	// used: prefer a combined stream, fall back to separate tracks.
	formatSelector = "best/bestvideo+bestaudio"
)

// commandRunner runs the extraction binary and returns its stdout.
// Abstracted so parsing can be tested without a real yt-dlp install.
type commandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("running %s: %w: %s", binary, err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("running %s: %w", binary, err)
	}
	return out, nil
}

// YTDLP extracts format catalogs by shelling out to the yt-dlp binary with
// JSON dump output.
type YTDLP struct {
	binary      string
	cookiesPath string
	cacheDir    string
	timeout     time.Duration
	logger      *slog.Logger
	run         commandRunner
}

// NewYTDLP creates a YTDLP extractor with default binary and timeout.
func NewYTDLP() *YTDLP {
	return &YTDLP{
		binary:  defaultBinary,
		timeout: defaultTimeout,
		logger:  slog.Default(),
		run:     execRunner,
	}
}

// WithBinary overrides the yt-dlp binary path.
func (y *YTDLP) WithBinary(path string) *YTDLP {
	if path != "" {
		y.binary = path
	}
	return y
}

// WithCookies points yt-dlp at a Netscape-format cookie file. The path may
// carry session credentials; it is never logged unredacted.
func (y *YTDLP) WithCookies(path string) *YTDLP {
	y.cookiesPath = path
	return y
}

// WithCacheDir sets yt-dlp's own on-disk cache directory.
func (y *YTDLP) WithCacheDir(dir string) *YTDLP {
	y.cacheDir = dir
	return y
}

// WithTimeout bounds a single extraction run.
func (y *YTDLP) WithTimeout(d time.Duration) *YTDLP {
	if d > 0 {
		y.timeout = d
	}
	return y
}

// WithLogger sets the logger.
func (y *YTDLP) WithLogger(logger *slog.Logger) *YTDLP {
	if logger != nil {
		y.logger = logger
	}
	return y
}

// withRunner swaps the process runner. Test hook.
func (y *YTDLP) withRunner(run commandRunner) *YTDLP {
	y.run = run
	return y
}

// Extract implements Extractor.
func (y *YTDLP) Extract(ctx context.Context, watchURL string) (*models.ExtractResult, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	args := []string{"-J", "--no-playlist", "-f", formatSelector}
	if y.cookiesPath != "" {
		args = append(args, "--cookies", y.cookiesPath)
	}
	if y.cacheDir != "" {
		args = append(args, "--cache-dir", y.cacheDir)
	}
	args = append(args, watchURL)

	start := time.Now()
	out, err := y.run(ctx, y.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", watchURL, err)
	}

	result, err := parseDump(out)
	if err != nil {
		return nil, fmt.Errorf("parsing extraction output for %s: %w", watchURL, err)
	}

	y.logger.Debug("extraction completed",
		slog.String("url", watchURL),
		slog.Int("formats", len(result.Formats)),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// Wire representation of yt-dlp's -J dump, limited to the fields we read.
type dump struct {
	Duration          float64       `json:"duration"`
	Formats           []wireFormat  `json:"formats"`
	Subtitles         wireTrackList `json:"subtitles"`
	AutomaticCaptions wireTrackList `json:"automatic_captions"`
}

type wireFormat struct {
	FormatID    string            `json:"format_id"`
	Container   string            `json:"container"`
	VCodec      string            `json:"vcodec"`
	ACodec      string            `json:"acodec"`
	Bitrate     float64           `json:"bitrate"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	FPS         float64           `json:"fps"`
	Language    string            `json:"language"`
	Format      string            `json:"format"`
	IndexRange  *wireRange        `json:"indexRange"`
	InitRange   *wireRange        `json:"initRange"`
	URL         string            `json:"url"`
	HTTPHeaders map[string]string `json:"http_headers"`
}

type wireRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

type wireSubVariant struct {
	Ext      string `json:"ext"`
	Protocol string `json:"protocol"`
	URL      string `json:"url"`
}

// wireTrackList is a language-keyed variant map that remembers the order
// the keys appeared in the JSON object. yt-dlp lists subtitle languages in
// the order the site reports them, and the manifest keeps that order.
type wireTrackList struct {
	langs  []string
	byLang map[string][]wireSubVariant
}

// UnmarshalJSON decodes the object token by token because a plain map
// decode discards key order.
func (l *wireTrackList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading track list: %w", err)
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("track list: expected object, got %v", tok)
	}

	l.byLang = make(map[string][]wireSubVariant)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading track list key: %w", err)
		}
		lang, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("track list: expected string key, got %v", keyTok)
		}

		var variants []wireSubVariant
		if err := dec.Decode(&variants); err != nil {
			return fmt.Errorf("decoding variants for %q: %w", lang, err)
		}
		if _, seen := l.byLang[lang]; !seen {
			l.langs = append(l.langs, lang)
		}
		l.byLang[lang] = variants
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading track list close: %w", err)
	}
	return nil
}

// parseDump maps the JSON dump onto the catalog model.
func parseDump(data []byte) (*models.ExtractResult, error) {
	var d dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding JSON dump: %w", err)
	}

	result := &models.ExtractResult{
		Duration: d.Duration,
		Formats:  make([]models.FormatDescriptor, 0, len(d.Formats)),
	}

	for _, f := range d.Formats {
		desc := models.FormatDescriptor{
			ID:             f.FormatID,
			Container:      models.Container(f.Container),
			VideoCodec:     f.VCodec,
			AudioCodec:     f.ACodec,
			Bitrate:        int64(f.Bitrate),
			Width:          f.Width,
			Height:         f.Height,
			FrameRate:      f.FPS,
			Language:       f.Language,
			FormatLabel:    f.Format,
			MediaURL:       f.URL,
			RequestHeaders: f.HTTPHeaders,
		}
		if f.IndexRange != nil {
			desc.ByteRangeIndex = models.ByteRange{Start: f.IndexRange.Start, End: f.IndexRange.End}
		}
		if f.InitRange != nil {
			desc.ByteRangeInit = models.ByteRange{Start: f.InitRange.Start, End: f.InitRange.End}
		}
		result.Formats = append(result.Formats, desc)
	}

	result.Subtitles = mapTracks(d.Subtitles, false)
	result.AutomaticCaptions = mapTracks(d.AutomaticCaptions, true)
	return result, nil
}

// mapTracks converts a track list into tracks in wire order.
func mapTracks(list wireTrackList, auto bool) []models.SubtitleTrack {
	if len(list.langs) == 0 {
		return nil
	}

	tracks := make([]models.SubtitleTrack, 0, len(list.langs))
	for _, lang := range list.langs {
		track := models.SubtitleTrack{
			LanguageTag:   lang,
			AutoGenerated: auto,
		}
		for _, v := range list.byLang[lang] {
			track.Variants = append(track.Variants, models.SubtitleVariant{
				Format:           v.Ext,
				DeliveryProtocol: v.Protocol,
				URL:              v.URL,
			})
		}
		tracks = append(tracks, track)
	}
	return tracks
}
