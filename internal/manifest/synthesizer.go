// Package manifest converts extracted media format catalogs into static
// DASH (MPD) manifest documents and stages them for the host player.
package manifest

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/ytarr/ytarr/internal/models"
)

// Mime buckets recognized by the synthesizer. Everything else is dropped
// before grouping.
const (
	MimeVideoWebm = "video/webm"
	MimeAudioWebm = "audio/webm"
	MimeVideoMP4  = "video/mp4"
	MimeAudioMP4  = "audio/mp4"
	MimeTextVTT   = "text/vtt"
)

// Subtitle variant eligibility constants.
const (
	subtitleFormat      = "vtt"
	segmentedPlaylist   = "m3u8_native"
	originalLangMarker  = "orig"
	defaultAutoSubLabel = "auto-translated"
)

// Representation is one concrete encoded stream within an adaptation set.
type Representation struct {
	ID        string
	Codec     string
	Bandwidth int64
	// Width, Height and FrameRate are set only for video streams.
	Width     int
	Height    int
	FrameRate float64
	HasVideo  bool
	HasAudio  bool
	// MediaURL is already percent-decoded and markup-escaped.
	MediaURL   string
	IndexRange models.ByteRange
	InitRange  models.ByteRange
}

// AdaptationSet groups interchangeable streams of one content type,
// mime type and language.
type AdaptationSet struct {
	ID          string
	ContentType string
	MimeType    string
	Language    string
	// Original and Default are track-selection hints derived from the
	// descriptors' free-text labels.
	Original        bool
	Default         bool
	Representations []Representation
}

// Document is a synthesized manifest plus the merged header map required
// to fetch every referenced media segment.
type Document struct {
	// Duration of the presentation in seconds.
	Duration float64
	// AdaptationSets in deterministic first-seen order.
	AdaptationSets []AdaptationSet
	// RequestHeaders merged across all representations, last write wins.
	RequestHeaders map[string]string
}

// Synthesizer builds Documents from extraction catalogs.
type Synthesizer struct {
	includeSubtitles     bool
	includeAutoSubtitles bool
	autoSubLabel         string
	logger               *slog.Logger
}

// NewSynthesizer creates a Synthesizer with subtitles disabled.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		autoSubLabel: defaultAutoSubLabel,
		logger:       slog.Default(),
	}
}

// WithSubtitles enables authored subtitle tracks.
func (s *Synthesizer) WithSubtitles(enabled bool) *Synthesizer {
	s.includeSubtitles = enabled
	return s
}

// WithAutoSubtitles enables machine-generated caption tracks.
func (s *Synthesizer) WithAutoSubtitles(enabled bool) *Synthesizer {
	s.includeAutoSubtitles = enabled
	return s
}

// WithAutoSubtitleLabel overrides the localized label appended to
// machine-generated caption languages.
func (s *Synthesizer) WithAutoSubtitleLabel(label string) *Synthesizer {
	if label != "" {
		s.autoSubLabel = label
	}
	return s
}

// WithLogger sets the logger.
func (s *Synthesizer) WithLogger(logger *slog.Logger) *Synthesizer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// groupKey identifies one adaptation set: mime bucket plus language.
type groupKey struct {
	mime string
	lang string
}

// Build converts the catalog into a manifest Document. The videoID is used
// only for error attribution.
func (s *Synthesizer) Build(videoID string, catalog *models.ExtractResult) (*Document, error) {
	doc := &Document{
		Duration:       catalog.Duration,
		RequestHeaders: make(map[string]string),
	}

	order := make([]groupKey, 0, 4)
	groups := make(map[groupKey][]*models.FormatDescriptor)
	dropped := 0

	for i := range catalog.Formats {
		f := &catalog.Formats[i]
		mime := classify(f)
		if mime == "" {
			dropped++
			continue
		}
		key := groupKey{mime: mime, lang: normalizeLang(f.Language)}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}

	if dropped > 0 {
		s.logger.Debug("dropped formats with unrecognized container",
			slog.String("video_id", videoID),
			slog.Int("dropped", dropped),
		)
	}

	if len(order) == 0 {
		return nil, models.ErrNoPlayableFormats{VideoID: videoID}
	}

	for idx, key := range order {
		set, err := s.buildAdaptationSet(idx, key, groups[key], doc.RequestHeaders)
		if err != nil {
			return nil, err
		}
		doc.AdaptationSets = append(doc.AdaptationSets, *set)
	}

	if s.includeSubtitles {
		s.appendSubtitleSets(doc, catalog.Subtitles, false)
	}
	if s.includeAutoSubtitles {
		s.appendSubtitleSets(doc, catalog.AutomaticCaptions, true)
	}

	return doc, nil
}

// classify maps a descriptor to its mime bucket, or "" when the descriptor
// matches no bucket. The lossy filter is intentional: formats outside the
// four DASH-addressable buckets (e.g. HLS variants) cannot be represented
// as SegmentBase entries.
func classify(f *models.FormatDescriptor) string {
	switch f.Container {
	case models.ContainerWebmDash:
		if f.HasVideo() {
			return MimeVideoWebm
		}
		return MimeAudioWebm
	case models.ContainerMP4Dash:
		if f.HasVideo() {
			return MimeVideoMP4
		}
	case models.ContainerM4ADash:
		if !f.HasVideo() {
			return MimeAudioMP4
		}
	}
	return ""
}

// buildAdaptationSet emits one adaptation set for a (mime, language) group,
// merging each member's request headers into the shared map.
func (s *Synthesizer) buildAdaptationSet(idx int, key groupKey, formats []*models.FormatDescriptor, headers map[string]string) (*AdaptationSet, error) {
	set := &AdaptationSet{
		ID:          strconv.Itoa(idx),
		ContentType: contentTypeOf(key.mime),
		MimeType:    key.mime,
		Language:    key.lang,
	}

	for _, f := range formats {
		rep, err := buildRepresentation(f, key.mime)
		if err != nil {
			return nil, err
		}

		label := strings.ToLower(f.FormatLabel)
		if strings.Contains(label, "original") {
			set.Original = true
		}
		if strings.Contains(label, "default") {
			set.Default = true
		}

		for k, v := range f.RequestHeaders {
			headers[k] = v
		}

		set.Representations = append(set.Representations, *rep)
	}

	return set, nil
}

// buildRepresentation validates a descriptor against its bucket's required
// fields and produces the representation. Missing fields are surfaced as
// errors rather than silently coerced.
func buildRepresentation(f *models.FormatDescriptor, mime string) (*Representation, error) {
	if f.MediaURL == "" {
		return nil, models.ErrMalformedFormat{FormatID: f.ID, Field: "url"}
	}
	if f.Bitrate <= 0 {
		return nil, models.ErrMalformedFormat{FormatID: f.ID, Field: "bitrate"}
	}
	if f.ByteRangeIndex.End <= 0 {
		return nil, models.ErrMalformedFormat{FormatID: f.ID, Field: "index_range"}
	}
	if f.ByteRangeInit.End <= 0 {
		return nil, models.ErrMalformedFormat{FormatID: f.ID, Field: "init_range"}
	}

	rep := &Representation{
		ID:         f.ID,
		Codec:      f.Codec(),
		Bandwidth:  f.Bitrate,
		HasVideo:   f.HasVideo(),
		HasAudio:   f.HasAudio(),
		MediaURL:   EscapeURL(f.MediaURL),
		IndexRange: f.ByteRangeIndex,
		InitRange:  f.ByteRangeInit,
	}

	if strings.HasPrefix(mime, "video/") {
		if f.Width <= 0 {
			return nil, models.ErrMalformedFormat{FormatID: f.ID, Field: "width"}
		}
		if f.Height <= 0 {
			return nil, models.ErrMalformedFormat{FormatID: f.ID, Field: "height"}
		}
		if f.FrameRate <= 0 {
			return nil, models.ErrMalformedFormat{FormatID: f.ID, Field: "fps"}
		}
		rep.Width = f.Width
		rep.Height = f.Height
		rep.FrameRate = f.FrameRate
	}

	return rep, nil
}

// appendSubtitleSets emits one text adaptation set per track that has an
// eligible variant. Tracks without one are skipped without error; subtitle
// absence degrades gracefully.
func (s *Synthesizer) appendSubtitleSets(doc *Document, tracks []models.SubtitleTrack, auto bool) {
	captionIdx := 0
	for _, set := range doc.AdaptationSets {
		if set.ContentType == "text" {
			captionIdx++
		}
	}

	for _, track := range tracks {
		lang := normalizeLang(track.LanguageTag)
		if auto && strings.Contains(strings.ToLower(track.LanguageTag), originalLangMarker) {
			// Machine translations of the original language are the
			// original track; only translated variants add value.
			continue
		}

		variant, ok := eligibleVariant(track)
		if !ok {
			continue
		}

		if auto {
			lang = lang + "-(" + s.autoSubLabel + ")"
		}

		doc.AdaptationSets = append(doc.AdaptationSets, AdaptationSet{
			ID:          "caption_" + strconv.Itoa(captionIdx),
			ContentType: "text",
			MimeType:    MimeTextVTT,
			Language:    lang,
			Representations: []Representation{{
				ID:       "caption_rep_" + strconv.Itoa(captionIdx),
				MediaURL: EscapeURL(variant.URL),
			}},
		})
		captionIdx++
	}
}

// eligibleVariant selects the first captioning-text variant that is not
// delivered as a segmented playlist.
func eligibleVariant(track models.SubtitleTrack) (models.SubtitleVariant, bool) {
	for _, v := range track.Variants {
		if v.Format == subtitleFormat && v.DeliveryProtocol != segmentedPlaylist {
			return v, true
		}
	}
	return models.SubtitleVariant{}, false
}

// EscapeURL percent-decodes the URL once, then escapes the four markup
// characters in a fixed order. Ampersand must be escaped first so the
// entities introduced for the other characters are not double-escaped.
func EscapeURL(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	decoded = strings.ReplaceAll(decoded, "&", "&amp;")
	decoded = strings.ReplaceAll(decoded, `"`, "&quot;")
	decoded = strings.ReplaceAll(decoded, "<", "&lt;")
	return strings.ReplaceAll(decoded, ">", "&gt;")
}

// normalizeLang canonicalizes an IETF language tag when it parses; raw
// tags pass through untouched so extractor quirks never lose a track.
func normalizeLang(tag string) string {
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return parsed.String()
}

// contentTypeOf maps a mime bucket to its DASH content category.
func contentTypeOf(mime string) string {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	default:
		return "text"
	}
}
