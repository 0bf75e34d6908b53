// Package models defines the core data types for ytarr: extracted media
// format descriptors, subtitle tracks, playback modes, and playable items.
package models

// Container identifies the muxing family of an extracted format.
type Container string

// Container constants as reported by the extraction collaborator.
const (
	ContainerWebmDash Container = "webm_dash"
	ContainerMP4Dash  Container = "mp4_dash"
	ContainerM4ADash  Container = "m4a_dash"
)

// CodecNone is the sentinel the extractor uses for an absent codec.
const CodecNone = "none"

// ByteRange is a closed byte span addressing part of a media file.
type ByteRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// FormatDescriptor is one audio/video format entry returned by the
// extraction collaborator for a single video.
type FormatDescriptor struct {
	// ID is the extractor's format identifier (e.g. "137").
	ID string `json:"format_id"`
	// Container classifies the muxing family. Descriptors without a
	// container are discarded before manifest grouping.
	Container Container `json:"container"`
	// VideoCodec and AudioCodec are codec identifiers; empty or "none"
	// means the stream lacks that track.
	VideoCodec string `json:"vcodec"`
	AudioCodec string `json:"acodec"`
	// Bitrate in bits per second.
	Bitrate int64 `json:"bitrate"`
	// Width, Height and FrameRate are present only for video tracks.
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"fps"`
	// Language is an IETF tag or empty.
	Language string `json:"language"`
	// FormatLabel is the extractor's free-text label; "original" and
	// "default" track hints are derived from it by substring match.
	FormatLabel string `json:"format"`
	// ByteRangeIndex and ByteRangeInit address the segment index box and
	// initialization segment for a SegmentBase representation.
	ByteRangeIndex ByteRange `json:"index_range"`
	ByteRangeInit  ByteRange `json:"init_range"`
	// MediaURL is the absolute, unescaped URL of the media file.
	MediaURL string `json:"url"`
	// RequestHeaders are required to fetch MediaURL.
	RequestHeaders map[string]string `json:"http_headers"`
}

// HasVideo reports whether the descriptor carries a video track.
func (f *FormatDescriptor) HasVideo() bool {
	return f.VideoCodec != "" && f.VideoCodec != CodecNone
}

// HasAudio reports whether the descriptor carries an audio track.
func (f *FormatDescriptor) HasAudio() bool {
	return f.AudioCodec != "" && f.AudioCodec != CodecNone
}

// Codec returns the codec string for a representation: the video codec when
// present, otherwise the audio codec.
func (f *FormatDescriptor) Codec() string {
	if f.HasVideo() {
		return f.VideoCodec
	}
	return f.AudioCodec
}

// SubtitleVariant is one candidate encoding of a subtitle track.
type SubtitleVariant struct {
	// Format is the file extension, e.g. "vtt" or "srv3".
	Format string `json:"ext"`
	// DeliveryProtocol is the transport hint, e.g. "m3u8_native" for
	// segmented playlists or "https" for plain files.
	DeliveryProtocol string `json:"protocol"`
	URL              string `json:"url"`
}

// SubtitleTrack is one caption track with its candidate encodings in
// extractor order.
type SubtitleTrack struct {
	LanguageTag   string
	AutoGenerated bool
	Variants      []SubtitleVariant
}

// ExtractResult is the catalog of formats and subtitle tracks the
// extraction collaborator produced for one video.
type ExtractResult struct {
	// Duration of the presentation in seconds.
	Duration float64
	// Formats in extractor order. Grouping must preserve this order.
	Formats []FormatDescriptor
	// Subtitles are authored caption tracks; AutomaticCaptions are
	// machine-generated. Both keep the extractor's track order.
	Subtitles         []SubtitleTrack
	AutomaticCaptions []SubtitleTrack
}
