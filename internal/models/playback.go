package models

import "fmt"

// PlaybackMode selects the strategy used to obtain a playable stream.
type PlaybackMode string

// Playback mode constants.
const (
	// ModeIntent launches an external application via an OS intent
	// carrying the canonical watch URL. Fire-and-forget.
	ModeIntent PlaybackMode = "intent"
	// ModeYouTubePlugin deep-links into the YouTube sibling plugin.
	ModeYouTubePlugin PlaybackMode = "youtube-plugin"
	// ModeTubedPlugin deep-links into the Tubed sibling plugin.
	ModeTubedPlugin PlaybackMode = "tubed-plugin"
	// ModeExtract runs the extraction collaborator and synthesizes a
	// DASH manifest locally.
	ModeExtract PlaybackMode = "extract"
)

// String returns the string representation of the playback mode.
func (m PlaybackMode) String() string {
	return string(m)
}

// Valid reports whether the mode is one of the known strategies.
func (m PlaybackMode) Valid() bool {
	switch m {
	case ModeIntent, ModeYouTubePlugin, ModeTubedPlugin, ModeExtract:
		return true
	}
	return false
}

// ParsePlaybackMode parses a configuration string into a PlaybackMode.
// The empty string parses to the empty mode (no strategy configured).
func ParsePlaybackMode(s string) (PlaybackMode, error) {
	m := PlaybackMode(s)
	if s != "" && !m.Valid() {
		return "", fmt.Errorf("unknown playback mode %q", s)
	}
	return m, nil
}

// InputStreamMPD is the input-stream hint for DASH manifests handed to the
// host player.
const InputStreamMPD = "mpd"

// PlayableItem is the outcome of a resolve call: either a URI the host
// player should open, or a record of a fire-and-forget intent launch.
type PlayableItem struct {
	// Path is the URI or file path the host player should open. Empty
	// when Launched is set.
	Path string `json:"path,omitempty"`
	// VideoID is the resolved video identifier.
	VideoID string `json:"video_id"`
	// RequestHeaders must accompany every media request the player makes
	// for this item.
	RequestHeaders map[string]string `json:"headers,omitempty"`
	// InputStream hints which adaptive-streaming handler the player
	// should use (InputStreamMPD for synthesized manifests).
	InputStream string `json:"inputstream,omitempty"`
	// RemoveFrameRate tells the player to ignore declared frame rates.
	// Upstream values like "24" may really be 23.976 and must not be
	// trusted literally.
	RemoveFrameRate bool `json:"remove_framerate,omitempty"`
	// Launched is set when playback was handed off to an external app
	// and no further navigation is needed.
	Launched bool `json:"launched,omitempty"`
}
