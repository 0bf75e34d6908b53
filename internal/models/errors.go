package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for playback resolution.
var (
	// ErrNoPlaybackMode indicates no configured mode resolves to a known
	// playback strategy. User configuration gap, fatal to the call.
	ErrNoPlaybackMode = errors.New("no playback mode configured")

	// ErrRedirectLoop indicates the requested sibling plugin would hand
	// control straight back to an equivalent add-on.
	ErrRedirectLoop = errors.New("playback would redirect back to this add-on")
)

// ErrExtractionFailed wraps any failure of the extraction/synthesis path so
// the resolver's fallback logic can catch it uniformly.
type ErrExtractionFailed struct {
	VideoID string
	Cause   error
}

// Error implements the error interface.
func (e ErrExtractionFailed) Error() string {
	return fmt.Sprintf("extraction failed for video %s: %v", e.VideoID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e ErrExtractionFailed) Unwrap() error {
	return e.Cause
}

// ErrNoPlayableFormats indicates zero descriptors survived container
// filtering for the given video.
type ErrNoPlayableFormats struct {
	VideoID string
}

// Error implements the error interface.
func (e ErrNoPlayableFormats) Error() string {
	return fmt.Sprintf("no playable formats found for video %s", e.VideoID)
}

// ErrMalformedFormat indicates a descriptor is missing a field required for
// its mime bucket (e.g. a video entry lacking width/height).
type ErrMalformedFormat struct {
	FormatID string
	Field    string
}

// Error implements the error interface.
func (e ErrMalformedFormat) Error() string {
	return fmt.Sprintf("format %s: missing or invalid field %s", e.FormatID, e.Field)
}
