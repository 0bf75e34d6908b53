// Package addons abstracts the host player's add-on discovery facility.
// The resolver only needs to know whether a sibling integration is
// installed and who maintains it.
package addons

// Well-known plugin IDs.
const (
	// PluginSelf is the identifier this service registers under with the
	// host player; playback URLs it issued embed it.
	PluginSelf = "plugin.video.ytarr"
	// PluginYouTube is the mainstream YouTube plugin's add-on ID.
	PluginYouTube = "plugin.video.youtube"
	// PluginTubed is the Tubed plugin's add-on ID.
	PluginTubed = "plugin.video.tubed"
)

// Info describes one installed add-on.
type Info struct {
	// ID is the add-on identifier, e.g. "plugin.video.youtube".
	ID string `mapstructure:"id" json:"id"`
	// Author is the declared maintainer of the add-on.
	Author string `mapstructure:"author" json:"author"`
}

// Registry looks up installed add-ons by ID.
type Registry interface {
	// Lookup returns the add-on's info and true when it is installed.
	Lookup(id string) (Info, bool)
}

// StaticRegistry is a Registry backed by a fixed list, typically declared
// in configuration or assembled from a host-player inventory at startup.
type StaticRegistry struct {
	byID map[string]Info
}

// NewStaticRegistry builds a registry from the given add-ons.
func NewStaticRegistry(installed []Info) *StaticRegistry {
	byID := make(map[string]Info, len(installed))
	for _, a := range installed {
		byID[a.ID] = a
	}
	return &StaticRegistry{byID: byID}
}

// Lookup implements Registry.
func (r *StaticRegistry) Lookup(id string) (Info, bool) {
	info, ok := r.byID[id]
	return info, ok
}
