package addons

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticRegistry_Lookup(t *testing.T) {
	registry := NewStaticRegistry([]Info{
		{ID: PluginYouTube, Author: "anxdpanic"},
		{ID: PluginTubed, Author: "slyguy"},
	})

	info, ok := registry.Lookup(PluginYouTube)
	assert.True(t, ok)
	assert.Equal(t, "anxdpanic", info.Author)

	_, ok = registry.Lookup("plugin.video.other")
	assert.False(t, ok)
}

func TestStaticRegistry_Empty(t *testing.T) {
	registry := NewStaticRegistry(nil)

	_, ok := registry.Lookup(PluginYouTube)
	assert.False(t, ok)
}
