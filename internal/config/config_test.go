package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	// A named but missing file is an error; only the search-path lookup
	// tolerates absence.
	require.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8090", cfg.Server.Address())
	assert.Equal(t, "ytarr.db", cfg.Database.DSN)
	assert.Equal(t, "extract", cfg.Playback.Mode)
	assert.Equal(t, "android.intent.action.VIEW", cfg.Playback.IntentAction)
	assert.Equal(t, "yt-dlp", cfg.Extractor.Binary)
	assert.Equal(t, 60*time.Second, cfg.Extractor.Timeout)
	assert.True(t, cfg.Subtitles.Authored)
	assert.False(t, cfg.Subtitles.Auto)
	assert.Equal(t, "auto-translated", cfg.Subtitles.AutoLabel)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "slyguy", cfg.Addons.OwnAuthor)
	assert.Equal(t, filepath.Join("./data", "manifests"), cfg.Storage.ManifestPath())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("YTARR_SERVER_PORT", "9999")
	t.Setenv("YTARR_PLAYBACK_MODE", "tubed-plugin")
	t.Setenv("YTARR_EXTRACTOR_BINARY", "/usr/local/bin/yt-dlp")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "tubed-plugin", cfg.Playback.Mode)
	assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.Extractor.Binary)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8123
playback:
  mode: intent
  intent_app: com.google.android.youtube
addons:
  own_author: someone
  installed:
    - id: plugin.video.youtube
      author: anxdpanic
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "intent", cfg.Playback.Mode)
	assert.Equal(t, "someone", cfg.Addons.OwnAuthor)
	require.Len(t, cfg.Addons.Installed, 1)
	assert.Equal(t, "plugin.video.youtube", cfg.Addons.Installed[0].ID)
	assert.Equal(t, "anxdpanic", cfg.Addons.Installed[0].Author)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "empty dsn",
			mutate:  func(c *Config) { c.Database.DSN = "" },
			wantErr: "database.dsn",
		},
		{
			name:    "unknown playback mode",
			mutate:  func(c *Config) { c.Playback.Mode = "bogus" },
			wantErr: "playback.mode",
		},
		{
			name:    "unknown fallback mode",
			mutate:  func(c *Config) { c.Playback.FallbackMode = "bogus" },
			wantErr: "playback.fallback_mode",
		},
		{
			name: "fallback equals mode",
			mutate: func(c *Config) {
				c.Playback.Mode = "extract"
				c.Playback.FallbackMode = "extract"
			},
			wantErr: "must differ",
		},
		{
			name: "intent mode without app",
			mutate: func(c *Config) {
				c.Playback.Mode = "intent"
				c.Playback.IntentApp = ""
			},
			wantErr: "intent_app",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "empty extractor binary",
			mutate:  func(c *Config) { c.Extractor.Binary = "" },
			wantErr: "extractor.binary",
		},
		{
			name: "cache enabled without ttl",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.TTL = 0
			},
			wantErr: "cache.ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
