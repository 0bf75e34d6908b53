package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ytarr/ytarr/internal/addons"
	"github.com/ytarr/ytarr/internal/extractor"
	"github.com/ytarr/ytarr/internal/manifest"
	"github.com/ytarr/ytarr/internal/models"
	"github.com/ytarr/ytarr/internal/resolver"
)

var resolveMode string

// resolveCmd resolves a single video ID without starting the server. The
// extraction cache is skipped; one-shot invocations talk to yt-dlp directly.
var resolveCmd = &cobra.Command{
	Use:   "resolve <video-id>",
	Short: "Resolve a video ID into a playable item",
	Long: `Resolve a YouTube video ID into a playable item and print it as JSON.

In extract mode the synthesized DASH manifest is staged under the configured
data directory and the printed item points at it.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveMode, "mode", "", "playback mode override (intent, youtube-plugin, tubed-plugin, extract)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	ext := extractor.NewYTDLP().
		WithBinary(cfg.Extractor.Binary).
		WithCookies(cfg.Extractor.Cookies).
		WithCacheDir(cfg.Extractor.CacheDir).
		WithTimeout(cfg.Extractor.Timeout).
		WithLogger(logger)

	store, err := manifest.NewStore(afero.NewOsFs(), cfg.Storage.ManifestPath())
	if err != nil {
		return fmt.Errorf("initializing manifest store: %w", err)
	}

	synth := manifest.NewSynthesizer().
		WithSubtitles(cfg.Subtitles.Authored).
		WithAutoSubtitles(cfg.Subtitles.Auto).
		WithAutoSubtitleLabel(cfg.Subtitles.AutoLabel).
		WithLogger(logger)

	installed := make([]addons.Info, 0, len(cfg.Addons.Installed))
	for _, a := range cfg.Addons.Installed {
		installed = append(installed, addons.Info{ID: a.ID, Author: a.Author})
	}
	guard := resolver.NewRedirectGuard(addons.NewStaticRegistry(installed), cfg.Addons.OwnAuthor)

	res := resolver.New(ext, synth, store, guard).
		WithModes(models.PlaybackMode(cfg.Playback.Mode), models.PlaybackMode(cfg.Playback.FallbackMode)).
		WithIntent(cfg.Playback.IntentApp, cfg.Playback.IntentAction).
		WithLogger(logger)

	mode, err := models.ParsePlaybackMode(resolveMode)
	if err != nil {
		return err
	}

	item, err := res.Resolve(cmd.Context(), args[0], mode)
	if err != nil {
		return fmt.Errorf("resolving video %s: %w", args[0], err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(item); err != nil {
		return fmt.Errorf("encoding playable item: %w", err)
	}
	return nil
}
