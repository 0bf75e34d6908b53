package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ytarr/ytarr/internal/addons"
	"github.com/ytarr/ytarr/internal/config"
	"github.com/ytarr/ytarr/internal/extractor"
	internalhttp "github.com/ytarr/ytarr/internal/http"
	"github.com/ytarr/ytarr/internal/http/handlers"
	"github.com/ytarr/ytarr/internal/manifest"
	"github.com/ytarr/ytarr/internal/models"
	"github.com/ytarr/ytarr/internal/observability"
	"github.com/ytarr/ytarr/internal/repository"
	"github.com/ytarr/ytarr/internal/resolver"
	"github.com/ytarr/ytarr/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ytarr server",
	Long: `Start the ytarr HTTP server and API.

The server provides:
- REST API for resolving video IDs into playable items
- Staged DASH manifest serving at /manifests/{name}
- Health check endpoint
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server flags. These are not merged at config load time; explicitly set
	// flags override the loaded config in applyServeFlagOverrides.
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8090, "Port to listen on")
	serveCmd.Flags().String("database", "ytarr.db", "Extraction cache database file path")
	serveCmd.Flags().String("data-dir", "data", "Data directory for staged manifests")
}

// applyServeFlagOverrides copies explicitly set serve flags onto the loaded
// configuration. Only flags the user passed win; flag defaults must not
// shadow env or config file values.
func applyServeFlagOverrides(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("database") {
		cfg.Database.DSN, _ = flags.GetString("database")
	}
	if flags.Changed("data-dir") {
		cfg.Storage.BaseDir, _ = flags.GetString("data-dir")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	applyServeFlagOverrides(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// Build the extraction chain. The caching decorator only joins it when
	// the cache is enabled.
	var ext extractor.Extractor = extractor.NewYTDLP().
		WithBinary(cfg.Extractor.Binary).
		WithCookies(cfg.Extractor.Cookies).
		WithCacheDir(cfg.Extractor.CacheDir).
		WithTimeout(cfg.Extractor.Timeout).
		WithLogger(observability.WithComponent(logger, "extractor"))

	var db *gorm.DB
	var cacheRepo repository.ExtractionCacheRepository
	if cfg.Cache.Enabled {
		var err error
		db, err = initDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("initializing extraction cache database: %w", err)
		}
		if err := db.AutoMigrate(&models.ExtractionCacheEntry{}); err != nil {
			return fmt.Errorf("migrating extraction cache schema: %w", err)
		}
		cacheRepo = repository.NewExtractionCacheRepository(db)
		ext = extractor.NewCaching(ext, cacheRepo).
			WithTTL(cfg.Cache.TTL).
			WithLogger(observability.WithComponent(logger, "cache"))
	}

	store, err := manifest.NewStore(afero.NewOsFs(), cfg.Storage.ManifestPath())
	if err != nil {
		return fmt.Errorf("initializing manifest store: %w", err)
	}

	synth := manifest.NewSynthesizer().
		WithSubtitles(cfg.Subtitles.Authored).
		WithAutoSubtitles(cfg.Subtitles.Auto).
		WithAutoSubtitleLabel(cfg.Subtitles.AutoLabel).
		WithLogger(observability.WithComponent(logger, "manifest"))

	installed := make([]addons.Info, 0, len(cfg.Addons.Installed))
	for _, a := range cfg.Addons.Installed {
		installed = append(installed, addons.Info{ID: a.ID, Author: a.Author})
	}
	guard := resolver.NewRedirectGuard(addons.NewStaticRegistry(installed), cfg.Addons.OwnAuthor)

	res := resolver.New(ext, synth, store, guard).
		WithModes(models.PlaybackMode(cfg.Playback.Mode), models.PlaybackMode(cfg.Playback.FallbackMode)).
		WithIntent(cfg.Playback.IntentApp, cfg.Playback.IntentAction).
		WithLogger(observability.WithComponent(logger, "resolver"))

	// Scheduled maintenance: prune stale manifests and expired cache rows.
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.Storage.PruneCron, func() {
		removed, err := store.Prune(cfg.Storage.ManifestMaxAge)
		if err != nil {
			logger.Warn("pruning staged manifests", slog.String("error", err.Error()))
			return
		}
		if removed > 0 {
			logger.Info("pruned staged manifests", slog.Int("removed", removed))
		}
	}); err != nil {
		return fmt.Errorf("scheduling manifest prune: %w", err)
	}
	if cacheRepo != nil {
		if _, err := scheduler.AddFunc(cfg.Cache.PruneCron, func() {
			removed, err := cacheRepo.Prune(context.Background())
			if err != nil {
				logger.Warn("pruning extraction cache", slog.String("error", err.Error()))
				return
			}
			if removed > 0 {
				logger.Info("pruned extraction cache", slog.Int64("removed", removed))
			}
		}); err != nil {
			return fmt.Errorf("scheduling cache prune: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	serverConfig := internalhttp.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout
	serverConfig.WriteTimeout = cfg.Server.WriteTimeout
	serverConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	server := internalhttp.NewServer(serverConfig, observability.WithComponent(logger, "http"), version.Version)

	// Register handlers
	healthHandler := handlers.NewHealthHandler(version.Version).WithDB(db)
	healthHandler.Register(server.API())

	resolveHandler := handlers.NewResolveHandler(res, observability.WithComponent(logger, "http"))
	resolveHandler.Register(server.API())

	manifestHandler := handlers.NewManifestHandler(store)
	manifestHandler.Register(server.Router())

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting ytarr server",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.String("mode", cfg.Playback.Mode),
		slog.String("version", version.Version),
	)

	return server.ListenAndServe(ctx)
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
