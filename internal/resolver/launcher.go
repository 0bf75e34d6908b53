package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Default intent launch values. The activity manager binary is the
// Android-host convention; other hosts inject their own IntentLauncher.
const (
	DefaultIntentAction = "android.intent.action.VIEW"
	defaultAMBinary     = "am"
)

// IntentLauncher starts an external application via an OS-level intent.
type IntentLauncher interface {
	// Launch is fire-and-forget: a nil error means the intent was
	// dispatched, not that playback succeeded.
	Launch(ctx context.Context, appID, action, uri string) error
}

// ExecLauncher launches intents through the Android activity manager
// ("am start").
type ExecLauncher struct {
	binary string
	logger *slog.Logger
}

// NewExecLauncher creates an ExecLauncher using the default "am" binary.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{binary: defaultAMBinary, logger: slog.Default()}
}

// WithBinary overrides the activity manager binary path.
func (l *ExecLauncher) WithBinary(path string) *ExecLauncher {
	if path != "" {
		l.binary = path
	}
	return l
}

// WithLogger sets the logger.
func (l *ExecLauncher) WithLogger(logger *slog.Logger) *ExecLauncher {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Launch implements IntentLauncher.
func (l *ExecLauncher) Launch(ctx context.Context, appID, action, uri string) error {
	if appID == "" {
		return fmt.Errorf("no intent application configured")
	}

	args := []string{"start", "-a", action, "-d", uri, appID}
	l.logger.DebugContext(ctx, "launching intent",
		slog.String("app", appID),
		slog.String("action", action),
		slog.String("uri", uri),
	)

	if out, err := exec.CommandContext(ctx, l.binary, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("starting activity %s: %w: %s", appID, err, string(out))
	}
	return nil
}
