package resolver

import (
	"fmt"
	"strings"

	"github.com/ytarr/ytarr/internal/addons"
	"github.com/ytarr/ytarr/internal/models"
)

// RedirectGuard rejects playback delegations that would loop back into an
// equivalent add-on. A sibling plugin maintained by our own author is
// assumed to redirect playback right back here; anyone else's plugin is a
// distinct, presumably terminal, player.
type RedirectGuard struct {
	registry  addons.Registry
	ownAuthor string
}

// NewRedirectGuard creates a guard for the given add-on registry and our
// declared maintainer name.
func NewRedirectGuard(registry addons.Registry, ownAuthor string) *RedirectGuard {
	return &RedirectGuard{registry: registry, ownAuthor: ownAuthor}
}

// AssertSafe returns ErrRedirectLoop when the target add-on is installed
// and self-identifies as authored by the same maintainer as us. Absent or
// differently-authored add-ons pass silently.
func (g *RedirectGuard) AssertSafe(addonID string) error {
	info, installed := g.registry.Lookup(addonID)
	if !installed {
		return nil
	}
	if strings.EqualFold(info.Author, g.ownAuthor) {
		return fmt.Errorf("add-on %s: %w", addonID, models.ErrRedirectLoop)
	}
	return nil
}
