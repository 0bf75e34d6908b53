package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ytarr/ytarr/internal/manifest"
	"github.com/ytarr/ytarr/internal/observability"
)

// ManifestHandler serves staged DASH manifests over plain HTTP. It bypasses
// the API layer because the payload is an XML file, not a JSON resource.
type ManifestHandler struct {
	store *manifest.Store
}

// NewManifestHandler creates a new manifest handler.
func NewManifestHandler(store *manifest.Store) *ManifestHandler {
	return &ManifestHandler{store: store}
}

// Register registers the manifest route with the router.
func (h *ManifestHandler) Register(router chi.Router) {
	router.Get("/manifests/{name}", h.Get)
}

// Get streams a staged manifest by file name. Log records go through the
// request-scoped logger so they carry the request ID set by the middleware.
func (h *ManifestHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	logger := observability.LoggerFromContext(r.Context())

	f, err := h.store.Open(name)
	if err != nil {
		logger.DebugContext(r.Context(), "manifest not served",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "manifest not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/dash+xml")
	if _, err := io.Copy(w, f); err != nil {
		logger.WarnContext(r.Context(), "writing manifest response",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}
