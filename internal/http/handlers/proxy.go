package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hongminglow/cinevault-be/internal/http/respond"
	"github.com/hongminglow/cinevault-be/internal/metrics"
	"github.com/hongminglow/cinevault-be/internal/omdb"
)

// Upstream fetches from the external metadata API.
type Upstream interface {
	Fetch(ctx context.Context, query url.Values) (omdb.Response, error)
}

// ProxyHandler gates the metadata passthrough behind a valid session.
type ProxyHandler struct {
	sessions SessionIdentifier
	upstream Upstream
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewProxyHandler constructs the handler.
func NewProxyHandler(sessions SessionIdentifier, upstream Upstream, logger *slog.Logger, m *metrics.Metrics) *ProxyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyHandler{sessions: sessions, upstream: upstream, logger: logger, metrics: m}
}

// Register mounts the proxy at /proxy-search and at /omdb, the path the
// browser client calls.
func (h *ProxyHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/proxy-search", h.handle)
	mux.HandleFunc("/omdb", h.handle)
}

func (h *ProxyHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, ok := identify(h.sessions, r)
	if !ok {
		h.metrics.Proxy("denied")
		respondUpstreamError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	resp, err := h.upstream.Fetch(r.Context(), r.URL.Query())
	if err != nil {
		h.metrics.Proxy("upstream_error")
		h.logger.WarnContext(r.Context(), "omdb request failed", "user_id", user.ID, "error", err)
		respondUpstreamError(w, http.StatusBadGateway, "OMDB request failed")
		return
	}

	h.metrics.Proxy("forwarded")
	respond.Raw(w, http.StatusOK, resp.Body)
}
