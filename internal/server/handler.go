// internal/server/handler.go
//
// Autoconfig HTTP surface.
//
// Context
// -------
// Mail clients ask for their settings with
//
//	GET /mail/config-v1.1.xml?emailaddress=alice@example.com
//	GET /.well-known/autoconfig/mail/config-v1.1.xml?emailaddress=…
//
// The handler takes the current snapshot from the Store, resolves the
// identity against it, and renders a clientConfig document.  Rendered
// bytes are cached per (generation, address).  The first request that
// sees a newer generation purges the cache, so a reload never serves a
// stale document and old entries do not linger.
//
// Status mapping
// --------------
//   - unknown domain or user          → 404 “No such configuration”
//   - unresolved or cyclic reference  → 500, logged with the token
//   - nothing loaded yet              → 503
//
// Notes
// -----
//   - /healthz answers 200 once a snapshot exists, 503 before.
//   - /metrics is the Prometheus handler on the global registry.
//   - Oxford commas, two spaces after periods.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/autoconfig/internal/autoconfig"
	"github.com/yanizio/autoconfig/internal/cache"
	"github.com/yanizio/autoconfig/internal/identity"
	"github.com/yanizio/autoconfig/internal/layer"
	"github.com/yanizio/autoconfig/internal/metrics"
	"github.com/yanizio/autoconfig/internal/middleware"
	"github.com/yanizio/autoconfig/internal/render"
	"github.com/yanizio/autoconfig/internal/requestinfo"
	"github.com/yanizio/autoconfig/internal/resolve"
	"github.com/yanizio/autoconfig/internal/source"
)

// Route paths.
const (
	PathConfig     = "/mail/config-v1.1.xml"
	PathWellKnown  = "/.well-known/autoconfig/mail/config-v1.1.xml"
	PathHealth     = "/healthz"
	PathMetrics    = "/metrics"
	QueryAddress   = "emailaddress"
	NotFoundBody   = "No such configuration"
	unavailableMsg = "configuration not loaded"
)

// Snapshotter is the part of source.Store the handler needs.
type Snapshotter interface {
	Current() (*source.Snapshot, error)
}

type cacheKey struct {
	gen  uint64
	addr string
}

// Handler serves autoconfig documents.
type Handler struct {
	store Snapshotter
	docs  *cache.LRU[cacheKey, []byte] // nil when caching is off
	log   *zap.SugaredLogger

	cachedGen atomic.Uint64 // generation the cache last saw
}

// NewHandler wires a Handler.  cacheSize 0 disables the document cache.
func NewHandler(store Snapshotter, cacheSize int, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.S()
	}
	h := &Handler{store: store, log: log}
	if cacheSize > 0 {
		h.docs = cache.New[cacheKey, []byte](cacheSize)
	}
	return h
}

// Options toggles router-level behaviour.
type Options struct {
	ForceHTTPS bool
}

// Router returns the chi mux with the full middleware chain.
func Router(h *Handler, opt Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.AccessLog(h.log))
	r.Use(middleware.Security)
	r.Use(middleware.ForceHTTPS(opt.ForceHTTPS))

	r.Get(PathConfig, h.ServeConfig)
	r.Get(PathWellKnown, h.ServeConfig)
	r.Get(PathHealth, h.ServeHealth)
	r.Method(http.MethodGet, PathMetrics, promhttp.Handler())

	return r
}

// ServeConfig answers one autoconfig request.
func (h *Handler) ServeConfig(w http.ResponseWriter, r *http.Request) {
	metrics.RequestsTotal.WithLabelValues(requestinfo.ClientLabel(r.Context())).Inc()

	snap, err := h.store.Current()
	if err != nil {
		http.Error(w, unavailableMsg, http.StatusServiceUnavailable)
		return
	}

	addr := r.URL.Query().Get(QueryAddress)
	if id := identity.Parse(addr); !id.Valid() {
		h.log.Debugw("malformed address", "emailaddress", addr)
	}
	key := cacheKey{gen: snap.Generation, addr: addr}

	if h.docs != nil {
		h.dropStale(snap.Generation)
		if doc, ok := h.docs.Get(key); ok {
			metrics.RenderCacheTotal.WithLabelValues("hit").Inc()
			metrics.ResolutionsTotal.WithLabelValues("ok").Inc()
			writeXML(w, doc)
			return
		}
		metrics.RenderCacheTotal.WithLabelValues("miss").Inc()
	}

	doc, err := h.build(snap, addr)
	if err != nil {
		h.fail(w, addr, err)
		return
	}
	if h.docs != nil {
		h.docs.Add(key, doc)
	}
	metrics.ResolutionsTotal.WithLabelValues("ok").Inc()
	writeXML(w, doc)
}

// dropStale empties the cache the first time a newer generation is seen.
func (h *Handler) dropStale(gen uint64) {
	prev := h.cachedGen.Load()
	if gen > prev && h.cachedGen.CompareAndSwap(prev, gen) {
		h.docs.Purge()
		h.log.Debugw("document cache purged", "generation", gen)
	}
}

// ServeHealth reports whether a configuration is loaded.
func (h *Handler) ServeHealth(w http.ResponseWriter, _ *http.Request) {
	snap, err := h.store.Current()
	if err != nil {
		http.Error(w, unavailableMsg, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Config-Generation", strconv.FormatUint(snap.Generation, 10))
	_, _ = w.Write([]byte("ok\n"))
}

func (h *Handler) build(snap *source.Snapshot, addr string) ([]byte, error) {
	start := time.Now()
	ctx, err := autoconfig.Resolve(snap.Raw, addr)
	metrics.ResolveSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return render.XML(ctx)
}

func (h *Handler) fail(w http.ResponseWriter, addr string, err error) {
	oc := Outcome(err)
	metrics.ResolutionsTotal.WithLabelValues(oc).Inc()

	if oc == "not_found" {
		http.Error(w, NotFoundBody, http.StatusNotFound)
		return
	}
	h.log.Errorw("resolve failed", "emailaddress", addr, "outcome", oc, "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Outcome classifies a resolution error for metrics and logs.
func Outcome(err error) string {
	var (
		unresolved *resolve.UnresolvedReferenceError
		cyclic     *resolve.CyclicReferenceError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, layer.ErrNotFound):
		return "not_found"
	case errors.As(err, &unresolved):
		return "unresolved"
	case errors.As(err, &cyclic):
		return "cyclic"
	default:
		return "error"
	}
}

func writeXML(w http.ResponseWriter, doc []byte) {
	w.Header().Set("Content-Type", render.ContentType+"; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(doc)
}
