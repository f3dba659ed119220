// Package api is the demo ERP REST backend the dashboard talks to. It serves
// the fixture catalog through the same list engine the dashboard uses.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/erpdesk/erp"
	"github.com/jmcleod/erpdesk/internal/obs"
	"github.com/jmcleod/erpdesk/storage"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	catalog        *erp.Catalog
	logger         *slog.Logger
	now            func() time.Time
	rateLimiter    *loginRateLimiter
	audit          *auditLogger
	alerts         *metricsCollector
	metrics        *obs.Metrics
	auditStore     *auditStore
	throttle       *requestThrottle
	throttleRate   float64
	throttleBurst  int
	trustedProxies []netip.Prefix
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for request and audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithMetrics registers the Prometheus collectors the handlers update. The
// /metrics route is only served when set.
func WithMetrics(m *obs.Metrics) Option {
	return func(a *API) {
		a.metrics = m
	}
}

// WithAlertFunc installs a callback for login failure and access denied
// spikes.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.alerts = newMetricsCollector(fn)
	}
}

// WithAuditStore persists audit entries to store so they survive restarts.
func WithAuditStore(store storage.Store) Option {
	return func(a *API) {
		a.auditStore = newAuditStore(store)
	}
}

// WithClock overrides the time source used for rate limiting and audit
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.now = now
	}
}

// WithRequestRateLimit limits each signed-in user to perSecond requests
// with bursts up to burst. A non-positive rate disables the limit.
func WithRequestRateLimit(perSecond float64, burst int) Option {
	return func(a *API) {
		a.throttleRate, a.throttleBurst = perSecond, burst
	}
}

// WithTrustedProxies lists the proxy networks whose forwarding headers are
// believed when recording the caller's address.
func WithTrustedProxies(prefixes ...netip.Prefix) Option {
	return func(a *API) {
		a.trustedProxies = append(a.trustedProxies, prefixes...)
	}
}

// New creates a new API instance serving catalog.
func New(catalog *erp.Catalog, opts ...Option) *API {
	a := &API{
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	a.rateLimiter = newLoginRateLimiter(a.now)
	if a.throttleRate > 0 {
		a.throttle = newRequestThrottle(a.throttleRate, a.throttleBurst, a.now)
	}
	if a.alerts != nil {
		a.alerts.now = a.now
	}
	a.audit = newAuditLogger(a.logger, a.now)
	a.logger = a.logger.With("component", "api")
	a.audit.metrics = a.alerts
	a.audit.catalog = catalog
	a.audit.store = a.auditStore
	a.audit.trustedProxies = a.trustedProxies
	return a
}

// Router returns a chi.Router with all API routes. It is mounted at /api/v1.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Post("/auth/login", a.Login)

	r.Group(func(r chi.Router) {
		r.Use(a.RequireUser)
		r.Use(a.Throttle)
		r.Get("/me", a.Me)
		r.Get("/inventory", a.ListInventory)
		r.Get("/purchase-orders", a.ListPurchaseOrders)
		r.Get("/roles", a.ListRoles)
		r.Get("/audit-logs", a.ListAuditLogs)
		r.Get("/translations", a.ListTranslations)
		r.Get("/menus", a.ListMenus)
	})

	return r
}

// Handler returns the complete server handler: health, metrics and the API
// under /api/v1, wrapped in the shared middleware chain.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if a.metrics != nil {
		r.Use(a.metrics.Instrument)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope[map[string]string]{
			Success: true,
			Data:    map[string]string{"status": "ok"},
		})
	})
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}
	r.Mount("/api/v1", a.Router())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// Sweep drops expired rate limiter records and idle request throttles. Call
// it periodically from the server loop.
func (a *API) Sweep() {
	a.rateLimiter.sweep()
	if a.throttle != nil {
		a.throttle.sweep()
	}
}
