package shop

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cartkeeper/internal/catalog"
	"cartkeeper/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
	AdminToken     string
}

const (
	loginLimitPerMin    = 10
	registerLimitPerMin = 5
	limitWindow         = time.Minute
)

// NewHandler assembles the full route surface: auth, catalog, the
// session-guarded cart/order routes and the token-guarded admin
// surface.
func NewHandler(s *Server, cat *catalog.Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.Registry != nil {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

		if deps.MetricsEnabled {
			r.With(kit.RequireBearer(deps.MetricsToken)).Handle(
				"/metrics",
				promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
			)
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)

	r.Route("/auth", func(rr chi.Router) {
		rr.With(registerLimiter.Middleware).Post("/register", s.handleRegister)
		rr.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
		rr.Post("/logout", s.handleLogout)
	})

	r.Mount("/", cat.Routes())

	r.Group(func(pr chi.Router) {
		pr.Use(s.RequireSession)

		pr.Get("/cart", s.handleGetCart)
		pr.Post("/cart", s.handleAddToCart)
		pr.Put("/cart", s.handleUpdateCartItem)
		pr.Delete("/cart/{id}", s.handleRemoveFromCart)
		pr.Delete("/cart", s.handleClearCart)

		pr.Post("/orders", s.handleCheckout)
		pr.Get("/orders", s.handleListOrders)
		pr.Get("/orders/{id}", s.handleGetOrder)
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(kit.RequireBearer(deps.AdminToken))

		ar.Get("/stats", s.handleStats)
		ar.Get("/export", s.handleExport)
		ar.Post("/backup", s.handleBackup)
		ar.Post("/restore", s.handleRestore)
		ar.Post("/clear", s.handleClearAll)
	})

	return r
}
