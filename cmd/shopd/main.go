package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"cartkeeper/internal/catalog"
	"cartkeeper/internal/shop"
	"cartkeeper/internal/store"
	"cartkeeper/pkg/kit"
)

func main() {
	_ = godotenv.Load()

	service := "shopd"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8080")
	dataFile := getenv("DATA_FILE", "shopping_data.json")
	catalogFile := getenv("CATALOG_FILE", "")
	adminToken := getenv("ADMIN_TOKEN", "")
	metricsToken := getenv("METRICS_TOKEN", "")
	metricsEnabled := getenv("METRICS_ENABLED", "true") == "true"
	autoRegister := getenv("AUTH_AUTO_REGISTER", "true") == "true"

	cat := loadCatalog(catalogFile, log)

	st := store.Open(dataFile, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	st.RegisterMetrics(registry)

	svc := &shop.Service{
		Store:        st,
		Catalog:      cat,
		Log:          log,
		AutoRegister: autoRegister,
	}

	h := shop.NewHandler(
		&shop.Server{Svc: svc, Log: log},
		&catalog.Server{Store: cat, Log: log},
		shop.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       registry,
			MetricsEnabled: metricsEnabled,
			MetricsToken:   metricsToken,
			AdminToken:     adminToken,
		},
	)

	// st.Close runs on every exit path and performs the final save.
	if err := kit.RunHTTPServer(":"+port, h, log, st.Close); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func loadCatalog(path string, log *zap.Logger) *catalog.Store {
	if path == "" {
		return catalog.NewStore()
	}

	cat, err := catalog.Load(path)
	if err != nil {
		log.Warn("catalog file unusable, using built-in seed", zap.String("file", path), zap.Error(err))
		return catalog.NewStore()
	}

	log.Info("catalog loaded", zap.String("file", path))
	return cat
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
