package store

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics exposes entity counts as gauges on reg. The gauges
// read live store state on every scrape.
func (s *Store) RegisterMetrics(reg *prometheus.Registry) {
	gauge := func(name, help string, value func(Stats) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help},
			func() float64 { return value(s.Stats()) },
		)
	}

	reg.MustRegister(
		gauge("store_users_total", "Registered users", func(st Stats) float64 {
			return float64(st.TotalUsers)
		}),
		gauge("store_sessions_active", "Active sessions", func(st Stats) float64 {
			return float64(st.ActiveSessions)
		}),
		gauge("store_carts_total", "Carts, including empty ones", func(st Stats) float64 {
			return float64(st.TotalCarts)
		}),
		gauge("store_orders_total", "Placed orders", func(st Stats) float64 {
			return float64(st.TotalOrders)
		}),
		gauge("store_revenue_total", "Sum of all order totals", func(st Stats) float64 {
			return st.TotalRevenue
		}),
	)
}
