package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegisterPoolMetrics exposes pgx connection pool statistics as Prometheus
// gauges. Call once per process.
func RegisterPoolMetrics(pool *pgxpool.Pool) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "db_pool_acquired_conns",
		Help: "Connections currently checked out of the pool",
	}, func() float64 { return float64(pool.Stat().AcquiredConns()) })
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "db_pool_idle_conns",
		Help: "Idle connections held by the pool",
	}, func() float64 { return float64(pool.Stat().IdleConns()) })
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "db_pool_max_conns",
		Help: "Configured pool size ceiling",
	}, func() float64 { return float64(pool.Stat().MaxConns()) })
}
