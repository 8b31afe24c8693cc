package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Scheduler cycles
	SyncCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_cycles_total",
			Help: "Total scheduler cycles started",
		},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_cycle_duration_seconds",
			Help:    "Duration of one full scheduler cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Ingestion / settlement
	MatchesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_ingested_total",
			Help: "Total match upserts from the provider feed",
		},
	)
	MatchesSettled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_settled_total",
			Help: "Total matches fully settled",
		},
	)
	BetsSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bets_settled_total",
			Help: "Total bets resolved at settlement",
		},
		[]string{"result"}, // win|loss
	)
	ProviderErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Total failed calls to the match data provider",
		},
	)

	// Bet placement
	BetsPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bets_placed_total",
			Help: "Total accepted bets",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(SyncCyclesTotal)
	prometheus.MustRegister(CycleDuration)
	prometheus.MustRegister(MatchesIngested)
	prometheus.MustRegister(MatchesSettled)
	prometheus.MustRegister(BetsSettled)
	prometheus.MustRegister(ProviderErrors)
	prometheus.MustRegister(BetsPlaced)
	prometheus.MustRegister(WorkerQueueDepth)
}
