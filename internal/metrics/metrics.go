package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/BitTrader/internal/model"
)

// Recorder exposes the trading loop through Prometheus
type Recorder struct {
	cycles        *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	confidence    *prometheus.GaugeVec
	lastPrice     *prometheus.GaugeVec
	orders        *prometheus.CounterVec
	aiErrors      prometheus.Counter
	cycleDuration prometheus.Histogram
}

// New registers the trader metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bittrader_cycles_total",
				Help: "Trading cycles by outcome",
			},
			[]string{"result"},
		),
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bittrader_decisions_total",
				Help: "Final decisions by direction",
			},
			[]string{"symbol", "direction"},
		),
		confidence: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bittrader_decision_confidence",
				Help: "Confidence of the last final decision",
			},
			[]string{"symbol"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bittrader_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		orders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bittrader_orders_total",
				Help: "Orders placed or simulated",
			},
			[]string{"symbol", "side", "mode"},
		),
		aiErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bittrader_ai_errors_total",
				Help: "AI opinions that failed, timed out or were rejected",
			},
		),
		cycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bittrader_cycle_duration_seconds",
				Help:    "Duration of trading cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordCycle records a finished cycle
func (r *Recorder) RecordCycle(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.cycles.WithLabelValues(result).Inc()
	r.cycleDuration.Observe(d.Seconds())
}

// RecordDecision records the final decision of a cycle
func (r *Recorder) RecordDecision(d model.Decision) {
	r.decisions.WithLabelValues(d.Symbol, string(d.Direction)).Inc()
	r.confidence.WithLabelValues(d.Symbol).Set(d.Confidence)
	if d.CurrentPrice > 0 {
		r.lastPrice.WithLabelValues(d.Symbol).Set(d.CurrentPrice)
	}
	if d.AIError != "" {
		r.aiErrors.Inc()
	}
}

// RecordOrder records a placed or simulated order
func (r *Recorder) RecordOrder(t model.TradeRecord) {
	mode := "live"
	if t.DryRun {
		mode = "dry_run"
	}
	r.orders.WithLabelValues(t.Symbol, string(t.Side), mode).Inc()
}

// Serve exposes /metrics on addr in the background
func Serve(addr string, gatherer prometheus.Gatherer) *http.Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	return srv
}
