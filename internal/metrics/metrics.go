// Package metrics provides Prometheus instrumentation for valuation runs
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/mtm-engine/internal/contracts"
)

var (
	// RunsTotal counts valuation runs by outcome (ok, error).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtm_runs_total",
		Help: "Total number of valuation runs",
	}, []string{"outcome"})

	// RunDuration tracks pipeline duration.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mtm_run_duration_seconds",
		Help:    "Valuation run duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// ContractsTotal counts valued and not-valued contract rows.
	ContractsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtm_contracts_total",
		Help: "Contract rows processed, by result",
	}, []string{"result"})

	// NotesTotal counts row notes by code.
	NotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtm_notes_total",
		Help: "Row-level notes emitted, by code",
	}, []string{"code"})

	// PriceRowsDropped counts price rows that could not be parsed.
	PriceRowsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mtm_price_rows_dropped_total",
		Help: "Price rows dropped during preprocessing",
	})

	// PortfolioMTM is the total of the last successful run.
	PortfolioMTM = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mtm_portfolio_total",
		Help: "Portfolio MTM of the last successful run",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mtm_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mtm_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Recorder implements valuation.Recorder on the package collectors
type Recorder struct{}

// ObserveRun records one finished run
func (Recorder) ObserveRun(rep *contracts.Report, elapsed time.Duration, err error) {
	RunDuration.Observe(elapsed.Seconds())
	if err != nil || rep == nil {
		RunsTotal.WithLabelValues("error").Inc()
		return
	}

	RunsTotal.WithLabelValues("ok").Inc()
	ContractsTotal.WithLabelValues("valued").Add(float64(rep.ValuedCount))
	ContractsTotal.WithLabelValues("not_valued").Add(float64(rep.SkippedCount))
	PriceRowsDropped.Add(float64(rep.PriceRowsDropped))
	PortfolioMTM.Set(rep.TotalMTM)

	for code, n := range rep.NoteCounts() {
		NotesTotal.WithLabelValues(string(code)).Add(float64(n))
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := routePath(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePath uses the route template to keep label cardinality bounded
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
