package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mealvote"

// Recorder owns the service collectors. A nil *Recorder is valid and records nothing,
// so services can be constructed without metrics in tests and tooling.
type Recorder struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	votesCast      *prometheus.CounterVec
	suggestionVote *prometheus.CounterVec
	adjustments    prometheus.Counter
	denials        *prometheus.CounterVec
	degradedReads  *prometheus.CounterVec
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		votesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Meal votes accepted by the ledger, by outcome",
		}, []string{"outcome"}),
		suggestionVote: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_votes_total",
			Help:      "Suggestion vote attempts, by result",
		}, []string{"result"}),
		adjustments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_adjustments_total",
			Help:      "External adjustments recorded",
		}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_denials_total",
			Help:      "Requests denied by a capability or role guard",
		}, []string{"gate"}),
		degradedReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_reads_total",
			Help:      "Read endpoints answered with a degraded payload",
		}, []string{"endpoint"}),
	}

	if reg != nil {
		reg.MustRegister(
			r.httpRequests,
			r.httpDuration,
			r.votesCast,
			r.suggestionVote,
			r.adjustments,
			r.denials,
			r.degradedReads,
		)
	}

	return r
}

// Handler exposes the gathered metrics in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// VoteCast counts a ledger write ("created" or "updated").
func (r *Recorder) VoteCast(outcome string) {
	if r == nil {
		return
	}
	r.votesCast.WithLabelValues(outcome).Inc()
}

// SuggestionVote counts a suggestion vote attempt ("recorded" or "already_voted").
func (r *Recorder) SuggestionVote(result string) {
	if r == nil {
		return
	}
	r.suggestionVote.WithLabelValues(result).Inc()
}

// AdjustmentAdded counts a stored external adjustment.
func (r *Recorder) AdjustmentAdded() {
	if r == nil {
		return
	}
	r.adjustments.Inc()
}

// Denied counts a guard rejection.
func (r *Recorder) Denied(gate string) {
	if r == nil {
		return
	}
	r.denials.WithLabelValues(gate).Inc()
}

// DegradedRead counts a read served with zeroed data because storage failed.
func (r *Recorder) DegradedRead(endpoint string) {
	if r == nil {
		return
	}
	r.degradedReads.WithLabelValues(endpoint).Inc()
}

// Middleware records request counts and latency keyed on the chi route pattern,
// keeping label cardinality bounded for paths with ids.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
