// Package metrics exposes the promauto counters/gauges the rest of the
// module feeds, grounded on the teacher's metrics/counters package
// (a flat set of package-level promauto vectors with small guard-clause
// setter functions) and its metrics/server.go promhttp listener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var connectedStations = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ocpp",
	Name:      "connected_stations",
	Help:      "Number of charge points with an active session.",
})

var dispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "ocpp",
	Name:      "dispatch_latency_seconds",
	Help:      "Round-trip latency of outbound commands awaiting a CALLRESULT.",
	Buckets:   prometheus.DefBuckets,
}, []string{"action"})

var dispatchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ocpp",
	Name:      "dispatch_outcomes_total",
	Help:      "Outbound command outcomes by action and result.",
}, []string{"action", "outcome"})

var eventBusLag = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ocpp",
	Name:      "eventbus_dropped_events_total",
	Help:      "Events dropped because a subscriber could not keep up.",
}, []string{"subscriber"})

var inboundErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ocpp",
	Name:      "inbound_errors_total",
	Help:      "CALLERROR responses returned to charge points, by error code.",
}, []string{"code"})

// ObserveConnectedStations updates the connected-stations gauge, meant
// to be fed by internal/session.Registry.Count on every register/
// unregister.
func ObserveConnectedStations(count int) {
	connectedStations.Set(float64(count))
}

// ObserveDispatchLatency records how long an outbound command took to
// resolve, successfully or not.
func ObserveDispatchLatency(action string, seconds float64) {
	dispatchLatency.WithLabelValues(action).Observe(seconds)
}

// CountDispatchOutcome tallies a resolved outbound command by outcome
// ("ok", a dispatch.Kind name such as "Timeout", "Remote", "Disconnected"
// or "Cancelled", or "error" for any other failure).
func CountDispatchOutcome(action, outcome string) {
	dispatchOutcomes.WithLabelValues(action, outcome).Inc()
}

// EventBusLag implements internal/eventbus.LagObserver.
type EventBusLag struct{}

func (EventBusLag) ObserveLag(subscriberID string, dropped int) {
	eventBusLag.WithLabelValues(subscriberID).Add(float64(dropped))
}

// CountInboundError tallies a CALLERROR sent back to a charge point.
func CountInboundError(code string) {
	inboundErrors.WithLabelValues(code).Inc()
}

// Handler returns the promhttp handler to mount at the configured
// metrics path.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Listen starts a dedicated metrics HTTP server, matching the teacher's
// metrics.Listen: a small standalone mux separate from the main OCPP
// websocket listener.
func Listen(addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	return http.ListenAndServe(addr, mux)
}
