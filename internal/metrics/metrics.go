// Package metrics exports event bus measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/gamebus/internal/event"
	"github.com/dshills/gamebus/internal/event/catalog"
)

const namespace = "gamebus"

// Observer implements event.Observer with Prometheus collectors.
// Label cardinality is bounded by the number of declared kinds.
type Observer struct {
	publishes   *prometheus.CounterVec
	matched     *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	mismatches  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	subscribers prometheus.Gauge
	entities    prometheus.Gauge
}

var _ event.Observer = (*Observer)(nil)

// New creates an unregistered observer.
func New() *Observer {
	return &Observer{
		publishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "publishes_total",
				Help:      "Total number of publishes per event kind",
			},
			[]string{"kind"},
		),
		matched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "candidates_total",
				Help:      "Subscriptions considered per event kind, before receiver filtering",
			},
			[]string{"kind"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "deliveries_total",
				Help:      "Handler invocations per event kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		mismatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "mismatches_total",
				Help:      "Subscriptions skipped by receiver filtering per event kind",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "handler_duration_seconds",
				Help:      "Duration of event handlers in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"kind"},
		),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "subscriptions",
			Help:      "Registered subscriptions",
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scene",
			Name:      "entities",
			Help:      "Live entities in the scene",
		}),
	}
}

// Register registers every collector with reg.
func (o *Observer) Register(reg prometheus.Registerer) error {
	for _, c := range o.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (o *Observer) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(o.collectors()...)
}

func (o *Observer) collectors() []prometheus.Collector {
	return []prometheus.Collector{o.publishes, o.matched, o.deliveries, o.mismatches, o.duration, o.subscribers, o.entities}
}

// ObservePublish implements event.Observer.
func (o *Observer) ObservePublish(kind catalog.Kind, subscribers int) {
	k := kind.String()
	o.publishes.WithLabelValues(k).Inc()
	o.matched.WithLabelValues(k).Add(float64(subscribers))
}

// ObserveDelivery implements event.Observer.
func (o *Observer) ObserveDelivery(kind catalog.Kind, outcome event.Outcome, took time.Duration) {
	k := kind.String()
	o.deliveries.WithLabelValues(k, outcome.String()).Inc()
	o.duration.WithLabelValues(k).Observe(took.Seconds())
}

// ObserveMismatch implements event.Observer.
func (o *Observer) ObserveMismatch(kind catalog.Kind) {
	o.mismatches.WithLabelValues(kind.String()).Inc()
}

// SetSubscriptions records the current subscription count.
func (o *Observer) SetSubscriptions(n int) {
	o.subscribers.Set(float64(n))
}

// SetEntities records the current live entity count.
func (o *Observer) SetEntities(n int) {
	o.entities.Set(float64(n))
}

// Handler returns an HTTP handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
