// Package metrics exposes Prometheus counters for account and activity events.
package metrics

import (
	"net/http"
	"strconv"

	"carbon/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records events into Prometheus metrics.
type Collector struct {
	activities    *prometheus.CounterVec
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carbon_activity_events_total",
			Help: "Footprint events by kind and category.",
		}, []string{"kind", "category"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carbon_registrations_total",
			Help: "Accounts created.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carbon_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carbon_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(c.activities, c.registrations, c.logins, c.httpStatus)
	return c
}

// RecordActivity counts one add, remove or reset.
func (c *Collector) RecordActivity(kind domain.EntryKind, cat domain.Category) {
	c.activities.WithLabelValues(string(kind), string(cat)).Inc()
}

// RecordRegistration counts a new account.
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogin counts a login attempt.
func (c *Collector) RecordLogin(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus counts a response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
