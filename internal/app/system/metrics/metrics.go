// Package metrics owns the Prometheus registry served at /metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	metricsstore "github.com/volcani/experimenthub/internal/app/store/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
	OutcomePending  = "pending"
	OutcomeStale    = "stale"
	OutcomeLimited  = "rate_limited"
)

// Metrics is the set of counters handlers increment. The zero value is not
// usable; build it with New.
type Metrics struct {
	Registry *prometheus.Registry

	Logins             *prometheus.CounterVec
	Registrations      *prometheus.CounterVec
	ExperimentsCreated prometheus.Counter
	ExperimentSaves    *prometheus.CounterVec
	PasswordResets     *prometheus.CounterVec
}

// New registers the counters plus Go and process collectors on a fresh
// registry. Passing a nil db skips the collection gauges.
func New(db *mongo.Database) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "experimenthub",
			Name:      "logins_total",
			Help:      "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "experimenthub",
			Name:      "registrations_total",
			Help:      "Sign-up attempts by outcome.",
		}, []string{"outcome"}),
		ExperimentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "experimenthub",
			Name:      "experiments_created_total",
			Help:      "Experiments created.",
		}),
		ExperimentSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "experimenthub",
			Name:      "experiment_saves_total",
			Help:      "Experiment saves by outcome.",
		}, []string{"outcome"}),
		PasswordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "experimenthub",
			Name:      "password_resets_total",
			Help:      "Password-reset requests by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.Logins,
		m.Registrations,
		m.ExperimentsCreated,
		m.ExperimentSaves,
		m.PasswordResets,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if db != nil {
		reg.MustRegister(newCountsCollector(db))
	}
	return m
}

// NewNop returns counters on a private registry, for tests.
func NewNop() *Metrics {
	return New(nil)
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Collection gauges, read at scrape time                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type countsCollector struct {
	db        *mongo.Database
	users     *prometheus.Desc
	pending   *prometheus.Desc
	records   *prometheus.Desc
	cooldowns *prometheus.Desc
}

func newCountsCollector(db *mongo.Database) *countsCollector {
	d := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("experimenthub", "", name), help, nil, nil)
	}
	return &countsCollector{
		db:        db,
		users:     d("users", "Registered users."),
		pending:   d("users_pending_approval", "Users waiting for approval."),
		records:   d("experiments", "Stored experiments."),
		cooldowns: d("cooldowns_open", "Open resend cooldown windows."),
	}
}

func (c *countsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.users
	ch <- c.pending
	ch <- c.records
	ch <- c.cooldowns
}

func (c *countsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	n := metricsstore.FetchCounts(ctx, c.db)
	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(n.Users))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(n.PendingUsers))
	ch <- prometheus.MustNewConstMetric(c.records, prometheus.GaugeValue, float64(n.Experiments))
	ch <- prometheus.MustNewConstMetric(c.cooldowns, prometheus.GaugeValue, float64(n.OpenCooldowns))
}
