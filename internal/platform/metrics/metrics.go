package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "evote"

// Metrics holds the Prometheus collectors of the vote path.
type Metrics struct {
	VotesCast      prometheus.Counter
	VotesRejected  *prometheus.CounterVec
	LedgerRetries  prometheus.Counter
	CastDuration   prometheus.Histogram
	ResultsLookups *prometheus.CounterVec
	Finalized      prometheus.Counter
	VotersCreated  prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg
// creates unregistered collectors, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VotesCast: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Total number of votes recorded in the ledger",
		}),
		VotesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_rejected_total",
			Help:      "Total number of rejected cast-vote requests by reason",
		}, []string{"reason"}),
		LedgerRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_retries_total",
			Help:      "Total number of retried ledger transactions after transient failures",
		}),
		CastDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cast_vote_duration_seconds",
			Help:      "Latency of cast-vote calls",
			Buckets:   prometheus.DefBuckets,
		}),
		ResultsLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_lookups_total",
			Help:      "Results lookups by cache outcome",
		}, []string{"cache"}),
		Finalized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elections_finalized_total",
			Help:      "Total number of completed elections whose result was persisted",
		}),
		VotersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voters_registered_total",
			Help:      "Total number of registered voters",
		}),
	}
}

func (m *Metrics) IncVotesCast() {
	m.VotesCast.Inc()
}

func (m *Metrics) IncRejected(reason string) {
	m.VotesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncLedgerRetries() {
	m.LedgerRetries.Inc()
}

func (m *Metrics) ObserveCast(seconds float64) {
	m.CastDuration.Observe(seconds)
}

func (m *Metrics) IncResultsLookup(hit bool) {
	if hit {
		m.ResultsLookups.WithLabelValues("hit").Inc()
		return
	}
	m.ResultsLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) IncFinalized() {
	m.Finalized.Inc()
}

func (m *Metrics) IncVotersCreated() {
	m.VotersCreated.Inc()
}
