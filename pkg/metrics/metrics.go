package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Suggestion source labels.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// AppMetrics records application-level counters for coordination flows.
type AppMetrics struct {
	suggestions   *prometheus.CounterVec
	searchLatency *prometheus.HistogramVec
	votesCast     prometheus.Counter
	pollsClosed   prometheus.Counter
	partiesJoined prometheus.Counter
}

// NewAppMetrics registers the application metrics on the provided registerer.
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	if reg == nil {
		return &AppMetrics{}
	}
	suggestions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "suggestions_served",
		Help: "Location suggestions served, by source.",
	}, []string{"source"})
	searchLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "place_search_duration_seconds",
		Help:    "Duration of upstream place searches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	votesCast := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poll_votes_cast",
		Help: "Votes cast or replaced across all polls.",
	})
	pollsClosed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "polls_closed",
		Help: "Polls moved to the closed state.",
	})
	partiesJoined := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "party_joins",
		Help: "Successful party joins.",
	})
	reg.MustRegister(suggestions, searchLatency, votesCast, pollsClosed, partiesJoined)
	return &AppMetrics{
		suggestions:   suggestions,
		searchLatency: searchLatency,
		votesCast:     votesCast,
		pollsClosed:   pollsClosed,
		partiesJoined: partiesJoined,
	}
}

// IncSuggestions increments the suggestion counter for the given source.
func (m *AppMetrics) IncSuggestions(source string) {
	if m == nil || m.suggestions == nil {
		return
	}
	m.suggestions.WithLabelValues(normalizeLabel(source)).Inc()
}

// ObserveSearch records the upstream search duration with its outcome label.
func (m *AppMetrics) ObserveSearch(outcome string, duration time.Duration) {
	if m == nil || m.searchLatency == nil {
		return
	}
	m.searchLatency.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncVotesCast increments the vote counter.
func (m *AppMetrics) IncVotesCast() {
	if m == nil || m.votesCast == nil {
		return
	}
	m.votesCast.Inc()
}

// IncPollsClosed increments the closed-poll counter.
func (m *AppMetrics) IncPollsClosed() {
	if m == nil || m.pollsClosed == nil {
		return
	}
	m.pollsClosed.Inc()
}

// IncPartyJoins increments the join counter.
func (m *AppMetrics) IncPartyJoins() {
	if m == nil || m.partiesJoined == nil {
		return
	}
	m.partiesJoined.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
