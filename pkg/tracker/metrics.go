package tracker

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts tracker activity per locale.
type Metrics struct {
	Windows          *prometheus.CounterVec
	WordsLearned     *prometheus.CounterVec
	ContextsExtended *prometheus.CounterVec
	StoreErrors      *prometheus.CounterVec
}

// NewMetrics creates the tracker counters and registers them with reg when it
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Windows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userdict_windows_total",
			Help: "Windows passed to the context tracker.",
		}, []string{"locale"}),
		WordsLearned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userdict_words_learned_total",
			Help: "Occurrences of unknown words recorded with a new context.",
		}, []string{"locale"}),
		ContextsExtended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userdict_contexts_extended_total",
			Help: "Saved contexts rewritten with a following word.",
		}, []string{"locale"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userdict_store_errors_total",
			Help: "Store calls that failed during tracking.",
		}, []string{"locale"}),
	}
	if reg != nil {
		reg.MustRegister(m.Windows, m.WordsLearned, m.ContextsExtended, m.StoreErrors)
	}
	return m
}
