// Package tracker turns the stream of windows produced while a user types into
// learned words and their surrounding contexts.
package tracker

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/japaniel/userdict/pkg/speller"
	"github.com/japaniel/userdict/pkg/wordcontext"
)

// WordStore is the part of the user dictionary the tracker writes to.
// *db.Store satisfies it.
type WordStore interface {
	Locale() string
	UpsertCandidate(word string) (int64, error)
	AppendContext(wordID int64, c wordcontext.WordContext) (int64, error)
	ReplaceContext(contextID int64, c wordcontext.WordContext) (bool, error)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger store failures are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// State is a snapshot of the tracker cursor. Nil fields have not been set yet.
type State struct {
	Previous    *wordcontext.WordContext
	Current     *wordcontext.WordContext
	LastSaved   *wordcontext.WordContext
	LastSavedID int64
}

// Tracker follows one input session. It is not safe for concurrent use; calls
// must arrive in the order the text events happened.
type Tracker struct {
	store   WordStore
	oracle  speller.Oracle
	logger  *zap.Logger
	metrics *Metrics
	locale  string

	previous, current, lastSaved          wordcontext.WordContext
	hasPrevious, hasCurrent, hasLastSaved bool
	lastSavedID                           int64
}

// New creates a tracker writing to store and skipping words oracle knows.
func New(store WordStore, oracle speller.Oracle, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		oracle: oracle,
		logger: zap.NewNop(),
		locale: store.Locale(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(
		zap.String("session", uuid.NewString()),
		zap.String("locale", t.locale),
	)
	return t
}

// UpdateContext feeds the window around the cursor after a text change. It
// never fails; store errors are logged and the cursor still advances.
func (t *Tracker) UpdateContext(window wordcontext.WordContext) {
	if t.hasCurrent && window == t.current {
		return
	}
	if t.metrics != nil {
		t.metrics.Windows.WithLabelValues(t.locale).Inc()
	}

	t.previous, t.hasPrevious = t.current, t.hasCurrent
	t.current, t.hasCurrent = window, true

	if !t.hasPrevious {
		return
	}
	if t.current.IsContinuation(t.previous) {
		return
	}

	t.extendLastSaved()
	t.learnPrevious()
}

// extendLastSaved fills the next after slot of the last saved context when
// the previous window is one word further along the same text.
func (t *Tracker) extendLastSaved() {
	if !t.hasLastSaved {
		return
	}
	merged, ok := t.lastSaved.Adding(t.previous)
	if !ok || !merged.IsMoreDesirableThan(t.lastSaved) {
		return
	}
	replaced, err := t.store.ReplaceContext(t.lastSavedID, merged)
	if err != nil {
		t.storeFailed("replace context", err, zap.Int64("context_id", t.lastSavedID))
		return
	}
	if !replaced {
		t.logger.Debug("saved context no longer belongs to word",
			zap.Int64("context_id", t.lastSavedID), zap.Stringer("context", merged))
		return
	}
	t.lastSaved = merged
	if t.metrics != nil {
		t.metrics.ContextsExtended.WithLabelValues(t.locale).Inc()
	}
}

// learnPrevious records the word of the previous window if the oracle does
// not know it.
func (t *Tracker) learnPrevious() {
	word := t.previous.Word
	if word.IsBoundary() || t.oracle.IsKnown(word.Text()) {
		return
	}
	id, err := t.store.UpsertCandidate(word.Text())
	if err != nil {
		t.storeFailed("upsert candidate", err, zap.String("word", word.Text()))
		return
	}
	contextID, err := t.store.AppendContext(id, t.previous)
	if err != nil {
		t.storeFailed("append context", err, zap.String("word", word.Text()))
		return
	}
	t.lastSaved, t.hasLastSaved = t.previous, true
	t.lastSavedID = contextID
	if t.metrics != nil {
		t.metrics.WordsLearned.WithLabelValues(t.locale).Inc()
	}
}

func (t *Tracker) storeFailed(op string, err error, fields ...zap.Field) {
	t.logger.Error("user dictionary "+op+" failed", append(fields, zap.Error(err))...)
	if t.metrics != nil {
		t.metrics.StoreErrors.WithLabelValues(t.locale).Inc()
	}
}

// State returns a copy of the cursor.
func (t *Tracker) State() State {
	var s State
	if t.hasPrevious {
		p := t.previous
		s.Previous = &p
	}
	if t.hasCurrent {
		c := t.current
		s.Current = &c
	}
	if t.hasLastSaved {
		l := t.lastSaved
		s.LastSaved = &l
		s.LastSavedID = t.lastSavedID
	}
	return s
}
