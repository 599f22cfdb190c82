// Package ingest replays written documents through context trackers, as if a
// user had typed them, to seed user dictionaries.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/japaniel/userdict/pkg/document"
	"github.com/japaniel/userdict/pkg/speller"
	"github.com/japaniel/userdict/pkg/tracker"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Document is a text written in one locale.
type Document struct {
	Locale string
	// Source names the document in logs, e.g. a file path or URL.
	Source string
	Text   string
}

// StoreFactory returns the user dictionary of a locale.
type StoreFactory func(locale string) (tracker.WordStore, error)

// OracleFactory returns the spelling oracle of a locale.
type OracleFactory func(locale string) (speller.Oracle, error)

// Ingester replays documents. Each locale gets its own tracker and is
// replayed in document order; different locales run concurrently.
type Ingester struct {
	Stores  StoreFactory
	Oracles OracleFactory
	// Segmenters defaults to document.SegmenterFor.
	Segmenters func(locale string) (document.Segmenter, error)

	Logger  *zap.Logger
	Metrics *tracker.Metrics
	// OnProgress is called after every document with the number of documents
	// of that locale replayed so far. Calls for different locales may overlap.
	OnProgress func(locale string, done, total int)

	// Concurrency settings
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester.
func NewIngester(stores StoreFactory, oracles OracleFactory) *Ingester {
	return &Ingester{
		Stores:     stores,
		Oracles:    oracles,
		Segmenters: document.SegmenterFor,
		Logger:     zap.NewNop(),
		Workers:    4, // Default worker count
	}
}

type localeBatch struct {
	locale string
	docs   []Document
}

// groupByLocale keeps the order of first appearance for locales and the input
// order for documents within a locale.
func groupByLocale(docs []Document) []localeBatch {
	var batches []localeBatch
	index := make(map[string]int)
	for _, d := range docs {
		i, ok := index[d.Locale]
		if !ok {
			i = len(batches)
			index[d.Locale] = i
			batches = append(batches, localeBatch{locale: d.Locale})
		}
		batches[i].docs = append(batches[i].docs, d)
	}
	return batches
}

// Ingest replays docs and returns the number of windows fed to trackers. The
// first setup error cancels the remaining work and is returned.
func (ig *Ingester) Ingest(ctx context.Context, docs []Document) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for _, d := range docs {
		if d.Locale == "" {
			return 0, fmt.Errorf("document %q has no locale", d.Source)
		}
	}
	batches := groupByLocale(docs)
	if len(batches) == 0 {
		return 0, nil
	}

	workers := ig.Workers
	if workers > len(batches) {
		workers = len(batches)
	}
	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, len(batches))
	} else {
		wp = NewWorkerPool(workers, len(batches))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var windows int64
	var firstErr error
	var errMu sync.Mutex
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		cancel()
	}

	wp.Start(ctx)

Loop:
	for _, b := range batches {
		batch := b
		job := func(ctx context.Context) error {
			n, err := ig.replayLocale(ctx, batch)
			atomic.AddInt64(&windows, int64(n))
			if err != nil && !errors.Is(err, context.Canceled) {
				fail(err)
			}
			return err
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, ctx.Err()) || err == ErrPoolClosed {
				break Loop
			}
			fail(fmt.Errorf("submit locale %s: %w", batch.locale, err))
			break Loop
		}
	}

	// Waits for every submitted locale.
	wp.Close()

	errMu.Lock()
	err := firstErr
	errMu.Unlock()
	if err == nil {
		err = ctx.Err()
	}
	return int(atomic.LoadInt64(&windows)), err
}

func (ig *Ingester) replayLocale(ctx context.Context, batch localeBatch) (int, error) {
	logger := ig.logger().With(zap.String("locale", batch.locale))

	store, err := ig.Stores(batch.locale)
	if err != nil {
		return 0, fmt.Errorf("open store for %s: %w", batch.locale, err)
	}
	oracle, err := ig.Oracles(batch.locale)
	if err != nil {
		return 0, fmt.Errorf("load oracle for %s: %w", batch.locale, err)
	}
	segmenters := ig.Segmenters
	if segmenters == nil {
		segmenters = document.SegmenterFor
	}
	seg, err := segmenters(batch.locale)
	if err != nil {
		return 0, fmt.Errorf("segmenter for %s: %w", batch.locale, err)
	}

	opts := []tracker.Option{tracker.WithLogger(logger)}
	if ig.Metrics != nil {
		opts = append(opts, tracker.WithMetrics(ig.Metrics))
	}
	tr := tracker.New(store, oracle, opts...)

	total := 0
	for i, d := range batch.docs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		windows, err := document.Windows(d.Text, seg)
		if err != nil {
			return total, fmt.Errorf("segment %s: %w", d.Source, err)
		}
		for _, w := range windows {
			tr.UpdateContext(w)
		}
		total += len(windows)
		logger.Debug("document replayed", zap.String("source", d.Source), zap.Int("windows", len(windows)))
		if ig.OnProgress != nil {
			ig.OnProgress(batch.locale, i+1, len(batch.docs))
		}
	}
	return total, nil
}

func (ig *Ingester) logger() *zap.Logger {
	if ig.Logger == nil {
		return zap.NewNop()
	}
	return ig.Logger
}
