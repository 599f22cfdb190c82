package main

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/japaniel/userdict/pkg/db"
	"github.com/japaniel/userdict/pkg/speller"
	"github.com/japaniel/userdict/pkg/tracker"
)

// openStore opens the dictionary of locale under the data directory.
func (a *app) openStore(locale string) (*db.Store, error) {
	path := a.cfg.StorePath(locale)
	store, err := db.Open(path, locale)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("user dictionary opened", zap.String("locale", locale), zap.String("path", path))
	return store, nil
}

// loadLexicon returns the known words of locale, downloading the configured
// word list first if needed. A locale without a lexicon knows no words.
func (a *app) loadLexicon(ctx context.Context, locale string) (*speller.Lexicon, error) {
	path := a.cfg.LexiconPath(locale)
	if path == "" {
		a.logger.Warn("no lexicon configured, every word is treated as unknown", zap.String("locale", locale))
		return speller.NewLexicon(nil), nil
	}
	if err := speller.EnsureLexicon(ctx, path, a.cfg.Locale(locale).LexiconURL); err != nil {
		return nil, fmt.Errorf("lexicon for %s: %w", locale, err)
	}
	lex, err := speller.LoadLexicon(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon for %s: %w", locale, err)
	}
	a.logger.Info("lexicon loaded", zap.String("locale", locale), zap.Int("words", lex.Len()))
	return lex, nil
}

// storeSet opens stores lazily, once per locale, and closes them together.
type storeSet struct {
	a      *app
	mu     sync.Mutex
	stores map[string]*db.Store
}

func newStoreSet(a *app) *storeSet {
	return &storeSet{a: a, stores: make(map[string]*db.Store)}
}

func (s *storeSet) get(locale string) (tracker.WordStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[locale]; ok {
		return st, nil
	}
	st, err := s.a.openStore(locale)
	if err != nil {
		return nil, err
	}
	s.stores[locale] = st
	return st, nil
}

func (s *storeSet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for locale, st := range s.stores {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", locale, err)
		}
	}
	return firstErr
}
