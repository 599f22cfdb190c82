// Package speller answers whether a word is already spelled correctly, which
// decides whether the keyboard should learn it.
package speller

import "go.uber.org/zap"

// Oracle reports whether word is already known. Implementations must not
// panic or block for long; failures count as unknown.
type Oracle interface {
	IsKnown(word string) bool
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(word string) bool

// IsKnown calls f(word).
func (f OracleFunc) IsKnown(word string) bool { return f(word) }

// Checker is a spelling engine that can fail.
type Checker interface {
	IsCorrect(word string) (bool, error)
}

// Safe wraps checker so errors and panics are logged and reported as unknown.
func Safe(checker Checker, logger *zap.Logger) Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &safeOracle{checker: checker, logger: logger}
}

type safeOracle struct {
	checker Checker
	logger  *zap.Logger
}

func (s *safeOracle) IsKnown(word string) (known bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("spell checker panicked", zap.String("word", word), zap.Any("panic", r))
			known = false
		}
	}()
	ok, err := s.checker.IsCorrect(word)
	if err != nil {
		s.logger.Warn("spell checker failed", zap.String("word", word), zap.Error(err))
		return false
	}
	return ok
}
