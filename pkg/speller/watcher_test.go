package speller

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeFile(t, dir, "words.txt", "alpha\n")
	lex, err := LoadLexicon(path)
	require.NoError(t, err)

	reloaded := make(chan error, 8)
	w, err := NewWatcher(lex, path,
		WithDebounce(20*time.Millisecond),
		WithReloadHook(func(err error) { reloaded <- err }))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\n"), 0o644))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lexicon was not reloaded")
	}
	assert.True(t, lex.IsKnown("beta"))
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := writeFile(t, dir, "words.txt", "alpha\n")
	lex, err := LoadLexicon(path)
	require.NoError(t, err)

	reloaded := make(chan error, 8)
	w, err := NewWatcher(lex, path,
		WithDebounce(10*time.Millisecond),
		WithReloadHook(func(err error) { reloaded <- err }))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, dir, "other.txt", "beta\n")
	select {
	case <-reloaded:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
	w.Stop()
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	w, err := NewWatcher(NewLexicon(nil), path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Stop()
	w.Stop()
}

func TestWatcherStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher(NewLexicon(nil), filepath.Join(t.TempDir(), "words.txt"))
	require.NoError(t, err)
	w.Stop()
}
