package speller

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureLexiconLocalCache(t *testing.T) {
	path := writeFile(t, t.TempDir(), "words.txt", "alpha\n")
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	require.NoError(t, EnsureLexicon(context.Background(), path, srv.URL))
	assert.Zero(t, hits.Load(), "existing file must not be downloaded again")
}

func TestEnsureLexiconDownloadsPlain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("the\nfox\n"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "sub", "words.txt")
	require.NoError(t, EnsureLexicon(context.Background(), path, srv.URL))

	l, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.True(t, l.IsKnown("fox"))
}

func TestEnsureLexiconDownloadsGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`["jumps"]`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, EnsureLexicon(context.Background(), path, srv.URL+"/words.json.gz"))

	l, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.True(t, l.IsKnown("jumps"))
}

func TestEnsureLexiconFailures(t *testing.T) {
	dir := t.TempDir()

	err := EnsureLexicon(context.Background(), filepath.Join(dir, "a.txt"), "")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(dir, "b.txt")
	assert.Error(t, EnsureLexicon(context.Background(), path, srv.URL))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed download must not leave a file")
}
