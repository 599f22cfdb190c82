package speller

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLexiconIsCaseInsensitive(t *testing.T) {
	l := NewLexicon([]string{"Hello", " world ", ""})
	assert.Equal(t, 2, l.Len())
	assert.True(t, l.IsKnown("hello"))
	assert.True(t, l.IsKnown("WORLD"))
	assert.False(t, l.IsKnown(""))
	assert.False(t, l.IsKnown("hi"))
}

func TestReadWordsFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{"plain text", "words.txt", "# comment\nthe\n\nquick\n", []string{"the", "quick"}},
		{"hunspell dic", "en.dic", "3\nthe\nfox/SM\nquick/MS\n", []string{"the", "fox", "quick"}},
		{"json array", "a.json", `["the", "fox"]`, []string{"the", "fox"}},
		{"json object", "o.json", ` {"words": ["jumps"]}`, []string{"jumps"}},
		{"jmdict simplified", "jmdict.json", `{"version": "3.6.1", "words": [
			{"id": "1358280", "kanji": [{"text": "食べる", "common": true}], "kana": [{"text": "たべる", "common": true}]},
			{"id": "1000000", "kana": [{"text": "ヽ"}]}
		]}`, []string{"食べる", "たべる", "ヽ"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadWords(writeFile(t, dir, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadWordsRejectsMalformedJSON(t *testing.T) {
	_, err := ReadWords(writeFile(t, t.TempDir(), "bad.json", `{"words": [1, 2`))
	assert.Error(t, err)

	_, err = ReadWords(writeFile(t, t.TempDir(), "num.json", `[1, 2]`))
	assert.Error(t, err)
}

func TestReloadKeepsWordsOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "words.txt", "alpha\n")
	l, err := LoadLexicon(path)
	require.NoError(t, err)

	assert.Error(t, l.Reload(filepath.Join(dir, "missing.txt")))
	assert.True(t, l.IsKnown("alpha"))

	writeFile(t, dir, "words.txt", "beta\n")
	require.NoError(t, l.Reload(path))
	assert.False(t, l.IsKnown("alpha"))
	assert.True(t, l.IsKnown("beta"))
}

func TestLexiconConcurrentAccess(t *testing.T) {
	l := NewLexicon([]string{"a"})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					l.Replace([]string{"a", "b"})
				} else {
					assert.True(t, l.IsKnown("a"))
				}
			}
		}(i)
	}
	wg.Wait()
}
