package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/userdict/pkg/wordcontext"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", DSN(":memory:"))
	require.NoError(t, err)
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	require.NoError(t, InitDB(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func setupStore(t *testing.T, locale string) *Store {
	t.Helper()
	return NewStore(setupTestDB(t), locale)
}

func window(secondBefore, firstBefore, word, firstAfter, secondAfter string) wordcontext.WordContext {
	return wordcontext.WordContext{
		SecondBefore: secondBefore,
		FirstBefore:  firstBefore,
		Word:         wordcontext.NewWord(word),
		FirstAfter:   firstAfter,
		SecondAfter:  secondAfter,
	}
}

func addOccurrence(t *testing.T, s *Store, c wordcontext.WordContext) int64 {
	t.Helper()
	id, err := s.UpsertCandidate(c.Word.Text())
	require.NoError(t, err)
	ctxID, err := s.AppendContext(id, c)
	require.NoError(t, err)
	return ctxID
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestUpsertCandidateIsCaseInsensitive(t *testing.T) {
	s := setupStore(t, "en")
	var ids []int64
	for _, w := range []string{"test", "TEST", "Test", "tEsT"} {
		id, err := s.UpsertCandidate(w)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}

	words, err := s.GetUserWords()
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, words)
	assert.Equal(t, 1, countRows(t, s.conn, "words"))
}

func TestWordSeenOnceIsNotAUserWord(t *testing.T) {
	s := setupStore(t, "en")
	_, err := s.UpsertCandidate("test")
	require.NoError(t, err)

	words, err := s.GetUserWords()
	require.NoError(t, err)
	assert.Empty(t, words)

	rec, ok, err := s.Lookup("test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateCandidate, rec.State)
}

func TestWordSeenTwiceIsAUserWord(t *testing.T) {
	s := setupStore(t, "en")
	for i := 0; i < 2; i++ {
		_, err := s.UpsertCandidate("test")
		require.NoError(t, err)
	}

	words, err := s.GetUserWords()
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, words)

	_, err = s.UpsertCandidate("test")
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, s.conn, "words"))
}

func TestUpsertCandidateLeavesOtherStates(t *testing.T) {
	s := setupStore(t, "en")
	_, err := s.SetManual("manual")
	require.NoError(t, err)
	_, err = s.Block("blocked")
	require.NoError(t, err)

	for _, w := range []string{"manual", "blocked"} {
		_, err := s.UpsertCandidate(w)
		require.NoError(t, err)
	}

	rec, _, err := s.Lookup("manual")
	require.NoError(t, err)
	assert.Equal(t, StateManuallyAdded, rec.State)
	rec, _, err = s.Lookup("blocked")
	require.NoError(t, err)
	assert.Equal(t, StateBlacklisted, rec.State)

	words, err := s.GetUserWords()
	require.NoError(t, err)
	assert.Equal(t, []string{"manual"}, words)
}

func TestUpsertCandidateRejectsEmptyWord(t *testing.T) {
	s := setupStore(t, "en")
	_, err := s.UpsertCandidate("  ")
	assert.ErrorIs(t, err, ErrEmptyWord)
}

func TestSetManualOverridesState(t *testing.T) {
	s := setupStore(t, "en")
	_, err := s.UpsertCandidate("test")
	require.NoError(t, err)
	_, err = s.UpsertCandidate("test")
	require.NoError(t, err)

	_, err = s.SetManual("Test")
	require.NoError(t, err)

	rec, ok, err := s.Lookup("test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateManuallyAdded, rec.State)
	assert.Equal(t, "test", rec.Text)
	assert.Equal(t, "en", rec.Locale)
}

func TestAddWordManuallyInsertsBareContextOnce(t *testing.T) {
	s := setupStore(t, "en")
	_, err := s.AddWordManually("Test")
	require.NoError(t, err)
	_, err = s.AddWordManually("test")
	require.NoError(t, err)

	contexts, err := s.GetContexts("test")
	require.NoError(t, err)
	assert.Equal(t, []wordcontext.WordContext{window("", "", "test", "", "")}, contexts)

	ok, err := s.ContainsWord("test")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetUserWordsIsAlphabetical(t *testing.T) {
	s := setupStore(t, "en")
	for _, w := range []string{"banana", "cantelope", "apple"} {
		_, err := s.SetManual(w)
		require.NoError(t, err)
	}
	words, err := s.GetUserWords()
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "cantelope"}, words)
}

func TestContainsWord(t *testing.T) {
	s := setupStore(t, "en")
	ok, err := s.ContainsWord("test")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UpsertCandidate("test")
	require.NoError(t, err)
	ok, err = s.ContainsWord("test")
	require.NoError(t, err)
	assert.False(t, ok, "candidates are not visible")

	_, err = s.SetManual("test")
	require.NoError(t, err)
	ok, err = s.ContainsWord("TEST")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestContextsRoundTrip(t *testing.T) {
	s := setupStore(t, "en")
	contexts := []wordcontext.WordContext{
		window("", "before", "test", "after", ""),
		window("secondbefore", "before", "hello", "", ""),
		window("", "", "hi", "after", "secondafter"),
		window("a", "b", "full", "c", "d"),
		window("", "", "bare", "", ""),
	}
	for _, c := range contexts {
		addOccurrence(t, s, c)
		got, err := s.GetContexts(c.Word.Text())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c, got[0])
	}
}

func TestAppendContextNeverDeduplicates(t *testing.T) {
	s := setupStore(t, "en")
	c1 := window("", "before", "test", "after", "")
	c2 := window("secondbefore", "firstbefore", "test", "", "")
	c3 := window("", "", "test", "firstafter", "secondafter")
	for _, c := range []wordcontext.WordContext{c1, c2, c3, c1} {
		addOccurrence(t, s, c)
	}

	got, err := s.GetContexts("Test")
	require.NoError(t, err)
	assert.Equal(t, []wordcontext.WordContext{c1, c2, c3, c1}, got)
}

func TestReplaceContext(t *testing.T) {
	s := setupStore(t, "en")
	id := addOccurrence(t, s, window("hi", "hello", "test", "", ""))

	replacement := window("", "", "test", "foo", "bar")
	ok, err := s.ReplaceContext(id, replacement)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetContexts("test")
	require.NoError(t, err)
	assert.Equal(t, []wordcontext.WordContext{replacement}, got)
}

func TestReplaceContextIgnoresCase(t *testing.T) {
	s := setupStore(t, "en")
	id := addOccurrence(t, s, window("", "", "test", "", ""))

	ok, err := s.ReplaceContext(id, window("", "", "TEST", "foo", ""))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetContexts("test")
	require.NoError(t, err)
	assert.Equal(t, []wordcontext.WordContext{window("", "", "test", "foo", "")}, got)
}

func TestReplaceContextGuardsAgainstOtherWords(t *testing.T) {
	s := setupStore(t, "en")
	original := window("hi", "hello", "test", "", "")
	id := addOccurrence(t, s, original)
	addOccurrence(t, s, window("", "", "otherword", "", ""))

	for _, c := range []wordcontext.WordContext{
		window("", "", "OTHERWORD", "foo", "bar"),
		window("", "", "unknown", "foo", ""),
		window("", "", "", "foo", ""),
	} {
		ok, err := s.ReplaceContext(id, c)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	got, err := s.GetContexts("test")
	require.NoError(t, err)
	assert.Equal(t, []wordcontext.WordContext{original}, got)
}

func TestReplaceContextIsLocaleScoped(t *testing.T) {
	conn := setupTestDB(t)
	en := NewStore(conn, "en")
	es := NewStore(conn, "es")
	id := addOccurrence(t, en, window("", "", "test", "", ""))

	ok, err := es.ReplaceContext(id, window("", "", "test", "foo", ""))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveWordCascadesContexts(t *testing.T) {
	s := setupStore(t, "en")
	addOccurrence(t, s, window("", "before", "test", "after", ""))
	addOccurrence(t, s, window("secondbefore", "before", "test", "", ""))

	removed, err := s.RemoveWord("TEST")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, 0, countRows(t, s.conn, "words"))
	assert.Equal(t, 0, countRows(t, s.conn, "contexts"))

	removed, err = s.RemoveWord("test")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLocaleIsolation(t *testing.T) {
	conn := setupTestDB(t)
	en := NewStore(conn, "en")
	es := NewStore(conn, "es")

	for _, s := range []*Store{en, es} {
		addOccurrence(t, s, window("", "", "test", "", ""))
		_, err := s.SetManual("test")
		require.NoError(t, err)
	}
	_, err := en.SetManual("test1")
	require.NoError(t, err)
	_, err = es.SetManual("test2")
	require.NoError(t, err)
	assert.Equal(t, 4, countRows(t, conn, "words"))

	removed, err := en.RemoveWord("test")
	require.NoError(t, err)
	require.True(t, removed)

	enWords, err := en.GetUserWords()
	require.NoError(t, err)
	assert.Equal(t, []string{"test1"}, enWords)

	esWords, err := es.GetUserWords()
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "test2"}, esWords)

	esContexts, err := es.GetContexts("test")
	require.NoError(t, err)
	assert.Len(t, esContexts, 1)
}

func TestReset(t *testing.T) {
	conn := setupTestDB(t)
	en := NewStore(conn, "en")
	es := NewStore(conn, "es")
	addOccurrence(t, en, window("", "", "test", "", ""))
	_, err := en.SetManual("hello")
	require.NoError(t, err)
	addOccurrence(t, es, window("", "", "hola", "", ""))

	n, err := en.Reset()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 1, countRows(t, conn, "words"))
	assert.Equal(t, 1, countRows(t, conn, "contexts"))
}

func TestOpenPersistsPerLocaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "userdict-en.sqlite3")
	s, err := Open(path, "en")
	require.NoError(t, err)
	addOccurrence(t, s, window("", "de", "hi", "ba", ""))
	require.NoError(t, s.Close())

	s, err = Open(path, "en")
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetContexts("hi")
	require.NoError(t, err)
	assert.Equal(t, []wordcontext.WordContext{window("", "de", "hi", "ba", "")}, got)

	removed, err := s.RemoveWord("hi")
	require.NoError(t, err)
	require.True(t, removed)
	assert.Equal(t, 0, countRows(t, s.conn, "contexts"), "cascade must work on file databases")
}

func TestOpenRequiresLocale(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.sqlite3"), "")
	assert.Error(t, err)
}

func TestUpsertCandidateConcurrency(t *testing.T) {
	s := setupStore(t, "en")
	const n = 8
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		go func() {
			id, err := s.UpsertCandidate("hund")
			if err != nil {
				t.Errorf("upsert candidate: %v", err)
				ids <- 0
				return
			}
			ids <- id
		}()
	}
	var first int64
	for i := 0; i < n; i++ {
		id := <-ids
		require.NotZero(t, id)
		if i == 0 {
			first = id
		}
		assert.Equal(t, first, id)
	}
	assert.Equal(t, 1, countRows(t, s.conn, "words"))
}
