package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/userdict/pkg/db"
	"github.com/japaniel/userdict/pkg/document"
	"github.com/japaniel/userdict/pkg/ingest"
	"github.com/japaniel/userdict/pkg/speller"
	"github.com/japaniel/userdict/pkg/tracker"
)

func learnCmd(a *app) *cobra.Command {
	var urls []string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "learn [[locale=]file ...]",
		Short: "Learn words from documents as if they were typed",
		Long: `Replays every document keystroke by keystroke through the context tracker.
A file argument may be prefixed with a locale ("ja=article.txt"); otherwise the
--locale flag applies. "-" or no argument at all reads standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLearn(cmd, args, urls, asHTML)
		},
	}
	cmd.Flags().StringArrayVar(&urls, "url", nil, "Fetch a web page and learn from its article text (repeatable)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Treat files as HTML even without an .html extension")
	return cmd
}

func (a *app) runLearn(cmd *cobra.Command, args, urls []string, asHTML bool) error {
	ctx := cmd.Context()

	var docs []ingest.Document
	if len(args) == 0 && len(urls) == 0 {
		args = []string{"-"}
	}
	for _, arg := range args {
		locale, path := a.locale, arg
		if i := strings.IndexByte(arg, '='); i > 0 {
			locale, path = arg[:i], arg[i+1:]
		}
		text, err := readDocument(cmd.InOrStdin(), path, asHTML)
		if err != nil {
			return err
		}
		docs = append(docs, ingest.Document{Locale: locale, Source: path, Text: text})
	}
	for _, u := range urls {
		article, err := fetchArticle(ctx, u)
		if err != nil {
			return fmt.Errorf("%s: %w", u, err)
		}
		a.logger.Info("article extracted", zap.String("url", u), zap.String("title", article.Title),
			zap.Int("chars", len(article.Text)))
		docs = append(docs, ingest.Document{Locale: a.locale, Source: u, Text: article.Text})
	}

	stores := newStoreSet(a)
	defer stores.Close()

	reg := prometheus.NewRegistry()
	ig := ingest.NewIngester(stores.get, func(locale string) (speller.Oracle, error) {
		return a.loadLexicon(ctx, locale)
	})
	ig.Logger = a.logger
	ig.Metrics = tracker.NewMetrics(reg)
	ig.OnProgress = func(locale string, done, total int) {
		a.logger.Debug("learn progress", zap.String("locale", locale), zap.Int("done", done), zap.Int("total", total))
	}

	start := time.Now()
	n, err := ig.Ingest(ctx, docs)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Replayed %d keystrokes from %d documents in %v.\n", n, len(docs), time.Since(start).Round(time.Millisecond))
	return printSummary(out, reg)
}

// readDocument returns the text of path, or of stdin for "-". HTML is reduced
// to its article text.
func readDocument(stdin io.Reader, path string, asHTML bool) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if asHTML || ext == ".html" || ext == ".htm" {
		article, err := document.FromHTML(bytes.NewReader(data), "")
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		return article.Text, nil
	}
	return string(data), nil
}

// printSummary reports the tracker counters per locale.
func printSummary(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	counts := make(map[string]map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			locale := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "locale" {
					locale = lp.GetValue()
				}
			}
			if counts[locale] == nil {
				counts[locale] = make(map[string]float64)
			}
			counts[locale][mf.GetName()] = m.GetCounter().GetValue()
		}
	}
	locales := make([]string, 0, len(counts))
	for l := range counts {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	for _, l := range locales {
		c := counts[l]
		fmt.Fprintf(w, "%s: %.0f word occurrences learned, %.0f contexts extended, %.0f store errors\n",
			l, c["userdict_words_learned_total"], c["userdict_contexts_extended_total"], c["userdict_store_errors_total"])
	}
	return nil
}

func sessionCmd(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Type standard input line by line in one long editing session",
		Long: `Reads standard input one line at a time and types it through a single tracker,
as a keyboard would during one input session. The lexicon file is watched and
reloaded when it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func (a *app) runSession(cmd *cobra.Command, metricsAddr string) error {
	ctx := cmd.Context()

	store, err := a.openStore(a.locale)
	if err != nil {
		return err
	}
	defer store.Close()

	lex, err := a.loadLexicon(ctx, a.locale)
	if err != nil {
		return err
	}
	if path := a.cfg.LexiconPath(a.locale); path != "" {
		w, err := speller.NewWatcher(lex, path, speller.WithWatcherLogger(a.logger))
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			a.logger.Warn("lexicon hot reload disabled", zap.Error(err))
		}
		defer w.Stop()
	}

	reg := prometheus.NewRegistry()
	metrics := tracker.NewMetrics(reg)
	if metricsAddr != "" {
		stop, err := serveMetrics(metricsAddr, reg, a.logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	seg, err := document.SegmenterFor(a.locale)
	if err != nil {
		return err
	}
	tr := tracker.New(store, lex, tracker.WithLogger(a.logger), tracker.WithMetrics(metrics))

	lines := 0
	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			break
		}
		windows, err := document.Windows(sc.Text(), seg)
		if err != nil {
			return err
		}
		for _, w := range windows {
			tr.UpdateContext(w)
		}
		lines++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Typed %d lines.\n", lines)
	return printSummary(cmd.OutOrStdout(), reg)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// withStore runs fn on the store of the selected locale.
func (a *app) withStore(fn func(*db.Store) error) error {
	store, err := a.openStore(a.locale)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func addCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add WORD...",
		Short: "Add words to the dictionary right away",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *db.Store) error {
				for _, w := range args {
					if _, err := s.AddWordManually(w); err != nil {
						return fmt.Errorf("add %q: %w", w, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", strings.ToLower(strings.TrimSpace(w)))
				}
				return nil
			})
		},
	}
}

func removeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove WORD...",
		Short: "Forget words and their contexts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *db.Store) error {
				for _, w := range args {
					ok, err := s.RemoveWord(w)
					if err != nil {
						return fmt.Errorf("remove %q: %w", w, err)
					}
					if ok {
						fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", w)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s not found\n", w)
					}
				}
				return nil
			})
		},
	}
}

func blockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "block WORD...",
		Short: "Never suggest or learn these words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *db.Store) error {
				for _, w := range args {
					if _, err := s.Block(w); err != nil {
						return fmt.Errorf("block %q: %w", w, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "blocked %s\n", w)
				}
				return nil
			})
		},
	}
}

func wordsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "words",
		Short: "List the visible words in alphabetical order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *db.Store) error {
				words, err := s.GetUserWords()
				if err != nil {
					return err
				}
				for _, w := range words {
					fmt.Fprintln(cmd.OutOrStdout(), w)
				}
				return nil
			})
		},
	}
}

func contextsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contexts WORD",
		Short: "Show the contexts a word was seen in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *db.Store) error {
				contexts, err := s.GetContexts(args[0])
				if err != nil {
					return err
				}
				for _, c := range contexts {
					fmt.Fprintln(cmd.OutOrStdout(), c.Snippet())
				}
				return nil
			})
		},
	}
}

func resetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every word of the locale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset %s without --yes", a.locale)
			}
			return a.withStore(func(s *db.Store) error {
				n, err := s.Reset()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d words from %s\n", n, a.locale)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
