// Command userdict manages per-locale user dictionaries learned from typed text.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/userdict/pkg/config"
)

const Version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	dataDir    string
	locale     string

	cfg    *config.Config
	logger *zap.Logger
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "userdict",
		Short:         "Learn and manage keyboard user dictionaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `userdict keeps one dictionary per keyboard locale. Words that the spelling
lexicon does not know are learned from text as if it was typed; a word becomes
visible once it has been seen twice, together with the words around it.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath(), "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Override the data directory")
	cmd.PersistentFlags().StringVarP(&a.locale, "locale", "l", "", "Locale to operate on (default from config)")

	cmd.AddCommand(
		learnCmd(a),
		sessionCmd(a),
		addCmd(a),
		removeCmd(a),
		blockCmd(a),
		wordsCmd(a),
		contextsCmd(a),
		resetCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "userdict version %s\n", Version)
			},
		},
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.locale == "" {
		a.locale = cfg.DefaultLocale
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	logger, err := initializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func initializeLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = level
	if lc.File != "" {
		loggerConfig.OutputPaths = []string{lc.File}
	}

	return loggerConfig.Build()
}
