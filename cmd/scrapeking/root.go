package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/scrapeking/internal/config"
	"github.com/hazyhaar/scrapeking/internal/pipeline"
	"github.com/hazyhaar/scrapeking/internal/store"
)

var (
	cfgFile  string
	logLevel string
	dbPath   string
	envFile  string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scrapeking",
	Short: "Harvest pokeking tree pages and find untranslated terms",
	Long: `scrapeking logs in to the pokeking site, expands every collapsible
card and nested node of the detail pages, and writes the harvested text
into one file per X category. The text stages then collect the values,
strip ASCII, and list the characters no dictionary term covers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(logLevel)
		slog.SetDefault(logger)

		var err error
		if cfgFile != "" {
			cfg, err = config.LoadFile(cfgFile)
			if err != nil {
				return err
			}
		} else {
			cfg = config.Default()
		}
		if dbPath != "" {
			cfg.Store.Path = dbPath
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database recording runs (overrides store.path)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file holding SCRAPEKING_USERNAME and SCRAPEKING_PASSWORD")

	rootCmd.AddCommand(scrapeCmd, replayCmd, runCmd,
		collectCmd, cleanCmd, extractCmd, uncoveredCmd,
		serveCmd)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// openStore opens the configured database, or returns nil when none is
// configured.
func openStore() (*store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	return store.Open(cfg.Store.Path)
}

// newPipeline builds a pipeline from the loaded configuration. The
// returned close function releases the store and sinks.
func newPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, func(), error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	opts = append([]pipeline.Option{pipeline.WithLogger(logger)}, opts...)
	if st != nil {
		opts = append(opts, pipeline.WithStore(st))
	}
	sinks := pipeline.Sinks(cfg.Sinks, os.Stdout, logger)
	for _, s := range sinks {
		opts = append(opts, pipeline.WithSink(s))
	}
	closeAll := func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logger.Warn("scrapeking: close sink", "error", err)
			}
		}
		if st != nil {
			if err := st.Close(); err != nil {
				logger.Warn("scrapeking: close store", "error", err)
			}
		}
	}
	return pipeline.New(cfg, opts...), closeAll, nil
}

// report prints v as indented JSON on stdout.
func report(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("scrapeking: report: %w", err)
	}
	return nil
}

// fatal logs err the way every command failure is logged and returns it.
func fatal(err error) error {
	if err != nil {
		logger.Error("scrapeking: fatal", "error", err)
	}
	return err
}
