package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"repoviz/internal/config"
	"repoviz/internal/extract"
	"repoviz/internal/scan"
	"repoviz/internal/slogutil"
	"repoviz/internal/source"
	"repoviz/internal/store"
	"repoviz/internal/version"
)

var (
	verbosity  int
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "repoviz",
	Short: "repoviz - repository structure explorer",
	Long: `repoviz scans a repository (directory, .zip/.tar.gz archive or git URL),
extracts functions, classes, imports and exports from its source files, builds the
file dependency graph, detects architectural patterns and summarizes the result.
Stored scans can be explored over HTTP and questioned through a hosted model.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("repoviz version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (default: .repoviz/config.json, then ~/.repoviz/config.json)")
}

// loadConfig reads and validates the configuration for the current directory.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.Load(wd, configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes to stderr. -v and --quiet win over logging.level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	if verbosity == 0 && !quiet && cfg.Logging.Level != "" {
		level = slogutil.LevelFromString(cfg.Logging.Level)
	}
	return slogutil.NewLogger(os.Stderr, level)
}

// newFilter builds the file filter from the scan section.
func newFilter(cfg *config.Config) (*source.Filter, error) {
	return source.NewFilter(cfg.Scan.Ignore, cfg.Scan.MaxFileSizeBytes, cfg.Scan.MaxFiles)
}

// newPipeline builds the scan pipeline with its result cache.
func newPipeline(cfg *config.Config, extractor string, logger *slog.Logger) (*scan.Pipeline, error) {
	if extractor == "" {
		extractor = cfg.Scan.Extractor
	}
	x, err := extract.New(extractor, logger)
	if err != nil {
		return nil, err
	}
	p := scan.NewPipeline(x, cfg.Scan.Workers, logger)
	if cfg.Cache.Size > 0 {
		cache, err := scan.NewCache(cfg.Cache.Size, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		if err != nil {
			return nil, err
		}
		p.Cache = cache
	}
	return p, nil
}

// openStore opens the scan database named by the config.
func openStore(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open scan store: %w", err)
	}
	return st, nil
}
