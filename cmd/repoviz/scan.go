package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"repoviz/internal/codebase"
	"repoviz/internal/config"
	"repoviz/internal/scan"
	"repoviz/internal/source"
	"repoviz/internal/watcher"
)

var (
	scanJSON       bool
	scanSave       bool
	scanWatch      bool
	scanExtractor  string
	scanNoProgress bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir|archive|git-url>",
	Short: "Scan a repository and print its structure",
	Long: `Scan a local directory, a .zip/.tar.gz archive or a public git URL.

The result lists every analyzed file with its functions, classes, imports and
exports, the file dependency graph, detected patterns and an architectural
summary. Use --save to keep it in the scan store for later queries.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the full result as JSON")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Store the result in the scan store")
	scanCmd.Flags().BoolVar(&scanWatch, "watch", false, "Rescan a directory whenever its files change")
	scanCmd.Flags().StringVar(&scanExtractor, "extractor", "", "Extractor to use: regex or treesitter (default from config)")
	scanCmd.Flags().BoolVar(&scanNoProgress, "no-progress", false, "Disable the progress bar")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filter, err := newFilter(cfg)
	if err != nil {
		return err
	}
	pipeline, err := newPipeline(cfg, scanExtractor, logger)
	if err != nil {
		return err
	}
	if pipeline.Cache != nil {
		defer pipeline.Cache.Close()
	}

	target := args[0]
	load := loaderFor(cfg, filter, logger, target)

	if scanWatch {
		info, err := os.Stat(target)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("--watch needs a local directory, got %q", target)
		}
	}

	once := func() error {
		inputs, snap, err := load(ctx, target)
		if err != nil {
			return err
		}
		result, err := pipeline.Run(ctx, inputs, scan.Options{
			Source:   snap.Origin,
			Commit:   snap.Commit,
			Skipped:  snap.Skipped,
			Progress: progressFunc(len(inputs)),
		})
		if err != nil {
			return err
		}
		if scanSave {
			if err := saveResult(ctx, cfg, logger, result); err != nil {
				return err
			}
		}
		return printResult(cmd.OutOrStdout(), result)
	}

	if err := once(); err != nil {
		return err
	}
	if !scanWatch {
		return nil
	}

	w, err := watcher.New(target, filter, watcher.DefaultDebounce, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Watching %s for changes (Ctrl+C to stop)\n", target)
	err = w.Run(ctx, func(events []watcher.Event) {
		logger.Info("Change detected, rescanning", "events", len(events), "first", events[0].Path)
		if err := once(); err != nil {
			logger.Error("Rescan failed", "error", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

type loadFunc func(ctx context.Context, target string) ([]codebase.FileInput, source.Snapshot, error)

// loaderFor picks the git, directory or archive loader for target.
func loaderFor(cfg *config.Config, filter *source.Filter, logger *slog.Logger, target string) loadFunc {
	dir := source.NewDirLoader(filter, logger)
	if isRemote(target) {
		git := source.NewGitLoader(dir, cfg.Clone.Depth, time.Duration(cfg.Clone.TimeoutSeconds)*time.Second, logger)
		return git.Load
	}
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		archives := source.NewArchiveLoader(filter, logger, cfg.Server.MaxUploadBytes)
		return func(ctx context.Context, target string) ([]codebase.FileInput, source.Snapshot, error) {
			return archives.LoadFile(ctx, target, target)
		}
	}
	return dir.Load
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "https://") || strings.HasPrefix(target, "http://")
}

// progressFunc returns a stderr progress bar callback, or nil when disabled.
func progressFunc(total int) func(done, total int) {
	if scanNoProgress || scanJSON || quiet || total == 0 {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
	return func(done, _ int) {
		_ = bar.Set(done)
	}
}

func saveResult(ctx context.Context, cfg *config.Config, logger *slog.Logger, result *scan.Result) error {
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ctx, result); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved scan %s\n", result.ID)
	return nil
}

func printResult(w io.Writer, result *scan.Result) error {
	format := FormatHuman
	if scanJSON {
		format = FormatJSON
	}
	out, err := FormatResponse(result, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}
