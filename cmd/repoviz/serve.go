package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"repoviz/internal/api"
	"repoviz/internal/config"
	"repoviz/internal/llm"
	"repoviz/internal/slogutil"
	"repoviz/internal/source"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start the repoviz HTTP API. Clients upload archives or submit git URLs,
browse stored scans, their dependency graphs and files, and ask the hosted model
questions about a scan. When server.tokenHash is set every /api request needs a
bearer token (see 'repoviz token create').`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if cfg.Logging.File != "" {
		fileLogger, f, err := slogutil.NewFileLogger(cfg.Logging.File, slogutil.LevelFromString(cfg.Logging.Level))
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = slog.New(slogutil.NewTeeHandler(logger.Handler(), fileLogger.Handler()))
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	filter, err := newFilter(cfg)
	if err != nil {
		return err
	}
	pipeline, err := newPipeline(cfg, "", logger)
	if err != nil {
		return err
	}
	if pipeline.Cache != nil {
		defer pipeline.Cache.Close()
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	dir := source.NewDirLoader(filter, logger)
	server := api.NewServer(cfg.Server, api.Options{
		Pipeline:  pipeline,
		Store:     st,
		Archives:  source.NewArchiveLoader(filter, logger, cfg.Server.MaxUploadBytes),
		Git:       source.NewGitLoader(dir, cfg.Clone.Depth, time.Duration(cfg.Clone.TimeoutSeconds)*time.Second, logger),
		Assistant: newAssistant(context.Background(), cfg, logger),
	}, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("repoviz API listening on http://%s\n", cfg.Server.Addr)
		fmt.Println("Press Ctrl+C to stop")
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", "error", err)
			return err
		}
	}
	return nil
}

// newAssistant wires the hosted model when an API key is configured. Without
// one the returned assistant reports LLM_UNAVAILABLE on every request.
func newAssistant(ctx context.Context, cfg *config.Config, logger *slog.Logger) *llm.Assistant {
	builder := llm.NewPromptBuilder(llm.BudgetFromConfig(cfg.LLM))
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second

	if cfg.LLM.APIKey == "" {
		logger.Info("No model API key configured, question answering disabled")
		return llm.NewAssistant(nil, builder, timeout, logger)
	}
	client, err := llm.NewGenAIClient(ctx, cfg.LLM)
	if err != nil {
		logger.Warn("Model client unavailable", "error", err)
		return llm.NewAssistant(nil, builder, timeout, logger)
	}
	logger.Info("Model client ready", "model", client.Model())
	return llm.NewAssistant(client, builder, timeout, logger)
}
