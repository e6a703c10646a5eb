package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repoviz/internal/llm"
	"repoviz/internal/scan"
)

var (
	docsOut  string
	docsJSON bool
	docsRaw  bool
)

var docsCmd = &cobra.Command{
	Use:   "docs <scan-id>",
	Short: "Generate Markdown documentation for a stored scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocs,
}

func init() {
	rootCmd.AddCommand(docsCmd)

	docsCmd.Flags().StringVarP(&docsOut, "out", "o", "", "Write the Markdown to this file")
	docsCmd.Flags().BoolVar(&docsJSON, "json", false, "Print the answer as JSON")
	docsCmd.Flags().BoolVar(&docsRaw, "raw", false, "Print the Markdown without rendering")
}

func runDocs(cmd *cobra.Command, args []string) error {
	return withStoredScan(args[0], func(ctx context.Context, a *llm.Assistant, r *scan.Result) error {
		answer, err := a.Document(ctx, r)
		if err != nil {
			return err
		}
		if docsOut != "" {
			if err := os.WriteFile(docsOut, []byte(answer.Text), 0644); err != nil {
				return fmt.Errorf("write %s: %w", docsOut, err)
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", docsOut)
			return nil
		}
		return printAnswer(answer, docsJSON, docsRaw)
	})
}
