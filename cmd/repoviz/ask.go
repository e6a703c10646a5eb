package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"repoviz/internal/llm"
	"repoviz/internal/scan"
)

var (
	askJSON bool
	askRaw  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <scan-id> <question...>",
	Short: "Ask the hosted model a question about a stored scan",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the answer as JSON")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "Print the answer without Markdown rendering")
}

func runAsk(cmd *cobra.Command, args []string) error {
	return withStoredScan(args[0], func(ctx context.Context, a *llm.Assistant, r *scan.Result) error {
		answer, err := a.Ask(ctx, r, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return printAnswer(answer, askJSON, askRaw)
	})
}

// withStoredScan loads scan id and hands it to fn with a configured assistant.
func withStoredScan(id string, fn func(context.Context, *llm.Assistant, *scan.Result) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := context.Background()

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	return fn(ctx, newAssistant(ctx, cfg, logger), r)
}

func printAnswer(answer *llm.Answer, asJSON, raw bool) error {
	if asJSON {
		out, err := FormatResponse(answer, FormatJSON)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	if raw {
		fmt.Println(answer.Text)
	} else {
		fmt.Print(renderMarkdown(answer.Text))
	}
	out, err := FormatResponse(answer, FormatHuman)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, out)
	return nil
}

// renderMarkdown styles md for the terminal, falling back to the plain text.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md + "\n"
	}
	out, err := r.Render(md)
	if err != nil {
		return md + "\n"
	}
	return out
}
