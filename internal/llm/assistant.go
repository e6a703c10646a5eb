package llm

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"repoviz/internal/errors"
	"repoviz/internal/scan"
	"repoviz/internal/slogutil"
)

const askInstructions = `You are a senior engineer explaining a codebase. Answer the question using
only the repository structure and source files below. Cite file paths when you
refer to code. If the material does not contain the answer, say so.`

const docInstructions = `You are a senior engineer writing documentation for a codebase. Using the
repository structure and source files below, write Markdown documentation with
these sections: Overview, Architecture, Components, Key Files, Dependencies,
Getting Started. Cite file paths and do not invent files that are not listed.`

// Answer is a model response with the files its prompt included.
type Answer struct {
	Text       string      `json:"text"`
	Files      []string    `json:"files"`
	Truncation *Truncation `json:"truncation,omitempty"`
	DurationMs int64       `json:"durationMs"`
}

// Assistant answers questions about and documents scan results.
type Assistant struct {
	completer Completer
	builder   *PromptBuilder
	timeout   time.Duration
	logger    *slog.Logger
}

// NewAssistant creates an assistant. A nil completer makes every call fail
// with LLM_UNAVAILABLE. logger may be nil.
func NewAssistant(c Completer, b *PromptBuilder, timeout time.Duration, logger *slog.Logger) *Assistant {
	if b == nil {
		b = NewPromptBuilder(DefaultBudget())
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Assistant{completer: c, builder: b, timeout: timeout, logger: logger}
}

// Available reports whether a model is configured.
func (a *Assistant) Available() bool {
	return a != nil && a.completer != nil
}

// Ask answers question about r.
func (a *Assistant) Ask(ctx context.Context, r *scan.Result, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New(errors.InvalidInput, "question is required", nil)
	}
	return a.run(ctx, "ask", r, askInstructions, question)
}

// Document generates Markdown documentation for r.
func (a *Assistant) Document(ctx context.Context, r *scan.Result) (*Answer, error) {
	return a.run(ctx, "docs", r, docInstructions, "")
}

func (a *Assistant) run(ctx context.Context, op string, r *scan.Result, instructions, question string) (*Answer, error) {
	if !a.Available() {
		return nil, errors.New(errors.LLMUnavailable, "no model is configured", nil)
	}
	if r == nil {
		return nil, errors.New(errors.InvalidInput, "scan result is required", nil)
	}

	p := a.builder.Build(r, instructions, question)
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.completer.Complete(ctx, p.Text)
	elapsed := time.Since(start)
	if err != nil {
		a.logger.Warn("Model request failed",
			"op", op,
			"scan", r.ID,
			"error", err,
		)
		var re *errors.RepovizError
		if stderrors.As(err, &re) {
			return nil, err
		}
		return nil, errors.New(errors.LLMFailed, "model request failed", err)
	}

	a.logger.Info("Model request complete",
		"op", op,
		"scan", r.ID,
		"prompt_chars", len(p.Text),
		"files", len(p.Files),
		"duration_ms", elapsed.Milliseconds(),
	)
	return &Answer{
		Text:       text,
		Files:      p.Files,
		Truncation: p.Truncation,
		DurationMs: elapsed.Milliseconds(),
	}, nil
}
