package llm

import (
	"fmt"

	"repoviz/internal/config"
)

// Budget limits how much of a scan goes into one prompt.
type Budget struct {
	// MaxChars caps the whole prompt.
	MaxChars int
	// MaxFiles caps the number of files whose contents are included.
	MaxFiles int
	// MaxListedFiles caps the per-file structure listing.
	MaxListedFiles int
}

// DefaultBudget returns conservative limits.
func DefaultBudget() Budget {
	return Budget{
		MaxChars:       120000,
		MaxFiles:       20,
		MaxListedFiles: 200,
	}
}

// BudgetFromConfig fills a Budget from the llm config, using defaults for
// zero values.
func BudgetFromConfig(cfg config.LLMConfig) Budget {
	b := DefaultBudget()
	if cfg.MaxPromptChars > 0 {
		b.MaxChars = cfg.MaxPromptChars
	}
	if cfg.MaxFilesInPrompt > 0 {
		b.MaxFiles = cfg.MaxFilesInPrompt
	}
	return b
}

// Truncation records what a prompt left out.
type Truncation struct {
	ListedFiles  int `json:"listedFiles"`
	OmittedFiles int `json:"omittedFiles"`
	// ClippedFile is the file whose content was cut at the char budget.
	ClippedFile string `json:"clippedFile,omitempty"`
}

// WasTruncated reports whether anything was dropped.
func (t *Truncation) WasTruncated() bool {
	return t != nil && (t.OmittedFiles > 0 || t.ClippedFile != "")
}

func (t *Truncation) String() string {
	if !t.WasTruncated() {
		return "no truncation"
	}
	s := fmt.Sprintf("%d files omitted", t.OmittedFiles)
	if t.ClippedFile != "" {
		s += ", " + t.ClippedFile + " clipped"
	}
	return s
}
