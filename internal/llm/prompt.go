package llm

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"repoviz/internal/codebase"
	"repoviz/internal/depgraph"
	"repoviz/internal/scan"
)

const clipMarker = "\n... [truncated]\n"

// Prompt is a rendered prompt plus what went into it.
type Prompt struct {
	Text       string      `json:"-"`
	Files      []string    `json:"files"`
	Truncation *Truncation `json:"truncation,omitempty"`
}

// PromptBuilder renders scan results into prompts within a Budget.
type PromptBuilder struct {
	Budget Budget
}

// NewPromptBuilder creates a builder. Zero budget fields take defaults.
func NewPromptBuilder(b Budget) *PromptBuilder {
	d := DefaultBudget()
	if b.MaxChars <= 0 {
		b.MaxChars = d.MaxChars
	}
	if b.MaxFiles <= 0 {
		b.MaxFiles = d.MaxFiles
	}
	if b.MaxListedFiles <= 0 {
		b.MaxListedFiles = d.MaxListedFiles
	}
	return &PromptBuilder{Budget: b}
}

// Build renders instructions, the structural summary of r and the contents
// of the most relevant files. Files mentioned by the question seed the
// ranking; the rest follow by import centrality.
func (b *PromptBuilder) Build(r *scan.Result, instructions, question string) *Prompt {
	var sb strings.Builder
	trunc := &Truncation{}

	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	b.writeStructure(&sb, r, trunc)
	if question != "" {
		fmt.Fprintf(&sb, "\n## Question\n%s\n", question)
	}

	p := &Prompt{Files: []string{}}
	picked := b.pick(r, question)
	if len(picked) > 0 {
		sb.WriteString("\n## Source files\n")
	}
	for i, f := range picked {
		remaining := b.Budget.MaxChars - sb.Len()
		header := fmt.Sprintf("\n### %s\n```%s\n", f.Path, f.Extension)
		footer := "```\n"
		room := remaining - len(header) - len(footer)
		if room <= len(clipMarker) {
			trunc.OmittedFiles += len(picked) - i
			break
		}
		content := f.Content
		if len(content) > room {
			content = clip(content, room-len(clipMarker)) + clipMarker
			trunc.ClippedFile = f.Path
		}
		sb.WriteString(header)
		sb.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString(footer)
		p.Files = append(p.Files, f.Path)
		if trunc.ClippedFile != "" {
			trunc.OmittedFiles += len(picked) - i - 1
			break
		}
	}
	if n := len(r.Files) - len(picked); n > 0 {
		trunc.OmittedFiles += n
	}

	p.Text = sb.String()
	if trunc.WasTruncated() || trunc.ListedFiles < len(r.Files) {
		p.Truncation = trunc
	}
	return p
}

func (b *PromptBuilder) writeStructure(sb *strings.Builder, r *scan.Result, trunc *Truncation) {
	fmt.Fprintf(sb, "## Repository\nSource: %s\n", r.Source)
	if r.Commit != "" {
		fmt.Fprintf(sb, "Commit: %s\n", r.Commit)
	}

	if m := r.Metrics; m != nil {
		fmt.Fprintf(sb, "\n## Metrics\nFiles: %d, lines: %d, functions: %d (%d async), classes: %d, imports: %d, exports: %d\n",
			m.TotalFiles, m.TotalLines, m.TotalFunctions, m.AsyncFunctions, m.TotalClasses, m.TotalImports, m.TotalExports)
		fmt.Fprintf(sb, "Average complexity: %.2f, max: %.2f\n", m.AvgComplexity, m.MaxComplexity)
		if len(m.Languages) > 0 {
			fmt.Fprintf(sb, "Languages: %s\n", strings.Join(m.Languages, ", "))
		}
	}

	if in := r.Insight; in != nil {
		fmt.Fprintf(sb, "\n## Architecture\nStyle: %s\n", in.Style)
		writeList(sb, "Patterns", in.Patterns)
		writeList(sb, "Frameworks", in.Frameworks)
		for _, c := range in.Components {
			fmt.Fprintf(sb, "- component %s: %s (%d files)\n", c.Name, c.Responsibility, c.Files)
		}
		writeList(sb, "Data flow", in.DataFlow)
		writeList(sb, "Recommendations", in.Recommendations)
	}
	writeList(sb, "Dependencies", r.Dependencies)

	if g := r.Graph; g != nil {
		fmt.Fprintf(sb, "\n## Import graph\n%d files, %d import edges\n", len(g.Nodes), len(g.Edges))
		if a := r.Analysis; a != nil {
			for _, h := range a.Hubs {
				fmt.Fprintf(sb, "- hub %s: imported by %d, imports %d\n", h.ID, h.In, h.Out)
			}
			for _, c := range a.Cycles {
				fmt.Fprintf(sb, "- cycle: %s\n", strings.Join(c, " -> "))
			}
		}
	}

	sb.WriteString("\n## Files\n")
	for i, f := range r.Files {
		if i >= b.Budget.MaxListedFiles || sb.Len() >= b.Budget.MaxChars/2 {
			fmt.Fprintf(sb, "... %d more files\n", len(r.Files)-i)
			break
		}
		writeFileLine(sb, f)
		trunc.ListedFiles++
	}
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, strings.Join(items, "; "))
}

func writeFileLine(sb *strings.Builder, f *codebase.SourceFile) {
	fmt.Fprintf(sb, "- %s (%s, %d lines)", f.Path, f.Language(), f.LineCount)
	x := f.Extraction
	if x == nil {
		sb.WriteByte('\n')
		return
	}
	if len(x.Functions) > 0 {
		names := make([]string, len(x.Functions))
		for i, fn := range x.Functions {
			names[i] = fn.Name
		}
		fmt.Fprintf(sb, " functions: %s;", strings.Join(names, ", "))
	}
	if len(x.Classes) > 0 {
		names := make([]string, len(x.Classes))
		for i, c := range x.Classes {
			names[i] = c.Name
		}
		fmt.Fprintf(sb, " classes: %s;", strings.Join(names, ", "))
	}
	if len(x.Imports) > 0 {
		names := make([]string, len(x.Imports))
		for i, imp := range x.Imports {
			names[i] = imp.Source
		}
		fmt.Fprintf(sb, " imports: %s;", strings.Join(names, ", "))
	}
	sb.WriteByte('\n')
}

// pick returns up to MaxFiles files: question matches first, then the
// personalized ranking from them, then global centrality.
func (b *PromptBuilder) pick(r *scan.Result, question string) []*codebase.SourceFile {
	if len(r.Files) == 0 {
		return nil
	}
	byPath := make(map[string]*codebase.SourceFile, len(r.Files))
	for _, f := range r.Files {
		byPath[f.Path] = f
	}

	seeds := matchFiles(r.Files, question)
	var order []string
	order = append(order, seeds...)
	if g := r.Graph; g != nil {
		opts := depgraph.DefaultRankOptions()
		if len(seeds) > 0 {
			for _, rk := range g.Rank(seeds, opts) {
				order = append(order, rk.ID)
			}
		}
		for _, rk := range g.Rank(nil, opts) {
			order = append(order, rk.ID)
		}
	}
	for _, f := range r.Files {
		order = append(order, f.Path)
	}

	seen := make(map[string]bool)
	out := make([]*codebase.SourceFile, 0, b.Budget.MaxFiles)
	for _, id := range order {
		if len(out) >= b.Budget.MaxFiles {
			break
		}
		f, ok := byPath[id]
		if !ok || seen[id] || f.Content == "" {
			continue
		}
		seen[id] = true
		out = append(out, f)
	}
	return out
}

// matchFiles returns files whose base name, function or class names appear
// as words in the question, most matches first.
func matchFiles(files []*codebase.SourceFile, question string) []string {
	words := questionWords(question)
	if len(words) == 0 {
		return nil
	}

	type hit struct {
		path  string
		score int
	}
	var hits []hit
	for _, f := range files {
		score := 0
		base := strings.ToLower(strings.TrimSuffix(f.Name, "."+f.Extension))
		if words[base] {
			score += 3
		}
		if x := f.Extraction; x != nil {
			for _, fn := range x.Functions {
				if words[strings.ToLower(fn.Name)] {
					score++
				}
			}
			for _, c := range x.Classes {
				if words[strings.ToLower(c.Name)] {
					score += 2
				}
			}
		}
		if score > 0 {
			hits = append(hits, hit{f.Path, score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.path
	}
	return out
}

func questionWords(q string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$'
	}) {
		if len(w) >= 3 {
			words[strings.ToLower(w)] = true
		}
	}
	return words
}

// clip cuts s to at most n bytes on a line boundary when one is close.
func clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	s = s[:n]
	if i := strings.LastIndexByte(s, '\n'); i > n/2 {
		return s[:i+1]
	}
	return strings.ToValidUTF8(s, "")
}
