// Package codebase defines the per-file records a scan is built from.
package codebase

import (
	"strings"

	"repoviz/internal/extract"
	"repoviz/internal/paths"
)

// FileInput is one decoded text file handed to a scan. Binary files are
// filtered out before this point.
type FileInput struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Content   string `json:"-"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
}

// SourceFile is a scanned file with its extraction result. It is not
// modified after NewSourceFile returns.
type SourceFile struct {
	Name       string          `json:"name"`
	Path       string          `json:"path"`
	Content    string          `json:"-"`
	Extension  string          `json:"extension"`
	Size       int64           `json:"size"`
	LineCount  int             `json:"lineCount"`
	Extraction *extract.Result `json:"extraction"`
	Complexity float64         `json:"complexity"`
}

// Normalize fills the name, extension and size of in from its path and
// content, and cleans the path. Fields already set are kept, apart from the
// extension, which is lowercased without its dot.
func Normalize(in FileInput) FileInput {
	p := paths.NormalizePath(in.Path)
	if p == "" {
		p = paths.NormalizePath(in.Name)
	}
	in.Path = p
	if in.Name == "" {
		in.Name = p[strings.LastIndexByte(p, '/')+1:]
	}
	in.Extension = strings.ToLower(strings.TrimPrefix(in.Extension, "."))
	if in.Extension == "" {
		in.Extension = paths.Ext(p)
	}
	if in.Size == 0 {
		in.Size = int64(len(in.Content))
	}
	return in
}

// NewSourceFile builds a SourceFile from the normalized input.
// A nil extraction is replaced by an empty one.
func NewSourceFile(in FileInput, res *extract.Result, complexity float64) *SourceFile {
	in = Normalize(in)
	if res == nil {
		res = extract.Empty()
	}
	return &SourceFile{
		Name:       in.Name,
		Path:       in.Path,
		Content:    in.Content,
		Extension:  in.Extension,
		Size:       in.Size,
		LineCount:  LineCount(in.Content),
		Extraction: res,
		Complexity: complexity,
	}
}

// LineCount returns the number of newline-delimited segments, 0 for empty text.
func LineCount(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// Dir returns the slash-separated directory of the file, "" at the root.
func (f *SourceFile) Dir() string {
	if i := strings.LastIndexByte(f.Path, '/'); i >= 0 {
		return f.Path[:i]
	}
	return ""
}

// Language returns a display name for the file's extension.
func (f *SourceFile) Language() string {
	return LanguageName(f.Extension)
}

var languageNames = map[string]string{
	"js":     "JavaScript",
	"jsx":    "JavaScript",
	"mjs":    "JavaScript",
	"cjs":    "JavaScript",
	"ts":     "TypeScript",
	"tsx":    "TypeScript",
	"mts":    "TypeScript",
	"cts":    "TypeScript",
	"py":     "Python",
	"pyw":    "Python",
	"go":     "Go",
	"rs":     "Rust",
	"java":   "Java",
	"kt":     "Kotlin",
	"rb":     "Ruby",
	"php":    "PHP",
	"cs":     "C#",
	"c":      "C",
	"h":      "C",
	"cpp":    "C++",
	"hpp":    "C++",
	"swift":  "Swift",
	"dart":   "Dart",
	"vue":    "Vue",
	"svelte": "Svelte",
	"html":   "HTML",
	"htm":    "HTML",
	"css":    "CSS",
	"scss":   "SCSS",
	"json":   "JSON",
	"md":     "Markdown",
	"yml":    "YAML",
	"yaml":   "YAML",
	"sh":     "Shell",
	"sql":    "SQL",
}

// LanguageName returns a display name for an extension, or the uppercased
// extension when unknown.
func LanguageName(ext string) string {
	if name, ok := languageNames[ext]; ok {
		return name
	}
	if ext == "" {
		return "Other"
	}
	return strings.ToUpper(ext)
}
