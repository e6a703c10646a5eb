// Package extract recognizes functions, classes, imports and exports in
// source text. Recognition is heuristic: it never fails, and a file it does
// not understand yields an empty result.
package extract

// Function is a function-like declaration.
type Function struct {
	Name  string `json:"name"`
	Line  int    `json:"line"`
	Async bool   `json:"async"`
	Kind  string `json:"kind"`
}

// Function kinds.
const (
	KindDeclaration = "declaration"
	KindExpression  = "expression"
	KindArrow       = "arrow"
	KindMethod      = "method"
	KindDef         = "def"
)

// Class is a class declaration. Extends holds the first base, if any.
type Class struct {
	Name    string `json:"name"`
	Line    int    `json:"line"`
	Extends string `json:"extends,omitempty"`
}

// Import is one distinct module specifier referenced by the file.
type Import struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Kind   string `json:"kind"`
}

// Import kinds.
const (
	ImportStatic   = "import"
	ImportRequire  = "require"
	ImportDynamic  = "dynamic"
	ImportSideEff  = "side-effect"
	ImportReexport = "reexport"
	ImportFrom     = "from"
)

// DefaultExport names an export without a captured identifier.
const DefaultExport = "default"

// Export is one distinct exported name.
type Export struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Result holds the four ordered sequences recognized in one file, each in
// order of first appearance, plus a call-site count used for complexity.
// Functions, imports and exports are unique by name or specifier; classes
// keep every occurrence.
type Result struct {
	Functions []Function `json:"functions"`
	Classes   []Class    `json:"classes"`
	Imports   []Import   `json:"imports"`
	Exports   []Export   `json:"exports"`
	CallSites int        `json:"callSites"`
}

// Empty returns a valid result with all sequences empty and non-nil.
func Empty() *Result {
	return &Result{
		Functions: []Function{},
		Classes:   []Class{},
		Imports:   []Import{},
		Exports:   []Export{},
	}
}

// IsEmpty reports whether nothing was recognized.
func (r *Result) IsEmpty() bool {
	return len(r.Functions) == 0 && len(r.Classes) == 0 &&
		len(r.Imports) == 0 && len(r.Exports) == 0 && r.CallSites == 0
}

// AsyncCount returns the number of functions flagged async.
func (r *Result) AsyncCount() int {
	n := 0
	for _, f := range r.Functions {
		if f.Async {
			n++
		}
	}
	return n
}

// Extractor recognizes code structure in decoded text. Implementations must
// return a non-nil Result for every input.
type Extractor interface {
	Extract(content, filename, extension string) *Result
}

// Family groups extensions that share recognition rules.
type Family string

const (
	FamilyNone   Family = ""
	FamilyJS     Family = "js"
	FamilyPython Family = "python"
)

var familyByExt = map[string]Family{
	"js":  FamilyJS,
	"jsx": FamilyJS,
	"mjs": FamilyJS,
	"cjs": FamilyJS,
	"ts":  FamilyJS,
	"tsx": FamilyJS,
	"mts": FamilyJS,
	"cts": FamilyJS,
	"py":  FamilyPython,
	"pyw": FamilyPython,
}

// FamilyOf returns the rule family for a lowercased, dotless extension.
func FamilyOf(ext string) Family {
	return familyByExt[ext]
}
