// Package depgraph builds the file-level import graph of a scan.
//
// Only relative specifiers ("./x", "../x") are resolved. Bare package
// imports never produce edges: the graph models references inside the
// scanned tree, not the dependency closure.
package depgraph

import (
	"path"
	"strings"

	"repoviz/internal/codebase"
	"repoviz/internal/extract"
)

// EdgeImport is the only relation currently emitted.
const EdgeImport = "import"

// Node is one scanned file.
type Node struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Type       string  `json:"type"`
	Size       int64   `json:"size"`
	Complexity float64 `json:"complexity"`
	Functions  int     `json:"functions"`
	Classes    int     `json:"classes"`
	Lines      int     `json:"lines"`
}

// Edge is a resolved import from Source to Target. Weight counts the
// specifiers in Source that resolved to Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Weight int    `json:"weight"`
}

// Graph is the node/edge payload served to renderers.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	index map[string]*Node
}

// resolveExts are tried, in order, when a specifier omits its extension.
var resolveExts = []string{"js", "jsx", "ts", "tsx", "mjs", "cjs", "mts", "cts", "vue", "svelte", "json", "py"}

// Build creates one node per file and one edge per distinct
// (importer, resolved target) pair.
func Build(files []*codebase.SourceFile) *Graph {
	g := &Graph{
		Nodes: make([]*Node, 0, len(files)),
		Edges: []*Edge{},
		index: make(map[string]*Node, len(files)),
	}

	for _, f := range files {
		if _, dup := g.index[f.Path]; dup {
			continue
		}
		n := &Node{
			ID:         f.Path,
			Label:      f.Name,
			Type:       nodeType(f.Extension),
			Size:       f.Size,
			Complexity: f.Complexity,
			Lines:      f.LineCount,
		}
		if f.Extraction != nil {
			n.Functions = len(f.Extraction.Functions)
			n.Classes = len(f.Extraction.Classes)
		}
		g.Nodes = append(g.Nodes, n)
		g.index[n.ID] = n
	}

	folded := make(map[[2]string]*Edge)
	for _, f := range files {
		if f.Extraction == nil {
			continue
		}
		for _, imp := range f.Extraction.Imports {
			target, ok := g.resolve(f, imp)
			if !ok {
				continue
			}
			key := [2]string{f.Path, target}
			if e, seen := folded[key]; seen {
				e.Weight++
				continue
			}
			e := &Edge{Source: f.Path, Target: target, Type: EdgeImport, Weight: 1}
			folded[key] = e
			g.Edges = append(g.Edges, e)
		}
	}
	return g
}

func nodeType(ext string) string {
	if ext == "" {
		return "file"
	}
	return ext
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	if g.index == nil {
		g.reindex()
	}
	n, ok := g.index[id]
	return n, ok
}

// reindex rebuilds the lookup table after the graph was decoded from JSON.
func (g *Graph) reindex() {
	g.index = make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.index[n.ID] = n
	}
}

// Imports returns the ids f imports, in edge order.
func (g *Graph) Imports(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e.Target)
		}
	}
	return out
}

// ImportedBy returns the ids that import f, in edge order.
func (g *Graph) ImportedBy(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Target == id {
			out = append(out, e.Source)
		}
	}
	return out
}

// resolve maps a relative import to a scanned path.
func (g *Graph) resolve(f *codebase.SourceFile, imp extract.Import) (string, bool) {
	spec := imp.Source
	if extract.FamilyOf(f.Extension) == extract.FamilyPython {
		spec = pythonRelative(spec)
	}
	if !IsRelative(spec) {
		return "", false
	}

	base := path.Join(f.Dir(), spec)
	switch {
	case base == ".":
		base = ""
	case base == ".." || strings.HasPrefix(base, "../"):
		return "", false
	}

	for _, c := range candidates(base) {
		if _, ok := g.index[c]; ok {
			return c, true
		}
	}
	return "", false
}

// IsRelative reports whether spec is a "./" or "../" module specifier.
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// candidates lists the paths a resolved base may refer to, most specific first.
func candidates(base string) []string {
	var out []string
	if base != "" {
		out = append(out, base)
		for _, ext := range resolveExts {
			out = append(out, base+"."+ext)
		}
	}
	dir := base
	if dir != "" {
		dir += "/"
	}
	for _, ext := range resolveExts {
		if ext == "py" {
			continue
		}
		out = append(out, dir+"index."+ext)
	}
	return append(out, dir+"__init__.py")
}

// pythonRelative rewrites ".models" to "./models" and "..pkg.mod" to
// "../pkg/mod". Absolute module names are returned unchanged.
func pythonRelative(spec string) string {
	dots := 0
	for dots < len(spec) && spec[dots] == '.' {
		dots++
	}
	if dots == 0 {
		return spec
	}
	prefix := "./"
	if dots > 1 {
		prefix = strings.Repeat("../", dots-1)
	}
	return prefix + strings.ReplaceAll(spec[dots:], ".", "/")
}
