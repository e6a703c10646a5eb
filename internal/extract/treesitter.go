//go:build cgo

package extract

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"repoviz/internal/slogutil"
)

// TreeSitterExtractor walks real syntax trees for JavaScript, TypeScript and
// Python and defers to the regex rules for everything else, including files
// whose tree contains errors.
type TreeSitterExtractor struct {
	fallback *RegexExtractor
	logger   *slog.Logger
	pool     sync.Pool
}

// NewTreeSitterExtractor creates a syntax-tree extractor. logger may be nil.
func NewTreeSitterExtractor(logger *slog.Logger) (*TreeSitterExtractor, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &TreeSitterExtractor{
		fallback: NewRegexExtractor(logger),
		logger:   logger,
		pool:     sync.Pool{New: func() any { return sitter.NewParser() }},
	}, nil
}

// TreeSitterAvailable reports whether the syntax-tree extractor is compiled in.
func TreeSitterAvailable() bool {
	return true
}

func languageFor(ext string) *sitter.Language {
	switch ext {
	case "js", "jsx", "mjs", "cjs":
		return javascript.GetLanguage()
	case "ts", "mts", "cts":
		return typescript.GetLanguage()
	case "tsx":
		return tsx.GetLanguage()
	case "py", "pyw":
		return python.GetLanguage()
	default:
		return nil
	}
}

// Extract implements Extractor.
func (e *TreeSitterExtractor) Extract(content, filename, extension string) (res *Result) {
	ext := normalizeExt(extension, filename)
	lang := languageFor(ext)
	if lang == nil || content == "" {
		return e.fallback.Extract(content, filename, extension)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Syntax-tree extraction failed, recording empty result",
				"file", filename,
				"panic", r,
			)
			res = Empty()
		}
	}()

	parser := e.pool.Get().(*sitter.Parser)
	defer e.pool.Put(parser)
	parser.SetLanguage(lang)

	src := []byte(content)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil || tree == nil {
		e.logger.Debug("Parse failed, using regex rules", "file", filename, "error", err)
		return e.fallback.Extract(content, filename, extension)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		e.logger.Debug("Syntax errors in tree, using regex rules", "file", filename)
		return e.fallback.Extract(content, filename, extension)
	}

	w := &walker{src: src, res: Empty(), seenFn: map[string]bool{}, seenImport: map[string]bool{}, seenExport: map[string]bool{}}
	if FamilyOf(ext) == FamilyPython {
		w.walkPython(root)
	} else {
		w.walkJS(root)
	}
	return w.res
}

type walker struct {
	src        []byte
	res        *Result
	seenFn     map[string]bool
	seenImport map[string]bool
	seenExport map[string]bool
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func (w *walker) addFunction(name string, n *sitter.Node, kind string, async bool) {
	if name == "" || w.seenFn[name] {
		return
	}
	w.seenFn[name] = true
	w.res.Functions = append(w.res.Functions, Function{Name: name, Line: line(n), Async: async, Kind: kind})
}

func (w *walker) addImport(source string, n *sitter.Node, kind string) {
	if source == "" || w.seenImport[source] {
		return
	}
	w.seenImport[source] = true
	w.res.Imports = append(w.res.Imports, Import{Source: source, Line: line(n), Kind: kind})
}

func (w *walker) addExport(name string, n *sitter.Node) {
	if name == "" || w.seenExport[name] {
		return
	}
	w.seenExport[name] = true
	w.res.Exports = append(w.res.Exports, Export{Name: name, Line: line(n)})
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}

func startsAsync(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "async" {
			return true
		}
		if c.IsNamed() {
			break
		}
	}
	return false
}

func (w *walker) walkJS(n *sitter.Node) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		w.addFunction(w.text(n.ChildByFieldName("name")), n, KindDeclaration, startsAsync(n))
	case "variable_declarator":
		if v := n.ChildByFieldName("value"); v != nil {
			switch v.Type() {
			case "function", "function_expression", "generator_function":
				w.addFunction(w.text(n.ChildByFieldName("name")), n, KindExpression, startsAsync(v))
			case "arrow_function":
				w.addFunction(w.text(n.ChildByFieldName("name")), n, KindArrow, startsAsync(v))
			}
		}
	case "method_definition":
		w.addFunction(w.text(n.ChildByFieldName("name")), n, KindMethod, startsAsync(n))
	case "class_declaration", "abstract_class_declaration":
		c := Class{Name: w.text(n.ChildByFieldName("name")), Line: line(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if h := n.NamedChild(i); h.Type() == "class_heritage" {
				c.Extends = heritageBase(w.text(h))
			}
		}
		if c.Name != "" {
			w.res.Classes = append(w.res.Classes, c)
		}
	case "import_statement":
		kind := ImportStatic
		if n.NamedChildCount() == 1 {
			kind = ImportSideEff
		}
		w.addImport(unquote(w.text(n.ChildByFieldName("source"))), n, kind)
	case "export_statement":
		w.jsExport(n)
	case "call_expression":
		w.res.CallSites++
		fn := n.ChildByFieldName("function")
		args := n.ChildByFieldName("arguments")
		if fn != nil && args != nil && args.NamedChildCount() > 0 {
			first := args.NamedChild(0)
			if first.Type() == "string" {
				switch fn.Type() {
				case "identifier":
					if w.text(fn) == "require" {
						w.addImport(unquote(w.text(first)), n, ImportRequire)
					}
				case "import":
					w.addImport(unquote(w.text(first)), n, ImportDynamic)
				}
			}
		}
	case "assignment_expression":
		w.commonJSExport(n)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walkJS(n.NamedChild(i))
	}
}

func (w *walker) jsExport(n *sitter.Node) {
	if src := n.ChildByFieldName("source"); src != nil {
		w.addImport(unquote(w.text(src)), n, ImportReexport)
	}

	isDefault := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "default" {
			isDefault = true
		}
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		name := w.text(decl.ChildByFieldName("name"))
		if name == "" && decl.Type() == "lexical_declaration" {
			for i := 0; i < int(decl.NamedChildCount()); i++ {
				if d := decl.NamedChild(i); d.Type() == "variable_declarator" {
					w.addExport(w.text(d.ChildByFieldName("name")), n)
				}
			}
			return
		}
		if name == "" && isDefault {
			name = DefaultExport
		}
		w.addExport(name, n)
		return
	}

	if isDefault {
		name := DefaultExport
		if v := n.ChildByFieldName("value"); v != nil && v.Type() == "identifier" {
			name = w.text(v)
		}
		w.addExport(name, n)
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			spec := clause.NamedChild(j)
			name := w.text(spec.ChildByFieldName("alias"))
			if name == "" {
				name = w.text(spec.ChildByFieldName("name"))
			}
			w.addExport(name, spec)
		}
	}
}

// commonJSExport records module.exports = x, module.exports.x = and exports.x =.
func (w *walker) commonJSExport(n *sitter.Node) {
	left := w.text(n.ChildByFieldName("left"))
	right := n.ChildByFieldName("right")
	switch {
	case left == "module.exports":
		name := DefaultExport
		if right != nil {
			switch right.Type() {
			case "identifier":
				name = w.text(right)
			case "function", "function_expression", "class":
				if id := w.text(right.ChildByFieldName("name")); id != "" {
					name = id
				}
			}
		}
		w.addExport(name, n)
	case strings.HasPrefix(left, "module.exports."):
		w.addExport(strings.TrimPrefix(left, "module.exports."), n)
	case strings.HasPrefix(left, "exports."):
		w.addExport(strings.TrimPrefix(left, "exports."), n)
	}
}

func heritageBase(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "extends"))
	if i := strings.IndexAny(h, " \t\n<({,"); i >= 0 {
		h = h[:i]
	}
	return h
}

func (w *walker) walkPython(n *sitter.Node) {
	switch n.Type() {
	case "function_definition":
		w.addFunction(w.text(n.ChildByFieldName("name")), n, KindDef, startsAsync(n))
	case "class_definition":
		c := Class{Name: w.text(n.ChildByFieldName("name")), Line: line(n)}
		if sup := n.ChildByFieldName("superclasses"); sup != nil {
			c.Extends = firstBase(strings.Trim(w.text(sup), "()"))
		}
		w.res.Classes = append(w.res.Classes, c)
	case "import_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "dotted_name":
				w.addImport(w.text(c), n, ImportStatic)
			case "aliased_import":
				w.addImport(w.text(c.ChildByFieldName("name")), n, ImportStatic)
			}
		}
	case "import_from_statement":
		w.addImport(w.text(n.ChildByFieldName("module_name")), n, ImportFrom)
	case "call":
		w.res.CallSites++
	case "expression_statement":
		w.pythonAll(n)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walkPython(n.NamedChild(i))
	}
}

// pythonAll records the names listed in __all__.
func (w *walker) pythonAll(n *sitter.Node) {
	if n.NamedChildCount() == 0 {
		return
	}
	a := n.NamedChild(0)
	if a.Type() != "assignment" || w.text(a.ChildByFieldName("left")) != "__all__" {
		return
	}
	right := a.ChildByFieldName("right")
	if right == nil {
		return
	}
	for i := 0; i < int(right.NamedChildCount()); i++ {
		if s := right.NamedChild(i); s.Type() == "string" {
			w.addExport(unquote(w.text(s)), s)
		}
	}
}
