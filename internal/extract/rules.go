package extract

import (
	"regexp"
	"strings"
)

// rule is one ordered recognition pattern. names turns a submatch into the
// recorded names; nil means the first capture group.
type rule struct {
	kind  string
	re    *regexp.Regexp
	names func(sub []string) []string
}

// ruleSet holds the ordered rules for one family.
type ruleSet struct {
	functions []rule
	classes   []rule
	imports   []rule
	exports   []rule
}

const ident = `[A-Za-z_$][\w$]*`

var jsRules = ruleSet{
	functions: []rule{
		{kind: KindDeclaration, re: regexp.MustCompile(`\bfunction\b\s*\*?\s*(` + ident + `)\s*(?:<[^>]*>\s*)?\(`)},
		{kind: KindExpression, re: regexp.MustCompile(`\b(?:const|let|var)\s+(` + ident + `)\s*(?::[^=]+)?=\s*(?:async\s+)?function\b`)},
		{kind: KindArrow, re: regexp.MustCompile(`\b(?:const|let|var)\s+(` + ident + `)\s*(?::[^=]+)?=\s*(?:async\s*)?(?:\([^()]*\)|` + ident + `)\s*(?::\s*[^=;{]+)?=>`)},
		{kind: KindMethod, re: regexp.MustCompile(`(?m)^[ \t]*(?:(?:static|async|public|private|protected|readonly|override|get|set)\s+)*\*?(` + ident + `)\s*\([^()]*\)\s*(?::\s*[^{;=]+)?\{`), names: methodName},
	},
	classes: []rule{
		{re: regexp.MustCompile(`\bclass\s+(` + ident + `)(?:\s*<[^>]*>)?(?:\s+extends\s+(` + ident + `(?:\.` + ident + `)*))?`)},
	},
	imports: []rule{
		{kind: ImportRequire, re: regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)},
		{kind: ImportStatic, re: regexp.MustCompile(`\bimport\s+(?:type\s+)?[\w$*{}\s,]+?\s+from\s*['"]([^'"\n]+)['"]`)},
		{kind: ImportSideEff, re: regexp.MustCompile(`\bimport\s*['"]([^'"\n]+)['"]`)},
		{kind: ImportDynamic, re: regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)},
		{kind: ImportReexport, re: regexp.MustCompile(`\bexport\s+(?:type\s+)?(?:\*(?:\s+as\s+` + ident + `)?|\{[^}]*\})\s*from\s*['"]([^'"\n]+)['"]`)},
	},
	exports: []rule{
		{re: regexp.MustCompile(`\bmodule\.exports\s*=\s*(?:(?:async\s+)?function\b\s*\*?\s*|class\s+)?(` + ident + `)?`), names: orDefault},
		{re: regexp.MustCompile(`\bmodule\.exports\.(` + ident + `)\s*=`)},
		{re: regexp.MustCompile(`(?m)(?:^|[^.\w$])exports\.(` + ident + `)\s*=`)},
		{re: regexp.MustCompile(`\bexport\s+default\s+(?:(?:async\s+)?function\b\s*\*?\s*|(?:abstract\s+)?class\s+)?(` + ident + `)?`), names: orDefault},
		{re: regexp.MustCompile(`\bexport\s+(?:declare\s+)?(?:async\s+)?(?:function\s*\*?|(?:abstract\s+)?class|const|let|var|interface|type|enum)\s+(` + ident + `)`)},
		{re: regexp.MustCompile(`\bexport\s*\{([^}]*)\}`), names: exportList},
	},
}

var pyRules = ruleSet{
	functions: []rule{
		{kind: KindDef, re: regexp.MustCompile(`(?m)^[ \t]*(?:async[ \t]+)?def[ \t]+([A-Za-z_]\w*)[ \t]*\(`)},
	},
	classes: []rule{
		{re: regexp.MustCompile(`(?m)^[ \t]*class[ \t]+([A-Za-z_]\w*)[ \t]*(?:\(([^)]*)\))?[ \t]*:`)},
	},
	imports: []rule{
		{kind: ImportFrom, re: regexp.MustCompile(`(?m)^[ \t]*from[ \t]+([.\w]+)[ \t]+import\b`)},
		{kind: ImportStatic, re: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([^\n#;]+)`), names: pythonImportList},
	},
	exports: []rule{
		{re: regexp.MustCompile(`__all__\s*=\s*[\[(]([^\])]*)[\])]`), names: quotedList},
	},
}

var callSiteRe = regexp.MustCompile(`(` + ident + `)\s*\(`)

// keywords never count as function names or call sites.
var keywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"with": true, "function": true, "return": true, "else": true, "do": true,
	"try": true, "typeof": true, "new": true, "super": true, "await": true,
	"yield": true, "def": true, "class": true, "elif": true, "except": true,
	"import": true, "require": true, "not": true, "and": true,
	"or": true, "in": true, "lambda": true, "assert": true, "del": true,
	"async": true, "void": true, "delete": true,
	"instanceof": true, "throw": true, "case": true, "extends": true,
}

func methodName(sub []string) []string {
	if keywords[sub[1]] {
		return nil
	}
	return []string{sub[1]}
}

// orDefault names an export by its captured identifier, or "default" when
// nothing or only a keyword (async, class extends, new) was captured.
func orDefault(sub []string) []string {
	if len(sub) > 1 && sub[1] != "" && !keywords[sub[1]] {
		return []string{sub[1]}
	}
	return []string{DefaultExport}
}

// exportList parses "a, b as c, default as d" into [a c d].
func exportList(sub []string) []string {
	var out []string
	for _, part := range strings.Split(sub[1], ",") {
		fields := strings.Fields(part)
		switch {
		case len(fields) == 0:
			continue
		case len(fields) >= 3 && fields[len(fields)-2] == "as":
			out = append(out, fields[len(fields)-1])
		case fields[0] == "type" && len(fields) > 1:
			out = append(out, fields[1])
		default:
			out = append(out, fields[0])
		}
	}
	return out
}

// pythonImportList parses "os, sys as system" into [os sys].
func pythonImportList(sub []string) []string {
	var out []string
	for _, part := range strings.Split(sub[1], ",") {
		fields := strings.Fields(strings.Trim(part, "() \t\\"))
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

// quotedList parses `"a", 'b'` into [a b].
func quotedList(sub []string) []string {
	var out []string
	for _, part := range strings.Split(sub[1], ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// firstBase returns the first positional base in "A, B" or "Base, metaclass=M".
func firstBase(bases string) string {
	for _, part := range strings.Split(bases, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !strings.Contains(part, "=") {
			return part
		}
	}
	return ""
}

func rulesFor(f Family) *ruleSet {
	switch f {
	case FamilyJS:
		return &jsRules
	case FamilyPython:
		return &pyRules
	default:
		return nil
	}
}
