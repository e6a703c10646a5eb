package extract

import (
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"

	"repoviz/internal/slogutil"
)

// AsyncWindow is the number of bytes before a function match searched for
// the async keyword. The search stops at the nearest statement boundary.
const AsyncWindow = 24

var asyncRe = regexp.MustCompile(`\basync\b`)

// RegexExtractor applies the ordered per-family rules to the whole text.
type RegexExtractor struct {
	logger *slog.Logger
}

// NewRegexExtractor creates a regex-backed extractor. logger may be nil.
func NewRegexExtractor(logger *slog.Logger) *RegexExtractor {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &RegexExtractor{logger: logger}
}

// Extract implements Extractor. It recovers from any internal failure and
// returns an empty result in that case.
func (e *RegexExtractor) Extract(content, filename, extension string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Extraction failed, recording empty result",
				"file", filename,
				"panic", r,
			)
			res = Empty()
		}
	}()

	rules := rulesFor(FamilyOf(normalizeExt(extension, filename)))
	if rules == nil || content == "" {
		return Empty()
	}
	return scan(content, rules)
}

func scan(content string, rules *ruleSet) *Result {
	lines := newLineIndex(content)
	res := Empty()

	seenFn := make(map[string]bool)
	for _, h := range collect(content, rules.functions) {
		name := h.names[0]
		if seenFn[name] {
			continue
		}
		seenFn[name] = true
		res.Functions = append(res.Functions, Function{
			Name:  name,
			Line:  lines.line(h.at),
			Async: isAsync(content, h.start, h.end),
			Kind:  h.kind,
		})
	}

	for _, h := range collect(content, rules.classes) {
		c := Class{Name: h.names[0], Line: lines.line(h.at)}
		if len(h.sub) > 2 {
			c.Extends = firstBase(h.sub[2])
		}
		res.Classes = append(res.Classes, c)
	}

	seenImport := make(map[string]bool)
	for _, h := range collect(content, rules.imports) {
		for _, src := range h.names {
			if seenImport[src] {
				continue
			}
			seenImport[src] = true
			res.Imports = append(res.Imports, Import{Source: src, Line: lines.line(h.at), Kind: h.kind})
		}
	}

	seenExport := make(map[string]bool)
	for _, h := range collect(content, rules.exports) {
		for _, name := range h.names {
			if seenExport[name] {
				continue
			}
			seenExport[name] = true
			res.Exports = append(res.Exports, Export{Name: name, Line: lines.line(h.at)})
		}
	}

	res.CallSites = countCallSites(content)
	return res
}

// hit is one rule match. pos is the offset of the first capture group,
// falling back to the match start, and orders hits. at is the first
// non-space byte of the match and gives the recorded line.
type hit struct {
	start, end, pos, at int
	sub             []string
	kind            string
	names           []string
}

// collect runs every rule and orders the hits by text position. Rules that
// hit the same position keep their declared order.
func collect(content string, rules []rule) []hit {
	var hits []hit
	for _, r := range rules {
		for _, idx := range r.re.FindAllStringSubmatchIndex(content, -1) {
			sub := make([]string, len(idx)/2)
			for i := range sub {
				if idx[2*i] >= 0 {
					sub[i] = content[idx[2*i]:idx[2*i+1]]
				}
			}

			var names []string
			if r.names != nil {
				names = r.names(sub)
			} else if len(sub) > 1 && sub[1] != "" {
				names = []string{sub[1]}
			}
			if len(names) == 0 {
				continue
			}

			pos := idx[0]
			if len(idx) > 2 && idx[2] >= 0 {
				pos = idx[2]
			}
			at := idx[0]
			for at < pos && isSpace(content[at]) {
				at++
			}
			hits = append(hits, hit{
				start: idx[0],
				end:   idx[1],
				pos:   pos,
				at:    at,
				sub:   sub,
				kind:  r.kind,
				names: names,
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	return hits
}

// isAsync looks for the async keyword in the match and in up to AsyncWindow
// bytes before it, not crossing a newline, semicolon or brace.
func isAsync(content string, start, end int) bool {
	from := start - AsyncWindow
	if from < 0 {
		from = 0
	}
	window := content[from:start]
	if i := strings.LastIndexAny(window, ";{}\n"); i >= 0 {
		window = window[i+1:]
	}
	return asyncRe.MatchString(window + content[start:end])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func countCallSites(content string) int {
	n := 0
	for _, sub := range callSiteRe.FindAllStringSubmatch(content, -1) {
		if !keywords[sub[1]] {
			n++
		}
	}
	return n
}

// lineIndex holds the offsets of every newline in a text.
type lineIndex []int

func newLineIndex(content string) lineIndex {
	var idx lineIndex
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			idx = append(idx, i)
		}
	}
	return idx
}

// line returns the 1-based line containing offset.
func (li lineIndex) line(offset int) int {
	return sort.SearchInts(li, offset) + 1
}

// normalizeExt lowercases ext and strips its dot, deriving it from filename
// when empty.
func normalizeExt(ext, filename string) string {
	if ext == "" {
		ext = path.Ext(filename)
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
