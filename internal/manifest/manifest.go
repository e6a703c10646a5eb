// Package manifest reads declared dependency names from package manifests
// found in a scanned file set.
package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"repoviz/internal/codebase"
	"repoviz/internal/paths"
	"repoviz/internal/slogutil"
)

// Manifest is the merged dependency list of every recognized manifest.
type Manifest struct {
	// Dependencies are lowercased, deduplicated names in first-seen order.
	Dependencies []string `json:"dependencies"`
	// Sources lists the manifest paths that parsed successfully.
	Sources []string `json:"sources"`
}

type parser func(content []byte) ([]string, error)

// kinds lists recognized manifest file names in parse order.
var kinds = []struct {
	name  string
	parse parser
}{
	{"package.json", parsePackageJSON},
	{"requirements.txt", parseRequirements},
	{"pyproject.toml", parsePyproject},
	{"Cargo.toml", parseCargo},
	{"pubspec.yaml", parsePubspec},
	{"go.mod", parseGoMod},
}

// Known reports whether a base file name is a recognized manifest.
func Known(name string) bool {
	for _, k := range kinds {
		if k.name == name {
			return true
		}
	}
	return false
}

// Parse finds the shallowest manifest of each kind and merges their
// dependencies. A manifest that fails to parse is logged and skipped.
func Parse(files []codebase.FileInput, logger *slog.Logger) Manifest {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	chosen := make(map[string]codebase.FileInput)
	for _, f := range files {
		p := paths.NormalizePath(f.Path)
		base := p[strings.LastIndexByte(p, '/')+1:]
		if !Known(base) {
			continue
		}
		if prev, ok := chosen[base]; ok && !shallower(p, paths.NormalizePath(prev.Path)) {
			continue
		}
		f.Path = p
		chosen[base] = f
	}

	m := Manifest{Dependencies: []string{}, Sources: []string{}}
	seen := make(map[string]bool)
	for _, k := range kinds {
		f, ok := chosen[k.name]
		if !ok {
			continue
		}
		deps, err := k.parse([]byte(f.Content))
		if err != nil {
			logger.Debug("Skipping unparseable manifest",
				"path", f.Path,
				"error", err.Error(),
			)
			continue
		}
		m.Sources = append(m.Sources, f.Path)
		for _, d := range deps {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			m.Dependencies = append(m.Dependencies, d)
		}
	}
	return m
}

func shallower(a, b string) bool {
	da, db := strings.Count(a, "/"), strings.Count(b, "/")
	if da != db {
		return da < db
	}
	return a < b
}

func sortedKeys[V any](sets ...map[string]V) []string {
	var out []string
	for _, m := range sets {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out = append(out, keys...)
	}
	return out
}

func parsePackageJSON(content []byte) ([]string, error) {
	var pkg struct {
		Dependencies         map[string]string `json:"dependencies"`
		DevDependencies      map[string]string `json:"devDependencies"`
		PeerDependencies     map[string]string `json:"peerDependencies"`
		OptionalDependencies map[string]string `json:"optionalDependencies"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("package.json: %w", err)
	}
	return sortedKeys(pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies, pkg.OptionalDependencies), nil
}

// requirementName strips version specifiers, extras and markers from a
// PEP 508 requirement.
func requirementName(req string) string {
	req = strings.TrimSpace(req)
	if i := strings.IndexAny(req, "<>=!~;[ @("); i >= 0 {
		req = req[:i]
	}
	return strings.TrimSpace(req)
}

func parseRequirements(content []byte) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(string(content)))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.Contains(line, "://") {
			continue
		}
		if name := requirementName(line); name != "" {
			out = append(out, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("requirements.txt: %w", err)
	}
	return out, nil
}

func parsePyproject(content []byte) ([]string, error) {
	var doc struct {
		Project struct {
			Dependencies         []string            `toml:"dependencies"`
			OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies    map[string]any `toml:"dependencies"`
				DevDependencies map[string]any `toml:"dev-dependencies"`
				Group           map[string]struct {
					Dependencies map[string]any `toml:"dependencies"`
				} `toml:"group"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := gotoml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("pyproject.toml: %w", err)
	}

	var out []string
	for _, req := range doc.Project.Dependencies {
		out = append(out, requirementName(req))
	}
	for _, extra := range sortedKeys(doc.Project.OptionalDependencies) {
		for _, req := range doc.Project.OptionalDependencies[extra] {
			out = append(out, requirementName(req))
		}
	}
	poetry := doc.Tool.Poetry
	for _, name := range sortedKeys(poetry.Dependencies, poetry.DevDependencies) {
		if name != "python" {
			out = append(out, name)
		}
	}
	for _, group := range sortedKeys(poetry.Group) {
		out = append(out, sortedKeys(poetry.Group[group].Dependencies)...)
	}
	return out, nil
}

func parseCargo(content []byte) ([]string, error) {
	var doc struct {
		Dependencies      map[string]toml.Primitive `toml:"dependencies"`
		DevDependencies   map[string]toml.Primitive `toml:"dev-dependencies"`
		BuildDependencies map[string]toml.Primitive `toml:"build-dependencies"`
	}
	if _, err := toml.Decode(string(content), &doc); err != nil {
		return nil, fmt.Errorf("Cargo.toml: %w", err)
	}
	return sortedKeys(doc.Dependencies, doc.DevDependencies, doc.BuildDependencies), nil
}

func parsePubspec(content []byte) ([]string, error) {
	var doc struct {
		Dependencies    map[string]yaml.Node `yaml:"dependencies"`
		DevDependencies map[string]yaml.Node `yaml:"dev_dependencies"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("pubspec.yaml: %w", err)
	}
	return sortedKeys(doc.Dependencies, doc.DevDependencies), nil
}

func parseGoMod(content []byte) ([]string, error) {
	f, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return nil, fmt.Errorf("go.mod: %w", err)
	}
	out := make([]string, 0, len(f.Require))
	for _, r := range f.Require {
		out = append(out, r.Mod.Path)
	}
	return out, nil
}
