package source

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"repoviz/internal/codebase"
	"repoviz/internal/errors"
)

// DirLoader reads a directory tree, honoring .gitignore files and the
// Filter's ignore globs.
type DirLoader struct {
	Filter *Filter
	Logger *slog.Logger
}

// NewDirLoader creates a DirLoader. logger may be nil.
func NewDirLoader(filter *Filter, logger *slog.Logger) *DirLoader {
	return &DirLoader{Filter: filter, Logger: logger}
}

// Load walks root and returns its text files in lexical order.
func (l *DirLoader) Load(ctx context.Context, root string) ([]codebase.FileInput, Snapshot, error) {
	return l.load(ctx, root, root)
}

func (l *DirLoader) load(ctx context.Context, root, origin string) ([]codebase.FileInput, Snapshot, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, Snapshot{}, errors.New(errors.InvalidInput, "cannot read scan root "+root, err)
	}
	if !info.IsDir() {
		return nil, Snapshot{}, errors.Newf(errors.InvalidInput, "%s is not a directory", root)
	}

	c := newCollector(l.Filter, l.Logger, origin)
	var ignores []gitignore.Pattern
	matcher := gitignore.NewMatcher(nil)

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			c.logger.Warn("Skipping unreadable path", "path", p, "error", walkErr.Error())
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}
		var segments []string
		if rel != "" {
			segments = strings.Split(rel, "/")
		}

		if d.IsDir() {
			if rel != "" && (d.Name() == ".git" || c.filter.Ignored(rel, true) || matcher.Match(segments, true)) {
				return fs.SkipDir
			}
			if ps := readGitignore(filepath.Join(p, ".gitignore"), segments); len(ps) > 0 {
				ignores = append(ignores, ps...)
				matcher = gitignore.NewMatcher(ignores)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher.Match(segments, false) {
			c.snap.Skipped++
			return nil
		}

		if fi, err := d.Info(); err == nil && c.filter.TooLarge(fi.Size()) {
			c.snap.Skipped++
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			c.logger.Warn("Skipping unreadable file", "path", rel, "error", err.Error())
			c.snap.Skipped++
			return nil
		}
		if !c.add(rel, content) {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, Snapshot{}, ctx.Err()
		}
		return nil, Snapshot{}, errors.New(errors.InternalError, "walk "+root, err)
	}

	inputs, snap := c.result()
	c.logger.Debug("Loaded directory", "root", root, "files", snap.Files, "skipped", snap.Skipped)
	return inputs, snap, nil
}

// readGitignore parses a .gitignore scoped to the directory segments.
func readGitignore(file string, domain []string) []gitignore.Pattern {
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()

	var ps []gitignore.Pattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}
	return ps
}
