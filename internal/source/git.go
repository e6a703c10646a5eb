package source

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/go-git/go-git/v5"

	"repoviz/internal/codebase"
	"repoviz/internal/errors"
	"repoviz/internal/slogutil"
)

// scpLike matches "git@github.com:owner/repo.git".
var scpLike = regexp.MustCompile(`^[\w.-]+@[\w.-]+:[\w./~-]+$`)

// GitLoader shallow-clones a remote into a temporary directory and loads it
// with a DirLoader.
type GitLoader struct {
	Dir     *DirLoader
	Depth   int
	Timeout time.Duration
	// AllowLocal permits local paths and file:// URLs. The API leaves it off.
	AllowLocal bool
	Logger     *slog.Logger
}

// NewGitLoader creates a GitLoader. logger may be nil.
func NewGitLoader(dir *DirLoader, depth int, timeout time.Duration, logger *slog.Logger) *GitLoader {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &GitLoader{Dir: dir, Depth: depth, Timeout: timeout, Logger: logger}
}

// ValidateURL accepts http(s), ssh and git URLs and scp-style remotes.
func (l *GitLoader) ValidateURL(raw string) error {
	if scpLike.MatchString(raw) {
		return nil
	}
	u, err := url.Parse(raw)
	if err == nil {
		switch u.Scheme {
		case "https", "http", "ssh", "git":
			if u.Host != "" {
				return nil
			}
		case "file":
			if l.AllowLocal {
				return nil
			}
		case "":
			if l.AllowLocal {
				if fi, statErr := os.Stat(raw); statErr == nil && fi.IsDir() {
					return nil
				}
			}
		}
	}
	return errors.Newf(errors.InvalidInput, "unsupported repository URL %q", raw)
}

// Load clones url and returns its files with the HEAD commit recorded.
func (l *GitLoader) Load(ctx context.Context, rawURL string) ([]codebase.FileInput, Snapshot, error) {
	if err := l.ValidateURL(rawURL); err != nil {
		return nil, Snapshot{}, err
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "repoviz-clone-*")
	if err != nil {
		return nil, Snapshot{}, errors.New(errors.InternalError, "create clone directory", err)
	}
	defer os.RemoveAll(dir)

	start := time.Now()
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          rawURL,
		Depth:        l.Depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, Snapshot{}, errors.New(errors.Timeout, "clone timed out", err)
		}
		return nil, Snapshot{}, errors.New(errors.CloneFailed, "clone "+rawURL, err)
	}

	var commit string
	if head, err := repo.Head(); err == nil {
		commit = head.Hash().String()
	}
	l.Logger.Info("Cloned repository",
		"url", rawURL,
		"commit", commit,
		"duration", time.Since(start).String(),
	)

	loader := l.Dir
	if loader == nil {
		loader = NewDirLoader(nil, l.Logger)
	}
	inputs, snap, err := loader.load(ctx, dir, rawURL)
	if err != nil {
		return nil, Snapshot{}, err
	}
	snap.Commit = commit
	return inputs, snap, nil
}
