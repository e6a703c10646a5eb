package source

import (
	"archive/tar"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"repoviz/internal/codebase"
	"repoviz/internal/errors"
	"repoviz/internal/paths"
)

// Archive kinds.
const (
	KindZip   = "zip"
	KindTarGz = "tar.gz"
)

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
)

// ArchiveLoader reads uploaded .zip and .tar.gz archives. A single top-level
// directory shared by every entry is stripped.
type ArchiveLoader struct {
	Filter *Filter
	Logger *slog.Logger
	// MaxTotalBytes bounds the decompressed size read from one archive.
	// Zero means unlimited.
	MaxTotalBytes int64
}

// NewArchiveLoader creates an ArchiveLoader. logger may be nil.
func NewArchiveLoader(filter *Filter, logger *slog.Logger, maxTotal int64) *ArchiveLoader {
	return &ArchiveLoader{Filter: filter, Logger: logger, MaxTotalBytes: maxTotal}
}

// DetectKind identifies an archive by magic bytes, then by name.
func DetectKind(name string, head []byte) string {
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return KindZip
	case bytes.HasPrefix(head, gzipMagic):
		return KindTarGz
	}
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return KindZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz
	}
	return ""
}

// LoadFile opens an archive on disk. name is the original upload name.
func (l *ArchiveLoader) LoadFile(ctx context.Context, file, name string) ([]codebase.FileInput, Snapshot, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, Snapshot{}, errors.New(errors.InternalError, "open upload", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, Snapshot{}, errors.New(errors.InternalError, "stat upload", err)
	}
	return l.Load(ctx, name, f, info.Size())
}

// Load reads an archive of the given size from r.
func (l *ArchiveLoader) Load(ctx context.Context, name string, r io.ReaderAt, size int64) ([]codebase.FileInput, Snapshot, error) {
	head := make([]byte, 4)
	n, _ := r.ReadAt(head, 0)

	var (
		entries []entry
		err     error
	)
	switch DetectKind(name, head[:n]) {
	case KindZip:
		entries, err = l.readZip(ctx, r, size)
	case KindTarGz:
		entries, err = l.readTarGz(ctx, io.NewSectionReader(r, 0, size))
	default:
		return nil, Snapshot{}, errors.Newf(errors.UnsupportedArchive, "unsupported archive %q: expected .zip or .tar.gz", name)
	}
	if err != nil {
		return nil, Snapshot{}, err
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = paths.NormalizePath(e.name)
	}
	names = paths.StripCommonRoot(names)

	c := newCollector(l.Filter, l.Logger, name)
	for i, e := range entries {
		if names[i] == "" {
			continue
		}
		if e.content == nil {
			c.snap.Skipped++
			continue
		}
		if !c.add(names[i], e.content) {
			break
		}
	}
	inputs, snap := c.result()
	return inputs, snap, nil
}

// entry is one regular file read from an archive. content is nil when the
// file exceeded the per-file limit.
type entry struct {
	name    string
	content []byte
}

type budget struct {
	max, used int64
}

func (b *budget) take(n int64) error {
	b.used += n
	if b.max > 0 && b.used > b.max {
		return errors.Newf(errors.UploadTooLarge, "archive expands beyond %d bytes", b.max)
	}
	return nil
}

func checkEntryName(name string) error {
	if !paths.IsSafeRelative(name) {
		return errors.Newf(errors.InvalidInput, "archive entry %q escapes the archive root", name)
	}
	return nil
}

// readEntry reads at most the per-file limit; larger entries return nil.
func (l *ArchiveLoader) readEntry(r io.Reader, b *budget) ([]byte, error) {
	limit := int64(-1)
	if l.Filter != nil && l.Filter.MaxFileSize > 0 {
		limit = l.Filter.MaxFileSize
	}
	var src io.Reader = r
	if limit >= 0 {
		src = io.LimitReader(r, limit+1)
	}
	content, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.New(errors.UnsupportedArchive, "corrupt archive entry", err)
	}
	if err := b.take(int64(len(content))); err != nil {
		return nil, err
	}
	if limit >= 0 && int64(len(content)) > limit {
		return nil, nil
	}
	return content, nil
}

func (l *ArchiveLoader) readZip(ctx context.Context, r io.ReaderAt, size int64) ([]entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.New(errors.UnsupportedArchive, "invalid zip archive", err)
	}

	b := &budget{max: l.MaxTotalBytes}
	var out []entry
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() || !f.Mode().IsRegular() {
			continue
		}
		if err := checkEntryName(f.Name); err != nil {
			return nil, err
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.New(errors.UnsupportedArchive, "open zip entry "+f.Name, err)
		}
		content, err := l.readEntry(rc, b)
		rc.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, entry{name: f.Name, content: content})
	}
	return out, nil
}

func (l *ArchiveLoader) readTarGz(ctx context.Context, r io.Reader) ([]entry, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.New(errors.UnsupportedArchive, "invalid gzip stream", err)
	}
	defer gz.Close()

	b := &budget{max: l.MaxTotalBytes}
	tr := tar.NewReader(gz)
	var out []entry
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New(errors.UnsupportedArchive, "invalid tar stream", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := checkEntryName(hdr.Name); err != nil {
			return nil, err
		}
		content, err := l.readEntry(tr, b)
		if err != nil {
			return nil, err
		}
		out = append(out, entry{name: hdr.Name, content: content})
	}
	return out, nil
}
