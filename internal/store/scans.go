package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"repoviz/internal/errors"
	"repoviz/internal/scan"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Save stores r and its file contents, replacing any earlier copy with the
// same id.
func (s *Store) Save(ctx context.Context, r *scan.Result) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode scan %s: %w", r.ID, err)
	}
	h := r.Header()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, r.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scans (id, origin, commit_hash, created_at, file_count, style, result)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			h.ID, h.Source, h.Commit, h.CreatedAt.UTC().Format(timeLayout), h.FileCount, h.Style, s.compress(doc),
		); err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO scan_files (scan_id, path, content) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range r.Files {
			if _, err := stmt.ExecContext(ctx, r.ID, f.Path, s.compress([]byte(f.Content))); err != nil {
				return fmt.Errorf("insert file %s: %w", f.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.InternalError, "save scan", err)
	}

	s.logger.Debug("Saved scan", "id", r.ID, "files", len(r.Files))
	return nil
}

// Get loads a scan with its file contents.
func (s *Store) Get(ctx context.Context, id string) (*scan.Result, error) {
	var blob []byte
	err := s.conn.QueryRowContext(ctx, `SELECT result FROM scans WHERE id = ?`, id).Scan(&blob)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf(errors.ScanNotFound, "scan %s not found", id)
	}
	if err != nil {
		return nil, errors.New(errors.InternalError, "load scan", err)
	}

	doc, err := s.decompress(blob)
	if err != nil {
		return nil, errors.New(errors.InternalError, "load scan", err)
	}
	var r scan.Result
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, errors.New(errors.InternalError, "decode scan", err)
	}

	contents, err := s.fileContents(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, f := range r.Files {
		f.Content = contents[f.Path]
	}
	return &r, nil
}

func (s *Store) fileContents(ctx context.Context, id string) (map[string]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT path, content FROM scan_files WHERE scan_id = ?`, id)
	if err != nil {
		return nil, errors.New(errors.InternalError, "load scan files", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var (
			path string
			blob []byte
		)
		if err := rows.Scan(&path, &blob); err != nil {
			return nil, errors.New(errors.InternalError, "load scan files", err)
		}
		content, err := s.decompress(blob)
		if err != nil {
			return nil, errors.New(errors.InternalError, "load scan files", err)
		}
		out[path] = string(content)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.InternalError, "load scan files", err)
	}
	return out, nil
}

// List returns scan headers, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]scan.Header, error) {
	query := `SELECT id, origin, commit_hash, created_at, file_count, style FROM scans ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(errors.InternalError, "list scans", err)
	}
	defer rows.Close()

	out := []scan.Header{}
	for rows.Next() {
		var (
			h       scan.Header
			created string
		)
		if err := rows.Scan(&h.ID, &h.Source, &h.Commit, &created, &h.FileCount, &h.Style); err != nil {
			return nil, errors.New(errors.InternalError, "list scans", err)
		}
		if h.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			s.logger.Warn("Unparseable scan timestamp", "id", h.ID, "value", created)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.InternalError, "list scans", err)
	}
	return out, nil
}

// Delete removes a scan and its files.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return errors.New(errors.InternalError, "delete scan", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ScanNotFound, "scan %s not found", id)
	}
	return nil
}
