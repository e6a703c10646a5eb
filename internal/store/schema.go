package store

import (
	"context"
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scans (
		id          TEXT PRIMARY KEY,
		origin      TEXT NOT NULL,
		commit_hash TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		file_count  INTEGER NOT NULL,
		style       TEXT NOT NULL DEFAULT '',
		result      BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS scan_files (
		scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		path    TEXT NOT NULL,
		content BLOB NOT NULL,
		PRIMARY KEY (scan_id, path)
	)`,
}

func (s *Store) migrate() error {
	var version int
	err := s.conn.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == nil && version == currentSchemaVersion {
		return nil
	}
	if err == nil && version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	return s.withTx(context.Background(), func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
			return err
		}
		s.logger.Info("Store schema initialized", "version", currentSchemaVersion, "path", s.path)
		return nil
	})
}
