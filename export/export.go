// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package export packages a prepared dataset split into a single SQLite
// database, an optional post-step for pipelines that prefer reading one
// container file over thousands of small images paths.
package export

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/gomlx/reid/viper"
)

// Subset names used in the database.
const (
	SubsetTrain   = "train"
	SubsetQuery   = "query"
	SubsetGallery = "gallery"
)

const schema = `
CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    subset TEXT NOT NULL,
    path TEXT NOT NULL,
    pid INTEGER NOT NULL,
    camid INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_images_subset ON images(subset);
CREATE INDEX IF NOT EXISTS idx_images_subset_pid ON images(subset, pid);
`

// Store manages the exported dataset container backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the container database at dbPath and creates
// the schema if needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite db %q", dbPath)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, errors.Wrapf(execErr, "failed to apply pragma %q on %q", pragma, dbPath)
		}
	}
	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to create schema on %q", dbPath)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteDataset stores the train/query/gallery records of ds, replacing any
// previously exported content.
func (s *Store) WriteDataset(ctx context.Context, ds *viper.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to begin transaction on %q", s.path)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM images`); err != nil {
		return errors.Wrapf(err, "failed to clear previous export in %q", s.path)
	}
	subsets := []struct {
		name    string
		records []viper.ImageRecord
	}{
		{SubsetTrain, ds.Train},
		{SubsetQuery, ds.Query},
		{SubsetGallery, ds.Gallery},
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO images (subset, path, pid, camid) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrapf(err, "failed to prepare insert on %q", s.path)
	}
	defer func() { _ = stmt.Close() }()
	for _, subset := range subsets {
		for _, record := range subset.records {
			if _, err = stmt.ExecContext(ctx, subset.name, record.Path, record.PID, record.CamID); err != nil {
				return errors.Wrapf(err, "failed to insert %s record %q", subset.name, record.Path)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit export to %q", s.path)
	}
	return nil
}

// CountImages returns how many records of the given subset are in the container.
func (s *Store) CountImages(ctx context.Context, subset string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM images WHERE subset = ?`, subset).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count %s images in %q", subset, s.path)
	}
	return count, nil
}

// ReadSubset returns the records of the given subset, in insertion order.
func (s *Store) ReadSubset(ctx context.Context, subset string) ([]viper.ImageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, pid, camid FROM images WHERE subset = ? ORDER BY id`, subset)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s images from %q", subset, s.path)
	}
	defer func() { _ = rows.Close() }()

	var records []viper.ImageRecord
	for rows.Next() {
		var record viper.ImageRecord
		if err = rows.Scan(&record.Path, &record.PID, &record.CamID); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s record from %q", subset, s.path)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed while iterating %s records of %q", subset, s.path)
	}
	return records, nil
}
