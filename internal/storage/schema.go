/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"goslides/internal/version"
)

// schemaVersion tracks the store schema. Bump it and add a step to migrate
// when the layout changes.
const schemaVersion = 2

// The DDL is shared by both drivers; DOUBLE PRECISION maps to REAL affinity in sqlite.
var coreDDL = []string{
	`CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS slides (
		id          TEXT PRIMARY KEY,
		idx         INTEGER NOT NULL DEFAULT 0,
		background  TEXT NOT NULL DEFAULT '',
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS elements (
		slide_id  TEXT NOT NULL REFERENCES slides(id) ON DELETE CASCADE,
		id        TEXT NOT NULL,
		ord       INTEGER NOT NULL,
		type      TEXT NOT NULL,
		x         DOUBLE PRECISION NOT NULL,
		y         DOUBLE PRECISION NOT NULL,
		w         DOUBLE PRECISION NOT NULL,
		h         DOUBLE PRECISION NOT NULL,
		data      TEXT NOT NULL,
		PRIMARY KEY(slide_id, id)
	)`,
}

// migrate creates the core tables, seeds the version row and applies
// incremental steps up to schemaVersion.
func (s *Store) migrate(ctx context.Context) error {
	for _, q := range coreDDL {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := s.now()
	var cur int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh store: start at 1 and let the steps below run.
		cur = 1
		if _, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`), cur, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := s.db.ExecContext(ctx, s.rebind(`UPDATE version SET app=?, updated_at=? WHERE id=1`), version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	if cur > schemaVersion {
		s.l.Warn("store schema is newer than this build", slog.Int("schema", cur), slog.Int("supported", schemaVersion))
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_elements_slide_ord ON elements(slide_id, ord)`,
				`CREATE INDEX IF NOT EXISTS idx_slides_idx ON slides(idx)`,
			}
		}
		if err := s.step(ctx, next, stmts); err != nil {
			return err
		}
		s.l.Info("store migrated", slog.Int("schema", next))
		cur = next
	}
	return nil
}

func (s *Store) step(ctx context.Context, next int, stmts []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", next, err)
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d stmt failed: %w", next, err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, s.now()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d update version: %w", next, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d commit: %w", next, err)
	}
	return nil
}

// SchemaVersion reports the version recorded in the store.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Check runs an integrity probe. Postgres only gets a connectivity check.
func (s *Store) Check(ctx context.Context) error {
	if s.driver != DriverSQLite {
		return s.db.PingContext(ctx)
	}
	var res string
	if err := s.db.QueryRowContext(ctx, `PRAGMA quick_check`).Scan(&res); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(res), "ok") {
		return fmt.Errorf("quick_check: %s", res)
	}
	return nil
}
