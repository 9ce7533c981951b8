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
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	applog "goslides/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"

	// DefaultFileName is the sqlite file created when Config.Path names a directory.
	DefaultFileName = "slides.sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrDriver   = errors.New("unsupported storage driver")
)

// Config selects and locates the database.
type Config struct {
	Driver   string // "sqlite" (default) or "pgx"
	Path     string // sqlite file or directory
	DSN      string // postgres connection string
	Password string // optional; overrides the DSN password (from the keyring)
}

// Store is the element store. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	driver  string
	pgName  string
	l       *slog.Logger
	timeNow func() time.Time
}

// Open connects to the configured database and brings the schema up to date.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("driver", driver))
	s := &Store{driver: driver, l: applog.WithComponent("storage"), timeNow: time.Now}

	var err error
	switch driver {
	case DriverSQLite:
		s.db, err = openSQLite(ctx, cfg.Path)
	case DriverPgx:
		s.db, s.pgName, err = openPgx(ctx, cfg.DSN, cfg.Password)
	default:
		return nil, fmt.Errorf("%w: %q", ErrDriver, cfg.Driver)
	}
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		_ = s.Close()
		l.Error("schema setup failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("store ready")
	return s, nil
}

func sqlitePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("sqlite path is required")
	}
	if fi, err := os.Stat(p); err == nil && fi.IsDir() {
		return filepath.Join(p, DefaultFileName), nil
	}
	return p, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	path, err := sqlitePath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	// Forward slashes for the SQLite URI.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	return db, nil
}

// openPgx registers a parsed pgx config so a keyring password never has to be
// spliced into the DSN string.
func openPgx(ctx context.Context, dsn, password string) (*sql.DB, string, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, "", errors.New("postgres dsn is required")
	}
	cc, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, "", fmt.Errorf("parse dsn: %w", err)
	}
	if password != "" {
		cc.Password = password
	}
	name := stdlib.RegisterConnConfig(cc)
	db, err := sql.Open("pgx", name)
	if err != nil {
		stdlib.UnregisterConnConfig(name)
		return nil, "", fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		stdlib.UnregisterConnConfig(name)
		return nil, "", fmt.Errorf("ping postgres: %w", err)
	}
	return db, name, nil
}

// Driver returns "sqlite" or "pgx".
func (s *Store) Driver() string { return s.driver }

// DB exposes the underlying handle for maintenance commands.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.pgName != "" {
		stdlib.UnregisterConnConfig(s.pgName)
		s.pgName = ""
	}
	return err
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPgx {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func (s *Store) now() string { return s.timeNow().UTC().Format(time.RFC3339) }
