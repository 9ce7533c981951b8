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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"goslides/internal/domain"
	"goslides/internal/editor"
	"goslides/internal/geometry"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSlide() domain.Slide {
	a := domain.NewTextElement("title", nil)
	a.SetRect(geometry.R(100, 40, 300, 60))
	b := domain.NewMediaElement("photo", domain.TypeImage, "/files/cat.png", "cat.png", 400, 300)
	c := domain.NewTextElement("caption", &a)
	c.SetRect(geometry.R(500, 400, 200, 30))
	return domain.Slide{ID: "s1", Index: 0, Background: "#ffffff", Elements: []domain.Element{a, b, c}}
}

func TestOpenCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), Config{Driver: "sqlite", Path: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(filepath.Join(dir, DefaultFileName)); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
	v, err := s.SchemaVersion(context.Background())
	if err != nil || v != schemaVersion {
		t.Fatalf("SchemaVersion = %d, %v", v, err)
	}
	if err := s.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	var mode string
	if err := s.DB().QueryRow(`PRAGMA journal_mode;`).Scan(&mode); err != nil || mode != "wal" {
		t.Fatalf("journal_mode = %q, %v", mode, err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}); !errors.Is(err, ErrDriver) {
		t.Fatalf("expected ErrDriver, got %v", err)
	}
}

func TestMigrationFromV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.sqlite")
	s, err := Open(context.Background(), Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.DB().Exec(`DROP INDEX idx_elements_slide_ord`); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if _, err := s.DB().Exec(`UPDATE version SET schema=1 WHERE id=1`); err != nil {
		t.Fatalf("downgrade: %v", err)
	}
	_ = s.Close()

	s, err = Open(context.Background(), Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if v, _ := s.SchemaVersion(context.Background()); v != 2 {
		t.Fatalf("schema = %d, want 2", v)
	}
	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_elements_slide_ord'`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("index not recreated: %d %v", n, err)
	}
}

func TestPutAndLoadSlide(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	in := sampleSlide()
	if err := s.PutSlide(ctx, in); err != nil {
		t.Fatalf("PutSlide: %v", err)
	}
	got, err := s.Slide(ctx, "s1")
	if err != nil {
		t.Fatalf("Slide: %v", err)
	}
	if got.Background != "#ffffff" || len(got.Elements) != 3 {
		t.Fatalf("unexpected slide %+v", got)
	}
	if got.Elements[1].ID != "photo" || got.Elements[1].Height != 225 || got.Elements[1].Src != "/files/cat.png" {
		t.Fatalf("photo not round-tripped: %+v", got.Elements[1])
	}
	if got.Elements[2].FontFamily != "Inter" {
		t.Fatalf("caption typography lost: %+v", got.Elements[2])
	}

	// Replacing drops elements no longer present.
	in.Elements = in.Elements[:1]
	if err := s.PutSlide(ctx, in); err != nil {
		t.Fatalf("PutSlide: %v", err)
	}
	got, _ = s.Slide(ctx, "s1")
	if len(got.Elements) != 1 {
		t.Fatalf("expected 1 element after replace, got %d", len(got.Elements))
	}
	ids, err := s.ListSlides(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "s1" {
		t.Fatalf("ListSlides = %v, %v", ids, err)
	}
}

func TestPutSlideValidates(t *testing.T) {
	s := openTemp(t)
	sl := sampleSlide()
	sl.Elements[0].Type = "shape"
	if err := s.PutSlide(context.Background(), sl); !errors.Is(err, domain.ErrBadType) {
		t.Fatalf("expected ErrBadType, got %v", err)
	}
	if _, err := s.Slide(context.Background(), "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("invalid slide must not be stored: %v", err)
	}
}

func TestUpdateGeometry(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.PutSlide(ctx, sampleSlide()); err != nil {
		t.Fatal(err)
	}
	r := geometry.R(330, 40, 300, 60)
	if err := s.UpdateGeometry(ctx, "s1", "title", r); err != nil {
		t.Fatalf("UpdateGeometry: %v", err)
	}
	got, _ := s.Slide(ctx, "s1")
	if got.Elements[0].Rect() != r {
		t.Fatalf("rect = %+v", got.Elements[0].Rect())
	}
	if err := s.UpdateGeometry(ctx, "s1", "nope", r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateGeometry(ctx, "s1", "title", geometry.R(0, 0, -1, 5)); !errors.Is(err, domain.ErrBadGeometry) {
		t.Fatalf("expected ErrBadGeometry, got %v", err)
	}
}

func TestSiblingsExcludeAndOrder(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.PutSlide(ctx, sampleSlide()); err != nil {
		t.Fatal(err)
	}
	sibs, err := s.Siblings(ctx, "s1", "photo")
	if err != nil {
		t.Fatalf("Siblings: %v", err)
	}
	if len(sibs) != 2 || sibs[0].ID != "title" || sibs[1].ID != "caption" {
		t.Fatalf("unexpected siblings %+v", sibs)
	}
	if sibs[1].Rect != geometry.R(500, 400, 200, 30) {
		t.Fatalf("caption rect = %+v", sibs[1].Rect)
	}
	if _, err := s.Siblings(ctx, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var src editor.SiblingSource = s.SlideSiblings("s1")
	sibs, err = src.Siblings(ctx, "title")
	if err != nil || len(sibs) != 2 || sibs[0].ID != "photo" {
		t.Fatalf("SlideSiblings = %+v, %v", sibs, err)
	}
}

func TestDeleteSlide(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.PutSlide(ctx, sampleSlide()); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSlide(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSlide: %v", err)
	}
	if err := s.DeleteSlide(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM elements`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("elements left behind: %d %v", n, err)
	}
}

func TestRebind(t *testing.T) {
	s := &Store{driver: DriverPgx}
	if got := s.rebind(`UPDATE t SET a=?, b=? WHERE id=?`); got != `UPDATE t SET a=$1, b=$2 WHERE id=$3` {
		t.Fatalf("rebind = %q", got)
	}
	s.driver = DriverSQLite
	if got := s.rebind(`a=?`); got != `a=?` {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}
