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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"goslides/internal/domain"
	"goslides/internal/editor"
	"goslides/internal/geometry"
	applog "goslides/internal/log"
	"goslides/internal/snap"
)

// PutSlide replaces the slide and all of its elements.
func (s *Store) PutSlide(ctx context.Context, sl domain.Slide) error {
	if sl.ID == "" {
		return errors.New("slide id is required")
	}
	for _, e := range sl.Elements {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("slide %s: %w", sl.ID, err)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO slides (id, idx, background, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET idx=excluded.idx, background=excluded.background, updated_at=excluded.updated_at`),
		sl.ID, sl.Index, sl.Background, s.now()); err != nil {
		return fmt.Errorf("upsert slide: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM elements WHERE slide_id=?`), sl.ID); err != nil {
		return fmt.Errorf("clear elements: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO elements (slide_id, id, ord, type, x, y, w, h, data) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for i, e := range sl.Elements {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode element %s: %w", e.ID, err)
		}
		if _, err := ins.ExecContext(ctx, sl.ID, e.ID, i, string(e.Type), e.Left, e.Top, e.Width, e.Height, string(data)); err != nil {
			return fmt.Errorf("insert element %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.l.Debug("slide stored", slog.String("slide", sl.ID), slog.Int("elements", len(sl.Elements)))
	return nil
}

// Slide loads a slide with its elements in stored order.
func (s *Store) Slide(ctx context.Context, id string) (domain.Slide, error) {
	sl := domain.Slide{ID: id}
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT idx, background FROM slides WHERE id=?`), id).Scan(&sl.Index, &sl.Background)
	if errors.Is(err, sql.ErrNoRows) {
		return sl, fmt.Errorf("slide %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return sl, fmt.Errorf("read slide: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, x, y, w, h, data FROM elements WHERE slide_id=? ORDER BY ord`), id)
	if err != nil {
		return sl, fmt.Errorf("read elements: %w", err)
	}
	defer rows.Close()
	sl.Elements = []domain.Element{}
	for rows.Next() {
		var (
			eid        string
			x, y, w, h float64
			data       string
		)
		if err := rows.Scan(&eid, &x, &y, &w, &h, &data); err != nil {
			return sl, fmt.Errorf("scan element: %w", err)
		}
		var e domain.Element
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return sl, fmt.Errorf("decode element %s: %w", eid, err)
		}
		// The columns are authoritative for geometry.
		e.ID = eid
		e.SetRect(geometry.R(x, y, w, h))
		sl.Elements = append(sl.Elements, e)
	}
	return sl, rows.Err()
}

// ListSlides returns slide ids ordered by index.
func (s *Store) ListSlides(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM slides ORDER BY idx, id`)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteSlide removes a slide and its elements.
func (s *Store) DeleteSlide(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM elements WHERE slide_id=?`), id); err != nil {
		return fmt.Errorf("delete elements: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM slides WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete slide: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("slide %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// UpdateGeometry stores the committed rect of one element, typically at the
// end of a drag or resize.
func (s *Store) UpdateGeometry(ctx context.Context, slideID, elementID string, r geometry.Rect) error {
	if !r.Valid() {
		return fmt.Errorf("element %s: %w", elementID, domain.ErrBadGeometry)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE elements SET x=?, y=?, w=?, h=? WHERE slide_id=? AND id=?`),
		r.Left, r.Top, r.Width, r.Height, slideID, elementID)
	if err != nil {
		return fmt.Errorf("update geometry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("element %s/%s: %w", slideID, elementID, ErrNotFound)
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(`UPDATE slides SET updated_at=? WHERE id=?`), s.now(), slideID); err != nil {
		return fmt.Errorf("touch slide: %w", err)
	}
	return nil
}

// Siblings returns the rects of every element on the slide except excludeID,
// in slide order. An unknown slide yields ErrNotFound.
func (s *Store) Siblings(ctx context.Context, slideID, excludeID string) ([]snap.Sibling, error) {
	l := applog.WithOperation(s.l, "siblings").With(slog.String("slide", slideID))
	var one int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM slides WHERE id=?`), slideID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("slide %s: %w", slideID, ErrNotFound)
		}
		return nil, fmt.Errorf("read slide: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, x, y, w, h FROM elements WHERE slide_id=? AND id<>? ORDER BY ord`), slideID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("query siblings: %w", err)
	}
	defer rows.Close()
	var out []snap.Sibling
	for rows.Next() {
		var (
			sib        snap.Sibling
			x, y, w, h float64
		)
		if err := rows.Scan(&sib.ID, &x, &y, &w, &h); err != nil {
			return nil, fmt.Errorf("scan sibling: %w", err)
		}
		sib.Rect = geometry.R(x, y, w, h)
		out = append(out, sib)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	l.Debug("siblings loaded", slog.Int("count", len(out)))
	return out, nil
}

type slideSiblings struct {
	s     *Store
	slide string
}

func (ss slideSiblings) Siblings(ctx context.Context, excludeID string) ([]snap.Sibling, error) {
	return ss.s.Siblings(ctx, ss.slide, excludeID)
}

// SlideSiblings binds the store to one slide as the editor's sibling source.
func (s *Store) SlideSiblings(slideID string) editor.SiblingSource {
	return slideSiblings{s: s, slide: slideID}
}
