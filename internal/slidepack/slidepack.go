/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package slidepack moves slides between element stores as .zip archives.
package slidepack

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"goslides/internal/domain"
	applog "goslides/internal/log"
	"goslides/internal/storage"
)

const (
	manifestName = "slidepack.manifest.txt"
	slidesDir    = "slides/"
	// maxSlideBytes caps one decompressed slide entry.
	maxSlideBytes = 4 << 20
)

var ErrBadPack = errors.New("invalid slide pack")

// Source is the read side of the element store.
type Source interface {
	ListSlides(ctx context.Context) ([]string, error)
	Slide(ctx context.Context, id string) (domain.Slide, error)
}

// Sink is the write side; Slide is used to detect existing slides.
type Sink interface {
	Slide(ctx context.Context, id string) (domain.Slide, error)
	PutSlide(ctx context.Context, s domain.Slide) error
}

// Export writes the given slides, or every slide when ids is empty, to a
// zip at dest. Each slide is stored as slides/<id>.json next to a small
// manifest for human inspection.
func Export(ctx context.Context, src Source, ids []string, dest string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("slidepack"), "export").With(slog.String("zip", dest))
	if strings.TrimSpace(dest) == "" {
		return 0, errors.New("destination is required")
	}
	if len(ids) == 0 {
		var err error
		if ids, err = src.ListSlides(ctx); err != nil {
			return 0, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(dest)

	zf, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("GoSlides Slide Pack\nCreated: %s\nSlides: %s\n", time.Now().Format(time.RFC3339), strings.Join(ids, ", "))
	w, err := zw.Create(manifestName)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	for _, id := range ids {
		sl, err := src.Slide(ctx, id)
		if err != nil {
			return added, fmt.Errorf("slide %s: %w", id, err)
		}
		b, err := json.MarshalIndent(sl, "", "  ")
		if err != nil {
			return added, fmt.Errorf("encode slide %s: %w", id, err)
		}
		w, err := zw.Create(slidesDir + id + ".json")
		if err != nil {
			return added, fmt.Errorf("add slide %s: %w", id, err)
		}
		if _, err := w.Write(b); err != nil {
			return added, fmt.Errorf("write slide %s: %w", id, err)
		}
		added++
	}
	if err := zw.Close(); err != nil {
		return added, fmt.Errorf("build zip: %w", err)
	}
	l.Info("slide pack exported", slog.Int("slides", added))
	return added, nil
}

// Install stores every slide of the pack at src. Slides whose id already
// exists are skipped unless overwrite is set. It returns the number stored.
func Install(ctx context.Context, dst Sink, src string, overwrite bool) (int, error) {
	l := applog.WithOperation(applog.WithComponent("slidepack"), "install").With(slog.String("zip", src))
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		name := f.Name
		if name == manifestName || f.FileInfo().IsDir() {
			continue
		}
		// only flat slides/<id>.json entries are read; paths are never joined
		// onto the filesystem
		if !strings.HasPrefix(name, slidesDir) || path.Ext(name) != ".json" || strings.Contains(strings.TrimPrefix(name, slidesDir), "/") {
			l.Warn("skip unknown entry", slog.String("entry", name))
			continue
		}
		sl, err := readSlide(f)
		if err != nil {
			return installed, err
		}
		if !overwrite {
			if _, err := dst.Slide(ctx, sl.ID); err == nil {
				l.Warn("skip existing slide", slog.String("slide", sl.ID))
				continue
			} else if !errors.Is(err, storage.ErrNotFound) {
				return installed, err
			}
		}
		if err := dst.PutSlide(ctx, sl); err != nil {
			return installed, fmt.Errorf("store slide %s: %w", sl.ID, err)
		}
		installed++
	}
	l.Info("slide pack installed", slog.Int("slides", installed))
	return installed, nil
}

func readSlide(f *zip.File) (domain.Slide, error) {
	var sl domain.Slide
	rc, err := f.Open()
	if err != nil {
		return sl, err
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(io.LimitReader(rc, maxSlideBytes+1))
	if err != nil {
		return sl, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(b) > maxSlideBytes {
		return sl, fmt.Errorf("%w: %s is too large", ErrBadPack, f.Name)
	}
	if err := json.Unmarshal(b, &sl); err != nil {
		return sl, fmt.Errorf("%w: %s: %v", ErrBadPack, f.Name, err)
	}
	if sl.ID == "" {
		return sl, fmt.Errorf("%w: %s has no slide id", ErrBadPack, f.Name)
	}
	return sl, nil
}
