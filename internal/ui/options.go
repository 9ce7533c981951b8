/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"goslides/internal/config"
	"goslides/internal/domain"
	"goslides/internal/editor"
	applog "goslides/internal/log"
	"goslides/internal/storage"
	"goslides/internal/textlayout"
)

// RunOptions configure the desktop window.
type RunOptions struct {
	Config   config.AppConfig
	Password string
	// SlideID opens a stored slide; the first slide (or a demo slide) otherwise.
	SlideID string
	// Reporter receives gesture summaries; nil disables them.
	Reporter editor.Reporter
}

// BaseCanvas is the slide size in canvas-local units.
var BaseCanvas = struct{ Width, Height float64 }{Width: 960, Height: 540}

// EditorOptions turns user settings into editor options. Fonts are loaded
// from General.FontDir when set; the bitmap face measures text otherwise.
func EditorOptions(cfg config.AppConfig, rep editor.Reporter) editor.Options {
	opts := editor.Options{
		Snap:        cfg.Snap.Options(),
		PanZoom:     cfg.PanZoom.Options(),
		Resize:      cfg.Resize.Options(),
		DoubleClick: cfg.Resize.DoubleClick(),
		Text:        textlayout.BasicProvider{},
		Reporter:    rep,
	}
	if dir := cfg.General.FontDir; dir != "" {
		lib := textlayout.NewFontLibrary()
		n, err := lib.LoadDir(dir)
		if err != nil {
			applog.WithComponent("ui").Warn("font directory", slog.String("dir", dir), slog.Any("err", err))
		}
		if n > 0 {
			opts.Text = textlayout.OTProvider{Lib: lib, Fallback: textlayout.BasicProvider{}}
		}
	}
	return opts
}

// DemoSlide is stored when the database holds no slides yet.
func DemoSlide() domain.Slide {
	title := domain.NewTextElement("title", nil)
	title.Left, title.Top, title.Width, title.Height = 80, 60, 400, 50
	title.Content = "Drag me"
	photo := domain.NewMediaElement("photo", domain.TypeImage, "", "photo.png", 400, 300)
	photo.Left, photo.Top = 560, 160
	caption := domain.NewTextElement("caption", &title)
	caption.Top = 420
	caption.Content = "Double-click to edit"
	return domain.Slide{ID: "slide-1", Elements: []domain.Element{title, photo, caption}}
}

// StoreConfig resolves the element store location. An empty sqlite path
// means the per-user data directory.
func StoreConfig(cfg config.StorageConfig, password string) (storage.Config, error) {
	sc := storage.Config{Driver: cfg.Driver, Path: cfg.Path, DSN: cfg.DSN, Password: password}
	if sc.Driver == storage.DriverPgx || sc.Path != "" {
		return sc, nil
	}
	dir, err := config.DataDir()
	if err != nil {
		return sc, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return sc, fmt.Errorf("create data dir: %w", err)
	}
	sc.Path = dir
	return sc, nil
}

// OpenSlide loads id, or the first stored slide when id is empty. An empty
// store is seeded with DemoSlide.
func OpenSlide(ctx context.Context, st *storage.Store, id string) (domain.Slide, error) {
	if id != "" {
		return st.Slide(ctx, id)
	}
	ids, err := st.ListSlides(ctx)
	if err != nil {
		return domain.Slide{}, err
	}
	if len(ids) > 0 {
		return st.Slide(ctx, ids[0])
	}
	demo := DemoSlide()
	if err := st.PutSlide(ctx, demo); err != nil {
		return domain.Slide{}, fmt.Errorf("seed demo slide: %w", err)
	}
	return demo, nil
}
