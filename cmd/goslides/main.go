/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"goslides/internal/config"
	"goslides/internal/crash"
	"goslides/internal/domain"
	"goslides/internal/editor"
	"goslides/internal/export"
	applog "goslides/internal/log"
	"goslides/internal/replay"
	"goslides/internal/slidepack"
	"goslides/internal/storage"
	"goslides/internal/telemetry"
	"goslides/internal/ui"
	"goslides/internal/version"
)

// errUsage makes the process exit with status 2.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, "GoSlides - slide canvas editor")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  goslides version|-v|--version                 Show version")
	fmt.Fprintln(w, "  goslides replay <script.json> [out.pdf|png|svg] Replay a gesture script, print the result")
	fmt.Fprintln(w, "  goslides import <slide.json>                    Store a slide in the element store")
	fmt.Fprintln(w, "  goslides siblings <slideID> <elementID>         List snap siblings of an element")
	fmt.Fprintln(w, "  goslides pack <out.zip> [slideID...]            Export slides (all by default) to a pack")
	fmt.Fprintln(w, "  goslides unpack <in.zip> [--overwrite]          Store the slides of a pack")
	fmt.Fprintln(w, "  goslides ui [<slideID>]                         Launch desktop UI (build with -tags fyne)")
}

// app carries what the commands share.
type app struct {
	cfg      config.AppConfig
	password string
	reporter editor.Reporter
	out      io.Writer
	log      *slog.Logger
}

func main() { os.Exit(realMain()) }

func realMain() int {
	cfg, password, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")

	tc := telemetry.New(telemetry.FromApp(cfg.General))
	telemetry.SetDefault(tc)
	defer tc.Close()

	dir, _ := config.DataDir()
	defer crash.Recover(&crash.Handler{Dir: dir})

	a := &app{cfg: cfg, password: password, reporter: tc, out: os.Stdout, log: l}
	l.Debug("start", slog.Int("args", len(os.Args)))
	switch err := a.run(context.Background(), os.Args[1:]); {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		usage(os.Stderr)
		return 2
	default:
		l.Error("command failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.out)
		return nil
	}
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(a.out, version.String())
		return nil
	case "replay":
		if len(args) < 2 {
			return fmt.Errorf("replay requires <script.json>: %w", errUsage)
		}
		out := ""
		if len(args) > 2 {
			out = args[2]
		}
		return a.replay(args[1], out)
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("import requires <slide.json>: %w", errUsage)
		}
		return a.importSlide(ctx, args[1])
	case "siblings":
		if len(args) < 3 {
			return fmt.Errorf("siblings requires <slideID> <elementID>: %w", errUsage)
		}
		return a.siblings(ctx, args[1], args[2])
	case "pack":
		if len(args) < 2 {
			return fmt.Errorf("pack requires <out.zip>: %w", errUsage)
		}
		return a.withStore(ctx, func(st *storage.Store) error {
			n, err := slidepack.Export(ctx, st, args[2:], args[1])
			if err == nil {
				fmt.Fprintf(a.out, "Packed %d slides into %s\n", n, args[1])
			}
			return err
		})
	case "unpack":
		if len(args) < 2 {
			return fmt.Errorf("unpack requires <in.zip>: %w", errUsage)
		}
		overwrite := len(args) > 2 && args[2] == "--overwrite"
		return a.withStore(ctx, func(st *storage.Store) error {
			n, err := slidepack.Install(ctx, st, args[1], overwrite)
			if err == nil {
				fmt.Fprintf(a.out, "Stored %d slides\n", n)
			}
			return err
		})
	case "ui":
		opts := ui.RunOptions{Config: a.cfg, Password: a.password, Reporter: a.reporter}
		if len(args) > 1 {
			opts.SlideID = args[1]
		}
		return ui.Run(opts)
	}
	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}

func (a *app) replay(path, out string) error {
	l := applog.WithOperation(a.log, "replay").With(slog.String("script", path))
	s, err := replay.Load(path)
	if err != nil {
		return err
	}
	res, err := replay.Run(s, ui.EditorOptions(a.cfg, a.reporter))
	if err != nil {
		return err
	}
	l.Info("replayed", slog.Int("events", len(s.Events)), slog.Int("frames", len(res.Frames)), slog.Int("refused", len(res.Refused)))
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("print result: %w", err)
	}
	if out == "" {
		return nil
	}
	if err := export.Write(out, sceneOf(s, res), export.Style{}); err != nil {
		return err
	}
	l.Info("scene written", slog.String("out", out))
	return nil
}

// sceneOf draws the final state over the path the selection took.
func sceneOf(s replay.Script, res replay.Result) export.Scene {
	sc := export.Scene{
		Title:       s.Name,
		Canvas:      res.Canvas,
		SelectionID: res.Selection.ID,
		Selection:   res.Selection.Rect(),
		Siblings:    s.Siblings,
		Guides:      res.Guides,
	}
	for _, f := range res.Frames {
		sc.Trail = append(sc.Trail, f.Selection)
	}
	return sc
}

func (a *app) withStore(ctx context.Context, fn func(*storage.Store) error) error {
	sc, err := ui.StoreConfig(a.cfg.Storage, a.password)
	if err != nil {
		return err
	}
	st, err := storage.Open(ctx, sc)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return fn(st)
}

func (a *app) importSlide(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read slide: %w", err)
	}
	var sl domain.Slide
	if err := json.Unmarshal(data, &sl); err != nil {
		return fmt.Errorf("parse slide: %w", err)
	}
	return a.withStore(ctx, func(st *storage.Store) error {
		if err := st.PutSlide(ctx, sl); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Stored slide %s with %d elements\n", sl.ID, len(sl.Elements))
		return nil
	})
}

func (a *app) siblings(ctx context.Context, slideID, elementID string) error {
	return a.withStore(ctx, func(st *storage.Store) error {
		sibs, err := st.Siblings(ctx, slideID, elementID)
		if err != nil {
			return err
		}
		for _, s := range sibs {
			r := s.Rect
			fmt.Fprintf(a.out, "%s\t%g\t%g\t%g\t%g\n", s.ID, r.Left, r.Top, r.Width, r.Height)
		}
		return nil
	})
}
