/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package replay runs recorded gesture scripts through the editor on a fake
// clock. Scripts are JSON documents validated against an embedded schema;
// the same harness backs the CLI "replay" command and the editor's
// end-to-end tests.
package replay

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gojsonschema "github.com/xeipuuv/gojsonschema"

	"goslides/internal/domain"
	"goslides/internal/editor"
	"goslides/internal/geometry"
	"goslides/internal/gesture"
	applog "goslides/internal/log"
	"goslides/internal/panzoom"
	"goslides/internal/snap"
)

//go:embed script.schema.json
var schemaJSON []byte

var ErrInvalidScript = errors.New("invalid gesture script")

// Event is one scripted input.
type Event struct {
	Type   string  `json:"type"`
	Target string  `json:"target,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Ctrl   bool    `json:"ctrl,omitempty"`
	Ms     int     `json:"ms,omitempty"`
}

// Script is a canvas, a selected element, its siblings and the input to play.
type Script struct {
	Name      string                `json:"name,omitempty"`
	Canvas    geometry.CanvasBounds `json:"canvas"`
	Selection domain.Element        `json:"selection"`
	Siblings  []snap.Sibling        `json:"siblings,omitempty"`
	Events    []Event               `json:"events"`
}

// Result is the state after the last event.
type Result struct {
	Selection  domain.Element        `json:"selection"`
	Canvas     geometry.CanvasBounds `json:"canvas"`
	Viewport   geometry.Affine2D     `json:"-"`
	Matrix     string                `json:"matrix"`
	Frames     []editor.Frame        `json:"frames"`
	Resizes    []editor.ResizeFrame  `json:"resizes,omitempty"`
	Guides     []snap.GuideLine      `json:"guides,omitempty"`
	Commits    int                   `json:"commits"`
	Selected   []string              `json:"selected,omitempty"`
	Edited     []string              `json:"edited,omitempty"`
	Duplicates []domain.Element      `json:"duplicates,omitempty"`
	// Refused lists events the editor rejected, as "index: reason".
	Refused []string `json:"refused,omitempty"`
}

// Validate checks raw script JSON against the embedded schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidScript, strings.Join(msgs, "; "))
}

// Parse validates and decodes a script.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := Validate(data); err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return s, nil
}

// Load reads and parses a script file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

func target(name string) (editor.Target, error) {
	if name == "" || name == "body" {
		return editor.TargetBody, nil
	}
	h, ok := gesture.ParseHandle(name)
	if !ok {
		return editor.Target{}, fmt.Errorf("%w: unknown target %q", ErrInvalidScript, name)
	}
	return editor.TargetHandle(h), nil
}

// Run plays s through a fresh editor. The clock in opts is replaced by a
// fake clock; waits advance it and flush timers whose window has elapsed so
// results never depend on timer goroutines.
func Run(s Script, opts editor.Options) (Result, error) {
	l := applog.WithOperation(applog.WithComponent("replay"), "run").With(slog.String("script", s.Name))
	if opts.Logger == nil {
		opts.Logger = l
	}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	opts.Clock = clock
	debounce := opts.PanZoom.Debounce
	if debounce <= 0 {
		debounce = panzoom.DefaultOptions().Debounce
	}
	dbl := opts.DoubleClick
	if dbl <= 0 {
		dbl = gesture.DoubleClickWindow
	}

	var (
		mu  sync.Mutex
		res Result
	)
	hooks := editor.Hooks{
		OnFrame: func(f editor.Frame) {
			mu.Lock()
			res.Frames = append(res.Frames, f)
			res.Guides = f.Guides
			mu.Unlock()
		},
		OnResize: func(f editor.ResizeFrame) {
			mu.Lock()
			res.Resizes = append(res.Resizes, f)
			mu.Unlock()
		},
		OnViewport: func(_ geometry.Affine2D, committed bool) {
			if committed {
				mu.Lock()
				res.Commits++
				mu.Unlock()
			}
		},
		OnEditText: func(id string) {
			mu.Lock()
			res.Edited = append(res.Edited, id)
			mu.Unlock()
		},
		OnSelect: func(id string) {
			mu.Lock()
			res.Selected = append(res.Selected, id)
			mu.Unlock()
		},
	}

	surface := gesture.NewDispatcher()
	ed := editor.New(surface, opts, hooks)
	if err := ed.SetCanvasBounds(s.Canvas); err != nil {
		return res, fmt.Errorf("%w: canvas: %v", ErrInvalidScript, err)
	}
	if err := ed.Select(s.Selection); err != nil {
		return res, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	ed.SetSiblings(editor.StaticSiblings(s.Siblings))

	refuse := func(i int, err error) {
		mu.Lock()
		res.Refused = append(res.Refused, fmt.Sprintf("%d: %v", i, err))
		mu.Unlock()
	}
	var sinceWheel, sinceTap time.Duration
	for i, ev := range s.Events {
		pe := gesture.PointerEvent{X: ev.X, Y: ev.Y}
		switch ev.Type {
		case "down":
			t, err := target(ev.Target)
			if err != nil {
				return res, err
			}
			pe.Kind = gesture.PointerDown
			if err := ed.PointerDown(t, pe); err != nil {
				refuse(i, err)
			}
			sinceWheel = 0
		case "move":
			pe.Kind = gesture.PointerMove
			surface.Dispatch(pe)
		case "up":
			pe.Kind = gesture.PointerUp
			surface.Dispatch(pe)
		case "cancel":
			pe.Kind = gesture.PointerCancel
			surface.Dispatch(pe)
		case "wheel":
			if !ed.Wheel(panzoom.WheelEvent{DeltaX: ev.DX, DeltaY: ev.DY, X: ev.X, Y: ev.Y, Ctrl: ev.Ctrl}) {
				refuse(i, errors.New("wheel ignored"))
			}
			sinceWheel = 0
		case "tap":
			t, err := target(ev.Target)
			if err != nil {
				return res, err
			}
			ed.Tap(t)
			sinceTap = 0
		case "wait":
			d := time.Duration(ev.Ms) * time.Millisecond
			sinceWheel += d
			sinceTap += d
			if sinceWheel >= debounce {
				ed.FlushViewport()
			}
			if sinceTap >= dbl {
				ed.FlushClicks()
			}
			clock.Advance(d)
		case "duplicate":
			d, err := ed.Duplicate()
			if err != nil {
				refuse(i, err)
				continue
			}
			mu.Lock()
			res.Duplicates = append(res.Duplicates, d)
			mu.Unlock()
		default:
			return res, fmt.Errorf("%w: event %d: unknown type %q", ErrInvalidScript, i, ev.Type)
		}
	}
	ed.FlushClicks()
	ed.Close()

	mu.Lock()
	defer mu.Unlock()
	if sel, ok := ed.Selection(); ok {
		res.Selection = sel
	}
	res.Canvas = ed.Canvas()
	res.Viewport = ed.Viewport()
	res.Matrix = res.Viewport.String()
	l.Debug("replay done", slog.Int("events", len(s.Events)), slog.Int("frames", len(res.Frames)), slog.Int("commits", res.Commits))
	return res, nil
}
