//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests drive the slide widget through Fyne's test driver. They are
// gated behind the "fyne" build tag so headless CI does not need Fyne:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/jonboulle/clockwork"

	"goslides/internal/editor"
	"goslides/internal/geometry"
	applog "goslides/internal/log"
)

func newTestCanvas(t *testing.T) (*SlideCanvas, *slideCanvasRenderer) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	sess := NewSession(testSlide(), &memStore{}, editor.Options{Clock: clockwork.NewFakeClock(), Logger: applog.Discard()})
	t.Cleanup(sess.Close)
	c := NewSlideCanvas(sess)
	r, ok := test.WidgetRenderer(c).(*slideCanvasRenderer)
	if !ok {
		t.Fatalf("unexpected renderer %T", test.WidgetRenderer(c))
	}
	c.Resize(fyne.NewSize(1000, 580))
	r.Layout(c.Size())
	return c, r
}

func TestFit_CentersBaseCanvas(t *testing.T) {
	c := fit(fyne.NewSize(1000, 580))
	if c.Scale != 1 || c.Left != 20 || c.Top != 20 || c.Width != 960 || c.Height != 540 {
		t.Fatalf("unexpected fit %+v", c)
	}
	c = fit(fyne.NewSize(520, 580))
	if c.Scale != 0.5 || c.Width != 480 {
		t.Fatalf("unexpected narrow fit %+v", c)
	}
}

func TestPageArea_MeasuresOnlyWhenShown(t *testing.T) {
	size := fyne.NewSize(1000, 580)
	r, ok := geometry.Measure(pageArea{size: size, visible: true})
	if !ok || r.Left != 20 || r.Width != 960 {
		t.Fatalf("page measured as %+v, %v", r, ok)
	}
	if _, ok := geometry.Measure(pageArea{size: size}); ok {
		t.Fatal("a hidden page must not measure")
	}
	if _, ok := geometry.Measure(pageArea{visible: true}); ok {
		t.Fatal("an unsized page must not measure")
	}
}

func TestSlideCanvas_LayoutPlacesElements(t *testing.T) {
	_, r := newTestCanvas(t)
	if pos := r.page.Position(); pos.X != 20 || pos.Y != 20 {
		t.Fatalf("page at %v", pos)
	}
	if len(r.rects) != 2 {
		t.Fatalf("expected 2 element rects, got %d", len(r.rects))
	}
	if pos := r.rects[0].Position(); pos.X != 120 || pos.Y != 70 {
		t.Fatalf("title at %v", pos)
	}
	if r.bbox.Visible() {
		t.Fatal("nothing selected yet")
	}
}

func TestSlideCanvas_DragMovesSelection(t *testing.T) {
	c, r := newTestCanvas(t)
	c.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(150, 100)}, Button: desktop.MouseButtonPrimary})
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(160, 100)}})
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(170, 110)}})
	c.DragEnd()
	r.Layout(c.Size())

	sel, ok := c.sess.Editor().Selection()
	if !ok || sel.ID != "title" || sel.Left != 120 || sel.Top != 60 {
		t.Fatalf("unexpected selection %+v", sel)
	}
	if !r.bbox.Visible() || !r.handles[0].Visible() || r.handles[2].Visible() {
		t.Fatal("text selection shows exactly two handles")
	}
}
