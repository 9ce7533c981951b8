/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"goslides/internal/domain"
	"goslides/internal/geometry"
	"goslides/internal/gesture"
	applog "goslides/internal/log"
	"goslides/internal/panzoom"
	"goslides/internal/snap"
)

var slide = geometry.CanvasBounds{Left: 0, Top: 0, Width: 960, Height: 540, Scale: 1}

type recorder struct {
	mu     sync.Mutex
	events []string
	props  []map[string]any
}

func (r *recorder) Record(event string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.props = append(r.props, props)
}

func (r *recorder) last() (string, map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return "", nil
	}
	return r.events[len(r.events)-1], r.props[len(r.props)-1]
}

type failingSource struct{}

func (failingSource) Siblings(context.Context, string) ([]snap.Sibling, error) {
	return nil, errors.New("db down")
}

func textAt(id string, r geometry.Rect) domain.Element {
	el := domain.NewTextElement(id, nil)
	el.SetRect(r)
	return el
}

func newEditor(t *testing.T, hooks Hooks) (*Editor, *gesture.Dispatcher, *clockwork.FakeClock, *recorder) {
	t.Helper()
	s := gesture.NewDispatcher()
	clk := clockwork.NewFakeClock()
	rec := &recorder{}
	ed := New(s, Options{Clock: clk, Logger: applog.Discard(), Reporter: rec}, hooks)
	if err := ed.SetCanvasBounds(slide); err != nil {
		t.Fatalf("canvas: %v", err)
	}
	return ed, s, clk, rec
}

func move(s *gesture.Dispatcher, x, y float64) {
	s.Dispatch(gesture.PointerEvent{Kind: gesture.PointerMove, X: x, Y: y})
}

func TestDrag_SnapsToCanvasCenter(t *testing.T) {
	var frames []Frame
	ed, s, _, rec := newEditor(t, Hooks{OnFrame: func(f Frame) { frames = append(frames, f) }})
	if err := ed.Select(textAt("t1", geometry.R(100, 50, 200, 80))); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := ed.PointerDown(TargetBody, gesture.PointerEvent{Kind: gesture.PointerDown}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	for x := 5.0; x <= 260; x += 5 {
		move(s, x, 0)
	}
	var snapped *Frame
	for i := range frames {
		if frames[i].Snap.Snapped[snap.CenterX] {
			snapped = &frames[i]
			break
		}
	}
	if snapped == nil {
		t.Fatalf("expected a centerX snap in %d frames", len(frames))
	}
	if snapped.Selection.CenterX() != 480 {
		t.Fatalf("expected selection centered at 480, got %v", snapped.Selection.CenterX())
	}
	if len(snapped.Guides) == 0 {
		t.Fatalf("expected guide lines on the snapped frame")
	}
	s.Dispatch(gesture.PointerEvent{Kind: gesture.PointerUp})
	if ed.Busy() || s.Listeners() != 0 {
		t.Fatalf("drag did not end cleanly")
	}
	ev, props := rec.last()
	if ev != "drag_end" || props["snaps"] != 1 {
		t.Fatalf("unexpected report %s %v", ev, props)
	}
}

func TestPointerDown_MutualExclusionAndSelection(t *testing.T) {
	ed, s, _, _ := newEditor(t, Hooks{})
	if err := ed.PointerDown(TargetBody, gesture.PointerEvent{}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	_ = ed.Select(textAt("t1", geometry.R(0, 0, 100, 20)))
	if err := ed.PointerDown(TargetBody, gesture.PointerEvent{}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	if err := ed.PointerDown(TargetHandle(gesture.HandleLeft), gesture.PointerEvent{}); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("expected ErrGestureActive, got %v", err)
	}
	if err := ed.Select(textAt("t2", geometry.R(0, 0, 10, 10))); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("selection must not change mid-gesture, got %v", err)
	}
	if ed.Wheel(panzoom.WheelEvent{DeltaY: -10, Ctrl: true}) {
		t.Fatalf("wheel must be ignored during a drag")
	}
	if s.Listeners() != 1 {
		t.Fatalf("expected a single listener, got %d", s.Listeners())
	}
	ed.ClearSelection()
	if ed.Busy() || s.Listeners() != 0 {
		t.Fatalf("clearing the selection must end the drag")
	}
}

func TestResize_CornerAtScale(t *testing.T) {
	var got []ResizeFrame
	ed, s, _, rec := newEditor(t, Hooks{OnResize: func(f ResizeFrame) { got = append(got, f) }})
	if err := ed.SetCanvasBounds(geometry.CanvasBounds{Width: 1920, Height: 1080, Scale: 2}); err != nil {
		t.Fatal(err)
	}
	img := domain.NewMediaElement("i1", domain.TypeImage, "/a.png", "a.png", 0, 0)
	img.SetRect(geometry.R(100, 100, 200, 100))
	_ = ed.Select(img)

	if err := ed.PointerDown(TargetHandle(gesture.HandleLeft), gesture.PointerEvent{X: 500}); !errors.Is(err, ErrHandle) {
		t.Fatalf("side handles only apply to text, got %v", err)
	}
	if err := ed.PointerDown(TargetHandle(gesture.HandleBottomRight), gesture.PointerEvent{X: 500}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	move(s, 540, 30) // +40px at scale 2 is +20 units
	s.Dispatch(gesture.PointerEvent{Kind: gesture.PointerUp, X: 540})
	if len(got) != 1 {
		t.Fatalf("expected one resize frame, got %d", len(got))
	}
	if got[0].Rect != geometry.R(100, 100, 220, 110) {
		t.Fatalf("unexpected rect %+v", got[0].Rect)
	}
	sel, _ := ed.Selection()
	if sel.Rect() != got[0].Rect {
		t.Fatalf("selection not updated: %+v", sel.Rect())
	}
	if ev, props := rec.last(); ev != "resize_end" || props["dw"] != 20.0 {
		t.Fatalf("unexpected report %s %v", ev, props)
	}
}

func TestTap_DoubleTapOnHandleFitsText(t *testing.T) {
	var fit ResizeFrame
	ed, _, _, _ := newEditor(t, Hooks{OnResize: func(f ResizeFrame) { fit = f }})
	el := textAt("t1", geometry.R(100, 10, 300, 40))
	el.Content = "Hello"
	_ = ed.Select(el)
	ed.Tap(TargetHandle(gesture.HandleLeft))
	ed.Tap(TargetHandle(gesture.HandleLeft))
	if !fit.Fit || fit.Rect.Width != 39 || fit.Rect.Right() != 400 {
		t.Fatalf("expected fit to 35+4 anchored right, got %+v", fit)
	}
}

func TestTap_SingleAndDoubleOnBody(t *testing.T) {
	selected := make(chan string, 1)
	var edited string
	ed, _, clk, _ := newEditor(t, Hooks{
		OnSelect:   func(id string) { selected <- id },
		OnEditText: func(id string) { edited = id },
	})
	_ = ed.Select(textAt("t1", geometry.R(0, 0, 100, 20)))

	ed.Tap(TargetBody)
	ed.Tap(TargetBody)
	if edited != "t1" {
		t.Fatalf("double tap must request text editing, got %q", edited)
	}

	ed.Tap(TargetBody)
	clk.Advance(gesture.DoubleClickWindow)
	select {
	case id := <-selected:
		if id != "t1" {
			t.Fatalf("unexpected selection %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("single tap not reported")
	}
}

func TestWheel_CommitUpdatesCanvas(t *testing.T) {
	commits := make(chan geometry.Affine2D, 1)
	ed, _, _, rec := newEditor(t, Hooks{OnViewport: func(m geometry.Affine2D, committed bool) {
		if committed {
			commits <- m
		}
	}})
	if !ed.Wheel(panzoom.WheelEvent{DeltaY: -100, Ctrl: true}) {
		t.Fatalf("wheel refused")
	}
	if !ed.FlushViewport() {
		t.Fatalf("expected a pending burst")
	}
	<-commits
	c := ed.Canvas()
	if c.Scale != 1.5 || c.Width != 1440 || c.Left != 0 {
		t.Fatalf("unexpected canvas %+v", c)
	}
	if ev, _ := rec.last(); ev != "viewport_commit" {
		t.Fatalf("expected viewport_commit report, got %q", ev)
	}
}

func TestDuplicate(t *testing.T) {
	ed, _, _, _ := newEditor(t, Hooks{})
	if _, err := ed.Duplicate(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	_ = ed.Select(textAt("t1", geometry.R(10, 20, 100, 20)))
	d, err := ed.Duplicate()
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "el-1" || d.Left != 50 || d.Top != 60 {
		t.Fatalf("unexpected duplicate %+v", d)
	}
	if sel, _ := ed.Selection(); sel.ID != d.ID {
		t.Fatalf("duplicate must become the selection")
	}
}

func TestDrag_SiblingLookupFailureStillDrags(t *testing.T) {
	var frames int
	ed, s, _, _ := newEditor(t, Hooks{OnFrame: func(Frame) { frames++ }})
	ed.SetSiblings(failingSource{})
	_ = ed.Select(textAt("t1", geometry.R(0, 0, 100, 20)))
	if err := ed.PointerDown(TargetBody, gesture.PointerEvent{}); err != nil {
		t.Fatal(err)
	}
	move(s, 3, 4)
	s.Dispatch(gesture.PointerEvent{Kind: gesture.PointerUp})
	if frames != 1 {
		t.Fatalf("expected one frame, got %d", frames)
	}
}

func TestDrag_PairsWithStaticSiblings(t *testing.T) {
	var last Frame
	ed, s, _, _ := newEditor(t, Hooks{OnFrame: func(f Frame) { last = f }})
	ed.SetSiblings(StaticSiblings{
		{ID: "t1", Rect: geometry.R(0, 0, 1, 1)},
		{ID: "s1", Rect: geometry.R(52, 300, 100, 40)},
	})
	_ = ed.Select(textAt("t1", geometry.R(50, 100, 100, 20)))
	_ = ed.PointerDown(TargetBody, gesture.PointerEvent{})
	move(s, 1, 0)
	if last.Snap.Pair != "s1" {
		t.Fatalf("expected pair s1, got %q", last.Snap.Pair)
	}
}

func TestGestureLinesCarryElement(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := gesture.NewDispatcher()
	ed := New(s, Options{Clock: clockwork.NewFakeClock(), Logger: l}, Hooks{})
	if err := ed.SetCanvasBounds(slide); err != nil {
		t.Fatalf("canvas: %v", err)
	}
	if err := ed.Select(textAt("t1", geometry.R(100, 50, 200, 80))); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := ed.PointerDown(TargetBody, gesture.PointerEvent{Kind: gesture.PointerDown}); err != nil {
		t.Fatalf("pointer down: %v", err)
	}
	for x := 5.0; x <= 260; x += 5 {
		move(s, x, 0)
	}
	s.Dispatch(gesture.PointerEvent{Kind: gesture.PointerUp})

	var start, end, snapped bool
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.Contains(line, "gesture=drag element=t1") {
			continue
		}
		switch {
		case strings.Contains(line, `msg="drag start"`):
			start = true
		case strings.Contains(line, `msg="drag end"`) && strings.Contains(line, "component=editor"):
			end = true
		case strings.Contains(line, `msg="snap engaged"`) && strings.Contains(line, "component=snap"):
			snapped = true
		}
	}
	if !start || !end || !snapped {
		t.Fatalf("gesture lines missing (start=%v end=%v snap=%v):\n%s", start, end, snapped, buf.String())
	}
}
