/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"math"
	"testing"

	"goslides/internal/geometry"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestResizeRect_SideHandlesKeepOppositeEdge(t *testing.T) {
	o := geometry.R(100, 50, 200, 80)
	opts := DefaultResizeOptions()

	l := ResizeRect(HandleLeft, o, 30, opts) // pointer moved 30 left
	if !near(l.Width, 230) || !near(l.Right(), o.Right()) || l.Height != o.Height || l.Top != o.Top {
		t.Fatalf("left handle: %+v", l)
	}
	r := ResizeRect(HandleRight, o, 30, opts)
	if !near(r.Width, 170) || r.Left != o.Left {
		t.Fatalf("right handle: %+v", r)
	}
	r = ResizeRect(HandleRight, o, -50, opts)
	if !near(r.Width, 250) || r.Left != o.Left {
		t.Fatalf("right handle grow: %+v", r)
	}
}

func TestResizeRect_CornersPreserveAspectAndAnchors(t *testing.T) {
	o := geometry.R(10, 20, 160, 90)
	opts := DefaultResizeOptions()
	cases := []struct {
		h    Handle
		diff float64
	}{
		{HandleTopLeft, 40}, {HandleTopRight, -40}, {HandleBottomLeft, -25}, {HandleBottomRight, 60},
	}
	for _, c := range cases {
		n := ResizeRect(c.h, o, c.diff, opts)
		if !near(n.Width/n.Height, o.Width/o.Height) {
			t.Fatalf("%s: aspect changed %v vs %v", c.h, n.Width/n.Height, o.Width/o.Height)
		}
		switch c.h {
		case HandleTopLeft:
			if !near(n.Right(), o.Right()) || !near(n.Bottom(), o.Bottom()) {
				t.Fatalf("top-left anchors: %+v", n)
			}
		case HandleTopRight:
			if n.Left != o.Left || !near(n.Bottom(), o.Bottom()) {
				t.Fatalf("top-right anchors: %+v", n)
			}
		case HandleBottomLeft:
			if !near(n.Right(), o.Right()) || n.Top != o.Top {
				t.Fatalf("bottom-left anchors: %+v", n)
			}
		case HandleBottomRight:
			if n.Left != o.Left || n.Top != o.Top {
				t.Fatalf("bottom-right anchors: %+v", n)
			}
		}
	}
}

func TestResizeRect_MinimumSize(t *testing.T) {
	opts := DefaultResizeOptions()
	o := geometry.R(0, 0, 100, 50)
	n := ResizeRect(HandleLeft, o, -500, opts)
	if n.Width != opts.MinWidth || !near(n.Right(), o.Right()) {
		t.Fatalf("left clamp: %+v", n)
	}
	// corner: height would drop under MinHeight first (aspect 2:1)
	n = ResizeRect(HandleBottomRight, o, 500, opts)
	if !near(n.Height, opts.MinHeight) || !near(n.Width, 40) {
		t.Fatalf("corner clamp: %+v", n)
	}
}

func TestFitWidth(t *testing.T) {
	opts := DefaultResizeOptions()
	cur := geometry.R(100, 10, 300, 40)
	n, ok := FitWidth(HandleLeft, cur, 120, opts)
	if !ok || n.Width != 124 || n.Right() != cur.Right() {
		t.Fatalf("fit left: %+v ok=%v", n, ok)
	}
	n, ok = FitWidth(HandleRight, cur, 120, opts)
	if !ok || n.Width != 124 || n.Left != cur.Left {
		t.Fatalf("fit right: %+v ok=%v", n, ok)
	}
	if _, ok := FitWidth(HandleTopLeft, cur, 120, opts); ok {
		t.Fatalf("corner handles do not fit to content")
	}
}

func TestResizeController_ScaleAndIncrementalDelta(t *testing.T) {
	s := NewDispatcher()
	var got []ResizeResult
	ends := 0
	rc := NewResizeController(s, DefaultResizeOptions(), func(r ResizeResult) { got = append(got, r) }, func() { ends++ })
	o := geometry.R(100, 100, 200, 50)
	if !rc.Activate(HandleRight, o, 2, PointerEvent{Kind: PointerDown, X: 500, Y: 10}) {
		t.Fatalf("activate refused")
	}
	s.Dispatch(PointerEvent{Kind: PointerMove, X: 540, Y: 12}) // +40px => +20 units
	s.Dispatch(PointerEvent{Kind: PointerMove, X: 560, Y: 12}) // +60px => +30 units
	s.Dispatch(PointerEvent{Kind: PointerMove, X: 560, Y: 99}) // no horizontal change
	if len(got) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(got))
	}
	if got[0].Rect.Width != 220 || got[0].Delta.Width != 20 {
		t.Fatalf("first: %+v", got[0])
	}
	if got[1].Rect.Width != 230 || got[1].Delta.Width != 10 || got[1].Delta.Left != 0 {
		t.Fatalf("second: %+v", got[1])
	}
	s.Dispatch(PointerEvent{Kind: PointerUp})
	if rc.Active() || ends != 1 || s.Listeners() != 0 {
		t.Fatalf("expected release after up")
	}
}

func TestResizeController_RefusesBadInput(t *testing.T) {
	s := NewDispatcher()
	rc := NewResizeController(s, DefaultResizeOptions(), nil, nil)
	if rc.Activate(HandleNone, geometry.R(0, 0, 1, 1), 1, PointerEvent{}) {
		t.Fatalf("HandleNone accepted")
	}
	if rc.Activate(HandleLeft, geometry.R(0, 0, -1, 1), 1, PointerEvent{}) {
		t.Fatalf("negative size accepted")
	}
	if rc.Activate(HandleLeft, geometry.R(0, 0, 1, 1), 0, PointerEvent{}) {
		t.Fatalf("zero scale accepted")
	}
	if s.Listeners() != 0 {
		t.Fatalf("refused activation must not listen")
	}
}

func TestParseHandle(t *testing.T) {
	for _, h := range []Handle{HandleLeft, HandleRight, HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight} {
		got, ok := ParseHandle(h.String())
		if !ok || got != h {
			t.Fatalf("ParseHandle(%q) = %v, %v", h.String(), got, ok)
		}
	}
	if _, ok := ParseHandle("middle"); ok {
		t.Fatalf("unknown handle parsed")
	}
}
