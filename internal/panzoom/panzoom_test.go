/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package panzoom

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"goslides/internal/geometry"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newActive(t *testing.T, origin geometry.Pt) (*Controller, *clockwork.FakeClock) {
	t.Helper()
	clk := clockwork.NewFakeClock()
	c := New(clk, DefaultOptions())
	if !c.Activate(origin) {
		t.Fatalf("activate failed")
	}
	return c, clk
}

func TestZoomFactor(t *testing.T) {
	in := ZoomFactor(-100, 0.5)
	out := ZoomFactor(100, 0.5)
	if !near(in, 1.5) || !near(in*out, 1) {
		t.Fatalf("unexpected factors in=%v out=%v", in, out)
	}
	if ZoomFactor(0, 0.5) != 1 {
		t.Fatalf("zero delta must not zoom")
	}
}

func TestZoomClamp(t *testing.T) {
	c, _ := newActive(t, geometry.Pt{})
	for burst := 0; burst < 8; burst++ {
		for i := 0; i < 3; i++ {
			c.Wheel(WheelEvent{DeltaY: -100, X: 300, Y: 200, Ctrl: true})
		}
		c.Flush()
		if s := c.Committed().ScaleFactor(); s > 5+1e-9 {
			t.Fatalf("burst %d: committed scale %v exceeds 5", burst, s)
		}
	}
	if s := c.Committed().ScaleFactor(); !near(s, 5) {
		t.Fatalf("expected scale to land on 5, got %v", s)
	}
	for burst := 0; burst < 12; burst++ {
		for i := 0; i < 3; i++ {
			c.Wheel(WheelEvent{DeltaY: 100, X: 300, Y: 200, Ctrl: true})
		}
		c.Flush()
		if s := c.Committed().ScaleFactor(); s < 0.5-1e-9 {
			t.Fatalf("burst %d: committed scale %v below 0.5", burst, s)
		}
	}
	if s := c.Committed().ScaleFactor(); !near(s, 0.5) {
		t.Fatalf("expected scale to land on 0.5, got %v", s)
	}
}

func TestZoomKeepsBurstOriginFixed(t *testing.T) {
	c, _ := newActive(t, geometry.Pt{X: 100, Y: 50})
	cursor := WheelEvent{DeltaY: -100, X: 300, Y: 250, Ctrl: true}
	origin := geometry.Pt{X: 200, Y: 200}

	c.Wheel(cursor)
	c.Wheel(cursor)
	p := c.Current().Apply(origin)
	if !near(p.X, origin.X) || !near(p.Y, origin.Y) {
		t.Fatalf("origin moved during burst: %+v", p)
	}
	c.Flush()

	cursor.DeltaY = 100
	c.Wheel(cursor)
	c.Wheel(cursor)
	c.Flush()
	m := c.Committed()
	if !near(m.ScaleFactor(), 1) || !near(m.E, 0) || !near(m.F, 0) {
		t.Fatalf("zoom in/out at the same cursor drifted: %s", m)
	}
}

func TestPanAndTranslationLimit(t *testing.T) {
	c, _ := newActive(t, geometry.Pt{})
	c.Wheel(WheelEvent{DeltaX: 10, DeltaY: 20})
	tr, ok := c.Transform()
	if !ok || tr.TranslateX != -5 || tr.TranslateY != -10 || tr.Scale != 1 {
		t.Fatalf("unexpected pan transform %+v", tr)
	}
	if m := c.Current(); m.E != -5 || m.F != -10 {
		t.Fatalf("unexpected working matrix %s", m)
	}
	c.Wheel(WheelEvent{DeltaX: -4000, DeltaY: 4000})
	tr, _ = c.Transform()
	if tr.TranslateX != 800 || tr.TranslateY != -500 {
		t.Fatalf("expected translation clamped to (800,-500), got %+v", tr)
	}
	c.Flush()
	if _, ok := c.Transform(); ok {
		t.Fatalf("no burst expected after commit")
	}
	if m := c.Committed(); m.E != 800 || m.F != -500 {
		t.Fatalf("unexpected committed matrix %s", m)
	}
}

func TestCommitAfterQuietPeriod(t *testing.T) {
	c, clk := newActive(t, geometry.Pt{})
	committed := make(chan geometry.Affine2D, 1)
	changes := 0
	c.OnChange(func(geometry.Affine2D) { changes++ })
	c.OnCommit(func(m geometry.Affine2D) { committed <- m })

	c.Wheel(WheelEvent{DeltaX: 2})
	clk.Advance(150 * time.Millisecond)
	c.Wheel(WheelEvent{DeltaX: 2})
	clk.Advance(150 * time.Millisecond)
	if !c.Pending() || c.Committed() != geometry.Identity {
		t.Fatalf("burst must not commit while the wheel is busy")
	}
	clk.Advance(60 * time.Millisecond)
	select {
	case m := <-committed:
		if m.E != -2 {
			t.Fatalf("unexpected committed matrix %s", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("commit did not fire")
	}
	if changes != 2 {
		t.Fatalf("expected 2 change callbacks, got %d", changes)
	}
}

func TestWheelIgnoredWhenDetachedOrCorrupt(t *testing.T) {
	c := New(clockwork.NewFakeClock(), DefaultOptions())
	if c.Wheel(WheelEvent{DeltaY: -10, Ctrl: true}) {
		t.Fatalf("wheel accepted while detached")
	}
	c.Activate(geometry.Pt{})
	if c.Wheel(WheelEvent{DeltaY: math.NaN()}) {
		t.Fatalf("NaN wheel accepted")
	}
	c.Wheel(WheelEvent{DeltaY: -10, Ctrl: true})
	c.Deactivate()
	if c.Pending() {
		t.Fatalf("deactivate must commit the pending burst")
	}
	if s := c.Committed().ScaleFactor(); !near(s, 1.05) {
		t.Fatalf("expected committed scale 1.05, got %v", s)
	}
}
