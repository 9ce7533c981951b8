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

func TestDrag_RoundTripSumsToZero(t *testing.T) {
	s := NewDispatcher()
	var sum geometry.Pt
	var moves, ends int
	d := NewDragController(s, func(p geometry.Pt) { sum = sum.Add(p); moves++ }, func() { ends++ })

	if !d.Activate(PointerEvent{Kind: PointerDown, X: 100, Y: 100}) {
		t.Fatalf("activate refused")
	}
	if s.Listeners() != 1 {
		t.Fatalf("expected exactly one listener, got %d", s.Listeners())
	}
	for _, p := range []geometry.Pt{{X: 110, Y: 105}, {X: 130, Y: 90}, {X: 87, Y: 140}, {X: 100, Y: 100}} {
		s.Dispatch(PointerEvent{Kind: PointerMove, X: p.X, Y: p.Y})
	}
	if moves != 4 {
		t.Fatalf("expected 4 deltas, got %d", moves)
	}
	if sum != (geometry.Pt{}) {
		t.Fatalf("expected deltas to cancel out, got %+v", sum)
	}
	s.Dispatch(PointerEvent{Kind: PointerUp, X: 100, Y: 100})
	if d.Active() || ends != 1 {
		t.Fatalf("expected idle after up (active=%v ends=%d)", d.Active(), ends)
	}
	if s.Listeners() != 0 {
		t.Fatalf("listener not released: %d", s.Listeners())
	}
	s.Dispatch(PointerEvent{Kind: PointerMove, X: 300, Y: 300})
	if moves != 4 {
		t.Fatalf("emission after deactivate")
	}
}

func TestDrag_IncrementalDeltas(t *testing.T) {
	s := NewDispatcher()
	var got []geometry.Pt
	d := NewDragController(s, func(p geometry.Pt) { got = append(got, p) }, nil)
	d.Activate(PointerEvent{Kind: PointerDown, X: 10, Y: 10})
	s.Dispatch(PointerEvent{Kind: PointerMove, X: 15, Y: 10})
	s.Dispatch(PointerEvent{Kind: PointerMove, X: 25, Y: 7})
	if len(got) != 2 || got[0] != (geometry.Pt{X: 5}) || got[1] != (geometry.Pt{X: 10, Y: -3}) {
		t.Fatalf("unexpected deltas %+v", got)
	}
}

func TestDrag_IgnoresNonFiniteAndDoubleActivate(t *testing.T) {
	s := NewDispatcher()
	var got []geometry.Pt
	d := NewDragController(s, func(p geometry.Pt) { got = append(got, p) }, nil)
	if d.Activate(PointerEvent{Kind: PointerDown, X: math.NaN(), Y: 0}) {
		t.Fatalf("expected NaN activation to be refused")
	}
	d.Activate(PointerEvent{Kind: PointerDown, X: 0, Y: 0})
	if d.Activate(PointerEvent{Kind: PointerDown, X: 5, Y: 5}) {
		t.Fatalf("second activate must be refused")
	}
	if s.Listeners() != 1 {
		t.Fatalf("expected one listener, got %d", s.Listeners())
	}
	s.Dispatch(PointerEvent{Kind: PointerMove, X: math.Inf(1), Y: 3})
	s.Dispatch(PointerEvent{Kind: PointerMove, X: 4, Y: 3})
	if len(got) != 1 || got[0] != (geometry.Pt{X: 4, Y: 3}) {
		t.Fatalf("non-finite move must not move prev: %+v", got)
	}
}

func TestDrag_CancelAndExplicitDeactivateReleaseOnce(t *testing.T) {
	s := NewDispatcher()
	ends := 0
	d := NewDragController(s, nil, func() { ends++ })
	d.Activate(PointerEvent{Kind: PointerDown})
	s.Dispatch(PointerEvent{Kind: PointerCancel})
	d.Deactivate()
	if ends != 1 || s.Listeners() != 0 {
		t.Fatalf("expected single release (ends=%d listeners=%d)", ends, s.Listeners())
	}
	d.Activate(PointerEvent{Kind: PointerDown})
	d.Deactivate()
	d.Deactivate()
	if ends != 2 || s.Listeners() != 0 {
		t.Fatalf("explicit deactivate (ends=%d listeners=%d)", ends, s.Listeners())
	}
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	s := NewDispatcher()
	stopA := s.Listen(func(PointerEvent) {})
	s.Listen(func(PointerEvent) {})
	stopA()
	stopA()
	if s.Listeners() != 1 {
		t.Fatalf("expected 1 listener, got %d", s.Listeners())
	}
}
