/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui hosts the editor in a Fyne window. The widget code needs the
// "fyne" build tag and cgo; hit testing and session wiring are plain Go so
// they are covered by headless tests.
package ui

import (
	"math"

	"goslides/internal/domain"
	"goslides/internal/editor"
	"goslides/internal/geometry"
	"goslides/internal/gesture"
)

// HandleSize is the edge length of a resize handle in screen pixels.
const HandleSize = 10.0

// HandleRects returns the screen squares of the handles that apply to t:
// left/right for text, the four corners for media.
func HandleRects(sel geometry.Rect, t domain.ElementType) map[gesture.Handle]geometry.Rect {
	half := HandleSize / 2
	at := func(x, y float64) geometry.Rect { return geometry.R(x-half, y-half, HandleSize, HandleSize) }
	midY := sel.Top + sel.Height/2
	if t == domain.TypeText {
		return map[gesture.Handle]geometry.Rect{
			gesture.HandleLeft:  at(sel.Left, midY),
			gesture.HandleRight: at(sel.Right(), midY),
		}
	}
	return map[gesture.Handle]geometry.Rect{
		gesture.HandleTopLeft:     at(sel.Left, sel.Top),
		gesture.HandleTopRight:    at(sel.Right(), sel.Top),
		gesture.HandleBottomLeft:  at(sel.Left, sel.Bottom()),
		gesture.HandleBottomRight: at(sel.Right(), sel.Bottom()),
	}
}

// HitTest maps a screen point to the editor target under it. Handles win
// over the body; ok is false when p misses the selection.
func HitTest(sel geometry.Rect, t domain.ElementType, p geometry.Pt) (editor.Target, bool) {
	if !sel.Valid() || !p.Finite() {
		return editor.Target{}, false
	}
	best, bestD := gesture.HandleNone, math.Inf(1)
	for h, r := range HandleRects(sel, t) {
		if !r.Contains(p) {
			continue
		}
		if d := math.Hypot(p.X-r.CenterX(), p.Y-r.CenterY()); d < bestD {
			best, bestD = h, d
		}
	}
	if best != gesture.HandleNone {
		return editor.TargetHandle(best), true
	}
	if sel.Contains(p) {
		return editor.TargetBody, true
	}
	return editor.Target{}, false
}

// Pick returns the topmost element of s under the screen point p. The point
// is mapped into canvas-local units once; elements with corrupted geometry
// are never picked.
func Pick(s *domain.Slide, c geometry.CanvasBounds, p geometry.Pt) (*domain.Element, bool) {
	local, ok := c.PointToLocal(p)
	if !ok || !local.Finite() {
		return nil, false
	}
	var hit *domain.Element
	z := math.MinInt
	for i := range s.Elements {
		e := &s.Elements[i]
		r, ok := geometry.Measure(e)
		if !ok || !r.Contains(local) {
			continue
		}
		// later elements stack above earlier ones on equal z
		if e.Z >= z {
			hit, z = e, e.Z
		}
	}
	return hit, hit != nil
}
