/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geometry holds the rectangle, point and affine helpers shared by the
// canvas controllers. Screen rectangles are in device pixels as reported by the
// host; canvas-local rectangles are in slide units (960x540 for a 16:9 slide).
// The two spaces are only mixed through ToCanvasLocal and ToScreen.
package geometry

import "math"

// Pt is a 2D point or an incremental movement.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+o.
func (p Pt) Add(o Pt) Pt { return Pt{X: p.X + o.X, Y: p.Y + o.Y} }

// Sub returns p-o.
func (p Pt) Sub(o Pt) Pt { return Pt{X: p.X - o.X, Y: p.Y - o.Y} }

// Div divides both components by s.
func (p Pt) Div(s float64) Pt { return Pt{X: p.X / s, Y: p.Y / s} }

// Finite reports whether both components are real numbers.
func (p Pt) Finite() bool { return Finite(p.X) && Finite(p.Y) }

// Rect is an axis-aligned box defined by its top-left corner and size.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func R(left, top, width, height float64) Rect {
	return Rect{Left: left, Top: top, Width: width, Height: height}
}

// FromCorners builds a rect from two opposite corners in any order, so the
// result never carries a negative size.
func FromCorners(x0, y0, x1, y1 float64) Rect {
	return Rect{
		Left:   math.Min(x0, x1),
		Top:    math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

func (r Rect) Right() float64   { return r.Left + r.Width }
func (r Rect) Bottom() float64  { return r.Top + r.Height }
func (r Rect) CenterX() float64 { return r.Left + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Top + r.Height/2 }

// Translate moves the rect by d.
func (r Rect) Translate(d Pt) Rect {
	r.Left += d.X
	r.Top += d.Y
	return r
}

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.Left && p.Y >= r.Top && p.X <= r.Right() && p.Y <= r.Bottom()
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	return FromCorners(math.Min(r.Left, o.Left), math.Min(r.Top, o.Top), math.Max(r.Right(), o.Right()), math.Max(r.Bottom(), o.Bottom()))
}

// Valid reports whether every field is finite and the size is not negative.
func (r Rect) Valid() bool {
	return Finite(r.Left) && Finite(r.Top) && Finite(r.Width) && Finite(r.Height) && r.Width >= 0 && r.Height >= 0
}

// Bounded is implemented by anything the host can measure, the Go counterpart
// of a DOM bounding box. ok is false when the element is gone.
type Bounded interface {
	Bounds() (r Rect, ok bool)
}

// Measure reads b's bounds and rejects detached or corrupted measurements.
func Measure(b Bounded) (Rect, bool) {
	if b == nil {
		return Rect{}, false
	}
	r, ok := b.Bounds()
	if !ok || !r.Valid() {
		return Rect{}, false
	}
	return r, true
}

// CanvasBounds is the rendered canvas inside the viewport: its screen
// rectangle plus the zoom scale mapping canvas-local units to pixels.
// Scale must be non-zero; the viewport owner guarantees it.
type CanvasBounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// Rect returns the screen rectangle of the canvas.
func (c CanvasBounds) Rect() Rect {
	return Rect{Left: c.Left, Top: c.Top, Width: c.Width, Height: c.Height}
}

// Center returns the canvas center in screen pixels.
func (c CanvasBounds) Center() Pt { return Pt{X: c.Left + c.Width/2, Y: c.Top + c.Height/2} }

// Transform maps canvas-local units to screen pixels.
func (c CanvasBounds) Transform() Affine2D {
	return Translate(c.Left, c.Top).Mul(Scale(c.Scale, c.Scale))
}

// PointToLocal maps a screen point into canvas-local units. ok is false when
// the canvas scale is zero or not finite.
func (c CanvasBounds) PointToLocal(p Pt) (Pt, bool) {
	inv, ok := c.Transform().Invert()
	if !ok {
		return Pt{}, false
	}
	return inv.Apply(p), true
}

// ToCanvasLocal converts a screen rectangle into canvas-local units.
func ToCanvasLocal(screen Rect, c CanvasBounds) Rect {
	return Rect{
		Left:   (screen.Left - c.Left) / c.Scale,
		Top:    (screen.Top - c.Top) / c.Scale,
		Width:  screen.Width / c.Scale,
		Height: screen.Height / c.Scale,
	}
}

// ToScreen converts a canvas-local rectangle into screen pixels.
func ToScreen(local Rect, c CanvasBounds) Rect {
	return Rect{
		Left:   local.Left*c.Scale + c.Left,
		Top:    local.Top*c.Scale + c.Top,
		Width:  local.Width * c.Scale,
		Height: local.Height * c.Scale,
	}
}

// ToCanvasDelta converts a screen-space movement into canvas-local units.
func ToCanvasDelta(d Pt, c CanvasBounds) Pt { return d.Div(c.Scale) }

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
