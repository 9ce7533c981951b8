/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"log/slog"
	"math"

	"goslides/internal/geometry"
)

// Handle identifies a resize handle. Left and Right change width only (text
// elements); the corners keep the aspect ratio (image and video elements).
type Handle int

const (
	HandleNone Handle = iota
	HandleLeft
	HandleRight
	HandleTopLeft
	HandleTopRight
	HandleBottomLeft
	HandleBottomRight
)

var handleNames = map[Handle]string{
	HandleLeft:        "left",
	HandleRight:       "right",
	HandleTopLeft:     "top-left",
	HandleTopRight:    "top-right",
	HandleBottomLeft:  "bottom-left",
	HandleBottomRight: "bottom-right",
}

func (h Handle) String() string {
	if n, ok := handleNames[h]; ok {
		return n
	}
	return "none"
}

// ParseHandle maps a handle name as produced by String back to a Handle.
func ParseHandle(s string) (Handle, bool) {
	for h, n := range handleNames {
		if n == s {
			return h, true
		}
	}
	return HandleNone, false
}

// WidthOnly reports whether h is one of the side handles.
func (h Handle) WidthOnly() bool { return h == HandleLeft || h == HandleRight }

// Diagonal reports whether h is a corner handle.
func (h Handle) Diagonal() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight:
		return true
	}
	return false
}

// growsLeft is true for handles whose right edge stays put.
func (h Handle) growsLeft() bool {
	return h == HandleLeft || h == HandleTopLeft || h == HandleBottomLeft
}

func (h Handle) top() bool { return h == HandleTopLeft || h == HandleTopRight }

// ResizeOptions bound the result of a resize, in canvas-local units.
type ResizeOptions struct {
	MinWidth   float64
	MinHeight  float64
	FitPadding float64
}

func DefaultResizeOptions() ResizeOptions {
	return ResizeOptions{MinWidth: 20, MinHeight: 20, FitPadding: 4}
}

// ResizeDelta is the change relative to the previously emitted rect.
type ResizeDelta struct {
	Width, Height, Left, Top float64
}

// ResizeResult is emitted on every effective pointer move.
type ResizeResult struct {
	Handle Handle
	Rect   geometry.Rect
	Delta  ResizeDelta
}

// ResizeRect applies a horizontal pointer travel diffX (canvas-local, positive
// when the pointer moved left) to the original rect o.
func ResizeRect(h Handle, o geometry.Rect, diffX float64, opts ResizeOptions) geometry.Rect {
	var w float64
	switch {
	case h.growsLeft():
		w = o.Width + diffX
	case h == HandleRight || h == HandleTopRight || h == HandleBottomRight:
		w = o.Width - diffX
	default:
		return o
	}
	minW := opts.MinWidth
	if h.Diagonal() && o.Width > 0 && o.Height > 0 {
		minW = math.Max(minW, opts.MinHeight*o.Width/o.Height)
	}
	w = math.Max(w, minW)

	n := o
	n.Width = w
	if h.growsLeft() {
		n.Left = o.Right() - w
	}
	if h.Diagonal() && o.Width > 0 {
		n.Height = w * o.Height / o.Width
		if h.top() {
			n.Top = o.Bottom() - n.Height
		}
	}
	return n
}

// FitWidth sizes cur to contentWidth plus padding for a width handle,
// anchoring the edge opposite the handle. ok is false for corner handles.
func FitWidth(h Handle, cur geometry.Rect, contentWidth float64, opts ResizeOptions) (geometry.Rect, bool) {
	if !h.WidthOnly() || !geometry.Finite(contentWidth) {
		return cur, false
	}
	w := math.Max(contentWidth+opts.FitPadding, opts.MinWidth)
	n := cur
	n.Width = w
	if h == HandleLeft {
		n.Left = cur.Right() - w
	}
	return n, true
}

// ResizeController tracks one handle drag from Activate to pointer up.
type ResizeController struct {
	surface  Surface
	opts     ResizeOptions
	onResize func(ResizeResult)
	onEnd    func()
	log      *slog.Logger

	state    State
	handle   Handle
	original geometry.Rect
	last     geometry.Rect
	startX   float64
	scale    float64
	stop     func()
}

func NewResizeController(surface Surface, opts ResizeOptions, onResize func(ResizeResult), onEnd func()) *ResizeController {
	return &ResizeController{surface: surface, opts: opts, onResize: onResize, onEnd: onEnd, log: slog.Default()}
}

func (r *ResizeController) SetLogger(l *slog.Logger) {
	if l != nil {
		r.log = l
	}
}

func (r *ResizeController) Options() ResizeOptions { return r.opts }
func (r *ResizeController) State() State           { return r.state }
func (r *ResizeController) Active() bool           { return r.state == Active }
func (r *ResizeController) Handle() Handle         { return r.handle }

// Activate snapshots the element rect (canvas-local) and the pointer. scale is
// the canvas zoom used to turn screen travel into canvas units.
func (r *ResizeController) Activate(h Handle, original geometry.Rect, scale float64, e PointerEvent) bool {
	if r.state == Active || h == HandleNone {
		return false
	}
	if !original.Valid() || !geometry.Finite(e.X) || !geometry.Finite(scale) || scale == 0 {
		r.log.Warn("resize activate ignored", slog.String("handle", h.String()), slog.Float64("scale", scale))
		return false
	}
	r.state = Active
	r.handle = h
	r.original = original
	r.last = original
	r.startX = e.X
	r.scale = scale
	r.stop = r.surface.Listen(r.handleEvent)
	r.log.Debug("resize active", slog.String("handle", h.String()))
	return true
}

func (r *ResizeController) Deactivate() {
	if r.state != Active {
		return
	}
	r.state = Idle
	if stop := r.stop; stop != nil {
		r.stop = nil
		stop()
	}
	r.log.Debug("resize idle", slog.String("handle", r.handle.String()))
	r.handle = HandleNone
	if r.onEnd != nil {
		r.onEnd()
	}
}

func (r *ResizeController) handleEvent(e PointerEvent) {
	switch e.Kind {
	case PointerMove:
		r.move(e)
	case PointerUp, PointerCancel:
		r.Deactivate()
	}
}

func (r *ResizeController) move(e PointerEvent) {
	if r.state != Active || !geometry.Finite(e.X) {
		return
	}
	diffX := (r.startX - e.X) / r.scale
	next := ResizeRect(r.handle, r.original, diffX, r.opts)
	if next == r.last {
		return
	}
	d := ResizeDelta{
		Width:  next.Width - r.last.Width,
		Height: next.Height - r.last.Height,
		Left:   next.Left - r.last.Left,
		Top:    next.Top - r.last.Top,
	}
	r.last = next
	if r.onResize != nil {
		r.onResize(ResizeResult{Handle: r.handle, Rect: next, Delta: d})
	}
}
