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

	"goslides/internal/geometry"
)

// DragController emits incremental pointer deltas (screen px) between
// Activate and the pointer-up that ends the gesture.
type DragController struct {
	surface Surface
	onMove  func(delta geometry.Pt)
	onEnd   func()
	log     *slog.Logger

	state State
	prev  geometry.Pt
	stop  func()
}

// NewDragController wires a controller to surface. onMove receives each
// non-zero delta; onEnd runs once when the gesture ends for any reason.
func NewDragController(surface Surface, onMove func(geometry.Pt), onEnd func()) *DragController {
	return &DragController{surface: surface, onMove: onMove, onEnd: onEnd, log: slog.Default()}
}

// SetLogger replaces the logger used for diagnostics.
func (d *DragController) SetLogger(l *slog.Logger) {
	if l != nil {
		d.log = l
	}
}

func (d *DragController) State() State { return d.state }
func (d *DragController) Active() bool { return d.state == Active }

// Activate starts a drag at the pointer-down event e. It returns false when a
// drag is already running or the coordinates are not finite.
func (d *DragController) Activate(e PointerEvent) bool {
	if d.state == Active {
		return false
	}
	p := e.Pos()
	if !p.Finite() {
		d.log.Warn("drag activate ignored", slog.Float64("x", e.X), slog.Float64("y", e.Y))
		return false
	}
	d.state = Active
	d.prev = p
	d.stop = d.surface.Listen(d.handle)
	d.log.Debug("drag active", slog.Float64("x", p.X), slog.Float64("y", p.Y))
	return true
}

// Deactivate ends the drag and releases the surface listener. It is a no-op
// when idle.
func (d *DragController) Deactivate() {
	if d.state != Active {
		return
	}
	d.state = Idle
	if stop := d.stop; stop != nil {
		d.stop = nil
		stop()
	}
	d.log.Debug("drag idle")
	if d.onEnd != nil {
		d.onEnd()
	}
}

func (d *DragController) handle(e PointerEvent) {
	switch e.Kind {
	case PointerMove:
		d.move(e)
	case PointerUp, PointerCancel:
		d.Deactivate()
	}
}

func (d *DragController) move(e PointerEvent) {
	if d.state != Active {
		return
	}
	p := e.Pos()
	if !p.Finite() {
		return
	}
	delta := p.Sub(d.prev)
	d.prev = p
	if delta == (geometry.Pt{}) {
		return
	}
	if d.onMove != nil {
		d.onMove(delta)
	}
}
