/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gesture turns raw pointer events into incremental drag and resize
// output. Controllers follow an explicit Activate/Deactivate lifecycle and
// listen on a Surface (the host window) so a gesture keeps tracking after the
// pointer leaves the element that started it.
package gesture

import (
	"slices"
	"sync"

	"goslides/internal/geometry"
)

// PointerKind classifies pointer events.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	// PointerCancel is delivered when the host loses pointer capture.
	PointerCancel
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// PointerEvent carries client coordinates in screen pixels.
type PointerEvent struct {
	Kind PointerKind
	X, Y float64
}

func (e PointerEvent) Pos() geometry.Pt { return geometry.Pt{X: e.X, Y: e.Y} }

// PointerHandler receives events from a Surface.
type PointerHandler func(PointerEvent)

// Surface is the global input surface. Listen registers h and returns the
// function that removes it again; calling that function more than once is safe.
type Surface interface {
	Listen(h PointerHandler) (stop func())
}

// State is the lifecycle state of a controller.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Dispatcher is the Surface implementation used by hosts: the Fyne canvas and
// the script replayer forward every pointer event to Dispatch.
type Dispatcher struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]PointerHandler
}

func NewDispatcher() *Dispatcher { return &Dispatcher{handlers: make(map[int]PointerHandler)} }

func (d *Dispatcher) Listen(h PointerHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = make(map[int]PointerHandler)
	}
	d.nextID++
	id := d.nextID
	d.handlers[id] = h
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.handlers, id)
			d.mu.Unlock()
		})
	}
}

// Dispatch delivers e to every registered handler in registration order.
// Handlers may unregister themselves while being called.
func (d *Dispatcher) Dispatch(e PointerEvent) {
	d.mu.Lock()
	ids := make([]int, 0, len(d.handlers))
	for id := range d.handlers {
		ids = append(ids, id)
	}
	d.mu.Unlock()
	slices.Sort(ids)
	for _, id := range ids {
		d.mu.Lock()
		h, ok := d.handlers[id]
		d.mu.Unlock()
		if ok {
			h(e)
		}
	}
}

// Listeners returns the number of registered handlers.
func (d *Dispatcher) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}
