/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps per-slide undo/redo stacks of element geometry edits.
package undo

import (
	"sync"
	"time"

	"goslides/internal/geometry"
)

// Edit is one reversible geometry change, usually a finished drag or resize.
type Edit struct {
	SlideID   string
	ElementID string
	Before    geometry.Rect
	After     geometry.Rect
	At        time.Time
}

// Config caps history depth and controls coalescing.
type Config struct {
	// MaxEdits is the total across slides; the oldest edits go first.
	MaxEdits int
	// MaxPerSlide limits the undo depth of one slide (0 means unlimited).
	MaxPerSlide int
	// MinInterval merges an edit into the previous one when both touch the
	// same element within the interval.
	MinInterval time.Duration
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[string][]Edit
	redo map[string][]Edit
	n    int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxEdits <= 0 {
		cfg.MaxEdits = 1000
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Edit), redo: make(map[string][]Edit)}
}

// Push records e and clears the slide's redo stack. No-op edits are dropped.
func (m *Manager) Push(e Edit) {
	if e.Before == e.After {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[e.SlideID] = nil
	stack := m.undo[e.SlideID]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if last.ElementID == e.ElementID && e.At.Sub(last.At) < m.cfg.MinInterval {
			// keep the first Before so one undo reverts the burst
			e.Before = last.Before
			if e.Before == e.After {
				m.undo[e.SlideID] = stack[:n-1]
				m.n--
				return
			}
			stack[n-1] = e
			return
		}
	}
	m.undo[e.SlideID] = append(stack, e)
	m.n++
	m.enforceCapsLocked(e.SlideID)
}

// Undo pops the latest edit of slideID; the caller restores e.Before.
func (m *Manager) Undo(slideID string) (Edit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[slideID]
	if len(stack) == 0 {
		return Edit{}, false
	}
	e := stack[len(stack)-1]
	m.undo[slideID] = stack[:len(stack)-1]
	m.n--
	m.redo[slideID] = append(m.redo[slideID], e)
	return e, true
}

// Redo re-applies the latest undone edit; the caller restores e.After.
func (m *Manager) Redo(slideID string) (Edit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[slideID]
	if len(r) == 0 {
		return Edit{}, false
	}
	e := r[len(r)-1]
	m.redo[slideID] = r[:len(r)-1]
	m.undo[slideID] = append(m.undo[slideID], e)
	m.n++
	m.enforceCapsLocked(slideID)
	return e, true
}

// CanUndo and CanRedo drive the toolbar state.
func (m *Manager) CanUndo(slideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[slideID]) > 0
}

func (m *Manager) CanRedo(slideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[slideID]) > 0
}

// Forget drops every edit of elementID, e.g. after the element was deleted.
func (m *Manager) Forget(slideID, elementID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keep := func(in []Edit) []Edit {
		out := in[:0]
		for _, e := range in {
			if e.ElementID != elementID {
				out = append(out, e)
			}
		}
		return out
	}
	before := len(m.undo[slideID])
	m.undo[slideID] = keep(m.undo[slideID])
	m.n -= before - len(m.undo[slideID])
	m.redo[slideID] = keep(m.redo[slideID])
}

// ClearSlide frees the stacks of one slide.
func (m *Manager) ClearSlide(slideID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n -= len(m.undo[slideID])
	delete(m.undo, slideID)
	delete(m.redo, slideID)
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (slides int, edits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.undo {
		if len(v) > 0 {
			slides++
		}
	}
	return slides, m.n
}

func (m *Manager) enforceCapsLocked(slideID string) {
	if m.cfg.MaxPerSlide > 0 {
		stack := m.undo[slideID]
		if drop := len(stack) - m.cfg.MaxPerSlide; drop > 0 {
			m.undo[slideID] = append([]Edit{}, stack[drop:]...)
			m.n -= drop
		}
	}
	// global cap: prune the oldest across all slides
	for m.n > m.cfg.MaxEdits {
		oldest := ""
		var oldestAt time.Time
		found := false
		for id, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].At.Before(oldestAt) {
				oldest, oldestAt, found = id, stack[0].At, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.undo[oldest] = stack[1:]
		m.n--
		if len(m.undo[oldest]) == 0 {
			delete(m.undo, oldest)
		}
	}
}
