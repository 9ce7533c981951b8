/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DoubleClickWindow is the default interval separating a double click from
// two single clicks.
const DoubleClickWindow = 200 * time.Millisecond

// ClickDiscriminator tells single from double clicks. A single click is only
// reported once the window passed without a second click.
type ClickDiscriminator struct {
	clock  clockwork.Clock
	window time.Duration

	mu      sync.Mutex
	timer   clockwork.Timer
	gen     uint64
	pending func()
}

func NewClickDiscriminator(clock clockwork.Clock, window time.Duration) *ClickDiscriminator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if window <= 0 {
		window = DoubleClickWindow
	}
	return &ClickDiscriminator{clock: clock, window: window}
}

// Click registers a click. It returns true when the click completes a double
// click; the pending single callback is then dropped. Otherwise single is
// scheduled to run after the window.
func (c *ClickDiscriminator) Click(single func()) bool {
	if single == nil {
		single = func() {}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.pending != nil {
		c.stopLocked()
		return true
	}
	g := c.gen
	c.pending = single
	c.timer = c.clock.AfterFunc(c.window, func() { c.fire(g) })
	return false
}

func (c *ClickDiscriminator) fire(g uint64) {
	c.mu.Lock()
	if g != c.gen || c.pending == nil {
		c.mu.Unlock()
		return
	}
	fn := c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *ClickDiscriminator) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}

// Cancel drops a pending single click.
func (c *ClickDiscriminator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.stopLocked()
}

// Flush runs a pending single click now and reports whether there was one.
func (c *ClickDiscriminator) Flush() bool {
	c.mu.Lock()
	fn := c.pending
	c.gen++
	c.stopLocked()
	c.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}
