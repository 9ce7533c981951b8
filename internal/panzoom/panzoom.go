/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package panzoom turns wheel bursts into a viewport transform. Each burst
// builds a working matrix around the cursor position where the burst started
// and is committed once the wheel has been quiet for the debounce delay.
package panzoom

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"goslides/internal/geometry"
	"goslides/internal/gesture"
)

// WheelEvent is a host wheel event in screen pixels. Ctrl selects zoom.
type WheelEvent struct {
	DeltaX float64 `json:"dx"`
	DeltaY float64 `json:"dy"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Ctrl   bool    `json:"ctrl"`
}

// Transform is the working state of one burst.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

type Options struct {
	MinScale       float64
	MaxScale       float64
	LimitX         float64
	LimitY         float64
	ScaleSpeed     float64
	TranslateSpeed float64
	Debounce       time.Duration
}

func DefaultOptions() Options {
	return Options{
		MinScale:       0.5,
		MaxScale:       5,
		LimitX:         800,
		LimitY:         500,
		ScaleSpeed:     0.5,
		TranslateSpeed: 0.5,
		Debounce:       200 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if !(o.MinScale > 0) {
		o.MinScale = d.MinScale
	}
	if !(o.MaxScale >= o.MinScale) {
		o.MaxScale = math.Max(d.MaxScale, o.MinScale)
	}
	if !(o.LimitX > 0) {
		o.LimitX = d.LimitX
	}
	if !(o.LimitY > 0) {
		o.LimitY = d.LimitY
	}
	if !(o.ScaleSpeed > 0) {
		o.ScaleSpeed = d.ScaleSpeed
	}
	if !(o.TranslateSpeed > 0) {
		o.TranslateSpeed = d.TranslateSpeed
	}
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	return o
}

// ZoomFactor maps a wheel deltaY to a multiplicative scale step. Negative
// deltas zoom in; the two branches are reciprocal for equal magnitudes.
func ZoomFactor(dy, speed float64) float64 {
	if dy <= 0 {
		return 1 - dy*speed/100
	}
	return 1 / (1 + dy*speed/100)
}

type burst struct {
	origin geometry.Pt
	t      Transform
}

// Controller owns the committed viewport matrix. The commit runs on the
// debounce timer goroutine, so all state is guarded by mu. Callbacks are
// invoked without holding the lock.
type Controller struct {
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	active    bool
	target    geometry.Pt
	committed geometry.Affine2D
	working   geometry.Affine2D
	burst     *burst
	debounce  *gesture.Debouncer

	onChange func(m geometry.Affine2D)
	onCommit func(m geometry.Affine2D)
}

// New creates a controller; a nil clock means wall time.
func New(clock clockwork.Clock, opts Options) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		opts:      opts,
		log:       slog.Default(),
		committed: geometry.Identity,
		working:   geometry.Identity,
	}
	c.debounce = gesture.NewDebouncer(clock, opts.Debounce, c.commit)
	return c
}

func (c *Controller) SetLogger(l *slog.Logger) {
	if l != nil {
		c.log = l
	}
}

// OnChange registers the callback for every working matrix update.
func (c *Controller) OnChange(fn func(geometry.Affine2D)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// OnCommit registers the callback for burst commits.
func (c *Controller) OnCommit(fn func(geometry.Affine2D)) {
	c.mu.Lock()
	c.onCommit = fn
	c.mu.Unlock()
}

func (c *Controller) Options() Options { return c.opts }

// Activate attaches the controller to a target whose top-left corner is at
// targetOrigin in screen pixels.
func (c *Controller) Activate(targetOrigin geometry.Pt) bool {
	if !targetOrigin.Finite() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = true
	c.target = targetOrigin
	return true
}

// Deactivate detaches and commits a burst that is still pending.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
	c.debounce.Flush()
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Wheel applies one wheel event. It returns false when the controller is
// detached or the event carries non-finite values.
func (c *Controller) Wheel(ev WheelEvent) bool {
	if !geometry.Finite(ev.DeltaX) || !geometry.Finite(ev.DeltaY) || !geometry.Finite(ev.X) || !geometry.Finite(ev.Y) {
		return false
	}
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return false
	}
	if c.burst == nil {
		c.burst = &burst{
			origin: geometry.Pt{X: ev.X, Y: ev.Y}.Sub(c.target),
			t:      Transform{Scale: 1},
		}
		c.log.Debug("viewport burst", slog.Float64("origin_x", c.burst.origin.X), slog.Float64("origin_y", c.burst.origin.Y))
	}
	if ev.Ctrl {
		c.burst.t.Scale *= ZoomFactor(ev.DeltaY, c.opts.ScaleSpeed)
	} else {
		c.burst.t.TranslateX -= ev.DeltaX * c.opts.TranslateSpeed
		c.burst.t.TranslateY -= ev.DeltaY * c.opts.TranslateSpeed
	}
	c.limitScale()
	c.limitTranslation()
	c.working = compose(c.burst, c.committed)
	m := c.working
	fn := c.onChange
	c.mu.Unlock()

	c.debounce.Trigger()
	if fn != nil {
		fn(m)
	}
	return true
}

// compose returns T(origin)·T(translation)·S(scale)·T(-origin)·committed.
func compose(b *burst, committed geometry.Affine2D) geometry.Affine2D {
	return geometry.Translate(b.origin.X, b.origin.Y).
		Mul(geometry.Translate(b.t.TranslateX, b.t.TranslateY)).
		Mul(geometry.Scale(b.t.Scale, b.t.Scale)).
		Mul(geometry.Translate(-b.origin.X, -b.origin.Y)).
		Mul(committed)
}

// limitScale keeps the effective scale (burst scale times the committed
// scale) inside [MinScale, MaxScale], landing exactly on the bound.
func (c *Controller) limitScale() {
	base := c.committed.ScaleFactor()
	if base == 0 {
		return
	}
	eff := c.burst.t.Scale * base
	switch {
	case eff > c.opts.MaxScale:
		c.burst.t.Scale = c.opts.MaxScale / base
	case eff < c.opts.MinScale:
		c.burst.t.Scale = c.opts.MinScale / base
	}
}

// limitTranslation keeps the offset within the content margin, which
// shrinks with the zoom when zoomed out.
func (c *Controller) limitTranslation() {
	scale := c.committed.ScaleFactor()
	lx, ly := c.opts.LimitX, c.opts.LimitY
	if scale < 1 {
		lx *= scale
		ly *= scale
	}
	t := &c.burst.t
	if next := t.TranslateX + c.committed.E; math.Abs(next) > lx {
		t.TranslateX = math.Copysign(lx, next) - c.committed.E
	}
	if next := t.TranslateY + c.committed.F; math.Abs(next) > ly {
		t.TranslateY = math.Copysign(ly, next) - c.committed.F
	}
}

func (c *Controller) commit() {
	c.mu.Lock()
	if c.burst == nil {
		c.mu.Unlock()
		return
	}
	c.committed = c.working
	c.burst = nil
	m := c.committed
	fn := c.onCommit
	c.mu.Unlock()
	c.log.Debug("viewport committed", slog.String("matrix", m.String()))
	if fn != nil {
		fn(m)
	}
}

// Flush commits a pending burst immediately. It reports whether one was
// pending.
func (c *Controller) Flush() bool { return c.debounce.Flush() }

// Pending reports whether a burst is waiting for its commit.
func (c *Controller) Pending() bool { return c.debounce.Pending() }

// Committed returns the committed matrix.
func (c *Controller) Committed() geometry.Affine2D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Current returns the working matrix during a burst and the committed one
// otherwise.
func (c *Controller) Current() geometry.Affine2D {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.burst != nil {
		return c.working
	}
	return c.committed
}

// Transform reports the current burst transform; ok is false between bursts.
func (c *Controller) Transform() (Transform, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.burst == nil {
		return Transform{}, false
	}
	return c.burst.t, true
}

// SetCommitted replaces the committed matrix, dropping any pending burst.
// The scale must already lie within the configured bounds.
func (c *Controller) SetCommitted(m geometry.Affine2D) {
	c.debounce.Stop()
	c.mu.Lock()
	c.committed = m
	c.working = m
	c.burst = nil
	c.mu.Unlock()
}

// Reset returns to the identity viewport.
func (c *Controller) Reset() { c.SetCommitted(geometry.Identity) }
