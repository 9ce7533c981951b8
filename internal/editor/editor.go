/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires the canvas controllers together. It owns the selection
// and the canvas bounds: drag deltas pass through the snapping engine before
// they are applied, resize output replaces the selection rect, and wheel
// bursts move the viewport. Hosts feed pointer events to the Surface given to
// New and receive results through Hooks.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"goslides/internal/domain"
	"goslides/internal/geometry"
	"goslides/internal/gesture"
	applog "goslides/internal/log"
	"goslides/internal/panzoom"
	"goslides/internal/snap"
	"goslides/internal/textlayout"
)

var (
	ErrGestureActive = errors.New("another gesture is active")
	ErrNoSelection   = errors.New("no element selected")
	ErrHandle        = errors.New("handle does not apply to the selected element")
	ErrCanvas        = errors.New("canvas bounds must be finite with a non-zero scale")
)

// siblingTimeout bounds the sibling lookup done when a drag starts.
const siblingTimeout = 500 * time.Millisecond

// Target is the part of the selection a pointer went down on.
type Target struct {
	Handle gesture.Handle
}

// TargetBody is the element body; pressing it starts a drag.
var TargetBody = Target{}

// TargetHandle returns the target for resize handle h.
func TargetHandle(h gesture.Handle) Target { return Target{Handle: h} }

func (t Target) IsHandle() bool { return t.Handle != gesture.HandleNone }

func (t Target) String() string {
	if t.IsHandle() {
		return "handle:" + t.Handle.String()
	}
	return "body"
}

// SiblingSource supplies the other elements of the active slide in
// canvas-local units.
type SiblingSource interface {
	Siblings(ctx context.Context, excludeID string) ([]snap.Sibling, error)
}

// StaticSiblings is a SiblingSource over a fixed list.
type StaticSiblings []snap.Sibling

func (s StaticSiblings) Siblings(_ context.Context, excludeID string) ([]snap.Sibling, error) {
	out := make([]snap.Sibling, 0, len(s))
	for _, sib := range s {
		if sib.ID != excludeID {
			out = append(out, sib)
		}
	}
	return out, nil
}

// Reporter receives gesture summaries, e.g. the telemetry client.
type Reporter interface {
	Record(event string, props map[string]any)
}

// Frame is the outcome of one drag move.
type Frame struct {
	ElementID string        `json:"elementId"`
	Selection geometry.Rect `json:"selection"`
	// Delta is the canvas-local movement applied this frame.
	Delta  geometry.Pt      `json:"delta"`
	Snap   snap.Result      `json:"-"`
	Guides []snap.GuideLine `json:"guides,omitempty"`
}

// ResizeFrame is the outcome of one resize step or a fit-to-content.
type ResizeFrame struct {
	ElementID string              `json:"elementId"`
	Handle    gesture.Handle      `json:"-"`
	Rect      geometry.Rect       `json:"rect"`
	Delta     gesture.ResizeDelta `json:"delta"`
	Fit       bool                `json:"fit,omitempty"`
}

// Hooks are invoked without the editor lock held. OnViewport may run on the
// debounce timer goroutine when committed is true.
type Hooks struct {
	OnFrame    func(Frame)
	OnResize   func(ResizeFrame)
	OnViewport func(m geometry.Affine2D, committed bool)
	OnEditText func(elementID string)
	OnSelect   func(elementID string)
}

// Options configure New. Zero values select the package defaults.
type Options struct {
	Snap        snap.Options
	PanZoom     panzoom.Options
	Resize      gesture.ResizeOptions
	DoubleClick time.Duration
	Clock       clockwork.Clock
	Text        textlayout.Provider
	Logger      *slog.Logger
	Reporter    Reporter
	// IDs generates element ids for duplicates.
	IDs func() string
}

type dragStats struct {
	started  time.Time
	frames   int
	snaps    int
	distance float64
}

// Editor is safe for use from the UI goroutine plus the viewport timer.
type Editor struct {
	log      *slog.Logger
	hooks    Hooks
	clock    clockwork.Clock
	text     textlayout.Provider
	reporter Reporter
	ids      func() string

	drag   *gesture.DragController
	resize *gesture.ResizeController
	pz     *panzoom.Controller
	engine *snap.Engine
	clicks *gesture.ClickDiscriminator

	mu       sync.Mutex
	sel      domain.Element
	hasSel   bool
	base     geometry.CanvasBounds
	canvas   geometry.CanvasBounds
	source   SiblingSource
	siblings []snap.Sibling
	stats    dragStats
	resizeAt geometry.Rect
	// glog logs the running drag or resize
	glog    *slog.Logger
	snapLog *slog.Logger
}

// New builds an editor listening on surface.
func New(surface gesture.Surface, opts Options, hooks Hooks) *Editor {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Text == nil {
		opts.Text = textlayout.BasicProvider{}
	}
	if opts.Resize == (gesture.ResizeOptions{}) {
		opts.Resize = gesture.DefaultResizeOptions()
	}
	if opts.IDs == nil {
		opts.IDs = sequentialIDs()
	}
	e := &Editor{
		log:      component(opts.Logger, "editor"),
		hooks:    hooks,
		clock:    opts.Clock,
		text:     opts.Text,
		reporter: opts.Reporter,
		ids:      opts.IDs,
		engine:   snap.NewEngine(opts.Snap),
		clicks:   gesture.NewClickDiscriminator(opts.Clock, opts.DoubleClick),
		pz:       panzoom.New(opts.Clock, opts.PanZoom),
		canvas:   geometry.CanvasBounds{Scale: 1},
		base:     geometry.CanvasBounds{Scale: 1},
		snapLog:  component(opts.Logger, "snap"),
	}
	e.glog = e.log
	e.drag = gesture.NewDragController(surface, e.onDragMove, e.onDragEnd)
	e.resize = gesture.NewResizeController(surface, opts.Resize, e.onResize, e.onResizeEnd)
	e.drag.SetLogger(component(opts.Logger, "drag"))
	e.resize.SetLogger(component(opts.Logger, "resize"))
	e.engine.SetLogger(e.snapLog)
	e.pz.SetLogger(component(opts.Logger, "panzoom"))
	e.pz.OnChange(func(m geometry.Affine2D) { e.onViewport(m, false) })
	e.pz.OnCommit(func(m geometry.Affine2D) { e.onViewport(m, true) })
	return e
}

func component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		return applog.WithComponent(name)
	}
	return base.With(slog.String("component", name))
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("el-%d", n)
	}
}

// Select makes el the selection. It fails while a pointer gesture runs.
func (e *Editor) Select(el domain.Element) error {
	if err := el.Validate(); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if e.drag.Active() || e.resize.Active() {
		return ErrGestureActive
	}
	e.mu.Lock()
	e.sel = el
	e.hasSel = true
	e.mu.Unlock()
	e.engine.Reset()
	e.log.Debug("selected", slog.String("element", el.ID), slog.String("type", string(el.Type)))
	return nil
}

// ClearSelection drops the selection, ends any pointer gesture and forgets
// the pair target.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	e.hasSel = false
	e.sel = domain.Element{}
	e.mu.Unlock()
	e.drag.Deactivate()
	e.resize.Deactivate()
	e.clicks.Cancel()
	e.engine.Reset()
}

// Selection returns a copy of the selected element.
func (e *Editor) Selection() (domain.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel, e.hasSel
}

// SetCanvasBounds sets the canvas rect at the identity viewport. The
// effective bounds follow the committed viewport matrix.
func (e *Editor) SetCanvasBounds(c geometry.CanvasBounds) error {
	if !c.Rect().Valid() || !geometry.Finite(c.Scale) || c.Scale == 0 {
		return ErrCanvas
	}
	e.pz.Activate(geometry.Pt{X: c.Left, Y: c.Top})
	m := e.pz.Committed()
	e.mu.Lock()
	e.base = c
	e.canvas = ViewportCanvas(c, m)
	e.mu.Unlock()
	return nil
}

// Canvas returns the effective canvas bounds.
func (e *Editor) Canvas() geometry.CanvasBounds {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canvas
}

// Viewport returns the committed viewport matrix.
func (e *Editor) Viewport() geometry.Affine2D { return e.pz.Committed() }

// ViewportCanvas maps the base canvas through m, which is expressed relative
// to the canvas origin.
func ViewportCanvas(base geometry.CanvasBounds, m geometry.Affine2D) geometry.CanvasBounds {
	r := m.ApplyRect(geometry.R(0, 0, base.Width, base.Height)).Translate(geometry.Pt{X: base.Left, Y: base.Top})
	return geometry.CanvasBounds{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height, Scale: base.Scale * m.ScaleFactor()}
}

func (e *Editor) SetSiblings(src SiblingSource) {
	e.mu.Lock()
	e.source = src
	e.mu.Unlock()
}

// Busy reports whether a drag or resize is running.
func (e *Editor) Busy() bool { return e.drag.Active() || e.resize.Active() }

// PointerDown starts a drag on the body or a resize on a handle.
func (e *Editor) PointerDown(t Target, ev gesture.PointerEvent) error {
	if e.Busy() {
		return ErrGestureActive
	}
	// a pointer gesture ends the wheel burst so it sees the committed canvas
	e.pz.Flush()

	e.mu.Lock()
	if !e.hasSel {
		e.mu.Unlock()
		return ErrNoSelection
	}
	sel, canvas, src := e.sel, e.canvas, e.source
	e.mu.Unlock()

	if t.IsHandle() {
		if t.Handle.WidthOnly() != (sel.Type == domain.TypeText) {
			return fmt.Errorf("%w: %s on %s", ErrHandle, t.Handle, sel.Type)
		}
		e.mu.Lock()
		e.resizeAt = sel.Rect()
		e.glog = applog.WithGesture(e.log, "resize", sel.ID).With(slog.String("handle", t.Handle.String()))
		e.mu.Unlock()
		if !e.resize.Activate(t.Handle, sel.Rect(), canvas.Scale, ev) {
			return ErrGestureActive
		}
		return nil
	}

	sibs := e.loadSiblings(src, sel.ID)
	e.engine.Reset()
	e.engine.SetLogger(applog.WithGesture(e.snapLog, "drag", sel.ID))
	e.mu.Lock()
	e.siblings = sibs
	e.stats = dragStats{started: e.clock.Now()}
	l := applog.WithGesture(e.log, "drag", sel.ID)
	e.glog = l
	e.mu.Unlock()
	l.Debug("drag start", slog.Int("siblings", len(sibs)))
	if !e.drag.Activate(ev) {
		return ErrGestureActive
	}
	return nil
}

func (e *Editor) loadSiblings(src SiblingSource, excludeID string) []snap.Sibling {
	if src == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), siblingTimeout)
	defer cancel()
	sibs, err := src.Siblings(applog.ContextWith(ctx, slog.String("element", excludeID)), excludeID)
	if err != nil {
		// snapping is an assist; drag without siblings
		e.log.Warn("sibling lookup failed", slog.String("element", excludeID), slog.Any("err", err))
		return nil
	}
	return sibs
}

func (e *Editor) onDragMove(delta geometry.Pt) {
	e.mu.Lock()
	if !e.hasSel {
		e.mu.Unlock()
		return
	}
	res := e.engine.Update(e.sel.Rect(), delta, e.canvas, e.siblings)
	local := geometry.ToCanvasDelta(res.Movement, e.canvas)
	if !local.Finite() {
		e.mu.Unlock()
		return
	}
	e.sel.Left += local.X
	e.sel.Top += local.Y
	e.stats.frames++
	if res.Snapped.Any() {
		e.stats.snaps++
	}
	e.stats.distance += math.Abs(local.X) + math.Abs(local.Y)
	f := Frame{ElementID: e.sel.ID, Selection: e.sel.Rect(), Delta: local, Snap: res, Guides: res.Guides}
	fn := e.hooks.OnFrame
	e.mu.Unlock()
	if fn != nil {
		fn(f)
	}
}

func (e *Editor) onDragEnd() {
	e.engine.Reset()
	e.engine.SetLogger(e.snapLog)
	e.mu.Lock()
	e.siblings = nil
	st := e.stats
	l := e.glog
	e.glog = e.log
	e.mu.Unlock()
	dur := e.clock.Since(st.started)
	l.Debug("drag end", slog.Int("frames", st.frames), slog.Int("snaps", st.snaps), slog.Duration("took", dur))
	e.record("drag_end", map[string]any{
		"frames":      st.frames,
		"snaps":       st.snaps,
		"distance":    geometry.FloatRound(st.distance, 2),
		"duration_ms": dur.Milliseconds(),
	})
}

func (e *Editor) onResize(r gesture.ResizeResult) {
	e.mu.Lock()
	if !e.hasSel {
		e.mu.Unlock()
		return
	}
	e.sel.SetRect(r.Rect)
	f := ResizeFrame{ElementID: e.sel.ID, Handle: r.Handle, Rect: r.Rect, Delta: r.Delta}
	fn := e.hooks.OnResize
	e.mu.Unlock()
	if fn != nil {
		fn(f)
	}
}

func (e *Editor) onResizeEnd() {
	e.mu.Lock()
	from, to := e.resizeAt, e.sel.Rect()
	l := e.glog
	e.glog = e.log
	e.mu.Unlock()
	l.Debug("resize end", slog.Float64("dw", geometry.FloatRound(to.Width-from.Width, 2)), slog.Float64("dh", geometry.FloatRound(to.Height-from.Height, 2)))
	e.record("resize_end", map[string]any{
		"dw": geometry.FloatRound(to.Width-from.Width, 2),
		"dh": geometry.FloatRound(to.Height-from.Height, 2),
	})
}

// FitToContent sizes the selected text element to its content from a width
// handle, anchoring the opposite edge.
func (e *Editor) FitToContent(h gesture.Handle) (ResizeFrame, error) {
	if e.Busy() {
		return ResizeFrame{}, ErrGestureActive
	}
	e.mu.Lock()
	if !e.hasSel {
		e.mu.Unlock()
		return ResizeFrame{}, ErrNoSelection
	}
	if e.sel.Type != domain.TypeText {
		e.mu.Unlock()
		return ResizeFrame{}, fmt.Errorf("%w: fit on %s", ErrHandle, e.sel.Type)
	}
	cur := e.sel.Rect()
	w := textlayout.ContentWidth(e.text, e.sel)
	next, ok := gesture.FitWidth(h, cur, w, e.resize.Options())
	if !ok {
		e.mu.Unlock()
		return ResizeFrame{}, fmt.Errorf("%w: fit from %s", ErrHandle, h)
	}
	e.sel.SetRect(next)
	f := ResizeFrame{
		ElementID: e.sel.ID,
		Handle:    h,
		Rect:      next,
		Delta:     gesture.ResizeDelta{Width: next.Width - cur.Width, Height: next.Height - cur.Height, Left: next.Left - cur.Left, Top: next.Top - cur.Top},
		Fit:       true,
	}
	fn := e.hooks.OnResize
	e.mu.Unlock()
	if fn != nil {
		fn(f)
	}
	e.record("resize_end", map[string]any{"dw": geometry.FloatRound(f.Delta.Width, 2), "dh": 0.0, "fit": true})
	return f, nil
}

// Tap feeds a click on t through the double click discriminator. A double
// tap on a width handle fits the text, on the body it asks the host to edit
// the text. A single tap is reported through OnSelect once the window passed.
func (e *Editor) Tap(t Target) {
	e.mu.Lock()
	id, has := e.sel.ID, e.hasSel
	e.mu.Unlock()
	if !has {
		return
	}
	double := e.clicks.Click(func() {
		if fn := e.hooks.OnSelect; fn != nil {
			fn(id)
		}
	})
	if !double {
		return
	}
	switch {
	case t.IsHandle():
		if _, err := e.FitToContent(t.Handle); err != nil {
			e.log.Debug("fit ignored", slog.Any("err", err))
		}
	default:
		sel, ok := e.Selection()
		if ok && sel.Type == domain.TypeText && e.hooks.OnEditText != nil {
			e.hooks.OnEditText(sel.ID)
		}
	}
}

// Wheel routes a wheel event to the viewport controller.
func (e *Editor) Wheel(ev panzoom.WheelEvent) bool {
	if e.Busy() {
		return false
	}
	return e.pz.Wheel(ev)
}

func (e *Editor) onViewport(m geometry.Affine2D, committed bool) {
	if committed {
		e.mu.Lock()
		e.canvas = ViewportCanvas(e.base, m)
		e.mu.Unlock()
		e.record("viewport_commit", map[string]any{
			"scale": geometry.FloatRound(m.ScaleFactor(), 3),
			"tx":    geometry.FloatRound(m.E, 1),
			"ty":    geometry.FloatRound(m.F, 1),
		})
	}
	if fn := e.hooks.OnViewport; fn != nil {
		fn(m, committed)
	}
}

// Duplicate copies the selection shifted by domain.DuplicateOffset and selects
// the copy. The host inserts it into the slide.
func (e *Editor) Duplicate() (domain.Element, error) {
	if e.Busy() {
		return domain.Element{}, ErrGestureActive
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasSel {
		return domain.Element{}, ErrNoSelection
	}
	d := e.sel.Duplicate(e.ids())
	e.sel = d
	return d, nil
}

// NewElementID returns the next id from Options.IDs.
func (e *Editor) NewElementID() string { return e.ids() }

// FlushViewport commits a pending wheel burst now.
func (e *Editor) FlushViewport() bool { return e.pz.Flush() }

// FlushClicks reports a pending single tap now.
func (e *Editor) FlushClicks() bool { return e.clicks.Flush() }

// Close ends every gesture and commits a pending viewport burst.
func (e *Editor) Close() {
	e.drag.Deactivate()
	e.resize.Deactivate()
	e.clicks.Cancel()
	e.pz.Deactivate()
}

func (e *Editor) record(event string, props map[string]any) {
	if e.reporter != nil {
		e.reporter.Record(event, props)
	}
}
