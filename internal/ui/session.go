/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"goslides/internal/domain"
	"goslides/internal/editor"
	"goslides/internal/geometry"
	"goslides/internal/gesture"
	applog "goslides/internal/log"
	"goslides/internal/panzoom"
	"goslides/internal/snap"
	"goslides/internal/undo"
)

// SlideStore is the part of the element store a session writes through.
type SlideStore interface {
	PutSlide(ctx context.Context, s domain.Slide) error
	UpdateGeometry(ctx context.Context, slideID, elementID string, r geometry.Rect) error
	SlideSiblings(slideID string) editor.SiblingSource
}

const storeTimeout = 2 * time.Second

// Session binds one slide to an editor and translates widget input into
// editor calls. Geometry is written to the store when a gesture ends.
type Session struct {
	log     *slog.Logger
	surface *gesture.Dispatcher
	ed      *editor.Editor
	store   SlideStore
	history *undo.Manager
	now     func() time.Time

	mu       sync.Mutex
	slide    domain.Slide
	guides   []snap.GuideLine
	startAt  geometry.Rect
	viewport geometry.Affine2D
	onChange func()
	onEdit   func(id string)
}

// NewSession builds the editor for slide. store may be nil for a read-only
// session.
func NewSession(slide domain.Slide, store SlideStore, opts editor.Options) *Session {
	s := &Session{
		log:      applog.WithComponent("ui"),
		surface:  gesture.NewDispatcher(),
		store:    store,
		history:  undo.NewManager(undo.Config{MaxPerSlide: 100, MinInterval: 250 * time.Millisecond}),
		now:      time.Now,
		slide:    slide,
		viewport: geometry.Identity,
	}
	if opts.Clock != nil {
		s.now = opts.Clock.Now
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With(slog.String("component", "ui"))
	}
	s.ed = editor.New(s.surface, opts, editor.Hooks{
		OnFrame:    s.onFrame,
		OnResize:   s.onResize,
		OnViewport: s.onViewport,
		OnEditText: func(id string) {
			s.mu.Lock()
			fn := s.onEdit
			s.mu.Unlock()
			if fn != nil {
				fn(id)
			}
		},
	})
	if store != nil {
		s.ed.SetSiblings(store.SlideSiblings(slide.ID))
	} else {
		s.ed.SetSiblings(siblingsOf(&s.mu, &s.slide))
	}
	return s
}

// siblingsOf serves siblings from the in-memory slide.
func siblingsOf(mu *sync.Mutex, sl *domain.Slide) editor.SiblingSource {
	return siblingFunc(func(_ context.Context, exclude string) ([]snap.Sibling, error) {
		mu.Lock()
		defer mu.Unlock()
		var out []snap.Sibling
		for _, e := range sl.Others(exclude) {
			out = append(out, snap.Sibling{ID: e.ID, Rect: e.Rect()})
		}
		return out, nil
	})
}

type siblingFunc func(ctx context.Context, exclude string) ([]snap.Sibling, error)

func (f siblingFunc) Siblings(ctx context.Context, exclude string) ([]snap.Sibling, error) {
	return f(ctx, exclude)
}

// OnChange registers a redraw callback. It may run on the viewport timer
// goroutine.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// OnEditText registers the rich-text editing callback.
func (s *Session) OnEditText(fn func(id string)) {
	s.mu.Lock()
	s.onEdit = fn
	s.mu.Unlock()
}

func (s *Session) Editor() *editor.Editor { return s.ed }

// Slide returns a copy of the slide with the live selection applied.
func (s *Session) Slide() domain.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Guides returns the guide lines of the latest drag frame.
func (s *Session) Guides() []snap.GuideLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]snap.GuideLine(nil), s.guides...)
}

// Viewport returns the live, possibly uncommitted, viewport matrix.
func (s *Session) Viewport() geometry.Affine2D {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

func (s *Session) SetCanvas(c geometry.CanvasBounds) error { return s.ed.SetCanvasBounds(c) }

// MeasureCanvas reads the rendered page from the host and sets the canvas
// bounds, deriving the scale from the base canvas width. A page that is not
// measurable leaves the current bounds untouched.
func (s *Session) MeasureCanvas(page geometry.Bounded) error {
	r, ok := geometry.Measure(page)
	if !ok || r.Width == 0 {
		s.log.Debug("canvas not measurable")
		return nil
	}
	return s.SetCanvas(geometry.CanvasBounds{
		Left:   r.Left,
		Top:    r.Top,
		Width:  r.Width,
		Height: r.Height,
		Scale:  r.Width / BaseCanvas.Width,
	})
}

// Down selects the element under p, if needed, and starts a drag or a
// resize. It reports whether p hit anything.
func (s *Session) Down(p geometry.Pt) bool {
	// hit testing must see the canvas the user is looking at
	s.ed.FlushViewport()
	c := s.ed.Canvas()
	if sel, ok := s.ed.Selection(); ok {
		if t, hit := HitTest(geometry.ToScreen(sel.Rect(), c), sel.Type, p); hit {
			s.begin(sel, t, p)
			return true
		}
	}
	s.mu.Lock()
	el, ok := Pick(&s.slide, c, p)
	var pick domain.Element
	if ok {
		pick = *el
	}
	s.mu.Unlock()
	if !ok {
		s.ed.ClearSelection()
		s.changed()
		return false
	}
	if err := s.ed.Select(pick); err != nil {
		s.log.Warn("select failed", slog.String("element", pick.ID), slog.Any("err", err))
		return false
	}
	s.begin(pick, editor.TargetBody, p)
	return true
}

func (s *Session) begin(sel domain.Element, t editor.Target, p geometry.Pt) {
	s.mu.Lock()
	s.startAt = sel.Rect()
	s.guides = nil
	s.mu.Unlock()
	if err := s.ed.PointerDown(t, gesture.PointerEvent{Kind: gesture.PointerDown, X: p.X, Y: p.Y}); err != nil {
		s.log.Debug("pointer down refused", slog.String("target", t.String()), slog.Any("err", err))
	}
	s.changed()
}

func (s *Session) Move(p geometry.Pt) {
	s.surface.Dispatch(gesture.PointerEvent{Kind: gesture.PointerMove, X: p.X, Y: p.Y})
}

// Up ends the gesture and persists the selection if it moved.
func (s *Session) Up(p geometry.Pt) {
	busy := s.ed.Busy()
	s.surface.Dispatch(gesture.PointerEvent{Kind: gesture.PointerUp, X: p.X, Y: p.Y})
	s.mu.Lock()
	s.guides = nil
	s.mu.Unlock()
	if busy {
		s.commitGesture()
	}
	s.changed()
}

// Cancel aborts the gesture; the geometry reached so far is kept.
func (s *Session) Cancel() {
	busy := s.ed.Busy()
	s.surface.Dispatch(gesture.PointerEvent{Kind: gesture.PointerCancel})
	if busy {
		s.commitGesture()
	}
	s.changed()
}

func (s *Session) Wheel(ev panzoom.WheelEvent) bool { return s.ed.Wheel(ev) }

// Tap routes a click at p through the editor's discriminator.
func (s *Session) Tap(p geometry.Pt) {
	sel, ok := s.ed.Selection()
	if !ok {
		return
	}
	t, hit := HitTest(geometry.ToScreen(sel.Rect(), s.ed.Canvas()), sel.Type, p)
	if !hit {
		return
	}
	s.ed.Tap(t)
	s.changed()
}

// Duplicate copies the selection into the slide and stores the slide.
func (s *Session) Duplicate(ctx context.Context) (domain.Element, error) {
	d, err := s.ed.Duplicate()
	if err != nil {
		return d, err
	}
	s.mu.Lock()
	s.slide.Elements = append(s.slide.Elements, d)
	sl := s.snapshotLocked()
	s.mu.Unlock()
	if err := s.put(ctx, sl); err != nil {
		return d, fmt.Errorf("store duplicate: %w", err)
	}
	s.changed()
	return d, nil
}

// AddText inserts a text element at the default position and selects it.
// Typography follows the most recent text element on the slide.
func (s *Session) AddText(ctx context.Context) (domain.Element, error) {
	if s.ed.Busy() {
		return domain.Element{}, editor.ErrGestureActive
	}
	s.mu.Lock()
	el := domain.NewTextElement(s.freshIDLocked(), s.slide.LastText())
	s.slide.Elements = append(s.slide.Elements, el)
	sl := s.snapshotLocked()
	s.mu.Unlock()
	if err := s.ed.Select(el); err != nil {
		return el, err
	}
	s.log.Debug("text added", slog.String("element", el.ID))
	if err := s.put(ctx, sl); err != nil {
		return el, fmt.Errorf("store new text: %w", err)
	}
	s.changed()
	return el, nil
}

// Delete removes element id, drops its geometry history and the selection,
// and stores the slide.
func (s *Session) Delete(ctx context.Context, id string) error {
	if s.ed.Busy() {
		return editor.ErrGestureActive
	}
	s.mu.Lock()
	if !s.slide.Remove(id) {
		s.mu.Unlock()
		return fmt.Errorf("element %s: not on slide", id)
	}
	sl := s.snapshotLocked()
	s.mu.Unlock()
	s.history.Forget(sl.ID, id)
	s.ed.ClearSelection()
	s.log.Debug("element deleted", slog.String("element", id))
	if err := s.put(ctx, sl); err != nil {
		return fmt.Errorf("store delete: %w", err)
	}
	s.changed()
	return nil
}

// freshIDLocked draws ids until one is free on the slide. A generator that
// keeps colliding gets a positional suffix.
func (s *Session) freshIDLocked() string {
	var id string
	for range len(s.slide.Elements) + 1 {
		id = s.ed.NewElementID()
		if _, taken := s.slide.Element(id); !taken {
			return id
		}
	}
	return fmt.Sprintf("%s-%d", id, len(s.slide.Elements))
}

func (s *Session) snapshotLocked() domain.Slide {
	sl := s.slide
	sl.Elements = append([]domain.Element(nil), s.slide.Elements...)
	return sl
}

func (s *Session) put(ctx context.Context, sl domain.Slide) error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.store.PutSlide(ctx, sl)
}

// SetContent replaces the text of element id and stores the slide.
func (s *Session) SetContent(ctx context.Context, id, content string) error {
	s.mu.Lock()
	el, ok := s.slide.Element(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("element %s: not on slide", id)
	}
	el.Content = content
	updated := *el
	sl := s.snapshotLocked()
	s.mu.Unlock()
	if sel, ok := s.ed.Selection(); ok && sel.ID == id {
		sel.Content = content
		if err := s.ed.Select(sel); err != nil {
			return err
		}
	}
	s.log.Debug("content edited", slog.String("element", updated.ID))
	if err := s.put(ctx, sl); err != nil {
		return fmt.Errorf("store content: %w", err)
	}
	s.changed()
	return nil
}

func (s *Session) commitGesture() {
	s.mu.Lock()
	before := s.startAt
	s.mu.Unlock()
	if err := s.commit(before); err != nil {
		s.log.Error("save geometry failed", slog.Any("err", err))
	}
}

// commit records the change of the selection since before in the history
// and stores it.
func (s *Session) commit(before geometry.Rect) error {
	sel, ok := s.ed.Selection()
	if !ok || sel.Rect() == before {
		return nil
	}
	s.history.Push(undo.Edit{SlideID: s.slide.ID, ElementID: sel.ID, Before: before, After: sel.Rect(), At: s.now()})
	return s.write(context.Background(), sel.ID, sel.Rect())
}

func (s *Session) write(ctx context.Context, id string, r geometry.Rect) error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.store.UpdateGeometry(ctx, s.slide.ID, id, r)
}

// Undo reverts the latest geometry edit. ok is false when there is nothing
// to undo.
func (s *Session) Undo(ctx context.Context) (ok bool, err error) {
	if s.ed.Busy() {
		return false, editor.ErrGestureActive
	}
	e, ok := s.history.Undo(s.slide.ID)
	if !ok {
		return false, nil
	}
	return true, s.restore(ctx, e.ElementID, e.Before)
}

// Redo re-applies the latest undone edit.
func (s *Session) Redo(ctx context.Context) (ok bool, err error) {
	if s.ed.Busy() {
		return false, editor.ErrGestureActive
	}
	e, ok := s.history.Redo(s.slide.ID)
	if !ok {
		return false, nil
	}
	return true, s.restore(ctx, e.ElementID, e.After)
}

func (s *Session) CanUndo() bool { return s.history.CanUndo(s.slide.ID) }
func (s *Session) CanRedo() bool { return s.history.CanRedo(s.slide.ID) }

func (s *Session) restore(ctx context.Context, id string, r geometry.Rect) error {
	s.mu.Lock()
	s.syncSelection(id, r)
	s.mu.Unlock()
	if sel, ok := s.ed.Selection(); ok && sel.ID == id {
		sel.SetRect(r)
		if err := s.ed.Select(sel); err != nil {
			return err
		}
	}
	defer s.changed()
	if err := s.write(ctx, id, r); err != nil {
		return fmt.Errorf("store %s: %w", id, err)
	}
	return nil
}

// Rescue saves the selection geometry; the crash handler calls it.
func (s *Session) Rescue() (string, error) {
	sel, ok := s.ed.Selection()
	if !ok {
		return "nothing selected", nil
	}
	if s.store == nil {
		return "", errors.New("no store")
	}
	if err := s.write(context.Background(), sel.ID, sel.Rect()); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s geometry", sel.ID), nil
}

// Gesture describes the input state for crash reports.
func (s *Session) Gesture() string {
	sel, ok := s.ed.Selection()
	switch {
	case !ok:
		return "idle"
	case s.ed.Busy():
		return "gesture on " + sel.ID
	default:
		return "selected " + sel.ID
	}
}

// Close ends the editor and frees the slide's history.
func (s *Session) Close() {
	s.ed.Close()
	s.history.ClearSlide(s.slide.ID)
}

func (s *Session) syncSelection(id string, r geometry.Rect) {
	if e, ok := s.slide.Element(id); ok {
		e.SetRect(r)
	}
}

func (s *Session) onFrame(f editor.Frame) {
	s.mu.Lock()
	s.syncSelection(f.ElementID, f.Selection)
	s.guides = f.Guides
	s.mu.Unlock()
	s.changed()
}

func (s *Session) onResize(f editor.ResizeFrame) {
	s.mu.Lock()
	var before geometry.Rect
	if e, ok := s.slide.Element(f.ElementID); ok {
		before = e.Rect()
	}
	s.syncSelection(f.ElementID, f.Rect)
	s.mu.Unlock()
	if f.Fit {
		// a fit ends no pointer gesture, so it is committed here
		if err := s.commit(before); err != nil {
			s.log.Error("save geometry failed", slog.Any("err", err))
		}
	}
	s.changed()
}

func (s *Session) onViewport(m geometry.Affine2D, _ bool) {
	s.mu.Lock()
	s.viewport = m
	s.mu.Unlock()
	s.changed()
}

func (s *Session) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
