//go:build fyne && cgo

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
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"goslides/internal/config"
	"goslides/internal/crash"
	"goslides/internal/domain"
	"goslides/internal/editor"
	"goslides/internal/geometry"
	applog "goslides/internal/log"
	"goslides/internal/panzoom"
	"goslides/internal/storage"
	"goslides/internal/version"
)

// Run opens the slide editor window and blocks until it is closed.
func Run(opts RunOptions) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))
	ctx := context.Background()

	sc, err := StoreConfig(opts.Config.Storage, opts.Password)
	if err != nil {
		return err
	}
	st, err := storage.Open(ctx, sc)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	slide, err := OpenSlide(ctx, st, opts.SlideID)
	if err != nil {
		return fmt.Errorf("open slide: %w", err)
	}
	sess := NewSession(slide, st, EditorOptions(opts.Config, opts.Reporter))
	defer sess.Close()

	dir, _ := config.DataDir()
	defer crash.Recover(&crash.Handler{Dir: dir, Rescue: sess.Rescue, Gesture: sess.Gesture})

	fyneApp := app.NewWithID("goslides")
	w := fyneApp.NewWindow("GoSlides - " + slide.ID)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 760)
	w.Resize(fyne.NewSize(float32(max(winW, 800)), float32(max(winH, 560))))

	status := widget.NewLabel("Ready")
	view := NewSlideCanvas(sess)
	view.OnStatus = func(s string) { status.SetText(s) }
	sess.OnEditText(func(id string) {
		fyne.Do(func() {
			sl := sess.Slide()
			el, ok := sl.Element(id)
			if !ok {
				return
			}
			entry := widget.NewMultiLineEntry()
			entry.SetText(el.Content)
			dialog.ShowForm("Edit text", "Done", "Cancel", []*widget.FormItem{widget.NewFormItem("Content", entry)}, func(okd bool) {
				if okd {
					if err := sess.SetContent(ctx, id, entry.Text); err != nil {
						dialog.ShowError(err, w)
					}
				}
			}, w)
		})
	})

	dup := widget.NewButton("Duplicate", func() {
		d, err := sess.Duplicate(ctx)
		if err != nil {
			status.SetText(err.Error())
			return
		}
		status.SetText("Duplicated as " + d.ID)
	})
	step := func(name string, fn func(context.Context) (bool, error)) func() {
		return func() {
			ok, err := fn(ctx)
			switch {
			case err != nil:
				status.SetText(err.Error())
			case !ok:
				status.SetText("Nothing to " + name)
			}
		}
	}
	addText := widget.NewButton("Add text", func() {
		el, err := sess.AddText(ctx)
		if err != nil {
			status.SetText(err.Error())
			return
		}
		status.SetText("Added " + el.ID)
	})
	del := widget.NewButton("Delete", func() {
		sel, ok := sess.Editor().Selection()
		if !ok {
			status.SetText("Nothing selected")
			return
		}
		if err := sess.Delete(ctx, sel.ID); err != nil {
			status.SetText(err.Error())
			return
		}
		status.SetText("Deleted " + sel.ID)
	})
	undoFn := step("undo", sess.Undo)
	redoFn := step("redo", sess.Redo)
	undoBtn := widget.NewButton("Undo", undoFn)
	redoBtn := widget.NewButton("Redo", redoFn)
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { undoFn() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}, func(fyne.Shortcut) { redoFn() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyD, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { dup.OnTapped() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyT, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { addText.OnTapped() })
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyDelete || ev.Name == fyne.KeyBackspace {
			del.OnTapped()
		}
	})

	zoom := widget.NewLabel("100%")
	view.OnZoom = func(s float64) { zoom.SetText(fmt.Sprintf("%.0f%%", s*100)) }

	top := container.NewHBox(undoBtn, redoBtn, dup, addText, del, widget.NewSeparator(), zoom)
	w.SetContent(container.NewBorder(top, status, nil, nil, view))

	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *desktop.KeyEvent) { view.setCtrl(ev.Name, true) })
		dc.SetOnKeyUp(func(ev *desktop.KeyEvent) { view.setCtrl(ev.Name, false) })
	}
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

// SlideCanvas draws one slide and feeds pointer input to a Session.
type SlideCanvas struct {
	widget.BaseWidget

	sess     *Session
	ctrl     bool
	pressed  bool
	last     geometry.Pt
	laidOut  fyne.Size
	OnStatus func(string)
	OnZoom   func(scale float64)
}

var (
	_ fyne.Draggable      = (*SlideCanvas)(nil)
	_ fyne.Scrollable     = (*SlideCanvas)(nil)
	_ fyne.Tappable       = (*SlideCanvas)(nil)
	_ fyne.DoubleTappable = (*SlideCanvas)(nil)
	_ desktop.Mouseable   = (*SlideCanvas)(nil)
	_ fyne.WidgetRenderer = (*slideCanvasRenderer)(nil)
)

func NewSlideCanvas(sess *Session) *SlideCanvas {
	c := &SlideCanvas{sess: sess}
	c.ExtendBaseWidget(c)
	sess.OnChange(func() { fyne.Do(c.Refresh) })
	return c
}

func (c *SlideCanvas) MinSize() fyne.Size { return fyne.NewSize(480, 270) }

func (c *SlideCanvas) setCtrl(k fyne.KeyName, down bool) {
	switch k {
	case desktop.KeyControlLeft, desktop.KeyControlRight, desktop.KeySuperLeft, desktop.KeySuperRight:
		c.ctrl = down
	}
}

// fit centers the base canvas in size with a margin.
func fit(size fyne.Size) geometry.CanvasBounds {
	const margin = 20
	w := math.Max(float64(size.Width)-2*margin, 1)
	h := math.Max(float64(size.Height)-2*margin, 1)
	scale := math.Min(w/BaseCanvas.Width, h/BaseCanvas.Height)
	cw, ch := BaseCanvas.Width*scale, BaseCanvas.Height*scale
	return geometry.CanvasBounds{
		Left:   (float64(size.Width) - cw) / 2,
		Top:    (float64(size.Height) - ch) / 2,
		Width:  cw,
		Height: ch,
		Scale:  scale,
	}
}

// pageArea is the fitted page of a laid out SlideCanvas. It measures as
// absent while the widget is hidden or has no size.
type pageArea struct {
	size    fyne.Size
	visible bool
}

func (a pageArea) Bounds() (geometry.Rect, bool) {
	if !a.visible || a.size.Width <= 0 || a.size.Height <= 0 {
		return geometry.Rect{}, false
	}
	return fit(a.size).Rect(), true
}

func (c *SlideCanvas) layout(size fyne.Size) {
	if size == c.laidOut {
		return
	}
	page := pageArea{size: size, visible: c.Visible()}
	if _, ok := geometry.Measure(page); !ok {
		return
	}
	c.laidOut = size
	if err := c.sess.MeasureCanvas(page); err != nil {
		applog.WithComponent("ui").Warn("canvas bounds rejected", slog.Any("err", err))
	}
}

func toPt(p fyne.Position) geometry.Pt { return geometry.Pt{X: float64(p.X), Y: float64(p.Y)} }

func (c *SlideCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.last = toPt(e.Position)
	c.pressed = c.sess.Down(c.last)
}

func (c *SlideCanvas) MouseUp(e *desktop.MouseEvent) {
	if !c.pressed {
		return
	}
	c.pressed = false
	c.sess.Up(toPt(e.Position))
}

func (c *SlideCanvas) Dragged(e *fyne.DragEvent) {
	c.last = toPt(e.Position)
	c.sess.Move(c.last)
}

func (c *SlideCanvas) DragEnd() {
	if !c.pressed {
		return
	}
	c.pressed = false
	c.sess.Up(c.last)
}

func (c *SlideCanvas) Tapped(e *fyne.PointEvent) { c.sess.Tap(toPt(e.Position)) }

// DoubleTapped replays both clicks; Fyne withholds Tapped for a double tap
// and the editor tells double from single itself.
func (c *SlideCanvas) DoubleTapped(e *fyne.PointEvent) {
	p := toPt(e.Position)
	c.sess.Tap(p)
	c.sess.Tap(p)
}

// Scrolled maps the wheel to pan, or to zoom while Ctrl is held. Fyne reports
// DY positive when scrolling up; the controller expects the browser sign.
func (c *SlideCanvas) Scrolled(e *fyne.ScrollEvent) {
	p := toPt(e.Position)
	c.sess.Wheel(panzoom.WheelEvent{
		X:      p.X,
		Y:      p.Y,
		DeltaX: -float64(e.Scrolled.DX),
		DeltaY: -float64(e.Scrolled.DY),
		Ctrl:   c.ctrl,
	})
}

func (c *SlideCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	page := canvas.NewRectangle(color.White)
	page.StrokeColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	page.StrokeWidth = 1

	bbox := canvas.NewRectangle(color.Transparent)
	bbox.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	bbox.StrokeWidth = 1
	bbox.Hide()

	r := &slideCanvasRenderer{sc: c, bg: bg, page: page, bbox: bbox}
	r.rebuild()
	return r
}

type slideCanvasRenderer struct {
	sc      *SlideCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	page    *canvas.Rectangle
	rects   []*canvas.Rectangle
	labels  []*canvas.Text
	bbox    *canvas.Rectangle
	handles []*canvas.Rectangle
	guides  []*canvas.Line
	zoom    float64
	gesture string
}

var (
	elementFill = color.RGBA{R: 225, G: 225, B: 230, A: 255}
	mediaFill   = color.RGBA{R: 190, G: 210, B: 235, A: 255}
	handleFill  = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	centerGuide = color.RGBA{R: 255, G: 0, B: 140, A: 255}
	edgeGuide   = color.RGBA{R: 255, G: 140, B: 0, A: 255}
)

// rebuild recreates the per-element objects when the element count or the
// guide count changed.
func (r *slideCanvasRenderer) rebuild() {
	sl := r.sc.sess.Slide()
	guides := r.sc.sess.Guides()
	if len(r.rects) == len(sl.Elements) && len(r.guides) == len(guides) && r.objects != nil {
		return
	}
	r.rects = r.rects[:0]
	r.labels = r.labels[:0]
	for _, e := range sl.Elements {
		fill := elementFill
		if e.Type.Media() {
			fill = mediaFill
		}
		rect := canvas.NewRectangle(fill)
		rect.StrokeColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
		rect.StrokeWidth = 1
		r.rects = append(r.rects, rect)
		txt := canvas.NewText("", color.Black)
		txt.TextSize = 11
		r.labels = append(r.labels, txt)
	}
	r.guides = r.guides[:0]
	for range guides {
		ln := canvas.NewLine(centerGuide)
		ln.StrokeWidth = 1
		r.guides = append(r.guides, ln)
	}
	if r.handles == nil {
		for range 4 {
			h := canvas.NewRectangle(handleFill)
			h.Hide()
			r.handles = append(r.handles, h)
		}
	}

	objs := []fyne.CanvasObject{r.bg, r.page}
	for i := range r.rects {
		objs = append(objs, r.rects[i], r.labels[i])
	}
	objs = append(objs, r.bbox)
	for _, h := range r.handles {
		objs = append(objs, h)
	}
	for _, g := range r.guides {
		objs = append(objs, g)
	}
	r.objects = objs
}

func (r *slideCanvasRenderer) Destroy()                     {}
func (r *slideCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *slideCanvasRenderer) MinSize() fyne.Size           { return r.sc.MinSize() }

func (r *slideCanvasRenderer) Refresh() {
	r.rebuild()
	r.Layout(r.sc.Size())
	canvas.Refresh(r.sc)
}

func place(o fyne.CanvasObject, rect geometry.Rect) {
	o.Move(fyne.NewPos(float32(rect.Left), float32(rect.Top)))
	o.Resize(fyne.NewSize(float32(rect.Width), float32(rect.Height)))
}

func (r *slideCanvasRenderer) Layout(size fyne.Size) {
	r.sc.layout(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.bg.Resize(size)

	// the live matrix shows a zoom burst before it commits
	c := editor.ViewportCanvas(fit(size), r.sc.sess.Viewport())
	place(r.page, c.Rect())

	sl := r.sc.sess.Slide()
	for i, e := range sl.Elements {
		if i >= len(r.rects) {
			break
		}
		sr := geometry.ToScreen(e.Rect(), c)
		place(r.rects[i], sr)
		r.labels[i].Text = label(e)
		r.labels[i].TextSize = float32(math.Max(8, 11*c.Scale))
		r.labels[i].Move(fyne.NewPos(float32(sr.Left+4), float32(sr.Top+2)))
		r.labels[i].Resize(r.labels[i].MinSize())
	}

	for _, h := range r.handles {
		h.Hide()
	}
	r.bbox.Hide()
	if sel, ok := r.sc.sess.Editor().Selection(); ok {
		sr := geometry.ToScreen(sel.Rect(), c)
		place(r.bbox, sr)
		r.bbox.Show()
		i := 0
		for _, hr := range HandleRects(sr, sel.Type) {
			place(r.handles[i], hr)
			r.handles[i].Show()
			i++
		}
	}

	for i, g := range r.sc.sess.Guides() {
		if i >= len(r.guides) {
			break
		}
		ln := r.guides[i]
		ln.StrokeColor = centerGuide
		if g.Kind == "edge" {
			ln.StrokeColor = edgeGuide
		}
		ln.Position1 = fyne.NewPos(float32(g.From.X), float32(g.From.Y))
		ln.Position2 = fyne.NewPos(float32(g.To.X), float32(g.To.Y))
	}

	if s := c.Scale / math.Max(fit(size).Scale, 1e-9); s != r.zoom {
		r.zoom = s
		if fn := r.sc.OnZoom; fn != nil {
			fn(s)
		}
	}
	if fn := r.sc.OnStatus; fn != nil {
		if g := r.sc.sess.Gesture(); g != r.gesture {
			r.gesture = g
			fn(g)
		}
	}
}

func label(e domain.Element) string {
	if e.Type == domain.TypeText {
		return e.Content
	}
	if e.FileName != "" {
		return e.FileName
	}
	return string(e.Type)
}
