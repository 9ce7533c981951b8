/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a canvas snapshot (canvas rect, siblings, the
// selection, its trail and the guide lines) to PDF, PNG or SVG. It is a
// debugging aid for gesture replays; all coordinates are drawn in screen
// pixels, one pixel per PDF point.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"goslides/internal/geometry"
	"goslides/internal/snap"
)

// Scene is what gets drawn. Selection, Siblings and Trail are canvas-local;
// Guides are screen pixels as produced by the snap engine.
type Scene struct {
	Title       string
	Canvas      geometry.CanvasBounds
	SelectionID string
	Selection   geometry.Rect
	Siblings    []snap.Sibling
	Trail       []geometry.Rect
	Guides      []snap.GuideLine
}

// Margin is the blank border around the canvas in every output.
const Margin = 20.0

var ErrEmptyScene = errors.New("scene has no usable canvas")

// Style colors. Zero values select the defaults.
type Style struct {
	Canvas    color.RGBA
	Sibling   color.RGBA
	Selection color.RGBA
	Trail     color.RGBA
	Center    color.RGBA
	Edge      color.RGBA
}

func DefaultStyle() Style {
	return Style{
		Canvas:    color.RGBA{R: 0, G: 0, B: 0, A: 255},
		Sibling:   color.RGBA{R: 120, G: 120, B: 120, A: 255},
		Selection: color.RGBA{R: 0, G: 110, B: 255, A: 255},
		Trail:     color.RGBA{R: 160, G: 200, B: 255, A: 255},
		Center:    color.RGBA{R: 255, G: 0, B: 128, A: 255},
		Edge:      color.RGBA{R: 255, G: 140, B: 0, A: 255},
	}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	pick := func(v *color.RGBA, def color.RGBA) {
		if *v == (color.RGBA{}) {
			*v = def
		}
	}
	pick(&s.Canvas, d.Canvas)
	pick(&s.Sibling, d.Sibling)
	pick(&s.Selection, d.Selection)
	pick(&s.Trail, d.Trail)
	pick(&s.Center, d.Center)
	pick(&s.Edge, d.Edge)
	return s
}

func (s Style) guide(g snap.GuideLine) color.RGBA {
	if g.Kind == "center" {
		return s.Center
	}
	return s.Edge
}

// frame is the drawing area: the canvas rect grown by Margin, and the offset
// that maps screen pixels into it.
type frame struct {
	w, h   float64
	offset geometry.Pt
}

func (sc Scene) frame() (frame, error) {
	r := sc.Canvas.Rect()
	if !r.Valid() || r.Width == 0 || r.Height == 0 || !geometry.Finite(sc.Canvas.Scale) || sc.Canvas.Scale == 0 {
		return frame{}, ErrEmptyScene
	}
	return frame{
		w:      r.Width + 2*Margin,
		h:      r.Height + 2*Margin,
		offset: geometry.Pt{X: Margin - r.Left, Y: Margin - r.Top},
	}, nil
}

// screen maps a canvas-local rect into the frame.
func (f frame) screen(local geometry.Rect, c geometry.CanvasBounds) geometry.Rect {
	return geometry.ToScreen(local, c).Translate(f.offset)
}

func (f frame) pt(p geometry.Pt) geometry.Pt { return p.Add(f.offset) }

// Write picks the format from the file extension.
func Write(path string, sc Scene, st Style) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return WritePDF(path, sc, st)
	case ".png":
		return WritePNG(path, sc, st)
	case ".svg":
		return WriteSVG(path, sc, st)
	default:
		return fmt.Errorf("unsupported export format %q (want .pdf, .png or .svg)", filepath.Ext(path))
	}
}
