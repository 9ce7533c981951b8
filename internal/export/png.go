/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"goslides/internal/geometry"
)

// Render rasterizes sc at one pixel per screen pixel.
func Render(sc Scene, st Style) (*image.RGBA, error) {
	f, err := sc.frame()
	if err != nil {
		return nil, err
	}
	st = st.withDefaults()
	img := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(f.w)), int(math.Ceil(f.h))))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	strokeRect(img, sc.Canvas.Rect().Translate(f.offset), st.Canvas)
	for _, r := range sc.Trail {
		strokeRect(img, f.screen(r, sc.Canvas), st.Trail)
	}
	for _, sib := range sc.Siblings {
		s := f.screen(sib.Rect, sc.Canvas)
		strokeRect(img, s, st.Sibling)
		label(img, s.Left+2, s.Top+11, sib.ID, st.Sibling)
	}
	if sc.Selection.Valid() {
		s := f.screen(sc.Selection, sc.Canvas)
		tint := st.Selection
		tint.A = 40
		fillRect(img, s, tint)
		strokeRect(img, s, st.Selection)
		if sc.SelectionID != "" {
			label(img, s.Left+2, s.Bottom()-3, sc.SelectionID, st.Selection)
		}
	}
	for _, g := range sc.Guides {
		a, b := f.pt(g.From), f.pt(g.To)
		dashedLine(img, a, b, st.guide(g))
	}
	return img, nil
}

// WritePNG renders sc and writes it as PNG.
func WritePNG(path string, sc Scene, st Style) error {
	img, err := Render(sc, st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return out.Close()
}

func ipt(v float64) int { return int(math.Round(v)) }

// strokeRect draws a 1px border inclusive of endpoints.
func strokeRect(img *image.RGBA, r geometry.Rect, col color.RGBA) {
	x0, y0, x1, y1 := ipt(r.Left), ipt(r.Top), ipt(r.Right()), ipt(r.Bottom())
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

// fillRect blends col over the rect.
func fillRect(img *image.RGBA, r geometry.Rect, col color.RGBA) {
	rect := image.Rect(ipt(r.Left), ipt(r.Top), ipt(r.Right())+1, ipt(r.Bottom())+1)
	draw.Draw(img, rect, &image.Uniform{C: col}, image.Point{}, draw.Over)
}

// dashedLine steps along a-b in 1px increments, 4 on and 2 off.
func dashedLine(img *image.RGBA, a, b geometry.Pt, col color.RGBA) {
	d := b.Sub(a)
	n := int(math.Ceil(math.Hypot(d.X, d.Y)))
	if n == 0 {
		img.SetRGBA(ipt(a.X), ipt(a.Y), col)
		return
	}
	for i := 0; i <= n; i++ {
		if i%6 >= 4 {
			continue
		}
		t := float64(i) / float64(n)
		img.SetRGBA(ipt(a.X+d.X*t), ipt(a.Y+d.Y*t), col)
	}
}

func label(img *image.RGBA, x, y float64, s string, col color.RGBA) {
	dr := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(ipt(x), ipt(y)),
	}
	dr.DrawString(s)
}
