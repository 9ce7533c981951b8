/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"html"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"goslides/internal/geometry"
)

func svgColor(c color.RGBA) string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

func num(v float64) string { return strconv.FormatFloat(geometry.FloatRound(v, 3), 'f', -1, 64) }

func svgRect(buf *bytes.Buffer, r geometry.Rect, stroke color.RGBA, width float64, fill string) {
	fmt.Fprintf(buf, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s" stroke-width="%s"/>`+"\n",
		num(r.Left), num(r.Top), num(r.Width), num(r.Height), fill, svgColor(stroke), num(width))
}

// SVG returns sc as a standalone SVG document.
func SVG(sc Scene, st Style) ([]byte, error) {
	f, err := sc.frame()
	if err != nil {
		return nil, err
	}
	st = st.withDefaults()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(f.w), num(f.h), num(f.w), num(f.h))
	if sc.Title != "" {
		fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(sc.Title))
	}
	svgRect(&buf, sc.Canvas.Rect().Translate(f.offset), st.Canvas, 1, "none")
	for _, r := range sc.Trail {
		svgRect(&buf, f.screen(r, sc.Canvas), st.Trail, 0.3, "none")
	}
	for _, sib := range sc.Siblings {
		s := f.screen(sib.Rect, sc.Canvas)
		svgRect(&buf, s, st.Sibling, 0.75, "none")
		fmt.Fprintf(&buf, `<text x="%s" y="%s" font-family="Helvetica" font-size="8" fill="%s">%s</text>`+"\n",
			num(s.Left+2), num(s.Top+9), svgColor(st.Sibling), html.EscapeString(sib.ID))
	}
	if sc.Selection.Valid() {
		s := f.screen(sc.Selection, sc.Canvas)
		fill := svgColor(st.Selection) + `" fill-opacity="0.15`
		svgRect(&buf, s, st.Selection, 1.25, fill)
		if sc.SelectionID != "" {
			fmt.Fprintf(&buf, `<text x="%s" y="%s" font-family="Helvetica" font-size="8" fill="%s">%s</text>`+"\n",
				num(s.Left+2), num(s.Bottom()-3), svgColor(st.Selection), html.EscapeString(sc.SelectionID))
		}
	}
	for _, g := range sc.Guides {
		a, b := f.pt(g.From), f.pt(g.To)
		fmt.Fprintf(&buf, `<line class="guide %s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="0.75" stroke-dasharray="4 2"/>`+"\n",
			html.EscapeString(g.Name), num(a.X), num(a.Y), num(b.X), num(b.Y), svgColor(st.guide(g)))
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// WriteSVG writes SVG(sc) to path.
func WriteSVG(path string, sc Scene, st Style) error {
	b, err := SVG(sc, st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}
