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
	"image/color"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF draws sc on a single page sized to the canvas plus Margin.
func WritePDF(path string, sc Scene, st Style) error {
	f, err := sc.frame()
	if err != nil {
		return err
	}
	st = st.withDefaults()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: f.w, Ht: f.h},
	})
	title := sc.Title
	if title == "" {
		title = "Canvas snapshot"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("GoSlides", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	// Built-in Helvetica keeps labels vector without embedding.
	pdf.SetFont("Helvetica", "", 8)

	cr := sc.Canvas.Rect().Translate(f.offset)
	setDrawColor(pdf, st.Canvas)
	pdf.SetLineWidth(1)
	pdf.Rect(cr.Left, cr.Top, cr.Width, cr.Height, "D")

	setDrawColor(pdf, st.Trail)
	pdf.SetLineWidth(0.3)
	for _, r := range sc.Trail {
		s := f.screen(r, sc.Canvas)
		pdf.Rect(s.Left, s.Top, s.Width, s.Height, "D")
	}

	setDrawColor(pdf, st.Sibling)
	pdf.SetLineWidth(0.75)
	setTextColor(pdf, st.Sibling)
	for _, sib := range sc.Siblings {
		s := f.screen(sib.Rect, sc.Canvas)
		pdf.Rect(s.Left, s.Top, s.Width, s.Height, "D")
		pdf.Text(s.Left+2, s.Top+9, sib.ID)
	}

	if sc.Selection.Valid() {
		s := f.screen(sc.Selection, sc.Canvas)
		setDrawColor(pdf, st.Selection)
		setFillColor(pdf, st.Selection)
		pdf.SetAlpha(0.15, "Normal")
		pdf.Rect(s.Left, s.Top, s.Width, s.Height, "F")
		pdf.SetAlpha(1, "Normal")
		pdf.SetLineWidth(1.25)
		pdf.Rect(s.Left, s.Top, s.Width, s.Height, "D")
		if sc.SelectionID != "" {
			setTextColor(pdf, st.Selection)
			pdf.Text(s.Left+2, s.Bottom()-3, sc.SelectionID)
		}
	}

	pdf.SetLineWidth(0.75)
	pdf.SetDashPattern([]float64{4, 2}, 0)
	for _, g := range sc.Guides {
		setDrawColor(pdf, st.guide(g))
		a, b := f.pt(g.From), f.pt(g.To)
		pdf.Line(a.X, a.Y, b.X, b.Y)
	}
	pdf.SetDashPattern(nil, 0)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) { pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }
func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) { pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }
func setTextColor(pdf *gofpdf.Fpdf, c color.RGBA) { pdf.SetTextColor(int(c.R), int(c.G), int(c.B)) }
