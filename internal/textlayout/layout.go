/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures element text for fit-to-content resizing.
// Measurement sits behind the Provider interface so tests can use the fixed
// 7x13 face while the UI resolves real OpenType fonts.
package textlayout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// Span is a run of text with the same font. Tracking is added between glyphs.
type Span struct {
	Text     string
	Font     FontSpec
	Tracking float32
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

// Measure returns the width of spans laid out on one line and the line
// height of the tallest span.
func Measure(provider Provider, spans []Span) (w, h float32) {
	if provider == nil {
		provider = BasicProvider{}
	}
	var last float32
	for _, sp := range spans {
		face, met := provider.Resolve(sp.Font)
		d := &font.Drawer{Face: face}
		w += advance(d, sp.Text)
		if n := utf8.RuneCountInString(sp.Text); n > 0 {
			w += sp.Tracking * float32(n)
			last = sp.Tracking
		}
		if lh := met.Ascent + met.Descent; lh > h {
			h = lh
		}
	}
	// no tracking after the final glyph
	w -= last
	if h == 0 {
		_, met := provider.Resolve(FontSpec{})
		h = met.Ascent + met.Descent
	}
	return w, h
}

// WidestLine measures each newline separated line of text and returns the
// widest one.
func WidestLine(provider Provider, text string, spec FontSpec, tracking float32) float32 {
	var widest float32
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		if w, _ := Measure(provider, []Span{{Text: line, Font: spec, Tracking: tracking}}); w > widest {
			widest = w
		}
	}
	return widest
}
