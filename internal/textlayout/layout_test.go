/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"os"
	"path/filepath"
	"testing"

	"goslides/internal/domain"
)

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, []Span{{Text: "ABC"}})
	w2, h2 := Measure(BasicProvider{}, []Span{{Text: "A"}, {Text: "BC"}})
	if w1 != w2 || h1 != h2 {
		t.Fatalf("expected same measure, got w1=%v h1=%v vs w2=%v h2=%v", w1, h1, w2, h2)
	}
	if w1 != 21 {
		t.Fatalf("expected 3 glyphs of 7px, got %v", w1)
	}
}

func TestTrackingIncreasesWidth(t *testing.T) {
	w0, _ := Measure(BasicProvider{}, []Span{{Text: "ABCD"}})
	w1, _ := Measure(BasicProvider{}, []Span{{Text: "ABCD", Tracking: 1}})
	if w1 != w0+3 {
		t.Fatalf("expected tracking between 4 glyphs to add 3px: w0=%v w1=%v", w0, w1)
	}
}

func TestWidestLine(t *testing.T) {
	w := WidestLine(BasicProvider{}, "ab\nabcdef\n\nabc", FontSpec{}, 0)
	if w != 42 {
		t.Fatalf("expected widest line 42px, got %v", w)
	}
	if WidestLine(BasicProvider{}, "", FontSpec{}, 0) != 0 {
		t.Fatalf("empty text must measure 0")
	}
}

func TestContentWidth(t *testing.T) {
	e := domain.NewTextElement("t", nil)
	e.Content = "Hello"
	if got := ContentWidth(BasicProvider{}, e); got != 35 {
		t.Fatalf("expected 35, got %v", got)
	}
	img := domain.NewMediaElement("i", domain.TypeImage, "", "", 0, 0)
	if ContentWidth(BasicProvider{}, img) != 0 {
		t.Fatalf("media elements have no content width")
	}
	e.FontWeight = "bold"
	if SpecFor(e).Weight != 700 {
		t.Fatalf("expected bold weight")
	}
}

func TestOTProvider_Fallback(t *testing.T) {
	otp := OTProvider{Lib: NewFontLibrary()}
	w, h := Measure(otp, []Span{{Text: "Hello", Font: FontSpec{Family: "Nonexistent", SizePt: 12}}})
	if w != 35 || h <= 0 {
		t.Fatalf("expected fallback metrics, got w=%v h=%v", w, h)
	}
}

func TestLoadDir_SkipsBrokenFonts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Broken-Bold.ttf"), []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := NewFontLibrary()
	n, err := lib.LoadDir(dir)
	if n != 0 || err == nil || lib.Len() != 0 {
		t.Fatalf("expected broken font to be skipped with an error, n=%d err=%v", n, err)
	}
	if fam, w, it := parseFontName("Inter-SemiBoldItalic"); fam != "Inter" || w != 600 || !it {
		t.Fatalf("parseFontName: %s %d %v", fam, w, it)
	}
}
