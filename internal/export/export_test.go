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
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goslides/internal/geometry"
	"goslides/internal/snap"
)

func sampleScene() Scene {
	return Scene{
		Title:       "center snap",
		Canvas:      geometry.CanvasBounds{Left: 0, Top: 0, Width: 960, Height: 540, Scale: 1},
		SelectionID: "title",
		Selection:   geometry.R(380, 50, 200, 80),
		Siblings:    []snap.Sibling{{ID: "photo", Rect: geometry.R(600, 300, 300, 200)}},
		Trail:       []geometry.Rect{geometry.R(100, 50, 200, 80), geometry.R(240, 50, 200, 80)},
		Guides: []snap.GuideLine{{
			Direction: snap.CenterX, Name: "centerX", Orientation: "vertical", Kind: "center",
			Position: 480, From: geometry.Pt{X: 480, Y: 0}, To: geometry.Pt{X: 480, Y: 540},
		}},
	}
}

func TestWritePDF_CreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "scene.pdf")
	if err := WritePDF(out, sampleScene(), Style{}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", b[:8])
	}
}

func TestRender_DrawsGuideAndSelection(t *testing.T) {
	img, err := Render(sampleScene(), Style{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1000 || b.Dy() != 580 {
		t.Fatalf("bounds = %v", b)
	}
	st := DefaultStyle()
	// guide at screen x 480 -> 500 in the image, first dash pixel at y 20
	if got := img.RGBAAt(500, 20); got != st.Center {
		t.Fatalf("guide pixel = %v, want %v", got, st.Center)
	}
	// selection border left edge at 380+20
	if got := img.RGBAAt(400, 100); got != st.Selection {
		t.Fatalf("selection pixel = %v", got)
	}
	if got := img.RGBAAt(5, 5); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("margin should be white, got %v", got)
	}
}

func TestSVG_ContainsElements(t *testing.T) {
	b, err := SVG(sampleScene(), Style{})
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	s := string(b)
	for _, want := range []string{`viewBox="0 0 1000 580"`, `class="guide centerX"`, `x1="500"`, ">photo</text>", "<title>center snap</title>"} {
		if !strings.Contains(s, want) {
			t.Fatalf("svg missing %q:\n%s", want, s)
		}
	}
}

func TestWriteByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "a.png", "a.svg"} {
		if err := Write(filepath.Join(dir, name), sampleScene(), Style{}); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := Write(filepath.Join(dir, "a.gif"), sampleScene(), Style{}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if err := Write(filepath.Join(dir, "b.png"), Scene{}, Style{}); !errors.Is(err, ErrEmptyScene) {
		t.Fatalf("expected ErrEmptyScene, got %v", err)
	}
}
