/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"

	"goslides/internal/domain"
)

// SpecFor derives the font request of a text element.
func SpecFor(e domain.Element) FontSpec {
	spec := FontSpec{Family: e.FontFamily, SizePt: float32(e.FontSize), Weight: 400}
	switch strings.ToLower(e.FontWeight) {
	case "bold", "700":
		spec.Weight = 700
	case "semibold", "600":
		spec.Weight = 600
	case "light", "300":
		spec.Weight = 300
	}
	return spec
}

// ContentWidth is the natural width of a text element's content in canvas
// units. Non-text elements measure as zero.
func ContentWidth(p Provider, e domain.Element) float64 {
	if e.Type != domain.TypeText {
		return 0
	}
	return float64(WidestLine(p, e.Content, SpecFor(e), float32(e.LetterSpacing)))
}
