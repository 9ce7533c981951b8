/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"math"

	"goslides/internal/geometry"
)

// GuideLine describes a guide to draw for a visible direction, in screen
// pixels. Orientation is "vertical" or "horizontal"; Kind is "center" or
// "edge". From and To are the extents; values are rounded to 3 decimals.
type GuideLine struct {
	Direction   Direction   `json:"-"`
	Name        string      `json:"direction"`
	Orientation string      `json:"orientation"`
	Kind        string      `json:"kind"`
	Position    float64     `json:"position"`
	From        geometry.Pt `json:"from"`
	To          geometry.Pt `json:"to"`
}

// guides builds one line per visible direction. Center guides span the
// canvas; edge guides span the selection and the paired sibling.
func guides(sel geometry.Rect, canvas geometry.CanvasBounds, pair *geometry.Rect, visible Flags) []GuideLine {
	var out []GuideLine
	cr := canvas.Rect()
	for _, d := range Directions {
		if !visible[d] {
			continue
		}
		if d.Center() {
			c := canvas.Center()
			if d == CenterX {
				out = append(out, guideForVertical(d, c.X, sel, cr, "center"))
			} else {
				out = append(out, guideForHorizontal(d, c.Y, sel, cr, "center"))
			}
			continue
		}
		if pair == nil {
			continue
		}
		switch d {
		case Left:
			out = append(out, guideForVertical(d, pair.Left, sel, *pair, "edge"))
		case Right:
			out = append(out, guideForVertical(d, pair.Right(), sel, *pair, "edge"))
		case Top:
			out = append(out, guideForHorizontal(d, pair.Top, sel, *pair, "edge"))
		case Bottom:
			out = append(out, guideForHorizontal(d, pair.Bottom(), sel, *pair, "edge"))
		}
	}
	return out
}

func guideForVertical(d Direction, x float64, a, b geometry.Rect, kind string) GuideLine {
	minY := math.Min(a.Top, b.Top)
	maxY := math.Max(a.Bottom(), b.Bottom())
	x = geometry.FloatRound(x, 3)
	return GuideLine{
		Direction:   d,
		Name:        d.String(),
		Orientation: "vertical",
		Kind:        kind,
		Position:    x,
		From:        geometry.Pt{X: x, Y: geometry.FloatRound(minY, 3)},
		To:          geometry.Pt{X: x, Y: geometry.FloatRound(maxY, 3)},
	}
}

func guideForHorizontal(d Direction, y float64, a, b geometry.Rect, kind string) GuideLine {
	minX := math.Min(a.Left, b.Left)
	maxX := math.Max(a.Right(), b.Right())
	y = geometry.FloatRound(y, 3)
	return GuideLine{
		Direction:   d,
		Name:        d.String(),
		Orientation: "horizontal",
		Kind:        kind,
		Position:    y,
		From:        geometry.Pt{X: geometry.FloatRound(minX, 3), Y: y},
		To:          geometry.Pt{X: geometry.FloatRound(maxX, 3), Y: y},
	}
}
