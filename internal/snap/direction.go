/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package snap implements the alignment assist used while dragging: per
// direction diffs against the canvas center and one paired sibling, dynamic
// thresholds, snap offsets with a resistance latch, and guide lines.
package snap

import (
	"math"
	"strconv"
	"strings"
)

// Direction names one alignment axis of the selection.
type Direction int

const (
	Left Direction = iota
	CenterX
	Right
	Top
	CenterY
	Bottom

	numDirections
)

// Directions lists every Direction in declaration order.
var Directions = [numDirections]Direction{Left, CenterX, Right, Top, CenterY, Bottom}

var directionNames = [numDirections]string{"left", "centerX", "right", "top", "centerY", "bottom"}

func (d Direction) String() string {
	if d < 0 || d >= numDirections {
		return "unknown"
	}
	return directionNames[d]
}

// Center reports whether d aligns against the canvas center.
func (d Direction) Center() bool { return d == CenterX || d == CenterY }

// Horizontal reports whether d moves along the X axis.
func (d Direction) Horizontal() bool { return d == Left || d == CenterX || d == Right }

// Diff is a signed screen-pixel distance. An invalid Diff means no target was
// available (or the measurement was corrupt) and never triggers a snap.
type Diff struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Some wraps v, rejecting NaN and infinities.
func Some(v float64) Diff {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Diff{}
	}
	return Diff{Value: v, Valid: true}
}

func (d Diff) Abs() float64 { return math.Abs(d.Value) }

func (d Diff) String() string {
	if !d.Valid {
		return "null"
	}
	return strconv.FormatFloat(d.Value, 'g', -1, 64)
}

// Diffs holds one Diff per Direction.
type Diffs [numDirections]Diff

// Flags is a Direction to boolean map, used for guide visibility and
// resistance.
type Flags [numDirections]bool

func (f Flags) Any() bool {
	for _, v := range f {
		if v {
			return true
		}
	}
	return false
}

// Names returns the set directions, e.g. "centerX,left".
func (f Flags) Names() string {
	var b strings.Builder
	for _, d := range Directions {
		if !f[d] {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d.String())
	}
	return b.String()
}

// Map converts f for JSON output.
func (f Flags) Map() map[string]bool {
	m := make(map[string]bool, numDirections)
	for _, d := range Directions {
		m[d.String()] = f[d]
	}
	return m
}
