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

// Options tune the dynamic thresholds. All values are screen pixels except
// the two factors.
type Options struct {
	// ThresholdFactor scales the rendered selection width into the base
	// threshold.
	ThresholdFactor float64
	// ResistanceFactor scales the base threshold into the resistance
	// threshold.
	ResistanceFactor float64
	// CenterMin and CenterMax are optional fixed pixel bounds for the center
	// threshold. Zero leaves that side proportional to the selection width.
	CenterMin     float64
	CenterMax     float64
	EdgeMin       float64
	EdgeMax       float64
	ResistanceMin float64
	CenterMargin  float64
	EdgeMargin    float64
}

func DefaultOptions() Options {
	return Options{
		ThresholdFactor:  0.1,
		ResistanceFactor: 0.15,
		EdgeMin:          10,
		EdgeMax:          100,
		ResistanceMin:    2,
		CenterMargin:     1,
		EdgeMargin:       3,
	}
}

// withDefaults fills zero or negative fields from DefaultOptions. The center
// bounds stay unset.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	fill := func(v *float64, def float64) {
		if !(*v > 0) || math.IsInf(*v, 0) {
			*v = def
		}
	}
	fill(&o.ThresholdFactor, d.ThresholdFactor)
	fill(&o.ResistanceFactor, d.ResistanceFactor)
	fill(&o.EdgeMin, d.EdgeMin)
	fill(&o.EdgeMax, d.EdgeMax)
	fill(&o.ResistanceMin, d.ResistanceMin)
	fill(&o.CenterMargin, d.CenterMargin)
	fill(&o.EdgeMargin, d.EdgeMargin)
	if !(o.CenterMin > 0) || math.IsInf(o.CenterMin, 0) {
		o.CenterMin = 0
	}
	if !(o.CenterMax > 0) || math.IsInf(o.CenterMax, 0) {
		o.CenterMax = 0
	}
	if o.CenterMax > 0 && o.CenterMax < o.CenterMin {
		o.CenterMax = o.CenterMin
	}
	if o.EdgeMax < o.EdgeMin {
		o.EdgeMax = o.EdgeMin
	}
	return o
}

// Thresholds are the per-frame limits derived from the selection size.
type Thresholds struct {
	Center     float64
	Edge       float64
	Resistance float64
}

// For returns the threshold that applies to d.
func (t Thresholds) For(d Direction) float64 {
	if d.Center() {
		return t.Center
	}
	return t.Edge
}

// Thresholds derives the limits for a selection of width canvas units drawn
// at scale.
func (o Options) Thresholds(width, scale float64) Thresholds {
	base := math.Abs(width * scale * o.ThresholdFactor)
	if !geometry.Finite(base) {
		base = 0
	}
	return Thresholds{
		Center:     o.centerThreshold(base),
		Edge:       geometry.Clamp(base, o.EdgeMin, o.EdgeMax),
		Resistance: math.Max(base*o.ResistanceFactor, o.ResistanceMin),
	}
}

// centerThreshold keeps the center threshold inside [base/2, base*2], which
// is base itself unless fixed bounds are configured.
func (o Options) centerThreshold(base float64) float64 {
	lo, hi := base/2, base*2
	if o.CenterMin > 0 {
		lo = o.CenterMin
	}
	if o.CenterMax > 0 {
		hi = math.Max(o.CenterMax, lo)
	}
	return geometry.Clamp(base, lo, hi)
}

func (o Options) margin(d Direction) float64 {
	if d.Center() {
		return o.CenterMargin
	}
	return o.EdgeMargin
}
