/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"log/slog"
	"math"

	"goslides/internal/geometry"
)

// Sibling is another element on the slide, in canvas-local units.
type Sibling struct {
	ID   string        `json:"id"`
	Rect geometry.Rect `json:"rect"`
}

// Result is the engine output for one drag frame.
type Result struct {
	// Movement is the screen delta to apply: the raw delta with resistance
	// and snap corrections merged in.
	Movement geometry.Pt
	// Correction is the snap offset contained in Movement.
	Correction geometry.Pt
	// Diffs are measured after Movement is applied.
	Diffs      Diffs
	Visible    Flags
	Resistance Flags
	// Snapped marks directions whose offset fired this frame.
	Snapped    Flags
	Pair       string
	Thresholds Thresholds
	Guides     []GuideLine
}

type axis int

const (
	axisX axis = iota
	axisY
)

func (a axis) of(p geometry.Pt) float64 {
	if a == axisX {
		return p.X
	}
	return p.Y
}

func (a axis) set(p geometry.Pt, v float64) geometry.Pt {
	if a == axisX {
		p.X = v
	} else {
		p.Y = v
	}
	return p
}

func (a axis) directions() (center, lo, hi Direction) {
	if a == axisX {
		return CenterX, Left, Right
	}
	return CenterY, Top, Bottom
}

// latch holds an axis at its snapped position until the accumulated pointer
// travel (strain) reaches the resistance threshold.
type latch struct {
	active bool
	dir    Direction
	strain float64
}

// Engine keeps the snapping state of one drag gesture. It is not safe for
// concurrent use; the editor drives it from the pointer event path only.
type Engine struct {
	opts Options
	log  *slog.Logger

	pair    string
	hasPair bool
	latches [2]latch
	diffs   Diffs
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults(), log: slog.Default()}
}

func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.log = l
	}
}

func (e *Engine) Options() Options { return e.opts }

// Pair returns the current pair target.
func (e *Engine) Pair() (string, bool) { return e.pair, e.hasPair }

// Diffs returns the settled diffs of the last frame.
func (e *Engine) Diffs() Diffs { return e.diffs }

// Latched reports whether the axis of d is held by a previous snap.
func (e *Engine) Latched(d Direction) bool {
	l := e.latches[axisY]
	if d.Horizontal() {
		l = e.latches[axisX]
	}
	return l.active && l.dir == d
}

// Reset clears all gesture state. Call it when a drag ends.
func (e *Engine) Reset() {
	e.pair, e.hasPair = "", false
	e.latches = [2]latch{}
	e.diffs = Diffs{}
}

// Update evaluates one drag frame. sel is the current selection (canvas-local,
// already including every previous frame's Movement), delta the raw pointer
// delta in screen pixels.
func (e *Engine) Update(sel geometry.Rect, delta geometry.Pt, canvas geometry.CanvasBounds, siblings []Sibling) Result {
	var res Result
	if !delta.Finite() {
		return res
	}
	if !sel.Valid() || !canvasUsable(canvas) {
		res.Movement = delta
		e.diffs = Diffs{}
		return res
	}
	th := e.opts.Thresholds(sel.Width, canvas.Scale)
	res.Thresholds = th

	move := delta
	for a := axisX; a <= axisY; a++ {
		l := &e.latches[a]
		if !l.active {
			continue
		}
		l.strain += a.of(delta)
		if math.Abs(l.strain) < th.Resistance {
			move = a.set(move, 0)
			if l.strain != 0 {
				res.Resistance[l.dir] = true
			}
			continue
		}
		move = a.set(move, l.strain)
		e.log.Debug("snap released", slog.String("direction", l.dir.String()), slog.Float64("strain", l.strain))
		*l = latch{}
	}

	screen := geometry.ToScreen(sel, canvas)
	proposed := screen.Translate(move)
	center := canvas.Center()

	sibs := toScreen(siblings, canvas)
	pair := e.pickPair(proposed, sibs, th.Edge)

	prev := measure(screen, center, pair)
	cur := measure(proposed, center, pair)

	var corr geometry.Pt
	for a := axisX; a <= axisY; a++ {
		off, dir, ok := e.axisOffset(a, cur, prev, th)
		if !ok {
			continue
		}
		corr = a.set(corr, off)
		res.Snapped[dir] = true
		e.latches[a] = latch{active: true, dir: dir}
		e.log.Debug("snap engaged", slog.String("direction", dir.String()), slog.Float64("offset", off))
	}

	settled := proposed.Translate(corr)
	res.Movement = move.Add(corr)
	res.Correction = corr
	res.Diffs = measure(settled, center, pair)
	for _, d := range Directions {
		df := res.Diffs[d]
		res.Visible[d] = df.Valid && df.Abs() < th.For(d)
	}
	if pair != nil {
		res.Pair = e.pair
	}
	res.Guides = guides(settled, canvas, pair, res.Visible)
	e.diffs = res.Diffs
	return res
}

// axisOffset returns the correction for one axis and the direction that
// produced it. Only the closer of the two opposing edges is evaluated and an
// edge snap replaces a center snap.
func (e *Engine) axisOffset(a axis, cur, prev Diffs, th Thresholds) (float64, Direction, bool) {
	cdir, lo, hi := a.directions()
	centerOff := e.decide(cdir, cur[cdir], prev[cdir], th.Center)

	edge := closer(cur, lo, hi)
	edgeOff := 0.0
	if edge >= 0 {
		edgeOff = e.decide(edge, cur[edge], prev[edge], th.Edge)
	}
	switch {
	case edgeOff != 0:
		return -edgeOff, edge, true
	case centerOff != 0:
		return centerOff, cdir, true
	}
	return 0, 0, false
}

// decide returns diff when it entered the threshold band while approaching,
// else 0.
func (e *Engine) decide(d Direction, diff, prev Diff, threshold float64) float64 {
	if !diff.Valid || !prev.Valid {
		return 0
	}
	margin := e.opts.margin(d)
	canSnap := math.Abs(diff.Abs()-threshold) < margin
	movingAway := diff.Abs() >= prev.Abs() || math.Abs(prev.Abs()-threshold) < margin
	if canSnap && !movingAway {
		return diff.Value
	}
	return 0
}

// closer picks whichever of lo and hi has the smaller valid diff; -1 when
// neither is valid.
func closer(d Diffs, lo, hi Direction) Direction {
	switch {
	case d[lo].Valid && d[hi].Valid:
		if d[hi].Abs() < d[lo].Abs() {
			return hi
		}
		return lo
	case d[lo].Valid:
		return lo
	case d[hi].Valid:
		return hi
	}
	return -1
}

// pickPair keeps the current pair target while any of its edges is within
// threshold, otherwise pairs the sibling with the smallest edge distance under
// threshold. Siblings are scanned in order, so ties go to the first one.
func (e *Engine) pickPair(sel geometry.Rect, sibs []Sibling, threshold float64) *geometry.Rect {
	if e.hasPair {
		for i := range sibs {
			if sibs[i].ID == e.pair && edgeDistance(sel, sibs[i].Rect) < threshold {
				return &sibs[i].Rect
			}
		}
		e.log.Debug("pair released", slog.String("sibling", e.pair))
		e.pair, e.hasPair = "", false
	}
	best, bestDist := -1, threshold
	for i := range sibs {
		if d := edgeDistance(sel, sibs[i].Rect); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return nil
	}
	e.pair, e.hasPair = sibs[best].ID, true
	e.log.Debug("paired", slog.String("sibling", e.pair), slog.Float64("distance", bestDist))
	return &sibs[best].Rect
}

func edgeDistance(a, b geometry.Rect) float64 {
	return math.Min(
		math.Min(math.Abs(a.Left-b.Left), math.Abs(a.Right()-b.Right())),
		math.Min(math.Abs(a.Top-b.Top), math.Abs(a.Bottom()-b.Bottom())),
	)
}

// measure computes every diff for sel in screen pixels. Edge diffs are invalid
// without a pair.
func measure(sel geometry.Rect, center geometry.Pt, pair *geometry.Rect) Diffs {
	var d Diffs
	d[CenterX] = Some(center.X - sel.CenterX())
	d[CenterY] = Some(center.Y - sel.CenterY())
	if pair != nil {
		d[Left] = Some(sel.Left - pair.Left)
		d[Right] = Some(sel.Right() - pair.Right())
		d[Top] = Some(sel.Top - pair.Top)
		d[Bottom] = Some(sel.Bottom() - pair.Bottom())
	}
	return d
}

func toScreen(siblings []Sibling, canvas geometry.CanvasBounds) []Sibling {
	out := make([]Sibling, 0, len(siblings))
	for _, s := range siblings {
		if !s.Rect.Valid() {
			continue
		}
		out = append(out, Sibling{ID: s.ID, Rect: geometry.ToScreen(s.Rect, canvas)})
	}
	return out
}

func canvasUsable(c geometry.CanvasBounds) bool {
	return c.Rect().Valid() && geometry.Finite(c.Scale) && c.Scale != 0
}
