/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Smart guides snap a dragged selection box to the edges and centres of the
// other shapes on the canvas. Pure functions, deterministic for tests.

import "math"

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance at which snapping occurs.
	// Zero means 6 units.
	Threshold     float64
	SnapToEdges   bool
	SnapToCenters bool
}

// Orientation of a guide line.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// GuideLine is a visual guide produced by a snap: Position is the x of a
// vertical guide or the y of a horizontal one; From/To span both boxes.
// Kind is "edge" or "center".
type GuideLine struct {
	Orientation Orientation
	Kind        string
	Position    float64
	From        Pt
	To          Pt
}

type snapCandidate struct {
	delta float64
	dist  float64
	guide GuideLine
}

// SnapBounds returns the correction (dx, dy) that aligns moving with the
// nearest anchor feature within the threshold on each axis, plus the guides
// to draw. Axes snap independently.
func SnapBounds(moving Bounds, anchors []Bounds, opts SnapOptions) (float64, float64, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	bestX := snapCandidate{dist: math.Inf(1)}
	bestY := snapCandidate{dist: math.Inf(1)}

	mx := [3]float64{moving.Left, moving.Center().X, moving.Right}
	my := [3]float64{moving.Top, moving.Center().Y, moving.Bottom}

	for _, a := range anchors {
		ax := [3]float64{a.Left, a.Center().X, a.Right}
		ay := [3]float64{a.Top, a.Center().Y, a.Bottom}
		for i, m := range mx {
			for j, t := range ax {
				kind, ok := featureKind(i, j, opts)
				if !ok {
					continue
				}
				consider(&bestX, t-m, opts.Threshold, verticalGuide(t, moving, a, kind))
			}
		}
		for i, m := range my {
			for j, t := range ay {
				kind, ok := featureKind(i, j, opts)
				if !ok {
					continue
				}
				consider(&bestY, t-m, opts.Threshold, horizontalGuide(t, moving, a, kind))
			}
		}
	}

	var (
		dx, dy float64
		guides []GuideLine
	)
	if !math.IsInf(bestX.dist, 1) {
		dx = FloatRound(bestX.delta, 3)
		guides = append(guides, bestX.guide)
	}
	if !math.IsInf(bestY.dist, 1) {
		dy = FloatRound(bestY.delta, 3)
		guides = append(guides, bestY.guide)
	}
	return dx, dy, guides
}

// featureKind pairs moving feature i with anchor feature j (0 edge-min,
// 1 centre, 2 edge-max). Edges pair with either edge, centres with centres.
func featureKind(i, j int, opts SnapOptions) (string, bool) {
	if i == 1 || j == 1 {
		return "center", i == j && opts.SnapToCenters
	}
	return "edge", opts.SnapToEdges
}

func consider(best *snapCandidate, delta, threshold float64, g GuideLine) {
	d := math.Abs(delta)
	if d > threshold || d >= best.dist {
		return
	}
	*best = snapCandidate{delta: delta, dist: d, guide: g}
}

func verticalGuide(x float64, a, b Bounds, kind string) GuideLine {
	x = FloatRound(x, 3)
	return GuideLine{
		Orientation: Vertical,
		Kind:        kind,
		Position:    x,
		From:        Pt{x, math.Min(a.Top, b.Top)},
		To:          Pt{x, math.Max(a.Bottom, b.Bottom)},
	}
}

func horizontalGuide(y float64, a, b Bounds, kind string) GuideLine {
	y = FloatRound(y, 3)
	return GuideLine{
		Orientation: Horizontal,
		Kind:        kind,
		Position:    y,
		From:        Pt{math.Min(a.Left, b.Left), y},
		To:          Pt{math.Max(a.Right, b.Right), y},
	}
}
