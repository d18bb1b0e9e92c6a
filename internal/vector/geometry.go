/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry in canvas-local logical units.
// Values use float64 so they round-trip through JSON and the raster/PDF backends unchanged.

import "math"

// Pt is a 2D point (or an offset, for segment handles).
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Pt) Add(q Pt) Pt { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt { return Pt{p.X - q.X, p.Y - q.Y} }

// Size is a width/height pair.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Bounds is an axis-aligned rectangle given by its edges.
// It is always derived from geometry and never stored on a shape.
type Bounds struct {
	Left, Top, Right, Bottom float64
}

// B builds bounds from two arbitrary corners.
func B(x1, y1, x2, y2 float64) Bounds {
	return Bounds{Left: math.Min(x1, x2), Top: math.Min(y1, y2), Right: math.Max(x1, x2), Bottom: math.Max(y1, y2)}
}

func (b Bounds) Width() float64  { return b.Right - b.Left }
func (b Bounds) Height() float64 { return b.Bottom - b.Top }
func (b Bounds) Center() Pt      { return Pt{(b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2} }

func (b Bounds) Contains(p Pt) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Top && p.Y <= b.Bottom
}

// Overlaps reports AABB intersection; touching edges count as overlap.
func (b Bounds) Overlaps(o Bounds) bool {
	return !(b.Right < o.Left || b.Left > o.Right || b.Bottom < o.Top || b.Top > o.Bottom)
}

// Union returns the minimal bounds containing both.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		Left:   math.Min(b.Left, o.Left),
		Top:    math.Min(b.Top, o.Top),
		Right:  math.Max(b.Right, o.Right),
		Bottom: math.Max(b.Bottom, o.Bottom),
	}
}

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
// stored as [a b c d e f].
type Affine2D struct{ A, B, C, D, E, F float64 }

func (m Affine2D) Mul(n Affine2D) Affine2D {
	return Affine2D{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Affine2D) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// ApplyVector transforms an offset, ignoring translation.
func (m Affine2D) ApplyVector(v Pt) Pt {
	return Pt{X: m.A*v.X + m.C*v.Y, Y: m.B*v.X + m.D*v.Y}
}

func Translate(tx, ty float64) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine2D     { return Affine2D{A: sx, D: sy} }

// ScaleAbout scales by (sx, sy) keeping pivot fixed.
func ScaleAbout(pivot Pt, sx, sy float64) Affine2D {
	return Translate(pivot.X, pivot.Y).Mul(Scale(sx, sy)).Mul(Translate(-pivot.X, -pivot.Y))
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// segmentDistance is the distance from p to the segment ab.
func segmentDistance(p, a, b Pt) float64 {
	l2 := (b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y)
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*(b.X-a.X)), p.Y-(a.Y+t*(b.Y-a.Y)))
}
