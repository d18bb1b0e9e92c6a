/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Contains reports whether p hits s exactly (no halo).
// Images that are not ready never hit; an empty path fails with ErrEmptyGeometry.
func (e Engine) Contains(p Pt, s Shape) (bool, error) {
	switch v := s.(type) {
	case *Rectangle:
		return B(v.X, v.Y, v.X+v.W, v.Y+v.H).Contains(p), nil
	case *Image:
		b, err := e.Bounds(v)
		if err != nil {
			return false, nil
		}
		return b.Contains(p), nil
	case *Ellipse:
		rx, ry := math.Abs(v.RX), math.Abs(v.RY)
		if rx == 0 || ry == 0 {
			return false, nil
		}
		c := v.Center()
		dx, dy := (p.X-c.X)/rx, (p.Y-c.Y)/ry
		return dx*dx+dy*dy <= 1, nil
	case *Line:
		return segmentDistance(p, Pt{v.X1, v.Y1}, Pt{v.X2, v.Y2}) <= HitTolerance, nil
	case *Path:
		if len(v.Segments) == 0 {
			return false, shapeErr(s, ErrEmptyGeometry)
		}
		return pathHit(p, v), nil
	case *Text:
		b, err := e.Bounds(v)
		if err != nil {
			return false, err
		}
		return b.Contains(p), nil
	case *Group:
		for _, c := range v.Children {
			ok, err := e.Contains(p, c)
			if err != nil {
				if Skippable(err) {
					continue
				}
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, unknownVariant(s)
	}
}

// pathHit is vertex-based: any vertex within tolerance hits. The polyline
// between vertices is tested too, and a filled closed path also hits inside.
func pathHit(p Pt, v *Path) bool {
	segs := v.Segments
	for _, seg := range segs {
		if math.Hypot(p.X-seg.Point.X, p.Y-seg.Point.Y) <= HitTolerance {
			return true
		}
	}
	for i := 1; i < len(segs); i++ {
		if segmentDistance(p, segs[i-1].Point, segs[i].Point) <= HitTolerance {
			return true
		}
	}
	if v.Closed && len(segs) > 2 {
		if segmentDistance(p, segs[len(segs)-1].Point, segs[0].Point) <= HitTolerance {
			return true
		}
		if v.Style.FillEnabled && insidePolygon(p, segs) {
			return true
		}
	}
	return false
}

// insidePolygon is the even-odd crossing test over segment points.
func insidePolygon(p Pt, segs []Segment) bool {
	in := false
	j := len(segs) - 1
	for i := range segs {
		a, b := segs[i].Point, segs[j].Point
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
		j = i
	}
	return in
}

// HaloTolerance is the offset of the four extra test points around thin strokes.
func HaloTolerance(s Shape) float64 {
	return s.ShapeStyle().LineWidth/2 + HitTolerance
}

// HitWithHalo reports an exact hit, or a hit at one of the four cardinal
// offsets at HaloTolerance(s) around p.
func (e Engine) HitWithHalo(p Pt, s Shape) (bool, error) {
	ok, err := e.Contains(p, s)
	if err != nil || ok {
		return ok, err
	}
	return e.haloHit(p, s)
}

func (e Engine) haloHit(p Pt, s Shape) (bool, error) {
	tol := HaloTolerance(s)
	for _, d := range [4]Pt{{tol, 0}, {-tol, 0}, {0, tol}, {0, -tol}} {
		ok, err := e.Contains(p.Add(d), s)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// FindShape returns the topmost shape hit at p, or nil. Shapes are tested
// back-to-front (last index first), each with its halo, so the first hit
// wins. Empty or unready shapes are skipped.
func (e Engine) FindShape(p Pt, shapes []Shape) (Shape, error) {
	for i := len(shapes) - 1; i >= 0; i-- {
		ok, err := e.HitWithHalo(p, shapes[i])
		if err != nil {
			if Skippable(err) {
				continue
			}
			return nil, err
		}
		if ok {
			return shapes[i], nil
		}
	}
	return nil, nil
}

// Intersecting returns the ids of the top-level shapes whose bounds overlap
// the marquee spanned by a and b, in z-order.
func (e Engine) Intersecting(a, b Pt, shapes []Shape) ([]int64, error) {
	m := B(a.X, a.Y, b.X, b.Y)
	var ids []int64
	for _, s := range shapes {
		sb, err := e.Bounds(s)
		if err != nil {
			if Skippable(err) {
				continue
			}
			return nil, err
		}
		if sb.Overlaps(m) {
			ids = append(ids, s.ShapeID())
		}
	}
	return ids, nil
}
