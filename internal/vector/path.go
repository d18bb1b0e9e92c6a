/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Outline commands shared by the raster renderer and the exporters.

import "math"

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

// kappa places cubic control points for a quarter ellipse.
const kappa = 0.5522847498

type outline []PathCmd

func (o *outline) moveTo(x, y float64) { *o = append(*o, PathCmd{Op: MoveTo, Data: [6]float64{x, y}}) }
func (o *outline) lineTo(x, y float64) { *o = append(*o, PathCmd{Op: LineTo, Data: [6]float64{x, y}}) }
func (o *outline) quadTo(cx, cy, x, y float64) {
	*o = append(*o, PathCmd{Op: QuadTo, Data: [6]float64{cx, cy, x, y}})
}
func (o *outline) cubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	*o = append(*o, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (o *outline) close() { *o = append(*o, PathCmd{Op: Close}) }

// Outline converts a path, rectangle, ellipse or line into drawing commands.
// Text, images and groups have no outline and return nil without error.
func Outline(s Shape) ([]PathCmd, error) {
	var o outline
	switch v := s.(type) {
	case *Path:
		if len(v.Segments) == 0 {
			return nil, shapeErr(s, ErrEmptyGeometry)
		}
		first := v.Segments[0]
		o.moveTo(first.Point.X, first.Point.Y)
		for i := 1; i < len(v.Segments); i++ {
			o.segment(v.Segments[i-1], v.Segments[i])
		}
		if v.Closed {
			if len(v.Segments) > 1 {
				o.segment(v.Segments[len(v.Segments)-1], first)
			}
			o.close()
		}
	case *Rectangle:
		b := B(v.X, v.Y, v.X+v.W, v.Y+v.H)
		o.roundedRect(b, v.Style.Radius)
	case *Ellipse:
		c := v.Center()
		o.ellipse(c.X, c.Y, math.Abs(v.RX), math.Abs(v.RY))
	case *Line:
		o.moveTo(v.X1, v.Y1)
		o.lineTo(v.X2, v.Y2)
	case *Text, *Image, *Group:
		return nil, nil
	default:
		return nil, unknownVariant(s)
	}
	return o, nil
}

// segment emits a straight line unless either side carries a handle.
func (o *outline) segment(from, to Segment) {
	if from.HandleOut == nil && to.HandleIn == nil {
		o.lineTo(to.Point.X, to.Point.Y)
		return
	}
	c1, c2 := from.Point, to.Point
	if from.HandleOut != nil {
		c1 = c1.Add(*from.HandleOut)
	}
	if to.HandleIn != nil {
		c2 = c2.Add(*to.HandleIn)
	}
	o.cubicTo(c1.X, c1.Y, c2.X, c2.Y, to.Point.X, to.Point.Y)
}

func (o *outline) roundedRect(b Bounds, r float64) {
	w, h := b.Width(), b.Height()
	r = math.Max(0, math.Min(r, math.Min(w, h)/2))
	x, y := b.Left, b.Top
	if r == 0 {
		o.moveTo(x, y)
		o.lineTo(x+w, y)
		o.lineTo(x+w, y+h)
		o.lineTo(x, y+h)
		o.close()
		return
	}
	o.moveTo(x+r, y)
	o.lineTo(x+w-r, y)
	o.quadTo(x+w, y, x+w, y+r)
	o.lineTo(x+w, y+h-r)
	o.quadTo(x+w, y+h, x+w-r, y+h)
	o.lineTo(x+r, y+h)
	o.quadTo(x, y+h, x, y+h-r)
	o.lineTo(x, y+r)
	o.quadTo(x, y, x+r, y)
	o.close()
}

func (o *outline) ellipse(cx, cy, rx, ry float64) {
	kx, ky := rx*kappa, ry*kappa
	o.moveTo(cx+rx, cy)
	o.cubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	o.cubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	o.cubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	o.cubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	o.close()
}
