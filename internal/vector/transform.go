/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"fmt"
	"math"
)

// Offset returns a copy of s moved by (dx, dy). It needs no bounds, so it
// also moves images that are not ready yet.
func Offset(s Shape, dx, dy float64) (Shape, error) {
	switch v := s.(type) {
	case *Path:
		c := Clone(v).(*Path)
		for i := range c.Segments {
			c.Segments[i].Point = c.Segments[i].Point.Add(Pt{dx, dy})
		}
		return c, nil
	case *Rectangle:
		c := Clone(v).(*Rectangle)
		c.X += dx
		c.Y += dy
		return c, nil
	case *Ellipse:
		c := Clone(v).(*Ellipse)
		c.X += dx
		c.Y += dy
		return c, nil
	case *Line:
		c := Clone(v).(*Line)
		c.X1 += dx
		c.Y1 += dy
		c.X2 += dx
		c.Y2 += dy
		return c, nil
	case *Text:
		c := Clone(v).(*Text)
		c.At = c.At.Add(Pt{dx, dy})
		return c, nil
	case *Image:
		c := Clone(v).(*Image)
		c.Position = c.Position.Add(Pt{dx, dy})
		return c, nil
	case *Group:
		c := Clone(v).(*Group)
		for i, ch := range v.Children {
			moved, err := Offset(ch, dx, dy)
			if err != nil {
				return nil, err
			}
			c.Children[i] = moved
		}
		return c, nil
	default:
		return nil, unknownVariant(s)
	}
}

// Translate returns a copy of s whose top-left lands on (left, top).
// The delta is taken once from s's own bounds, groups included, and then
// applied unchanged to every descendant.
func (e Engine) Translate(s Shape, left, top float64) (Shape, error) {
	b, err := e.Bounds(s)
	if err != nil {
		return nil, err
	}
	dx, dy := left-b.Left, top-b.Top
	if dx == 0 && dy == 0 {
		return Clone(s), nil
	}
	return Offset(s, dx, dy)
}

// Handle names a corner grip of a bounding box.
type Handle string

const (
	HandleNW Handle = "nw"
	HandleNE Handle = "ne"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Handles lists the corner grips in hit-test order.
var Handles = [4]Handle{HandleNW, HandleNE, HandleSE, HandleSW}

func (h Handle) Valid() bool {
	switch h {
	case HandleNW, HandleNE, HandleSE, HandleSW:
		return true
	}
	return false
}

// Corner returns the position of handle h on b.
func (b Bounds) Corner(h Handle) Pt {
	switch h {
	case HandleNE:
		return Pt{b.Right, b.Top}
	case HandleSE:
		return Pt{b.Right, b.Bottom}
	case HandleSW:
		return Pt{b.Left, b.Bottom}
	default:
		return Pt{b.Left, b.Top}
	}
}

// ResizeFrame is the scale derived from one handle drag against the
// drag-start bounds. Every selected shape is scaled by the same frame.
type ResizeFrame struct {
	Handle       Handle
	Orig         Bounds
	Pivot        Pt
	SignX, SignY float64
	NewW, NewH   float64
	KX, KY       float64
}

// NewResizeFrame computes the frame for dragging h from origin to cursor.
// Width and height never drop below MinResizeExtent. On an axis where orig
// has zero extent the factor stays 1.
func NewResizeFrame(h Handle, orig Bounds, origin, cursor Pt) (ResizeFrame, error) {
	if !h.Valid() {
		return ResizeFrame{}, fmt.Errorf("invalid resize handle %q", h)
	}
	f := ResizeFrame{Handle: h, Orig: orig, SignX: -1, SignY: -1}
	if h == HandleNE || h == HandleSE {
		f.SignX = 1
	}
	if h == HandleSE || h == HandleSW {
		f.SignY = 1
	}
	ow, oh := orig.Width(), orig.Height()
	f.NewW = math.Max(MinResizeExtent, ow+(cursor.X-origin.X)*f.SignX)
	f.NewH = math.Max(MinResizeExtent, oh+(cursor.Y-origin.Y)*f.SignY)
	f.KX, f.KY = 1, 1
	if ow > 0 {
		f.KX = f.NewW / ow
	}
	if oh > 0 {
		f.KY = f.NewH / oh
	}
	// the pivot is the corner opposite the dragged one
	f.Pivot = Pt{orig.Left, orig.Top}
	if f.SignX < 0 {
		f.Pivot.X = orig.Right
	}
	if f.SignY < 0 {
		f.Pivot.Y = orig.Bottom
	}
	return f, nil
}

func (f ResizeFrame) degenerateX() bool { return f.Orig.Width() == 0 }
func (f ResizeFrame) degenerateY() bool { return f.Orig.Height() == 0 }

// scalesX is false when the frame leaves the x axis untouched; stored
// coordinates are then kept as they are.
func (f ResizeFrame) scalesX() bool { return f.KX != 1 || f.degenerateX() }
func (f ResizeFrame) scalesY() bool { return f.KY != 1 || f.degenerateY() }

// matrix is the scale about the pivot that the frame applies.
func (f ResizeFrame) matrix() Affine2D { return ScaleAbout(f.Pivot, f.KX, f.KY) }

// mapPt maps p through the frame. An axis with factor 1 keeps its stored
// coordinate bit for bit.
func (f ResizeFrame) mapPt(p Pt) Pt {
	q := f.matrix().Apply(p)
	if f.KX == 1 {
		q.X = p.X
	}
	if f.KY == 1 {
		q.Y = p.Y
	}
	return q
}

func (f ResizeFrame) mapX(x float64) float64 { return f.mapPt(Pt{X: x}).X }
func (f ResizeFrame) mapY(y float64) float64 { return f.mapPt(Pt{Y: y}).Y }

// mapBox scales a box; a collapsed axis of the frame opens to the new extent
// on the side of the dragged handle.
func (f ResizeFrame) mapBox(b Bounds) Bounds {
	out := B(f.mapX(b.Left), f.mapY(b.Top), f.mapX(b.Right), f.mapY(b.Bottom))
	if f.degenerateX() {
		out.Left, out.Right = f.spanX()
	}
	if f.degenerateY() {
		out.Top, out.Bottom = f.spanY()
	}
	return out
}

func (f ResizeFrame) spanX() (float64, float64) {
	if f.SignX > 0 {
		return f.Pivot.X, f.Pivot.X + f.NewW
	}
	return f.Pivot.X - f.NewW, f.Pivot.X
}

func (f ResizeFrame) spanY() (float64, float64) {
	if f.SignY > 0 {
		return f.Pivot.Y, f.Pivot.Y + f.NewH
	}
	return f.Pivot.Y - f.NewH, f.Pivot.Y
}

// Apply scales a drag-start snapshot by the frame and returns the result.
// The snapshot itself is never modified.
func (e Engine) Apply(snapshot Shape, f ResizeFrame) (Shape, error) {
	switch v := snapshot.(type) {
	case *Rectangle:
		c := Clone(v).(*Rectangle)
		nb := f.mapBox(B(v.X, v.Y, v.X+v.W, v.Y+v.H))
		if f.scalesX() {
			c.X, c.W = nb.Left, nb.Width()
		}
		if f.scalesY() {
			c.Y, c.H = nb.Top, nb.Height()
		}
		return c, nil
	case *Ellipse:
		c := Clone(v).(*Ellipse)
		nb := f.mapBox(B(v.X, v.Y, v.X+2*v.RX, v.Y+2*v.RY))
		if f.scalesX() {
			c.X, c.RX = nb.Left, nb.Width()/2
		}
		if f.scalesY() {
			c.Y, c.RY = nb.Top, nb.Height()/2
		}
		return c, nil
	case *Image:
		b, err := e.Bounds(v)
		if err != nil {
			if Skippable(err) {
				return Clone(v), nil
			}
			return nil, err
		}
		c := Clone(v).(*Image)
		nb := f.mapBox(b)
		if f.scalesX() {
			c.Position.X, c.Size.W = nb.Center().X, nb.Width()
		}
		if f.scalesY() {
			c.Position.Y, c.Size.H = nb.Center().Y, nb.Height()
		}
		return c, nil
	case *Line:
		c := Clone(v).(*Line)
		c.X1, c.Y1 = f.mapX(v.X1), f.mapY(v.Y1)
		c.X2, c.Y2 = f.mapX(v.X2), f.mapY(v.Y2)
		// a collapsed axis spreads the endpoint on the dragged side
		if f.degenerateX() {
			if f.SignX > 0 {
				c.X2 = f.Pivot.X + f.NewW
			} else {
				c.X1 = f.Pivot.X - f.NewW
			}
		}
		if f.degenerateY() {
			if f.SignY > 0 {
				c.Y2 = f.Pivot.Y + f.NewH
			} else {
				c.Y1 = f.Pivot.Y - f.NewH
			}
		}
		return c, nil
	case *Path:
		if len(v.Segments) == 0 {
			return nil, shapeErr(v, ErrEmptyGeometry)
		}
		c := Clone(v).(*Path)
		m := f.matrix()
		for i := range c.Segments {
			seg := &c.Segments[i]
			seg.Point = f.mapPt(seg.Point)
			if seg.HandleIn != nil {
				*seg.HandleIn = m.ApplyVector(*seg.HandleIn)
			}
			if seg.HandleOut != nil {
				*seg.HandleOut = m.ApplyVector(*seg.HandleOut)
			}
		}
		return c, nil
	case *Text:
		// text keeps its font size; only the anchor follows the box
		c := Clone(v).(*Text)
		c.At.X = f.mapX(v.At.X)
		if f.scalesY() {
			c.At.Y = f.mapY(v.At.Y-TextAscent) + TextAscent
		}
		return c, nil
	case *Group:
		c := Clone(v).(*Group)
		for i, ch := range v.Children {
			scaled, err := e.Apply(ch, f)
			if err != nil {
				return nil, err
			}
			c.Children[i] = scaled
		}
		return c, nil
	default:
		return nil, unknownVariant(snapshot)
	}
}

// Resize scales one drag-start snapshot for handle h dragged from origin to
// cursor, with orig as the drag-start bounds.
func (e Engine) Resize(snapshot Shape, h Handle, orig Bounds, cursor, origin Pt) (Shape, error) {
	f, err := NewResizeFrame(h, orig, origin, cursor)
	if err != nil {
		return nil, err
	}
	return e.Apply(snapshot, f)
}

// ResizeAll scales several snapshots as one block about the shared pivot of
// their union bounds.
func (e Engine) ResizeAll(snapshots []Shape, h Handle, union Bounds, cursor, origin Pt) ([]Shape, error) {
	f, err := NewResizeFrame(h, union, origin, cursor)
	if err != nil {
		return nil, err
	}
	out := make([]Shape, len(snapshots))
	for i, s := range snapshots {
		scaled, err := e.Apply(s, f)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
