/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Shape is one drawable entity of the scene. The set of variants is closed:
// *Path, *Rectangle, *Ellipse, *Line, *Text, *Image and *Group. Geometry functions
// switch over them and report ErrUnknownShapeVariant for anything else.
//
// Shapes are treated as values: geometry operations return new shapes and
// never modify their input.
type Shape interface {
	ShapeID() int64
	ShapeStyle() Style
	Kind() Kind
	base() *Base
}

// Kind is the serialized type tag of a variant.
type Kind string

const (
	KindPath    Kind = "path"
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindLine    Kind = "line"
	KindText    Kind = "text"
	KindComment Kind = "comment"
	KindImage   Kind = "image"
	KindGroup   Kind = "group"
)

// Base holds the fields every variant carries.
type Base struct {
	ID    int64
	Style Style
}

func (b *Base) ShapeID() int64    { return b.ID }
func (b *Base) ShapeStyle() Style { return b.Style }
func (b *Base) base() *Base       { return b }

// Segment is one path vertex. Handles are offsets from Point.
type Segment struct {
	Point     Pt
	HandleIn  *Pt
	HandleOut *Pt
}

func (s Segment) clone() Segment {
	if s.HandleIn != nil {
		h := *s.HandleIn
		s.HandleIn = &h
	}
	if s.HandleOut != nil {
		h := *s.HandleOut
		s.HandleOut = &h
	}
	return s
}

// Path is a freeform or Bezier outline.
type Path struct {
	Base
	Segments     []Segment
	Closed       bool
	CornerRadius float64
}

func (*Path) Kind() Kind { return KindPath }

// Rectangle is given by its top-left corner and size.
type Rectangle struct {
	Base
	X, Y, W, H float64
}

func (*Rectangle) Kind() Kind { return KindRect }

// Ellipse is inscribed in the box [X, X+2RX] x [Y, Y+2RY].
type Ellipse struct {
	Base
	X, Y, RX, RY float64
}

func (*Ellipse) Kind() Kind { return KindEllipse }

func (e *Ellipse) Center() Pt { return Pt{e.X + e.RX, e.Y + e.RY} }

type Line struct {
	Base
	X1, Y1, X2, Y2 float64
}

func (*Line) Kind() Kind { return KindLine }

// Text is a single line anchored at its left baseline. Comment marks an
// annotation, drawn with a frame but otherwise identical.
type Text struct {
	Base
	At            Pt
	Content       string
	FontSize      float64
	FontFamily    string
	Justification string
	Comment       bool
}

func (t *Text) Kind() Kind {
	if t.Comment {
		return KindComment
	}
	return KindText
}

// Image is centred on Position. Loaded flips once the bitmap has been decoded.
type Image struct {
	Base
	Position Pt
	Size     Size
	Source   string
	Loaded   bool
}

func (*Image) Kind() Kind { return KindImage }

type Group struct {
	Base
	Children []Shape
}

func (*Group) Kind() Kind { return KindGroup }

// Clone returns a deep copy of s. Unknown variants are returned as-is.
func Clone(s Shape) Shape {
	switch v := s.(type) {
	case *Path:
		c := *v
		c.Style = v.Style.Clone()
		c.Segments = make([]Segment, len(v.Segments))
		for i, seg := range v.Segments {
			c.Segments[i] = seg.clone()
		}
		return &c
	case *Rectangle:
		c := *v
		c.Style = v.Style.Clone()
		return &c
	case *Ellipse:
		c := *v
		c.Style = v.Style.Clone()
		return &c
	case *Line:
		c := *v
		c.Style = v.Style.Clone()
		return &c
	case *Text:
		c := *v
		c.Style = v.Style.Clone()
		return &c
	case *Image:
		c := *v
		c.Style = v.Style.Clone()
		return &c
	case *Group:
		c := *v
		c.Style = v.Style.Clone()
		c.Children = CloneAll(v.Children)
		return &c
	default:
		return s
	}
}

// CloneAll deep-copies a shape list.
func CloneAll(shapes []Shape) []Shape {
	if shapes == nil {
		return nil
	}
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		out[i] = Clone(s)
	}
	return out
}

// WithStyle returns a copy of s carrying style st.
func WithStyle(s Shape, st Style) Shape {
	c := Clone(s)
	if c == nil || c.base() == nil {
		return c
	}
	c.base().Style = st.Clone()
	return c
}

// Walk visits s and, for groups, every descendant depth-first.
// Returning false from fn stops the walk.
func Walk(s Shape, fn func(Shape) bool) bool {
	if !fn(s) {
		return false
	}
	if g, ok := s.(*Group); ok {
		for _, c := range g.Children {
			if !Walk(c, fn) {
				return false
			}
		}
	}
	return true
}

// MaxID returns the largest id in the trees of shapes, or 0.
func MaxID(shapes []Shape) int64 {
	var m int64
	for _, s := range shapes {
		Walk(s, func(n Shape) bool {
			if n.ShapeID() > m {
				m = n.ShapeID()
			}
			return true
		})
	}
	return m
}

// IndexOf returns the top-level index of id, or -1.
func IndexOf(shapes []Shape, id int64) int {
	for i, s := range shapes {
		if s.ShapeID() == id {
			return i
		}
	}
	return -1
}
