/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"errors"
	"math"

	"vecdraw/internal/textlayout"
)

const (
	// TextAscent is the fixed height of a text line above its baseline anchor.
	TextAscent = 16.0
	// HitTolerance is the grab distance for lines and path vertices.
	HitTolerance = 5.0
	// MinResizeExtent is the smallest width/height a resize can produce.
	MinResizeExtent = 10.0
)

// TextMeasurer supplies advance widths for text bounds.
type TextMeasurer interface {
	MeasureText(content, family string, size float64) float64
}

// Engine evaluates geometry. It only carries the font-metrics collaborator;
// the zero value measures text with the built-in 7x13 face.
type Engine struct {
	Measure TextMeasurer
}

var defaultMeasurer = &textlayout.Measurer{}

func (e Engine) textWidth(t *Text) float64 {
	m := e.Measure
	if m == nil {
		m = defaultMeasurer
	}
	return m.MeasureText(t.Content, t.FontFamily, t.FontSize)
}

// Bounds computes the axis-aligned bounds of s.
//
// Paths without segments and groups without children fail with
// ErrEmptyGeometry. An image that has not loaded and has no nominal size
// fails with ErrAssetNotReady. Group children failing with either error are
// left out of the union; a group whose children all fail reports the
// first such error.
func (e Engine) Bounds(s Shape) (Bounds, error) {
	switch v := s.(type) {
	case *Path:
		if len(v.Segments) == 0 {
			return Bounds{}, shapeErr(s, ErrEmptyGeometry)
		}
		p0 := v.Segments[0].Point
		b := Bounds{Left: p0.X, Top: p0.Y, Right: p0.X, Bottom: p0.Y}
		for _, seg := range v.Segments[1:] {
			b = b.Union(Bounds{Left: seg.Point.X, Top: seg.Point.Y, Right: seg.Point.X, Bottom: seg.Point.Y})
		}
		return b, nil
	case *Rectangle:
		return B(v.X, v.Y, v.X+v.W, v.Y+v.H), nil
	case *Ellipse:
		return B(v.X, v.Y, v.X+2*v.RX, v.Y+2*v.RY), nil
	case *Line:
		return B(v.X1, v.Y1, v.X2, v.Y2), nil
	case *Text:
		w := e.textWidth(v)
		return Bounds{Left: v.At.X, Top: v.At.Y - TextAscent, Right: v.At.X + w, Bottom: v.At.Y}, nil
	case *Image:
		if !v.Loaded && v.Size.W == 0 && v.Size.H == 0 {
			return Bounds{}, shapeErr(s, ErrAssetNotReady)
		}
		hw, hh := math.Abs(v.Size.W)/2, math.Abs(v.Size.H)/2
		return Bounds{Left: v.Position.X - hw, Top: v.Position.Y - hh, Right: v.Position.X + hw, Bottom: v.Position.Y + hh}, nil
	case *Group:
		if len(v.Children) == 0 {
			return Bounds{}, shapeErr(s, ErrEmptyGeometry)
		}
		var (
			out      Bounds
			have     bool
			firstErr error
		)
		for _, c := range v.Children {
			cb, err := e.Bounds(c)
			if err != nil {
				if !Skippable(err) {
					return Bounds{}, err
				}
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if !have {
				out, have = cb, true
				continue
			}
			out = out.Union(cb)
		}
		if !have {
			return Bounds{}, shapeErr(s, firstErr)
		}
		return out, nil
	default:
		return Bounds{}, unknownVariant(s)
	}
}

// Left is the left edge of s, identical to Bounds(s).Left.
func (e Engine) Left(s Shape) (float64, error) {
	b, err := e.Bounds(s)
	return b.Left, err
}

// Top is the top edge of s, identical to Bounds(s).Top.
func (e Engine) Top(s Shape) (float64, error) {
	b, err := e.Bounds(s)
	return b.Top, err
}

// UnionBounds unions the bounds of shapes, skipping shapes that are empty or
// not ready. ok is false when no shape contributed.
func (e Engine) UnionBounds(shapes []Shape) (b Bounds, ok bool, err error) {
	for _, s := range shapes {
		sb, serr := e.Bounds(s)
		if serr != nil {
			if Skippable(serr) {
				continue
			}
			return Bounds{}, false, serr
		}
		if !ok {
			b, ok = sb, true
			continue
		}
		b = b.Union(sb)
	}
	return b, ok, nil
}

// IsUnknownVariant reports whether err stems from an unrecognised shape.
func IsUnknownVariant(err error) bool { return errors.Is(err, ErrUnknownShapeVariant) }
