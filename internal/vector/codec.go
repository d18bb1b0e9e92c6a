/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// JSON codec for scenes. A scene is a plain array of shapes, each an object
// with an "id", a "type" discriminator and a "style". Segment handles are
// {x,y} offsets. Decoding also accepts the older "pen", "rectangle"
// (topLeft/size/radius) and centre/radius "ellipse" forms.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type wireSegment struct {
	Point     Pt  `json:"point"`
	HandleIn  *Pt `json:"handleIn,omitempty"`
	HandleOut *Pt `json:"handleOut,omitempty"`
}

type wireShadowOffset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wireStyle struct {
	Fill          *Paint    `json:"fill,omitempty"`
	Stroke        *Paint    `json:"stroke,omitempty"`
	FillEnabled   *bool     `json:"fillEnabled,omitempty"`
	StrokeEnabled *bool     `json:"strokeEnabled,omitempty"`
	LineWidth     *float64  `json:"lineWidth,omitempty"`
	Opacity       *float64  `json:"opacity,omitempty"`
	Radius        *float64  `json:"radius,omitempty"`
	Shadow        *Shadow   `json:"shadow,omitempty"`
	Gradient      *Gradient `json:"gradient,omitempty"`

	// older spellings, read only
	StrokeWidth  *float64          `json:"strokeWidth,omitempty"`
	Alpha        *float64          `json:"alpha,omitempty"`
	ShadowColor  string            `json:"shadowColor,omitempty"`
	ShadowBlur   *float64          `json:"shadowBlur,omitempty"`
	ShadowOffset *wireShadowOffset `json:"shadowOffset,omitempty"`
}

type wireShape struct {
	ID    int64      `json:"id"`
	Type  Kind       `json:"type"`
	Style *wireStyle `json:"style,omitempty"`

	Segments     []wireSegment `json:"segments,omitempty"`
	Closed       *bool         `json:"closed,omitempty"`
	CornerRadius *float64      `json:"cornerRadius,omitempty"`

	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	W  *float64 `json:"w,omitempty"`
	H  *float64 `json:"h,omitempty"`
	RX *float64 `json:"rx,omitempty"`
	RY *float64 `json:"ry,omitempty"`
	X1 *float64 `json:"x1,omitempty"`
	Y1 *float64 `json:"y1,omitempty"`
	X2 *float64 `json:"x2,omitempty"`
	Y2 *float64 `json:"y2,omitempty"`

	Position      *Pt      `json:"position,omitempty"`
	Size          *Size    `json:"size,omitempty"`
	Content       string   `json:"content,omitempty"`
	FontSize      *float64 `json:"fontSize,omitempty"`
	FontFamily    string   `json:"fontFamily,omitempty"`
	Justification string   `json:"justification,omitempty"`
	Source        string   `json:"source,omitempty"`

	Children []json.RawMessage `json:"children,omitempty"`

	// older forms, read only
	Points  []Pt            `json:"points,omitempty"`
	TopLeft *Pt             `json:"topLeft,omitempty"`
	Center  *Pt             `json:"center,omitempty"`
	Radius  json.RawMessage `json:"radius,omitempty"`
	Text    string          `json:"text,omitempty"`
	Src     string          `json:"src,omitempty"`
}

const (
	kindPen       Kind = "pen"
	kindRectangle Kind = "rectangle"
)

// MarshalJSON writes a solid paint as a colour string and a gradient as an object.
func (p Paint) MarshalJSON() ([]byte, error) {
	if p.Gradient != nil {
		return json.Marshal(p.Gradient)
	}
	return json.Marshal(p.Color)
}

func (p *Paint) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var g Gradient
		if err := json.Unmarshal(b, &g); err != nil {
			return fmt.Errorf("decode gradient: %w", err)
		}
		*p = Paint{Gradient: &g}
		return nil
	}
	var c string
	if err := json.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("decode paint: %w", err)
	}
	*p = Paint{Color: c}
	return nil
}

func fp(v float64) *float64 { return &v }
func bp(v bool) *bool       { return &v }
func pp(v Pt) *Pt           { return &v }

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func encodeStyle(s Style) *wireStyle {
	w := &wireStyle{
		FillEnabled:   bp(s.FillEnabled),
		StrokeEnabled: bp(s.StrokeEnabled),
		LineWidth:     fp(s.LineWidth),
		Opacity:       fp(s.Opacity),
	}
	if !s.Fill.IsZero() {
		f := s.Fill.clone()
		w.Fill = &f
	}
	if !s.Stroke.IsZero() {
		st := s.Stroke.clone()
		w.Stroke = &st
	}
	if s.Radius != 0 {
		w.Radius = fp(s.Radius)
	}
	if s.Shadow != nil {
		sh := *s.Shadow
		w.Shadow = &sh
	}
	return w
}

func decodeStyle(w *wireStyle) Style {
	var s Style
	s.LineWidth = 2
	s.Opacity = 1
	if w == nil {
		return s
	}
	if w.Fill != nil {
		s.Fill = w.Fill.clone()
	}
	if w.Gradient != nil && s.Fill.Gradient == nil {
		g := *w.Gradient
		s.Fill.Gradient = &g
	}
	if w.Stroke != nil {
		s.Stroke = w.Stroke.clone()
	}
	if w.FillEnabled != nil {
		s.FillEnabled = *w.FillEnabled
	} else {
		s.FillEnabled = s.Fill.Gradient != nil || (s.Fill.Color != "" && !strings.EqualFold(s.Fill.Color, "transparent"))
	}
	if w.StrokeEnabled != nil {
		s.StrokeEnabled = *w.StrokeEnabled
	} else {
		s.StrokeEnabled = !s.Stroke.IsZero()
	}
	switch {
	case w.LineWidth != nil:
		s.LineWidth = *w.LineWidth
	case w.StrokeWidth != nil:
		s.LineWidth = *w.StrokeWidth
	}
	switch {
	case w.Opacity != nil:
		s.Opacity = clamp01(*w.Opacity)
	case w.Alpha != nil:
		s.Opacity = clamp01(*w.Alpha)
	}
	if w.Radius != nil {
		s.Radius = *w.Radius
	}
	switch {
	case w.Shadow != nil:
		sh := *w.Shadow
		s.Shadow = &sh
	case w.ShadowColor != "" || w.ShadowBlur != nil || w.ShadowOffset != nil:
		sh := Shadow{Color: w.ShadowColor, Blur: val(w.ShadowBlur), Opacity: 1}
		if w.ShadowOffset != nil {
			sh.OffsetX, sh.OffsetY = w.ShadowOffset.X, w.ShadowOffset.Y
		}
		s.Shadow = &sh
	}
	return s
}

func encodeShape(s Shape) (*wireShape, error) {
	w := &wireShape{ID: s.ShapeID(), Type: s.Kind(), Style: encodeStyle(s.ShapeStyle())}
	switch v := s.(type) {
	case *Path:
		w.Segments = make([]wireSegment, len(v.Segments))
		for i, seg := range v.Segments {
			seg = seg.clone()
			w.Segments[i] = wireSegment{Point: seg.Point, HandleIn: seg.HandleIn, HandleOut: seg.HandleOut}
		}
		w.Closed = bp(v.Closed)
		if v.CornerRadius != 0 {
			w.CornerRadius = fp(v.CornerRadius)
		}
	case *Rectangle:
		w.X, w.Y, w.W, w.H = fp(v.X), fp(v.Y), fp(v.W), fp(v.H)
	case *Ellipse:
		w.X, w.Y, w.RX, w.RY = fp(v.X), fp(v.Y), fp(v.RX), fp(v.RY)
	case *Line:
		w.X1, w.Y1, w.X2, w.Y2 = fp(v.X1), fp(v.Y1), fp(v.X2), fp(v.Y2)
	case *Text:
		w.Position = pp(v.At)
		w.Content = v.Content
		w.FontSize = fp(v.FontSize)
		w.FontFamily = v.FontFamily
		w.Justification = v.Justification
	case *Image:
		w.Position = pp(v.Position)
		sz := v.Size
		w.Size = &sz
		w.Source = v.Source
	case *Group:
		w.Children = make([]json.RawMessage, 0, len(v.Children))
		for _, c := range v.Children {
			b, err := MarshalShape(c)
			if err != nil {
				return nil, err
			}
			w.Children = append(w.Children, b)
		}
	default:
		return nil, unknownVariant(s)
	}
	return w, nil
}

// MarshalShape encodes one shape tree.
func MarshalShape(s Shape) ([]byte, error) {
	w, err := encodeShape(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalShape decodes one shape tree.
func UnmarshalShape(data []byte) (Shape, error) {
	var w wireShape
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode shape: %w", err)
	}
	return decodeShape(&w)
}

func decodeShape(w *wireShape) (Shape, error) {
	base := Base{ID: w.ID, Style: decodeStyle(w.Style)}
	switch w.Type {
	case KindPath:
		p := &Path{Base: base, Closed: w.Closed != nil && *w.Closed, CornerRadius: val(w.CornerRadius)}
		p.Segments = make([]Segment, len(w.Segments))
		for i, seg := range w.Segments {
			p.Segments[i] = Segment{Point: seg.Point, HandleIn: seg.HandleIn, HandleOut: seg.HandleOut}
		}
		return p, nil
	case kindPen:
		p := &Path{Base: base}
		p.Segments = make([]Segment, len(w.Points))
		for i, pt := range w.Points {
			p.Segments[i] = Segment{Point: pt}
		}
		return p, nil
	case KindRect:
		return &Rectangle{Base: base, X: val(w.X), Y: val(w.Y), W: val(w.W), H: val(w.H)}, nil
	case kindRectangle:
		r := &Rectangle{Base: base}
		if w.TopLeft != nil {
			r.X, r.Y = w.TopLeft.X, w.TopLeft.Y
		}
		if w.Size != nil {
			r.W, r.H = w.Size.W, w.Size.H
		}
		if len(w.Radius) > 0 {
			var rad float64
			if err := json.Unmarshal(w.Radius, &rad); err == nil && rad != 0 {
				r.Style.Radius = rad
			}
		}
		return r, nil
	case KindEllipse:
		if w.Center != nil {
			var rad Size
			if len(w.Radius) > 0 {
				if err := json.Unmarshal(w.Radius, &rad); err != nil {
					return nil, fmt.Errorf("decode ellipse %d radius: %w", w.ID, err)
				}
			}
			return &Ellipse{Base: base, X: w.Center.X - rad.W, Y: w.Center.Y - rad.H, RX: rad.W, RY: rad.H}, nil
		}
		return &Ellipse{Base: base, X: val(w.X), Y: val(w.Y), RX: val(w.RX), RY: val(w.RY)}, nil
	case KindLine:
		return &Line{Base: base, X1: val(w.X1), Y1: val(w.Y1), X2: val(w.X2), Y2: val(w.Y2)}, nil
	case KindText, KindComment:
		t := &Text{Base: base, Comment: w.Type == KindComment, FontFamily: w.FontFamily, Justification: w.Justification}
		t.Content = w.Content
		if t.Content == "" {
			t.Content = w.Text
		}
		switch {
		case w.Position != nil:
			t.At = *w.Position
		case w.X != nil || w.Y != nil:
			t.At = Pt{val(w.X), val(w.Y)}
		}
		t.FontSize = 16
		if w.FontSize != nil {
			t.FontSize = *w.FontSize
		}
		return t, nil
	case KindImage:
		img := &Image{Base: base, Source: w.Source}
		if img.Source == "" {
			img.Source = w.Src
		}
		switch {
		case w.Position != nil:
			img.Position = *w.Position
			if w.Size != nil {
				img.Size = *w.Size
			}
		case w.X != nil || w.Y != nil || w.W != nil || w.H != nil:
			// top-left form: convert to centre
			img.Size = Size{W: val(w.W), H: val(w.H)}
			img.Position = Pt{val(w.X) + img.Size.W/2, val(w.Y) + img.Size.H/2}
		}
		return img, nil
	case KindGroup:
		g := &Group{Base: base, Children: make([]Shape, 0, len(w.Children))}
		for _, raw := range w.Children {
			c, err := UnmarshalShape(raw)
			if err != nil {
				return nil, fmt.Errorf("group %d: %w", w.ID, err)
			}
			g.Children = append(g.Children, c)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnknownShapeVariant, w.Type)
	}
}

// MarshalScene encodes a scene as an indented JSON array.
func MarshalScene(shapes []Shape) ([]byte, error) {
	out := make([]*wireShape, 0, len(shapes))
	for _, s := range shapes {
		w, err := encodeShape(s)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return append(b, '\n'), nil
}

// ErrDuplicateID is returned when a decoded scene reuses an id anywhere in its trees.
var ErrDuplicateID = errors.New("duplicate shape id")

// UnmarshalScene decodes a JSON array of shapes and checks id uniqueness
// across all nesting levels.
func UnmarshalScene(data []byte) ([]Shape, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	shapes := make([]Shape, 0, len(raws))
	for i, raw := range raws {
		s, err := UnmarshalShape(raw)
		if err != nil {
			return nil, fmt.Errorf("shape #%d: %w", i, err)
		}
		shapes = append(shapes, s)
	}
	if err := CheckUniqueIDs(shapes); err != nil {
		return nil, err
	}
	return shapes, nil
}

// CheckUniqueIDs fails with ErrDuplicateID if any id repeats in the trees.
func CheckUniqueIDs(shapes []Shape) error {
	seen := make(map[int64]struct{})
	var dup error
	for _, s := range shapes {
		Walk(s, func(n Shape) bool {
			if _, ok := seen[n.ShapeID()]; ok {
				dup = fmt.Errorf("%w: %d", ErrDuplicateID, n.ShapeID())
				return false
			}
			seen[n.ShapeID()] = struct{}{}
			return true
		})
		if dup != nil {
			return dup
		}
	}
	return nil
}
