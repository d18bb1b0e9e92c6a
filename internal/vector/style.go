/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Styles and paint definitions.

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

// WithAlpha scales the colour's alpha by a (0..1).
func (c Color) WithAlpha(a float64) Color {
	a = clamp01(a)
	c.A = uint8(float64(c.A)*a + 0.5)
	return c
}

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa" and a few CSS names.
// Empty, "none" and "transparent" yield Transparent.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none", "transparent":
		return Transparent, nil
	case "black":
		return Black, nil
	case "white":
		return White, nil
	}
	alpha := uint8(255)
	if strings.HasPrefix(s, "#") && len(s) == 9 {
		var a uint8
		if _, err := fmt.Sscanf(s[7:], "%02x", &a); err != nil {
			return Transparent, fmt.Errorf("parse colour %q: %w", s, err)
		}
		alpha = a
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Transparent, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, nil
}

// Hex formats the colour as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// GradientType is "linear" or "radial".
type GradientType string

const (
	GradientLinear GradientType = "linear"
	GradientRadial GradientType = "radial"
)

type Gradient struct {
	Type    GradientType `json:"type"`
	Colours []string     `json:"colours"`
}

// Paint is a solid colour or a gradient. A gradient takes precedence when set.
type Paint struct {
	Color    string
	Gradient *Gradient
}

func Solid(c string) Paint { return Paint{Color: c} }

func (p Paint) IsZero() bool { return p.Color == "" && p.Gradient == nil }

func (p Paint) clone() Paint {
	if p.Gradient != nil {
		g := *p.Gradient
		g.Colours = append([]string(nil), p.Gradient.Colours...)
		p.Gradient = &g
	}
	return p
}

type Shadow struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Blur    float64 `json:"blur"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// Style is the paint state carried by every shape.
type Style struct {
	Fill          Paint
	Stroke        Paint
	FillEnabled   bool
	StrokeEnabled bool
	LineWidth     float64
	Opacity       float64
	Shadow        *Shadow
	Radius        float64
}

// DefaultStyle is the initial active style for newly created shapes.
func DefaultStyle() Style {
	return Style{
		Fill:          Solid("#d9d9d9"),
		Stroke:        Solid("#000000"),
		FillEnabled:   true,
		StrokeEnabled: false,
		LineWidth:     2,
		Opacity:       1,
		Shadow:        &Shadow{Color: "#000000"},
	}
}

func (s Style) Clone() Style {
	s.Fill = s.Fill.clone()
	s.Stroke = s.Stroke.clone()
	if s.Shadow != nil {
		sh := *s.Shadow
		s.Shadow = &sh
	}
	return s
}

// StylePatch is a partial style; nil fields are left untouched.
type StylePatch struct {
	Fill          *Paint
	Stroke        *Paint
	FillEnabled   *bool
	StrokeEnabled *bool
	LineWidth     *float64
	Opacity       *float64
	Shadow        *Shadow
	Radius        *float64
}

// Apply merges the patch into s. Turning fill or stroke on while the
// shape has no colour for it falls back to the matching colour of defaults.
func (p StylePatch) Apply(s Style, defaults Style) Style {
	out := s.Clone()
	if p.Fill != nil {
		out.Fill = p.Fill.clone()
	}
	if p.Stroke != nil {
		out.Stroke = p.Stroke.clone()
	}
	if p.FillEnabled != nil {
		out.FillEnabled = *p.FillEnabled
		if out.FillEnabled && out.Fill.IsZero() {
			out.Fill = defaults.Fill.clone()
		}
	}
	if p.StrokeEnabled != nil {
		out.StrokeEnabled = *p.StrokeEnabled
		if out.StrokeEnabled && out.Stroke.IsZero() {
			out.Stroke = defaults.Stroke.clone()
		}
	}
	if p.LineWidth != nil {
		out.LineWidth = *p.LineWidth
	}
	if p.Opacity != nil {
		out.Opacity = clamp01(*p.Opacity)
	}
	if p.Shadow != nil {
		sh := *p.Shadow
		out.Shadow = &sh
	}
	if p.Radius != nil {
		out.Radius = *p.Radius
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
