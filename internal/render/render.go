/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render rasterizes a scene with fogleman/gg: shapes in z-order,
// then the editor decorations (selection box and handles, hover outline,
// marquee, snap guides).
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/fogleman/gg"

	applog "vecdraw/internal/log"
	"vecdraw/internal/textlayout"
	"vecdraw/internal/vector"
)

// Options configure a Renderer.
type Options struct {
	Width, Height int
	Background    string // empty means white
	Measurer      *textlayout.Measurer
	Images        *ImageCache
}

// Decorations is the editor state drawn over the scene.
type Decorations struct {
	Selection  []int64
	Hover      int64
	Marquee    *vector.Bounds
	Guides     []vector.GuideLine
	HandleSize float64
}

type Renderer struct {
	opts   Options
	engine vector.Engine
	log    *slog.Logger
}

// New returns a renderer. A nil Measurer uses the built-in face.
func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	if opts.Measurer == nil {
		opts.Measurer = &textlayout.Measurer{}
	}
	return &Renderer{
		opts:   opts,
		engine: vector.Engine{Measure: opts.Measurer},
		log:    applog.WithComponent("render"),
	}
}

// Engine is the geometry engine measuring text with the renderer's fonts.
func (r *Renderer) Engine() vector.Engine { return r.engine }

// Render draws shapes back to front and then the decorations.
// Shapes with empty geometry or unloaded bitmaps are skipped and logged;
// an unknown variant aborts the pass.
func (r *Renderer) Render(shapes []vector.Shape, deco Decorations) (image.Image, error) {
	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	bg := r.opts.Background
	if bg == "" {
		bg = "#ffffff"
	}
	dc.SetColor(toRGBA(bg, 1))
	dc.Clear()
	for _, s := range shapes {
		if err := r.drawShape(dc, s); err != nil {
			if !r.skip(s, err) {
				return nil, err
			}
		}
	}
	if err := r.decorate(dc, shapes, deco); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// skip logs a per-shape failure and reports whether the pass may continue.
func (r *Renderer) skip(s vector.Shape, err error) bool {
	switch {
	case errors.Is(err, vector.ErrEmptyGeometry):
		r.log.Warn("skipping shape with empty geometry", slog.Int64("shape", s.ShapeID()), slog.Any("err", err))
		return true
	case errors.Is(err, vector.ErrAssetNotReady):
		r.log.Debug("skipping image that is not ready", slog.Int64("shape", s.ShapeID()))
		return true
	default:
		r.log.Error("render failed", slog.Int64("shape", s.ShapeID()), slog.Any("err", err))
		return false
	}
}

func (r *Renderer) drawShape(dc *gg.Context, s vector.Shape) error {
	st := s.ShapeStyle()
	switch v := s.(type) {
	case *vector.Group:
		if len(v.Children) == 0 {
			return fmt.Errorf("shape %d: %w", v.ID, vector.ErrEmptyGeometry)
		}
		for _, c := range v.Children {
			if err := r.drawShape(dc, c); err != nil {
				// fatal errors are logged once, by the top-level pass
				if !vector.Skippable(err) {
					return err
				}
				r.skip(c, err)
			}
		}
		return nil
	case *vector.Text:
		return r.drawText(dc, v)
	case *vector.Image:
		return r.drawImage(dc, v)
	}
	cmds, err := vector.Outline(s)
	if err != nil {
		return err
	}
	b, err := r.engine.Bounds(s)
	if err != nil {
		return err
	}
	open := isOpen(s)
	r.drawShadow(dc, cmds, st, open)
	if !open && st.FillEnabled && !st.Fill.IsZero() {
		trace(dc, cmds, 0, 0)
		dc.SetFillStyle(r.paint(st.Fill, b, st.Opacity))
		dc.Fill()
	}
	if st.StrokeEnabled && st.LineWidth > 0 && !st.Stroke.IsZero() {
		trace(dc, cmds, 0, 0)
		dc.SetLineWidth(st.LineWidth)
		dc.SetStrokeStyle(r.paint(st.Stroke, b, st.Opacity))
		dc.Stroke()
	}
	dc.ClearPath()
	return nil
}

// isOpen reports shapes without an interior: lines and open paths.
func isOpen(s vector.Shape) bool {
	switch v := s.(type) {
	case *vector.Line:
		return true
	case *vector.Path:
		return !v.Closed
	}
	return false
}

// drawShadow paints the outline offset by the shadow, in the shadow colour.
// gg has no blur filter, so the blur radius only widens stroked shadows.
func (r *Renderer) drawShadow(dc *gg.Context, cmds []vector.PathCmd, st vector.Style, open bool) {
	sh := st.Shadow
	if sh == nil || (sh.OffsetX == 0 && sh.OffsetY == 0 && sh.Blur == 0) {
		return
	}
	alpha := sh.Opacity
	if alpha == 0 {
		alpha = 1
	}
	c := toRGBA(sh.Color, alpha*st.Opacity)
	trace(dc, cmds, sh.OffsetX, sh.OffsetY)
	dc.SetColor(c)
	if open {
		dc.SetLineWidth(st.LineWidth + sh.Blur)
		dc.Stroke()
		return
	}
	dc.Fill()
}

func trace(dc *gg.Context, cmds []vector.PathCmd, dx, dy float64) {
	dc.NewSubPath()
	for _, c := range cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			dc.MoveTo(d[0]+dx, d[1]+dy)
		case vector.LineTo:
			dc.LineTo(d[0]+dx, d[1]+dy)
		case vector.QuadTo:
			dc.QuadraticTo(d[0]+dx, d[1]+dy, d[2]+dx, d[3]+dy)
		case vector.CubicTo:
			dc.CubicTo(d[0]+dx, d[1]+dy, d[2]+dx, d[3]+dy, d[4]+dx, d[5]+dy)
		case vector.Close:
			dc.ClosePath()
		}
	}
}

// paint turns a style paint into a gg pattern. Gradient stops are spread
// evenly; linear gradients run left to right across b.
func (r *Renderer) paint(p vector.Paint, b vector.Bounds, opacity float64) gg.Pattern {
	g := p.Gradient
	if g == nil || len(g.Colours) == 0 {
		return gg.NewSolidPattern(toRGBA(p.Color, opacity))
	}
	var grad gg.Gradient
	if g.Type == vector.GradientRadial {
		c := b.Center()
		grad = gg.NewRadialGradient(c.X, c.Y, 0, c.X, c.Y, math.Max(b.Width(), b.Height())/2)
	} else {
		grad = gg.NewLinearGradient(b.Left, b.Top, b.Right, b.Top)
	}
	if len(g.Colours) == 1 {
		return gg.NewSolidPattern(toRGBA(g.Colours[0], opacity))
	}
	for i, col := range g.Colours {
		grad.AddColorStop(float64(i)/float64(len(g.Colours)-1), toRGBA(col, opacity))
	}
	return grad
}

func (r *Renderer) drawText(dc *gg.Context, t *vector.Text) error {
	st := t.Style
	face := r.opts.Measurer.Face(textlayout.FontSpec{Family: t.FontFamily, SizePt: t.FontSize})
	dc.SetFontFace(face)
	fill := st.Fill
	if fill.Gradient != nil && len(fill.Gradient.Colours) > 0 {
		fill = vector.Solid(fill.Gradient.Colours[0])
	}
	if fill.Color == "" {
		fill = vector.Solid("#000000")
	}
	dc.SetColor(toRGBA(fill.Color, st.Opacity))
	dc.DrawString(t.Content, t.At.X, t.At.Y)
	if t.Comment {
		w := r.opts.Measurer.MeasureText(t.Content, t.FontFamily, t.FontSize)
		stroke := st.Stroke.Color
		if stroke == "" {
			stroke = "#000000"
		}
		dc.SetLineWidth(1)
		dc.SetColor(toRGBA(stroke, st.Opacity))
		dc.DrawRectangle(t.At.X-4, t.At.Y-vector.TextAscent, w+8, 20)
		dc.Stroke()
	}
	return nil
}

func (r *Renderer) drawImage(dc *gg.Context, v *vector.Image) error {
	b, err := r.engine.Bounds(v)
	if err != nil {
		return err
	}
	if r.opts.Images == nil {
		return fmt.Errorf("shape %d: %w", v.ID, vector.ErrAssetNotReady)
	}
	img, ok := r.opts.Images.Get(v.Source)
	if !ok {
		return fmt.Errorf("shape %d: %w", v.ID, vector.ErrAssetNotReady)
	}
	sz := img.Bounds().Size()
	if sz.X == 0 || sz.Y == 0 || b.Width() == 0 || b.Height() == 0 {
		return nil
	}
	dc.Push()
	dc.Translate(b.Left, b.Top)
	dc.Scale(b.Width()/float64(sz.X), b.Height()/float64(sz.Y))
	dc.DrawImage(img, 0, 0)
	dc.Pop()
	return nil
}

// toRGBA parses a style colour and scales its alpha. Unparseable colours
// draw as transparent.
func toRGBA(s string, alpha float64) color.NRGBA {
	c, err := vector.ParseColor(s)
	if err != nil {
		return color.NRGBA{}
	}
	c = c.WithAlpha(alpha)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
