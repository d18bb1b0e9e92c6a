/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"vecdraw/internal/vector"
)

// WritePDF writes the scene as a single-page vector PDF. One canvas unit is
// one point; the page origin is top-left like the canvas.
func WritePDF(w io.Writer, shapes []vector.Shape, opt Options) error {
	pdf, err := buildPDF(shapes, opt)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes the scene to a PDF file at path.
func ExportPDF(path string, shapes []vector.Shape, opt Options) error {
	pdf, err := buildPDF(shapes, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func buildPDF(shapes []vector.Shape, opt Options) (*gofpdf.Fpdf, error) {
	eng := opt.engine()
	pw, ph := opt.pageSize(eng, shapes)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(pw), Ht: float64(ph)},
	})
	pdf.SetTitle("vecdraw scene", false)
	pdf.SetCreator("vecdraw", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	if opt.Background != "" {
		setFillColor(pdf, opt.Background)
		pdf.Rect(0, 0, float64(pw), float64(ph), "F")
	}

	wr := &pdfWriter{pdf: pdf, eng: eng, opt: opt, log: logger("pdf"), tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for _, s := range shapes {
		if err := wr.shape(s); err != nil {
			if !skip(wr.log, s, err) {
				return nil, fmt.Errorf("build pdf: %w", err)
			}
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	return pdf, nil
}

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	eng vector.Engine
	opt Options
	log *slog.Logger
	tr  func(string) string
}

func (w *pdfWriter) shape(s vector.Shape) error {
	switch v := s.(type) {
	case *vector.Group:
		if len(v.Children) == 0 {
			return fmt.Errorf("shape %d: %w", v.ID, vector.ErrEmptyGeometry)
		}
		for _, c := range v.Children {
			if err := w.shape(c); err != nil && !skip(w.log, c, err) {
				return err
			}
		}
		return nil
	case *vector.Text:
		return w.text(v)
	case *vector.Image:
		return w.image(v)
	}

	cmds, err := vector.Outline(s)
	if err != nil {
		return err
	}
	b, err := w.eng.Bounds(s)
	if err != nil {
		return err
	}
	st := s.ShapeStyle()
	open := isOpen(s)
	defer w.pdf.SetAlpha(1, "Normal")

	if hasShadow(st) {
		w.pdf.SetAlpha(shadowAlpha(st.Shadow)*st.Opacity, "Normal")
		setFillColor(w.pdf, st.Shadow.Color)
		setDrawColor(w.pdf, st.Shadow.Color)
		w.trace(cmds, st.Shadow.OffsetX, st.Shadow.OffsetY)
		if open {
			w.pdf.SetLineWidth(st.LineWidth + st.Shadow.Blur)
			w.pdf.DrawPath("D")
		} else {
			w.pdf.DrawPath("F")
		}
	}

	w.pdf.SetAlpha(st.Opacity, "Normal")
	fill := !open && st.FillEnabled && !st.Fill.IsZero()
	stroke := st.StrokeEnabled && st.LineWidth > 0 && !st.Stroke.IsZero()
	if fill && w.gradient(s, st.Fill, b) {
		fill = false
	}
	var style string
	if fill {
		setFillColor(w.pdf, solidOf(st.Fill))
		style += "F"
	}
	if stroke {
		setDrawColor(w.pdf, solidOf(st.Stroke))
		w.pdf.SetLineWidth(st.LineWidth)
		style += "D"
	}
	if style == "" {
		return nil
	}
	w.trace(cmds, 0, 0)
	w.pdf.DrawPath(style)
	return nil
}

// gradient paints a two-or-more stop gradient fill clipped to a rectangle
// or ellipse and reports whether it did. gofpdf gradients run between two
// colours, so the first and last stops are used; other outlines fall back
// to the first stop as a solid fill.
func (w *pdfWriter) gradient(s vector.Shape, p vector.Paint, b vector.Bounds) bool {
	g := p.Gradient
	if g == nil || len(g.Colours) < 2 {
		return false
	}
	switch v := s.(type) {
	case *vector.Rectangle:
		if v.Style.Radius > 0 {
			w.pdf.ClipRoundedRect(b.Left, b.Top, b.Width(), b.Height(), v.Style.Radius, false)
		} else {
			w.pdf.ClipRect(b.Left, b.Top, b.Width(), b.Height(), false)
		}
	case *vector.Ellipse:
		c := v.Center()
		w.pdf.ClipEllipse(c.X, c.Y, b.Width()/2, b.Height()/2, false)
	default:
		return false
	}
	c1 := parseOr(g.Colours[0], vector.Black)
	c2 := parseOr(g.Colours[len(g.Colours)-1], vector.Black)
	if g.Type == vector.GradientRadial {
		w.pdf.RadialGradient(b.Left, b.Top, b.Width(), b.Height(),
			int(c1.R), int(c1.G), int(c1.B), int(c2.R), int(c2.G), int(c2.B), 0.5, 0.5, 0.5, 0.5, 0.5)
	} else {
		w.pdf.LinearGradient(b.Left, b.Top, b.Width(), b.Height(),
			int(c1.R), int(c1.G), int(c1.B), int(c2.R), int(c2.G), int(c2.B), 0, 0, 1, 0)
	}
	w.pdf.ClipEnd()
	return true
}

func (w *pdfWriter) trace(cmds []vector.PathCmd, dx, dy float64) {
	for _, c := range cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			w.pdf.MoveTo(d[0]+dx, d[1]+dy)
		case vector.LineTo:
			w.pdf.LineTo(d[0]+dx, d[1]+dy)
		case vector.QuadTo:
			w.pdf.CurveTo(d[0]+dx, d[1]+dy, d[2]+dx, d[3]+dy)
		case vector.CubicTo:
			w.pdf.CurveBezierCubicTo(d[0]+dx, d[1]+dy, d[2]+dx, d[3]+dy, d[4]+dx, d[5]+dy)
		case vector.Close:
			w.pdf.ClosePath()
		}
	}
}

func (w *pdfWriter) text(t *vector.Text) error {
	if _, err := w.eng.Bounds(t); err != nil {
		return err
	}
	st := t.Style
	defer w.pdf.SetAlpha(1, "Normal")
	w.pdf.SetAlpha(st.Opacity, "Normal")
	size := t.FontSize
	if size <= 0 {
		size = 16
	}
	// Helvetica keeps text vector without embedding a font
	w.pdf.SetFont("Helvetica", "", size)
	fill := solidOf(st.Fill)
	if fill == "" {
		fill = "#000000"
	}
	c := parseOr(fill, vector.Black)
	w.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	content := w.tr(t.Content)
	w.pdf.Text(t.At.X, t.At.Y, content)
	if t.Comment {
		stroke := st.Stroke.Color
		if stroke == "" {
			stroke = "#000000"
		}
		setDrawColor(w.pdf, stroke)
		w.pdf.SetLineWidth(1)
		w.pdf.Rect(t.At.X-4, t.At.Y-vector.TextAscent, w.pdf.GetStringWidth(content)+8, 20, "D")
	}
	return nil
}

func (w *pdfWriter) image(v *vector.Image) error {
	b, err := w.eng.Bounds(v)
	if err != nil {
		return err
	}
	path := w.opt.imagePath(v.Source)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png", "jpg", "jpeg", "gif":
	default:
		w.log.Warn("image format not supported in pdf", slog.Int64("shape", v.ID), slog.String("src", v.Source))
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		w.log.Warn("image source missing", slog.Int64("shape", v.ID), slog.Any("err", err))
		return nil
	}
	w.pdf.SetAlpha(v.Style.Opacity, "Normal")
	w.pdf.ImageOptions(path, b.Left, b.Top, b.Width(), b.Height(), false, gofpdf.ImageOptions{ImageType: ext}, 0, "")
	w.pdf.SetAlpha(1, "Normal")
	return nil
}

func parseOr(s string, def vector.Color) vector.Color {
	c, err := vector.ParseColor(s)
	if err != nil {
		return def
	}
	return c
}

func setDrawColor(pdf *gofpdf.Fpdf, c string) {
	col := parseOr(c, vector.Black)
	pdf.SetDrawColor(int(col.R), int(col.G), int(col.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c string) {
	col := parseOr(c, vector.Black)
	pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
}
