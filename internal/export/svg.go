/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"vecdraw/internal/vector"
)

// WriteSVG writes the scene as a standalone SVG document. Shapes are emitted
// in z-order; gradients and shadows become per-shape defs.
func WriteSVG(w io.Writer, shapes []vector.Shape, opt Options) error {
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	eng := opt.engine()
	pw, ph := opt.pageSize(eng, shapes)
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n", pw, ph, pw, ph)
	if opt.Background != "" {
		wf("<rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" %s/>\n", pw, ph, paintAttr("fill", opt.Background))
	}

	sw := &svgWriter{wf: wf, eng: eng, opt: opt, log: logger("svg")}
	for _, s := range shapes {
		if err := sw.shape(s, ""); err != nil {
			if !skip(sw.log, s, err) {
				return fmt.Errorf("build svg: %w", err)
			}
		}
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// ExportSVG writes the scene to an SVG file at path.
func ExportSVG(path string, shapes []vector.Shape, opt Options) error {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, shapes, opt); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

type svgWriter struct {
	wf   func(format string, args ...any)
	eng  vector.Engine
	opt  Options
	log  *slog.Logger
	defs int
}

func (sw *svgWriter) nextID(prefix string) string {
	sw.defs++
	return fmt.Sprintf("%s%d", prefix, sw.defs)
}

func (sw *svgWriter) shape(s vector.Shape, indent string) error {
	switch v := s.(type) {
	case *vector.Group:
		if len(v.Children) == 0 {
			return fmt.Errorf("shape %d: %w", v.ID, vector.ErrEmptyGeometry)
		}
		sw.wf("%s<g id=\"shape-%d\">\n", indent, v.ID)
		for _, c := range v.Children {
			if err := sw.shape(c, indent+"  "); err != nil && !skip(sw.log, c, err) {
				return err
			}
		}
		sw.wf("%s</g>\n", indent)
		return nil
	case *vector.Text:
		return sw.text(v, indent)
	case *vector.Image:
		return sw.image(v, indent)
	}

	cmds, err := vector.Outline(s)
	if err != nil {
		return err
	}
	st := s.ShapeStyle()
	var attrs []string
	if !isOpen(s) && st.FillEnabled && !st.Fill.IsZero() {
		attrs = append(attrs, sw.paint("fill", st.Fill, indent))
	} else {
		attrs = append(attrs, `fill="none"`)
	}
	if st.StrokeEnabled && st.LineWidth > 0 && !st.Stroke.IsZero() {
		attrs = append(attrs, sw.paint("stroke", st.Stroke, indent))
		attrs = append(attrs, fmt.Sprintf(`stroke-width="%s"`, num(st.LineWidth)))
	} else {
		attrs = append(attrs, `stroke="none"`)
	}
	if st.Opacity < 1 {
		attrs = append(attrs, fmt.Sprintf(`opacity="%s"`, num(st.Opacity)))
	}
	if hasShadow(st) {
		attrs = append(attrs, fmt.Sprintf(`filter="url(#%s)"`, sw.shadow(st.Shadow, indent)))
	}
	sw.wf("%s<path id=\"shape-%d\" d=\"%s\" %s/>\n", indent, s.ShapeID(), pathData(cmds), strings.Join(attrs, " "))
	return nil
}

func (sw *svgWriter) text(t *vector.Text, indent string) error {
	b, err := sw.eng.Bounds(t)
	if err != nil {
		return err
	}
	st := t.Style
	fill := solidOf(st.Fill)
	if fill == "" {
		fill = "#000000"
	}
	family := t.FontFamily
	if family == "" {
		family = "sans-serif"
	}
	var extra string
	if st.Opacity < 1 {
		extra = fmt.Sprintf(` opacity="%s"`, num(st.Opacity))
	}
	if t.Comment {
		stroke := st.Stroke.Color
		if stroke == "" {
			stroke = "#000000"
		}
		sw.wf("%s<g id=\"shape-%d\"%s>\n", indent, t.ID, extra)
		sw.wf("%s  <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"20\" fill=\"none\" %s stroke-width=\"1\"/>\n",
			indent, num(b.Left-4), num(b.Top), num(b.Width()+8), paintAttr("stroke", stroke))
		sw.wf("%s  <text x=\"%s\" y=\"%s\" font-family=\"%s\" font-size=\"%s\" %s>%s</text>\n",
			indent, num(t.At.X), num(t.At.Y), escAttr(family), num(t.FontSize), paintAttr("fill", fill), escText(t.Content))
		sw.wf("%s</g>\n", indent)
		return nil
	}
	sw.wf("%s<text id=\"shape-%d\" x=\"%s\" y=\"%s\" font-family=\"%s\" font-size=\"%s\" %s%s>%s</text>\n",
		indent, t.ID, num(t.At.X), num(t.At.Y), escAttr(family), num(t.FontSize), paintAttr("fill", fill), extra, escText(t.Content))
	return nil
}

func (sw *svgWriter) image(v *vector.Image, indent string) error {
	b, err := sw.eng.Bounds(v)
	if err != nil {
		return err
	}
	var extra string
	if v.Style.Opacity < 1 {
		extra = fmt.Sprintf(` opacity="%s"`, num(v.Style.Opacity))
	}
	sw.wf("%s<image id=\"shape-%d\" x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" preserveAspectRatio=\"none\" xlink:href=\"%s\"%s/>\n",
		indent, v.ID, num(b.Left), num(b.Top), num(b.Width()), num(b.Height()), escAttr(v.Source), extra)
	return nil
}

// paint returns the attribute for p, emitting a gradient def when needed.
func (sw *svgWriter) paint(attr string, p vector.Paint, indent string) string {
	g := p.Gradient
	if g == nil || len(g.Colours) == 0 {
		return paintAttr(attr, p.Color)
	}
	if len(g.Colours) == 1 {
		return paintAttr(attr, g.Colours[0])
	}
	id := sw.nextID("grad")
	tag := "linearGradient"
	open := fmt.Sprintf(`<linearGradient id="%s" x1="0" y1="0" x2="1" y2="0">`, id)
	if g.Type == vector.GradientRadial {
		tag = "radialGradient"
		open = fmt.Sprintf(`<radialGradient id="%s" cx="0.5" cy="0.5" r="0.5">`, id)
	}
	sw.wf("%s<defs>%s", indent, open)
	for i, c := range g.Colours {
		col, err := vector.ParseColor(c)
		if err != nil {
			col = vector.Transparent
		}
		sw.wf("<stop offset=\"%s\" stop-color=\"%s\"", num(float64(i)/float64(len(g.Colours)-1)), svgColor(col))
		if col.A < 255 {
			sw.wf(" stop-opacity=\"%s\"", num(float64(col.A)/255))
		}
		sw.wf("/>")
	}
	sw.wf("</%s></defs>\n", tag)
	return fmt.Sprintf(`%s="url(#%s)"`, attr, id)
}

func (sw *svgWriter) shadow(sh *vector.Shadow, indent string) string {
	id := sw.nextID("shadow")
	col, err := vector.ParseColor(sh.Color)
	if err != nil {
		col = vector.Black
	}
	sw.wf("%s<defs><filter id=\"%s\" x=\"-50%%\" y=\"-50%%\" width=\"200%%\" height=\"200%%\"><feDropShadow dx=\"%s\" dy=\"%s\" stdDeviation=\"%s\" flood-color=\"%s\" flood-opacity=\"%s\"/></filter></defs>\n",
		indent, id, num(sh.OffsetX), num(sh.OffsetY), num(sh.Blur/2), svgColor(col), num(shadowAlpha(sh)*float64(col.A)/255))
	return id
}

// pathData renders outline commands as an SVG d attribute.
func pathData(cmds []vector.PathCmd) string {
	var sb strings.Builder
	for i, c := range cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			fmt.Fprintf(&sb, "M%s %s", num(d[0]), num(d[1]))
		case vector.LineTo:
			fmt.Fprintf(&sb, "L%s %s", num(d[0]), num(d[1]))
		case vector.QuadTo:
			fmt.Fprintf(&sb, "Q%s %s %s %s", num(d[0]), num(d[1]), num(d[2]), num(d[3]))
		case vector.CubicTo:
			fmt.Fprintf(&sb, "C%s %s %s %s %s %s", num(d[0]), num(d[1]), num(d[2]), num(d[3]), num(d[4]), num(d[5]))
		case vector.Close:
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}

// paintAttr formats a solid colour attribute plus its opacity when the
// colour carries alpha.
func paintAttr(attr, c string) string {
	col, err := vector.ParseColor(c)
	if err != nil || col.A == 0 {
		return fmt.Sprintf(`%s="none"`, attr)
	}
	if col.A < 255 {
		return fmt.Sprintf(`%s="%s" %s-opacity="%s"`, attr, svgColor(col), attr, num(float64(col.A)/255))
	}
	return fmt.Sprintf(`%s="%s"`, attr, svgColor(col))
}

func svgColor(c vector.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func num(v float64) string {
	v = vector.FloatRound(v, 3)
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
