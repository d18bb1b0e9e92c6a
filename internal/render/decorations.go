/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"vecdraw/internal/vector"
)

var (
	selectionBlue = color.NRGBA{0x34, 0x98, 0xdb, 0xff}
	marqueeFill   = color.NRGBA{12, 140, 233, 26}
	marqueeStroke = color.NRGBA{0x0c, 0x8c, 0xe9, 0xff}
	guideColor    = color.NRGBA{0xff, 0x00, 0xff, 0xff}
)

func (r *Renderer) decorate(dc *gg.Context, shapes []vector.Shape, d Decorations) error {
	hs := d.HandleSize
	if hs <= 0 {
		hs = 8
	}
	selected := make(map[int64]bool, len(d.Selection))
	var sel []vector.Shape
	for _, id := range d.Selection {
		selected[id] = true
	}
	for _, s := range shapes {
		if selected[s.ShapeID()] {
			sel = append(sel, s)
		}
	}

	if d.Hover != 0 && !selected[d.Hover] {
		if i := vector.IndexOf(shapes, d.Hover); i >= 0 {
			b, err := r.engine.Bounds(shapes[i])
			if err != nil && !vector.Skippable(err) {
				return err
			}
			if err == nil {
				dc.SetDash()
				dc.SetLineWidth(1)
				dc.SetColor(selectionBlue)
				dc.DrawRectangle(b.Left, b.Top, b.Width(), b.Height())
				dc.Stroke()
			}
		}
	}

	if len(sel) > 0 {
		b, ok, err := r.engine.UnionBounds(sel)
		if err != nil {
			return err
		}
		if ok {
			drawSelectionBox(dc, b, hs)
		}
	}

	if m := d.Marquee; m != nil {
		dc.SetDash()
		dc.DrawRectangle(m.Left, m.Top, m.Width(), m.Height())
		dc.SetColor(marqueeFill)
		dc.FillPreserve()
		dc.SetColor(marqueeStroke)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	for _, g := range d.Guides {
		dc.SetDash()
		dc.SetLineWidth(1)
		dc.SetColor(guideColor)
		dc.DrawLine(g.From.X, g.From.Y, g.To.X, g.To.Y)
		dc.Stroke()
	}
	return nil
}

// drawSelectionBox draws the dashed box, four corner handles and a W x H label.
func drawSelectionBox(dc *gg.Context, b vector.Bounds, hs float64) {
	dc.SetDash(4, 2)
	dc.SetLineWidth(1)
	dc.SetColor(selectionBlue)
	dc.DrawRectangle(b.Left, b.Top, b.Width(), b.Height())
	dc.Stroke()
	dc.SetDash()

	for _, h := range vector.Handles {
		c := b.Corner(h)
		dc.DrawRectangle(c.X-hs/2, c.Y-hs/2, hs, hs)
		dc.SetColor(color.White)
		dc.FillPreserve()
		dc.SetColor(selectionBlue)
		dc.Stroke()
	}

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(selectionBlue)
	dc.DrawString(dimensionLabel(b), b.Left, b.Top-hs/2-4)
}

func dimensionLabel(b vector.Bounds) string {
	return fmt.Sprintf("%d × %d", int(math.Round(b.Width())), int(math.Round(b.Height())))
}
