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
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fogleman/gg"

	"vecdraw/internal/vector"
)

type alien struct{ vector.Base }

func (*alien) Kind() vector.Kind { return "alien" }

func filled(c string) vector.Style {
	st := vector.DefaultStyle()
	st.Fill = vector.Solid(c)
	st.Shadow = nil
	return st
}

func sampleScene() []vector.Shape {
	stroke := vector.DefaultStyle()
	stroke.StrokeEnabled = true
	stroke.Stroke = vector.Solid("#2c3e50")

	grad := filled("")
	grad.Fill = vector.Paint{Gradient: &vector.Gradient{Type: vector.GradientLinear, Colours: []string{"#ff0000", "#0000ff"}}}

	shadow := filled("#00ff00")
	shadow.Shadow = &vector.Shadow{OffsetX: 3, OffsetY: 3, Blur: 4, Color: "#000000", Opacity: 0.5}

	return []vector.Shape{
		&vector.Rectangle{Base: vector.Base{ID: 1, Style: filled("#ff0000")}, X: 10, Y: 10, W: 100, H: 50},
		&vector.Ellipse{Base: vector.Base{ID: 2, Style: grad}, X: 120, Y: 10, RX: 30, RY: 20},
		&vector.Line{Base: vector.Base{ID: 3, Style: stroke}, X1: 0, Y1: 100, X2: 200, Y2: 100},
		&vector.Text{Base: vector.Base{ID: 4, Style: filled("#000000")}, At: vector.Pt{X: 20, Y: 150}, Content: "a<b & c", FontSize: 16},
		&vector.Text{Base: vector.Base{ID: 5, Style: filled("#000000")}, At: vector.Pt{X: 20, Y: 190}, Content: "note", FontSize: 16, Comment: true},
		&vector.Group{Base: vector.Base{ID: 6, Style: vector.DefaultStyle()}, Children: []vector.Shape{
			&vector.Rectangle{Base: vector.Base{ID: 7, Style: shadow}, X: 150, Y: 150, W: 20, H: 20},
		}},
		&vector.Path{Base: vector.Base{ID: 8, Style: stroke}},
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sampleScene(), Options{Width: 300, Height: 220, Background: "#ffffff"}); err != nil {
		t.Fatalf("write svg: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`width="300" height="220"`,
		`<path id="shape-1" d="M10 10 L110 10 L110 60 L10 60 Z" fill="#ff0000" stroke="none"/>`,
		`<linearGradient id="grad1"`,
		`fill="url(#grad1)"`,
		`<path id="shape-3" d="M0 100 L200 100" fill="none" stroke="#2c3e50" stroke-width="2"/>`,
		`a&lt;b &amp; c</text>`,
		`<g id="shape-5">`,
		`<g id="shape-6">`,
		`feDropShadow dx="3" dy="3" stdDeviation="2"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, `id="shape-8"`) {
		t.Fatalf("empty path should be skipped")
	}
	if !strings.HasSuffix(out, "</svg>\n") {
		t.Fatalf("svg not closed")
	}
}

func TestWriteSVGUnknownVariant(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSVG(&buf, []vector.Shape{&alien{vector.Base{ID: 1}}}, Options{})
	if !errors.Is(err, vector.ErrUnknownShapeVariant) {
		t.Fatalf("expected unknown variant, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written on failure")
	}
}

func TestPageSize(t *testing.T) {
	var o Options
	w, h := o.pageSize(vector.Engine{}, nil)
	if w != 800 || h != 600 {
		t.Fatalf("empty scene page: %dx%d", w, h)
	}
	shapes := []vector.Shape{&vector.Rectangle{Base: vector.Base{ID: 1, Style: filled("#000")}, X: 0, Y: 0, W: 120.2, H: 40}}
	w, h = o.pageSize(vector.Engine{}, shapes)
	if w != 121 || h != 40 {
		t.Fatalf("fitted page: %dx%d", w, h)
	}
	o.Height = 500
	if _, h = o.pageSize(vector.Engine{}, shapes); h != 500 {
		t.Fatalf("explicit height ignored: %d", h)
	}
}

func writeBitmap(t *testing.T, path string) {
	t.Helper()
	dc := gg.NewContext(4, 4)
	dc.SetColor(color.NRGBA{R: 0, G: 0, B: 255, A: 255})
	dc.Clear()
	if err := dc.SavePNG(path); err != nil {
		t.Fatalf("save bitmap: %v", err)
	}
}

func TestExportPDF(t *testing.T) {
	dir := t.TempDir()
	writeBitmap(t, filepath.Join(dir, "dot.png"))
	shapes := append(sampleScene(), &vector.Image{
		Base:     vector.Base{ID: 9, Style: vector.DefaultStyle()},
		Position: vector.Pt{X: 250, Y: 50},
		Size:     vector.Size{W: 20, H: 20},
		Source:   "dot.png",
	})
	out := filepath.Join(dir, "out", "scene.pdf")
	if err := ExportPDF(out, shapes, Options{ImageRoot: dir}); err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("not a pdf")
	}
}

func TestWritePDFUnknownVariant(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, []vector.Shape{&alien{vector.Base{ID: 1}}}, Options{}); !errors.Is(err, vector.ErrUnknownShapeVariant) {
		t.Fatalf("expected unknown variant, got %v", err)
	}
}

func TestExportPNG(t *testing.T) {
	dir := t.TempDir()
	writeBitmap(t, filepath.Join(dir, "dot.png"))
	shapes := []vector.Shape{
		&vector.Rectangle{Base: vector.Base{ID: 1, Style: filled("#ff0000")}, X: 0, Y: 0, W: 20, H: 20},
		&vector.Image{Base: vector.Base{ID: 2, Style: vector.DefaultStyle()}, Position: vector.Pt{X: 30, Y: 30}, Source: "dot.png"},
	}
	out := filepath.Join(dir, "scene.png")
	if err := ExportPNG(out, shapes, Options{Width: 40, Height: 40, Background: "#ffffff", ImageRoot: dir}); err != nil {
		t.Fatalf("export png: %v", err)
	}
	img, err := gg.LoadImage(out)
	if err != nil {
		t.Fatalf("load png: %v", err)
	}
	if r, g, b, _ := img.At(10, 10).RGBA(); r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Fatalf("rect pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := img.At(30, 30).RGBA(); r>>8 != 0 || g>>8 != 0 || b>>8 != 255 {
		t.Fatalf("image pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
	if r, _, _, _ := img.At(5, 35).RGBA(); r>>8 != 255 {
		t.Fatalf("background pixel not white")
	}
}

func TestJSONFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scene.json")
	in := sampleScene()
	if err := ExportJSON(path, in); err != nil {
		t.Fatalf("export json: %v", err)
	}
	out, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("import json: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d shapes, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i].ShapeID() != out[i].ShapeID() || in[i].Kind() != out[i].Kind() {
			t.Fatalf("shape %d: got %d/%s", i, out[i].ShapeID(), out[i].Kind())
		}
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, out); err != nil {
		t.Fatalf("write json: %v", err)
	}
	data, _ := os.ReadFile(path)
	if buf.String() != string(data) {
		t.Fatalf("re-encoded scene differs")
	}
}
