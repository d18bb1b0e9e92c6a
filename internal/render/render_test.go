/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vecdraw/internal/scene"
	"vecdraw/internal/vector"
)

func rgb(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func filled(id int64, x, y, w, h float64, fill string) *vector.Rectangle {
	st := vector.DefaultStyle()
	st.Fill = vector.Solid(fill)
	return &vector.Rectangle{Base: vector.Base{ID: id, Style: st}, X: x, Y: y, W: w, H: h}
}

type alien struct{ vector.Base }

func (*alien) Kind() vector.Kind { return "alien" }

func TestRender_FillsInZOrder(t *testing.T) {
	r := New(Options{Width: 50, Height: 50})
	img, err := r.Render([]vector.Shape{
		filled(1, 10, 10, 20, 20, "#ff0000"),
		filled(2, 20, 20, 20, 20, "#0000ff"),
	}, Decorations{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if cr, cg, cb := rgb(img, 15, 15); cr != 255 || cg != 0 || cb != 0 {
		t.Fatalf("expected red at (15,15), got %d,%d,%d", cr, cg, cb)
	}
	if cr, _, cb := rgb(img, 25, 25); cr != 0 || cb != 255 {
		t.Fatalf("expected the front shape (blue) at (25,25), got r=%d b=%d", cr, cb)
	}
	if cr, cg, cb := rgb(img, 5, 5); cr != 255 || cg != 255 || cb != 255 {
		t.Fatalf("expected white background, got %d,%d,%d", cr, cg, cb)
	}
}

func TestRender_Opacity(t *testing.T) {
	r := New(Options{Width: 20, Height: 20})
	s := filled(1, 0, 0, 20, 20, "#ff0000")
	s.Style.Opacity = 0.5
	img, _ := r.Render([]vector.Shape{s}, Decorations{})
	cr, cg, _ := rgb(img, 10, 10)
	if cr != 255 || cg < 120 || cg > 135 {
		t.Fatalf("expected half-transparent red over white, got r=%d g=%d", cr, cg)
	}
}

func TestRender_LinearGradient(t *testing.T) {
	r := New(Options{Width: 100, Height: 10})
	s := filled(1, 0, 0, 100, 10, "")
	s.Style.Fill = vector.Paint{Gradient: &vector.Gradient{Type: vector.GradientLinear, Colours: []string{"#000000", "#ffffff"}}}
	img, err := r.Render([]vector.Shape{s}, Decorations{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	left, _, _ := rgb(img, 10, 5)
	right, _, _ := rgb(img, 90, 5)
	if left >= right {
		t.Fatalf("expected the gradient to brighten to the right, got %d vs %d", left, right)
	}
}

func TestRender_SkipsEmptyButFailsOnUnknown(t *testing.T) {
	r := New(Options{Width: 10, Height: 10})
	if _, err := r.Render([]vector.Shape{&vector.Path{Base: vector.Base{ID: 1}}, &vector.Image{Base: vector.Base{ID: 2}}}, Decorations{}); err != nil {
		t.Fatalf("empty and unready shapes should be skipped, got %v", err)
	}
	if _, err := r.Render([]vector.Shape{&alien{}}, Decorations{}); !vector.IsUnknownVariant(err) {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
}

func TestRender_GroupChildFailureLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	r := New(Options{Width: 10, Height: 10})
	r.log = slog.New(slog.NewTextHandler(&buf, nil))
	g := &vector.Group{Base: vector.Base{ID: 5}, Children: []vector.Shape{
		&vector.Path{Base: vector.Base{ID: 6}},
		&alien{},
	}}
	if _, err := r.Render([]vector.Shape{g}, Decorations{}); !vector.IsUnknownVariant(err) {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
	if n := strings.Count(buf.String(), "render failed"); n != 1 {
		t.Fatalf("expected one error record, got %d:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "skipping shape with empty geometry") {
		t.Fatalf("empty child should still be logged as skipped:\n%s", buf.String())
	}
}

func TestRender_SelectionHandles(t *testing.T) {
	r := New(Options{Width: 50, Height: 50})
	shapes := []vector.Shape{filled(1, 10, 10, 20, 20, "#ff0000")}
	plain, _ := r.Render(shapes, Decorations{})
	if cr, cg, _ := rgb(plain, 10, 10); cr != 255 || cg != 0 {
		t.Fatalf("expected red corner without selection, got r=%d g=%d", cr, cg)
	}
	sel, _ := r.Render(shapes, Decorations{Selection: []int64{1}, HandleSize: 8})
	if cr, cg, cb := rgb(sel, 10, 10); cr != 255 || cg != 255 || cb != 255 {
		t.Fatalf("expected a white handle at the corner, got %d,%d,%d", cr, cg, cb)
	}
	if got := dimensionLabel(vector.B(10, 10, 30, 30)); got != "20 × 20" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestRender_Marquee(t *testing.T) {
	r := New(Options{Width: 40, Height: 40})
	m := vector.B(5, 5, 35, 35)
	img, _ := r.Render(nil, Decorations{Marquee: &m})
	cr, _, cb := rgb(img, 20, 20)
	if cr == 255 || cr >= cb {
		t.Fatalf("expected a light blue marquee fill, got r=%d b=%d", cr, cb)
	}
}

func TestImageCache_PreloadAndDraw(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			src.Set(x, y, color.NRGBA{0, 0, 255, 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "blue.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	st := scene.New()
	if err := st.Insert(&vector.Image{Base: vector.Base{ID: 1}, Position: vector.Pt{X: 25, Y: 25}, Size: vector.Size{W: 20, H: 20}, Source: "blue.png"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Insert(&vector.Image{Base: vector.Base{ID: 2}, Source: "missing.png"}); err != nil {
		t.Fatal(err)
	}
	cache := NewImageCache(dir)
	if n := cache.Preload(st); n != 1 {
		t.Fatalf("expected 1 image loaded, got %d", n)
	}
	img, err := New(Options{Width: 50, Height: 50, Images: cache}).Render(st.Shapes(), Decorations{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if cr, _, cb := rgb(img, 25, 25); cr != 0 || cb != 255 {
		t.Fatalf("expected the bitmap drawn at its centre, got r=%d b=%d", cr, cb)
	}
}

func TestLive_RedrawsOnStoreChange(t *testing.T) {
	st := scene.New()
	lv := New(Options{Width: 20, Height: 20}).Attach(st, nil)
	defer lv.Close()
	if lv.Frames() != 1 {
		t.Fatalf("expected an initial frame, got %d", lv.Frames())
	}
	if err := st.Insert(filled(1, 0, 0, 20, 20, "#00ff00")); err != nil {
		t.Fatal(err)
	}
	img, err := lv.Image()
	if err != nil || lv.Frames() != 2 {
		t.Fatalf("expected a second frame, got %d (err %v)", lv.Frames(), err)
	}
	if _, cg, _ := rgb(img, 10, 10); cg != 255 {
		t.Fatalf("expected the new shape in the live frame")
	}
}
