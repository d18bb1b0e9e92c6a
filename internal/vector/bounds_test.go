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
	"testing"
)

// perRune measures every rune with the same advance.
type perRune float64

func (w perRune) MeasureText(content, _ string, _ float64) float64 {
	return float64(w) * float64(len([]rune(content)))
}

type alien struct{ Base }

func (*alien) Kind() Kind { return "alien" }

func TestBounds_Variants(t *testing.T) {
	e := Engine{Measure: perRune(10)}
	cases := []struct {
		name string
		s    Shape
		want Bounds
	}{
		{"rect", &Rectangle{X: 10, Y: 20, W: 30, H: 40}, Bounds{10, 20, 40, 60}},
		{"ellipse", &Ellipse{X: 0, Y: 0, RX: 10, RY: 5}, Bounds{0, 0, 20, 10}},
		{"line reversed", &Line{X1: 30, Y1: 5, X2: 10, Y2: 25}, Bounds{10, 5, 30, 25}},
		{"text", &Text{At: Pt{5, 40}, Content: "abc", FontSize: 16}, Bounds{5, 24, 35, 40}},
		{"image", &Image{Position: Pt{50, 50}, Size: Size{W: 20, H: 10}}, Bounds{40, 45, 60, 55}},
		{"path", &Path{Segments: []Segment{{Point: Pt{5, 9}}, {Point: Pt{-1, 3}}, {Point: Pt{4, 12}}}}, Bounds{-1, 3, 5, 12}},
	}
	for _, c := range cases {
		got, err := e.Bounds(c.s)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: expected %+v, got %+v", c.name, c.want, got)
		}
		again, _ := e.Bounds(c.s)
		if again != got {
			t.Fatalf("%s: bounds not idempotent: %+v vs %+v", c.name, got, again)
		}
	}
}

func TestBounds_LeftTopMatchBounds(t *testing.T) {
	var e Engine
	s := &Line{X1: 30, Y1: 5, X2: 10, Y2: 25}
	l, _ := e.Left(s)
	tp, _ := e.Top(s)
	if l != 10 || tp != 5 {
		t.Fatalf("expected left/top 10/5, got %v/%v", l, tp)
	}
}

func TestBounds_GroupSkipsUnreadyChildren(t *testing.T) {
	var e Engine
	g := &Group{Base: Base{ID: 1}, Children: []Shape{
		&Rectangle{Base: Base{ID: 2}, X: 0, Y: 0, W: 10, H: 10},
		&Image{Base: Base{ID: 3}, Position: Pt{500, 500}},
		&Rectangle{Base: Base{ID: 4}, X: 20, Y: 30, W: 10, H: 10},
	}}
	got, err := e.Bounds(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (Bounds{0, 0, 30, 40}); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestBounds_Errors(t *testing.T) {
	var e Engine
	if _, err := e.Bounds(&Path{}); !errors.Is(err, ErrEmptyGeometry) {
		t.Fatalf("empty path: expected ErrEmptyGeometry, got %v", err)
	}
	if _, err := e.Bounds(&Group{}); !errors.Is(err, ErrEmptyGeometry) {
		t.Fatalf("empty group: expected ErrEmptyGeometry, got %v", err)
	}
	img := &Image{Position: Pt{1, 1}}
	if _, err := e.Bounds(img); !errors.Is(err, ErrAssetNotReady) {
		t.Fatalf("unloaded image: expected ErrAssetNotReady, got %v", err)
	}
	if _, err := e.Bounds(&Group{Children: []Shape{img}}); !errors.Is(err, ErrAssetNotReady) {
		t.Fatalf("group of unready images: expected ErrAssetNotReady, got %v", err)
	}
	_, err := e.Bounds(&Group{Children: []Shape{&Rectangle{W: 1, H: 1}, &alien{}}})
	if !IsUnknownVariant(err) {
		t.Fatalf("alien child: expected unknown variant, got %v", err)
	}
	if Skippable(err) {
		t.Fatalf("unknown variant must not be skippable")
	}
}

func TestUnionBounds(t *testing.T) {
	var e Engine
	b, ok, err := e.UnionBounds([]Shape{
		&Rectangle{X: 0, Y: 0, W: 10, H: 10},
		&Path{},
		&Line{X1: 50, Y1: -5, X2: 60, Y2: 5},
	})
	if err != nil || !ok {
		t.Fatalf("unexpected result ok=%v err=%v", ok, err)
	}
	if want := (Bounds{0, -5, 60, 10}); b != want {
		t.Fatalf("expected %+v, got %+v", want, b)
	}
	if _, ok, _ := e.UnionBounds([]Shape{&Path{}}); ok {
		t.Fatalf("expected no contribution from an empty path")
	}
}
