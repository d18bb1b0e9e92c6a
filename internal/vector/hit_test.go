/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func rect(id int64, x, y, w, h float64) *Rectangle {
	return &Rectangle{Base: Base{ID: id, Style: DefaultStyle()}, X: x, Y: y, W: w, H: h}
}

func TestFindShape_TopmostWins(t *testing.T) {
	var e Engine
	shapes := []Shape{rect(1, 0, 0, 10, 10), rect(2, 0, 0, 10, 10)}
	got, err := e.FindShape(Pt{5, 5}, shapes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ShapeID() != 2 {
		t.Fatalf("expected shape 2 on top, got %v", got)
	}
}

func TestFindShape_TopHaloBeatsBackExactHit(t *testing.T) {
	var e Engine
	back := rect(1, 0, 0, 100, 100)
	// 6 units from the click: outside the exact tolerance, inside the halo
	top := &Line{Base: Base{ID: 2, Style: DefaultStyle()}, X1: 0, Y1: 56, X2: 100, Y2: 56}
	shapes := []Shape{back, top}
	if ok, _ := e.Contains(Pt{50, 50}, top); ok {
		t.Fatalf("expected no exact hit on the line")
	}
	got, err := e.FindShape(Pt{50, 50}, shapes)
	if err != nil {
		t.Fatalf("FindShape: %v", err)
	}
	if got == nil || got.ShapeID() != 2 {
		t.Fatalf("expected the topmost line 2, got %v", got)
	}
	got, _ = e.FindShape(Pt{50, 20}, shapes)
	if got == nil || got.ShapeID() != 1 {
		t.Fatalf("expected the back rect away from the line, got %v", got)
	}
	got, _ = e.FindShape(Pt{150, 150}, shapes)
	if got != nil {
		t.Fatalf("expected a miss, got %v", got.ShapeID())
	}
}

func TestFindShape_LineHalo(t *testing.T) {
	var e Engine
	l := &Line{Base: Base{ID: 7, Style: DefaultStyle()}, X1: 0, Y1: 0, X2: 100, Y2: 0}
	if ok, _ := e.Contains(Pt{50, 5}, l); !ok {
		t.Fatalf("expected an exact hit within tolerance")
	}
	if ok, _ := e.Contains(Pt{50, 9}, l); ok {
		t.Fatalf("expected no exact hit at distance 9")
	}
	if got, _ := e.FindShape(Pt{50, 9}, []Shape{l}); got == nil {
		t.Fatalf("expected a halo hit at distance 9")
	}
	if got, _ := e.FindShape(Pt{50, 12}, []Shape{l}); got != nil {
		t.Fatalf("expected a miss at distance 12")
	}
}

func TestContains_Variants(t *testing.T) {
	var e Engine
	el := &Ellipse{X: 0, Y: 0, RX: 10, RY: 5}
	if ok, _ := e.Contains(Pt{10, 5}, el); !ok {
		t.Fatalf("ellipse centre should hit")
	}
	if ok, _ := e.Contains(Pt{1, 1}, el); ok {
		t.Fatalf("ellipse box corner should miss")
	}
	tri := &Path{
		Base:     Base{Style: DefaultStyle()},
		Segments: []Segment{{Point: Pt{0, 0}}, {Point: Pt{100, 0}}, {Point: Pt{0, 100}}},
		Closed:   true,
	}
	if ok, _ := e.Contains(Pt{20, 20}, tri); !ok {
		t.Fatalf("filled closed path should hit inside")
	}
	open := Clone(tri).(*Path)
	open.Closed = false
	if ok, _ := e.Contains(Pt{20, 20}, open); ok {
		t.Fatalf("open path should not hit inside")
	}
	if ok, _ := e.Contains(Pt{3, 97}, open); !ok {
		t.Fatalf("open path should hit near a vertex")
	}
	img := &Image{Position: Pt{0, 0}}
	if ok, err := e.Contains(Pt{0, 0}, img); ok || err != nil {
		t.Fatalf("unready image should never hit, got %v %v", ok, err)
	}
	if _, err := e.Contains(Pt{0, 0}, &alien{}); !IsUnknownVariant(err) {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
}

func TestFindShape_SkipsEmptyAndUnready(t *testing.T) {
	var e Engine
	shapes := []Shape{rect(1, 0, 0, 10, 10), &Path{Base: Base{ID: 2}}, &Image{Base: Base{ID: 3}}}
	got, err := e.FindShape(Pt{5, 5}, shapes)
	if err != nil || got == nil || got.ShapeID() != 1 {
		t.Fatalf("expected shape 1, got %v err=%v", got, err)
	}
}

func TestIntersecting(t *testing.T) {
	var e Engine
	shapes := []Shape{rect(1, 0, 0, 10, 10), rect(2, 50, 50, 10, 10), rect(3, 8, 8, 4, 4)}
	ids, err := e.Intersecting(Pt{12, 12}, Pt{5, 5}, shapes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("expected [1 3], got %v", ids)
	}
}
