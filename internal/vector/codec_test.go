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
	"reflect"
	"strings"
	"testing"
)

func sampleScene() []Shape {
	st := DefaultStyle()
	grad := st.Clone()
	grad.Fill = Paint{Gradient: &Gradient{Type: GradientLinear, Colours: []string{"#ffffff", "#000000"}}}
	grad.Radius = 6
	return []Shape{
		&Rectangle{Base: Base{ID: 1, Style: grad}, X: 1, Y: 2, W: 30, H: 40},
		&Ellipse{Base: Base{ID: 2, Style: st}, X: 5, Y: 6, RX: 7, RY: 8},
		&Path{Base: Base{ID: 3, Style: st}, Segments: []Segment{
			{Point: Pt{0, 0}, HandleOut: &Pt{3, 0}},
			{Point: Pt{10, 10}, HandleIn: &Pt{-3, 0}},
		}, Closed: true},
		&Group{Base: Base{ID: 4, Style: st}, Children: []Shape{
			&Line{Base: Base{ID: 5, Style: st}, X1: 1, Y1: 1, X2: 9, Y2: 9},
			&Text{Base: Base{ID: 6, Style: st}, At: Pt{3, 20}, Content: "note", FontSize: 16, Comment: true},
		}},
		&Image{Base: Base{ID: 7, Style: st}, Position: Pt{50, 50}, Size: Size{W: 20, H: 10}, Source: "cat.png"},
	}
}

func TestScene_RoundTrip(t *testing.T) {
	in := sampleScene()
	data, err := MarshalScene(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type": "comment"`) {
		t.Fatalf("comment kind missing from output:\n%s", data)
	}
	out, err := UnmarshalScene(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip differs:\nin  %#v\nout %#v", in, out)
	}
}

func TestUnmarshalScene_LegacyForms(t *testing.T) {
	data := []byte(`[
	  {"id":1,"type":"pen","points":[{"x":1,"y":2},{"x":3,"y":4}],"style":{"stroke":"#ff0000","strokeWidth":3}},
	  {"id":2,"type":"rectangle","topLeft":{"x":5,"y":6},"size":{"width":10,"height":20},"radius":4},
	  {"id":3,"type":"ellipse","center":{"x":50,"y":50},"radius":{"width":10,"height":5}},
	  {"id":4,"type":"text","x":1,"y":30,"text":"hi","style":{"alpha":0.5,"shadowColor":"#333333","shadowOffset":{"x":2,"y":3}}},
	  {"id":5,"type":"image","src":"a.png","x":0,"y":0,"w":20,"h":10}
	]`)
	shapes, err := UnmarshalScene(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := shapes[0].(*Path)
	if len(p.Segments) != 2 || p.Style.LineWidth != 3 || !p.Style.StrokeEnabled || p.Style.FillEnabled || p.Style.Opacity != 1 {
		t.Fatalf("unexpected pen: %+v", p)
	}
	r := shapes[1].(*Rectangle)
	if r.X != 5 || r.Y != 6 || r.W != 10 || r.H != 20 || r.Style.Radius != 4 {
		t.Fatalf("unexpected rectangle: %+v", r)
	}
	e := shapes[2].(*Ellipse)
	if e.X != 40 || e.Y != 45 || e.RX != 10 || e.RY != 5 {
		t.Fatalf("unexpected ellipse: %+v", e)
	}
	tx := shapes[3].(*Text)
	if tx.Content != "hi" || tx.At != (Pt{1, 30}) || tx.FontSize != 16 || tx.Style.Opacity != 0.5 {
		t.Fatalf("unexpected text: %+v", tx)
	}
	if sh := tx.Style.Shadow; sh == nil || sh.Color != "#333333" || sh.OffsetX != 2 || sh.OffsetY != 3 {
		t.Fatalf("unexpected legacy shadow: %+v", sh)
	}
	img := shapes[4].(*Image)
	if img.Source != "a.png" || img.Position != (Pt{10, 5}) || img.Size != (Size{W: 20, H: 10}) {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestUnmarshalScene_GradientFill(t *testing.T) {
	shapes, err := UnmarshalScene([]byte(`[{"id":1,"type":"rect","x":0,"y":0,"w":1,"h":1,"style":{"fill":{"type":"radial","colours":["#fff","#000"]}}}]`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	st := shapes[0].ShapeStyle()
	if st.Fill.Gradient == nil || st.Fill.Gradient.Type != GradientRadial || !st.FillEnabled {
		t.Fatalf("expected an enabled radial gradient fill, got %+v", st.Fill)
	}
}

func TestUnmarshalScene_Errors(t *testing.T) {
	_, err := UnmarshalScene([]byte(`[{"id":1,"type":"group","children":[{"id":1,"type":"rect"}]}]`))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	_, err = UnmarshalScene([]byte(`[{"id":1,"type":"star"}]`))
	if !errors.Is(err, ErrUnknownShapeVariant) {
		t.Fatalf("expected ErrUnknownShapeVariant, got %v", err)
	}
	if _, err := UnmarshalScene([]byte(`{"id":1}`)); err == nil {
		t.Fatalf("expected an error for a non-array document")
	}
	if _, err := MarshalScene([]Shape{&alien{}}); !IsUnknownVariant(err) {
		t.Fatalf("expected unknown variant on marshal, got %v", err)
	}
}
