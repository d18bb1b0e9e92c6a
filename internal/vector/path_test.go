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

func countOps(cmds []PathCmd, op PathOp) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestOutline_Rectangle(t *testing.T) {
	cmds, err := Outline(rect(1, 0, 0, 10, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 5 || cmds[0].Op != MoveTo || cmds[4].Op != Close {
		t.Fatalf("unexpected rectangle outline: %+v", cmds)
	}
	r := rect(1, 0, 0, 10, 20)
	r.Style.Radius = 4
	rounded, _ := Outline(r)
	if countOps(rounded, QuadTo) != 4 {
		t.Fatalf("expected 4 rounded corners, got %d", countOps(rounded, QuadTo))
	}
}

func TestOutline_EllipseAndLine(t *testing.T) {
	cmds, _ := Outline(&Ellipse{X: 0, Y: 0, RX: 10, RY: 5})
	if countOps(cmds, CubicTo) != 4 {
		t.Fatalf("expected 4 cubic arcs, got %d", countOps(cmds, CubicTo))
	}
	if cmds[0].Data[0] != 20 || cmds[0].Data[1] != 5 {
		t.Fatalf("ellipse should start at its right extreme, got %v", cmds[0].Data)
	}
	line, _ := Outline(&Line{X1: 1, Y1: 2, X2: 3, Y2: 4})
	if len(line) != 2 || line[1].Data[0] != 3 || line[1].Data[1] != 4 {
		t.Fatalf("unexpected line outline: %+v", line)
	}
}

func TestOutline_PathHandles(t *testing.T) {
	p := &Path{Segments: []Segment{
		{Point: Pt{0, 0}, HandleOut: &Pt{5, 0}},
		{Point: Pt{10, 10}},
		{Point: Pt{20, 10}},
	}, Closed: true}
	cmds, err := Outline(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countOps(cmds, CubicTo) != 1 || countOps(cmds, LineTo) != 2 || cmds[len(cmds)-1].Op != Close {
		t.Fatalf("unexpected path outline: %+v", cmds)
	}
	if c := cmds[1].Data; c[0] != 5 || c[1] != 0 {
		t.Fatalf("handle should be an offset from its point, got %v", c)
	}
}

func TestOutline_NoOutlineVariants(t *testing.T) {
	for _, s := range []Shape{&Text{}, &Image{}, &Group{}} {
		cmds, err := Outline(s)
		if err != nil || cmds != nil {
			t.Fatalf("%T: expected nil outline, got %v %v", s, cmds, err)
		}
	}
	if _, err := Outline(&Path{}); !errors.Is(err, ErrEmptyGeometry) {
		t.Fatalf("expected ErrEmptyGeometry, got %v", err)
	}
}
