/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"errors"
	"slices"
	"testing"

	"vecdraw/internal/vector"
)

func rect(id int64) *vector.Rectangle {
	return &vector.Rectangle{Base: vector.Base{ID: id, Style: vector.DefaultStyle()}, W: 10, H: 10}
}

func ids(list []vector.Shape) []int64 {
	out := make([]int64, len(list))
	for i, s := range list {
		out[i] = s.ShapeID()
	}
	return out
}

func seeded(t *testing.T, n int) *Store {
	t.Helper()
	s := New()
	for i := 1; i <= n; i++ {
		if err := s.Insert(rect(int64(i))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	return s
}

func TestInsert_AppendsAndRejectsDuplicates(t *testing.T) {
	s := seeded(t, 3)
	if got := ids(s.Shapes()); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Fatalf("unexpected order %v", got)
	}
	if err := s.Insert(rect(2)); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if id := s.NewID(); id != 4 {
		t.Fatalf("expected next id 4, got %d", id)
	}
}

func TestRemove_PrunesSelection(t *testing.T) {
	s := seeded(t, 3)
	s.SetSelection([]int64{1, 2})
	s.Remove(2, 99)
	if got := s.Selection(); !slices.Equal(got, []int64{1}) {
		t.Fatalf("expected selection [1], got %v", got)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 shapes, got %d", s.Len())
	}
}

func TestSelection_Operations(t *testing.T) {
	s := seeded(t, 5)
	s.Select(3)
	s.Toggle(1)
	if got := s.Selection(); !slices.Equal(got, []int64{1, 3}) {
		t.Fatalf("expected [1 3], got %v", got)
	}
	s.Toggle(3)
	s.Select(42)
	if got := s.Selection(); !slices.Equal(got, []int64{1}) {
		t.Fatalf("expected [1], got %v", got)
	}
	s.SelectRange(4, 2)
	if got := s.Selection(); !slices.Equal(got, []int64{2, 3, 4}) {
		t.Fatalf("expected [2 3 4], got %v", got)
	}
	s.Clear()
	if len(s.Selection()) != 0 {
		t.Fatalf("expected empty selection")
	}
}

func TestReorder_AdjacentPreservesRelativeOrder(t *testing.T) {
	s := seeded(t, 5)
	s.BringToFront([]int64{1, 2}, ZAdjacent)
	if got := ids(s.Shapes()); !slices.Equal(got, []int64{3, 1, 2, 4, 5}) {
		t.Fatalf("bring to front: got %v", got)
	}
	s.SendToBack([]int64{4, 5}, ZAdjacent)
	if got := ids(s.Shapes()); !slices.Equal(got, []int64{3, 1, 4, 5, 2}) {
		t.Fatalf("send to back: got %v", got)
	}
}

func TestReorder_Absolute(t *testing.T) {
	s := seeded(t, 5)
	s.BringToFront([]int64{4, 2}, ZAbsolute)
	if got := ids(s.Shapes()); !slices.Equal(got, []int64{1, 3, 5, 2, 4}) {
		t.Fatalf("bring to front: got %v", got)
	}
	s.SendToBack([]int64{5, 4}, ZAbsolute)
	if got := ids(s.Shapes()); !slices.Equal(got, []int64{5, 4, 1, 3, 2}) {
		t.Fatalf("send to back: got %v", got)
	}
}

func TestGroupUngroup_RoundTrip(t *testing.T) {
	s := seeded(t, 4)
	gid, ok := s.Group([]int64{3, 1})
	if !ok {
		t.Fatalf("expected group to succeed")
	}
	if got := ids(s.Shapes()); !slices.Equal(got, []int64{2, 4, gid}) {
		t.Fatalf("unexpected list after group: %v", got)
	}
	if got := s.Selection(); !slices.Equal(got, []int64{gid}) {
		t.Fatalf("expected group selected, got %v", got)
	}
	g, _ := s.Shape(gid)
	if got := ids(g.(*vector.Group).Children); !slices.Equal(got, []int64{1, 3}) {
		t.Fatalf("children out of order: %v", got)
	}
	s.Ungroup([]int64{gid})
	if got := ids(s.Shapes()); !slices.Equal(got, []int64{2, 4, 1, 3}) {
		t.Fatalf("unexpected list after ungroup: %v", got)
	}
	if len(s.Selection()) != 0 {
		t.Fatalf("ungroup should clear the selection")
	}
}

func TestGroup_NeedsTwoShapes(t *testing.T) {
	s := seeded(t, 2)
	if _, ok := s.Group([]int64{1, 77}); ok {
		t.Fatalf("group of one existing shape should be a no-op")
	}
	if s.Len() != 2 {
		t.Fatalf("scene changed by a rejected group")
	}
}

func TestUpdateStyle_SelectionOrActiveStyle(t *testing.T) {
	s := seeded(t, 2)
	width := 7.0
	s.UpdateStyle(vector.StylePatch{LineWidth: &width})
	if s.ActiveStyle().LineWidth != 7 {
		t.Fatalf("empty selection should patch the active style")
	}
	if sh, _ := s.Shape(1); sh.ShapeStyle().LineWidth == 7 {
		t.Fatalf("shapes must not change while nothing is selected")
	}

	bare := &vector.Line{Base: vector.Base{ID: 3, Style: vector.Style{LineWidth: 1, Opacity: 1}}, X2: 10}
	if err := s.Insert(bare); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Select(3)
	on := true
	s.UpdateStyle(vector.StylePatch{StrokeEnabled: &on})
	sh, _ := s.Shape(3)
	if st := sh.ShapeStyle(); !st.StrokeEnabled || st.Stroke.Color != s.ActiveStyle().Stroke.Color {
		t.Fatalf("enabling stroke should inherit the active colour, got %+v", st.Stroke)
	}
	if bare.Style.StrokeEnabled {
		t.Fatalf("the previous shape value was mutated")
	}
}

func TestMerge_PathsAndLines(t *testing.T) {
	s := New()
	p := &vector.Path{Base: vector.Base{ID: 1}, Segments: []vector.Segment{{Point: vector.Pt{X: 0, Y: 0}}, {Point: vector.Pt{X: 5, Y: 5}}}}
	l := &vector.Line{Base: vector.Base{ID: 2}, X1: 10, Y1: 10, X2: 20, Y2: 20}
	for _, sh := range []vector.Shape{p, rect(3), l} {
		if err := s.Insert(sh); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	s.SetSelection([]int64{1, 2, 3})
	id, ok := s.Merge(s.Selection())
	if !ok {
		t.Fatalf("expected merge")
	}
	if got := ids(s.Shapes()); !slices.Equal(got, []int64{3, id}) {
		t.Fatalf("unexpected list after merge: %v", got)
	}
	merged, _ := s.Shape(id)
	if n := len(merged.(*vector.Path).Segments); n != 4 {
		t.Fatalf("expected 4 merged points, got %d", n)
	}
	if len(s.Selection()) != 0 {
		t.Fatalf("merge should clear the selection")
	}
	if _, ok := s.Merge([]int64{3}); ok {
		t.Fatalf("merging only a rectangle should be a no-op")
	}
}

func TestMarkImageLoaded_Nested(t *testing.T) {
	s := New()
	img := &vector.Image{Base: vector.Base{ID: 2}, Position: vector.Pt{X: 50, Y: 50}, Source: "a.png"}
	if err := s.Insert(&vector.Group{Base: vector.Base{ID: 1}, Children: []vector.Shape{img, rect(3)}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !s.MarkImageLoaded(2, 40, 20) {
		t.Fatalf("expected the nested image to be found")
	}
	g, _ := s.Shape(1)
	got := g.(*vector.Group).Children[0].(*vector.Image)
	if !got.Loaded || got.Size != (vector.Size{W: 40, H: 20}) {
		t.Fatalf("unexpected image state: %+v", got)
	}
	if img.Loaded {
		t.Fatalf("the stored value was mutated in place")
	}
	if s.MarkImageLoaded(99, 1, 1) {
		t.Fatalf("unknown id should report false")
	}
}

func TestSubscribe_NotifiesOnMutation(t *testing.T) {
	s := New()
	calls := 0
	unsub := s.Subscribe(func() { calls++ })
	if err := s.Insert(rect(1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Select(1)
	s.Clear()
	s.Clear() // no change
	if calls != 3 {
		t.Fatalf("expected 3 notifications, got %d", calls)
	}
	unsub()
	s.Remove(1)
	if calls != 3 {
		t.Fatalf("listener still called after unsubscribe")
	}
}

func TestActiveTool(t *testing.T) {
	s := New()
	if s.ActiveTool() != ToolSelect {
		t.Fatalf("expected select tool by default")
	}
	s.SetActiveTool(ToolRect)
	if !s.ActiveTool().Creates() || ToolSelect.Creates() {
		t.Fatalf("unexpected Creates result")
	}
}

func TestPathEdit_ClearedWhenShapeRemoved(t *testing.T) {
	s := New()
	p := &vector.Path{Base: vector.Base{ID: 1}, Segments: []vector.Segment{{Point: vector.Pt{X: 1, Y: 1}}}}
	if err := s.Insert(p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if s.SetPathEdit(PathEdit{ShapeID: 1, Segment: 3, Handle: HandlePoint}) {
		t.Fatalf("out-of-range segment accepted")
	}
	if !s.SetPathEdit(PathEdit{ShapeID: 1, Segment: 0, Handle: HandleOut}) {
		t.Fatalf("expected edit to start")
	}
	s.Remove(1)
	if s.PathEdit().Active() {
		t.Fatalf("path edit should end with its shape")
	}
}
