/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"log/slog"
	"slices"

	"vecdraw/internal/vector"
)

// ZMode selects how BringToFront and SendToBack reorder.
type ZMode int

const (
	// ZAdjacent moves each selected shape one slot past its unselected neighbour.
	ZAdjacent ZMode = iota
	// ZAbsolute moves the whole selection to the top or bottom.
	ZAbsolute
)

// mergeStroke is the outline colour of a merged path.
const mergeStroke = "#2c3e50"

// BringToFront raises the shapes in ids. The relative order among them is kept.
func (s *Store) BringToFront(ids []int64, mode ZMode) {
	s.reorder(ids, mode, true)
}

// SendToBack lowers the shapes in ids. The relative order among them is kept.
func (s *Store) SendToBack(ids []int64, mode ZMode) {
	s.reorder(ids, mode, false)
}

func (s *Store) reorder(ids []int64, mode ZMode, front bool) {
	s.mutate(func() bool {
		sel := idSet(ids)
		list := slices.Clone(s.shapes)
		picked := func(i int) bool {
			_, ok := sel[list[i].ShapeID()]
			return ok
		}
		if mode == ZAbsolute {
			var in, out []vector.Shape
			for i, sh := range list {
				if picked(i) {
					in = append(in, sh)
				} else {
					out = append(out, sh)
				}
			}
			if len(in) == 0 {
				return false
			}
			if front {
				list = append(out, in...)
			} else {
				list = append(in, out...)
			}
		} else if front {
			for i := len(list) - 2; i >= 0; i-- {
				if picked(i) && !picked(i+1) {
					list[i], list[i+1] = list[i+1], list[i]
				}
			}
		} else {
			for i := 1; i < len(list); i++ {
				if picked(i) && !picked(i-1) {
					list[i], list[i-1] = list[i-1], list[i]
				}
			}
		}
		if slices.Equal(list, s.shapes) {
			return false
		}
		s.setShapesLocked(list)
		return true
	})
}

// Group wraps at least two top-level shapes into a new group placed on top
// of the z-order. The children keep their relative order and the selection
// becomes the new group. ok is false when fewer than two ids resolve.
func (s *Store) Group(ids []int64) (id int64, ok bool) {
	s.mutate(func() bool {
		sel := idSet(ids)
		var children, rest []vector.Shape
		for _, sh := range s.shapes {
			if _, in := sel[sh.ShapeID()]; in {
				children = append(children, sh)
			} else {
				rest = append(rest, sh)
			}
		}
		if len(children) < 2 {
			return false
		}
		id = s.nextID
		s.nextID++
		g := &vector.Group{Base: vector.Base{ID: id, Style: vector.DefaultStyle()}, Children: children}
		s.setShapesLocked(append(rest, g))
		s.selection = map[int64]struct{}{id: {}}
		ok = true
		return true
	})
	if ok {
		s.logger("group").Debug("grouped shapes", slog.Int64("group", id), slog.Int("children", len(ids)))
	}
	return id, ok
}

// Ungroup splices the children of every group in ids back into the top
// level at the group's position and clears the selection.
func (s *Store) Ungroup(ids []int64) {
	s.mutate(func() bool {
		sel := idSet(ids)
		list := make([]vector.Shape, 0, len(s.shapes))
		changed := false
		for _, sh := range s.shapes {
			g, isGroup := sh.(*vector.Group)
			if _, in := sel[sh.ShapeID()]; in && isGroup {
				list = append(list, g.Children...)
				changed = true
				continue
			}
			list = append(list, sh)
		}
		if !changed {
			return false
		}
		s.setShapesLocked(list)
		s.selection = make(map[int64]struct{})
		return true
	})
}

// Merge joins the selected paths and lines, in z-order, into one open path
// placed on top. The sources are removed and the selection cleared. Shapes of
// other kinds stay where they are.
func (s *Store) Merge(ids []int64) (id int64, ok bool) {
	s.mutate(func() bool {
		sel := idSet(ids)
		var (
			segs []vector.Segment
			rest []vector.Shape
		)
		for _, sh := range s.shapes {
			if _, in := sel[sh.ShapeID()]; !in {
				rest = append(rest, sh)
				continue
			}
			switch v := sh.(type) {
			case *vector.Path:
				c := vector.Clone(v).(*vector.Path)
				segs = append(segs, c.Segments...)
			case *vector.Line:
				segs = append(segs, vector.Segment{Point: vector.Pt{X: v.X1, Y: v.Y1}}, vector.Segment{Point: vector.Pt{X: v.X2, Y: v.Y2}})
			default:
				rest = append(rest, sh)
			}
		}
		if len(segs) == 0 {
			return false
		}
		id = s.nextID
		s.nextID++
		st := vector.DefaultStyle()
		st.FillEnabled = false
		st.StrokeEnabled = true
		st.Stroke = vector.Solid(mergeStroke)
		st.LineWidth = 2
		s.setShapesLocked(append(rest, &vector.Path{Base: vector.Base{ID: id, Style: st}, Segments: segs}))
		s.selection = make(map[int64]struct{})
		ok = true
		return true
	})
	return id, ok
}
