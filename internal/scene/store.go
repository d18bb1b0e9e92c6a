/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene holds the single mutable document of the editor: the ordered
// shape list, the selection, the active style for new shapes and the active
// tool. Every mutation swaps in a new list and then notifies subscribers.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	applog "vecdraw/internal/log"
	"vecdraw/internal/vector"
)

// Tool is the active creation or selection tool.
type Tool string

const (
	ToolSelect  Tool = "select"
	ToolPen     Tool = "pen"
	ToolRect    Tool = "rect"
	ToolLine    Tool = "line"
	ToolEllipse Tool = "ellipse"
	ToolText    Tool = "text"
	ToolComment Tool = "comment"
)

// Creates reports whether t draws a new shape.
func (t Tool) Creates() bool {
	switch t {
	case ToolPen, ToolRect, ToolLine, ToolEllipse, ToolText, ToolComment:
		return true
	}
	return false
}

// ErrDuplicateID is returned when an inserted tree reuses an id of the scene.
var ErrDuplicateID = vector.ErrDuplicateID

// Store is safe for concurrent use. Listeners run after the lock is released.
type Store struct {
	mu          sync.Mutex
	shapes      []vector.Shape
	selection   map[int64]struct{}
	activeStyle vector.Style
	activeTool  Tool
	pathEdit    PathEdit
	nextID      int64

	listeners map[int]func()
	nextSub   int
}

// New returns an empty store with the default active style and the select tool.
func New() *Store {
	return &Store{
		selection:   make(map[int64]struct{}),
		activeStyle: vector.DefaultStyle(),
		activeTool:  ToolSelect,
		nextID:      1,
		listeners:   make(map[int]func()),
	}
}

// Subscribe registers fn to run after every mutation. The returned func
// removes it again.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// mutate runs fn under the lock and notifies when it reports a change.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// setShapesLocked swaps in a new list, keeps the id counter ahead of it and
// prunes selection and path edit state that no longer resolves.
func (s *Store) setShapesLocked(list []vector.Shape) {
	s.shapes = list
	if m := vector.MaxID(list); m >= s.nextID {
		s.nextID = m + 1
	}
	for id := range s.selection {
		if vector.IndexOf(list, id) < 0 {
			delete(s.selection, id)
		}
	}
	if s.pathEdit.Active() && vector.IndexOf(list, s.pathEdit.ShapeID) < 0 {
		s.pathEdit = PathEdit{}
	}
}

func (s *Store) logger(op string) *slog.Logger {
	return applog.WithOperation(applog.WithComponent("store"), op)
}

// NewID hands out the next unused shape id.
func (s *Store) NewID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// Shapes returns the current list in z-order (index 0 is back-most).
// The slice is a copy; the shapes themselves must be treated as read-only.
func (s *Store) Shapes() []vector.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.shapes)
}

// Shape looks up a top-level shape by id.
func (s *Store) Shape(id int64) (vector.Shape, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := vector.IndexOf(s.shapes, id)
	if i < 0 {
		return nil, false
	}
	return s.shapes[i], true
}

// Len returns the number of top-level shapes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shapes)
}

// Insert appends sh on top of the z-order. Ids already used anywhere in
// the scene are rejected.
func (s *Store) Insert(sh vector.Shape) error {
	if sh == nil {
		return errors.New("insert: nil shape")
	}
	var err error
	s.mutate(func() bool {
		list := append(slices.Clone(s.shapes), sh)
		if err = vector.CheckUniqueIDs(list); err != nil {
			err = fmt.Errorf("insert shape %d: %w", sh.ShapeID(), err)
			return false
		}
		s.setShapesLocked(list)
		return true
	})
	return err
}

// Remove deletes the top-level shapes with the given ids. Unknown ids are ignored.
func (s *Store) Remove(ids ...int64) {
	s.mutate(func() bool {
		drop := idSet(ids)
		list := make([]vector.Shape, 0, len(s.shapes))
		for _, sh := range s.shapes {
			if _, ok := drop[sh.ShapeID()]; !ok {
				list = append(list, sh)
			}
		}
		if len(list) == len(s.shapes) {
			return false
		}
		s.setShapesLocked(list)
		return true
	})
}

// Put replaces top-level shapes in place, matched by id. Shapes whose id is
// not in the scene are ignored.
func (s *Store) Put(updated ...vector.Shape) {
	s.mutate(func() bool {
		list := slices.Clone(s.shapes)
		changed := false
		for _, u := range updated {
			if i := vector.IndexOf(list, u.ShapeID()); i >= 0 {
				list[i] = u
				changed = true
			}
		}
		if changed {
			s.setShapesLocked(list)
		}
		return changed
	})
}

// Replace swaps in a whole new list.
func (s *Store) Replace(list []vector.Shape) {
	s.mutate(func() bool {
		s.setShapesLocked(slices.Clone(list))
		return true
	})
}

// Load replaces the scene with a decoded document and resets the selection.
func (s *Store) Load(list []vector.Shape) error {
	if err := vector.CheckUniqueIDs(list); err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	s.mutate(func() bool {
		s.selection = make(map[int64]struct{})
		s.pathEdit = PathEdit{}
		s.setShapesLocked(slices.Clone(list))
		return true
	})
	s.logger("load").Debug("scene loaded", slog.Int("shapes", len(list)))
	return nil
}

// Selection returns the selected ids in z-order.
func (s *Store) Selection() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

func (s *Store) selectionLocked() []int64 {
	out := make([]int64, 0, len(s.selection))
	for _, sh := range s.shapes {
		if _, ok := s.selection[sh.ShapeID()]; ok {
			out = append(out, sh.ShapeID())
		}
	}
	return out
}

// SelectedShapes returns the selected top-level shapes in z-order.
func (s *Store) SelectedShapes() []vector.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vector.Shape
	for _, sh := range s.shapes {
		if _, ok := s.selection[sh.ShapeID()]; ok {
			out = append(out, sh)
		}
	}
	return out
}

func (s *Store) IsSelected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selection[id]
	return ok
}

// Select replaces the selection with {id}. Ids not in the scene are ignored.
func (s *Store) Select(id int64) {
	s.mutate(func() bool {
		if vector.IndexOf(s.shapes, id) < 0 {
			return false
		}
		s.selection = map[int64]struct{}{id: {}}
		return true
	})
}

// SetSelection replaces the selection with the ids that exist in the scene.
func (s *Store) SetSelection(ids []int64) {
	s.mutate(func() bool {
		s.selection = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if vector.IndexOf(s.shapes, id) >= 0 {
				s.selection[id] = struct{}{}
			}
		}
		return true
	})
}

// Toggle adds id to the selection or removes it.
func (s *Store) Toggle(id int64) {
	s.mutate(func() bool {
		if _, ok := s.selection[id]; ok {
			delete(s.selection, id)
			return true
		}
		if vector.IndexOf(s.shapes, id) < 0 {
			return false
		}
		s.selection[id] = struct{}{}
		return true
	})
}

// Clear empties the selection.
func (s *Store) Clear() {
	s.mutate(func() bool {
		if len(s.selection) == 0 {
			return false
		}
		s.selection = make(map[int64]struct{})
		return true
	})
}

// SelectRange selects the z-order slice between from and to inclusive, in
// either direction.
func (s *Store) SelectRange(from, to int64) {
	s.mutate(func() bool {
		i, j := vector.IndexOf(s.shapes, from), vector.IndexOf(s.shapes, to)
		if i < 0 || j < 0 {
			return false
		}
		if i > j {
			i, j = j, i
		}
		s.selection = make(map[int64]struct{}, j-i+1)
		for _, sh := range s.shapes[i : j+1] {
			s.selection[sh.ShapeID()] = struct{}{}
		}
		return true
	})
}

// ActiveStyle is the template applied to newly created shapes.
func (s *Store) ActiveStyle() vector.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeStyle.Clone()
}

// UpdateStyle merges patch into every selected shape, or into the active
// style when nothing is selected. Enabling fill or stroke on a shape without
// a colour falls back to the active style's colour.
func (s *Store) UpdateStyle(patch vector.StylePatch) {
	s.mutate(func() bool {
		if len(s.selection) == 0 {
			s.activeStyle = patch.Apply(s.activeStyle, vector.DefaultStyle())
			return true
		}
		list := slices.Clone(s.shapes)
		for i, sh := range list {
			if _, ok := s.selection[sh.ShapeID()]; ok {
				list[i] = vector.WithStyle(sh, patch.Apply(sh.ShapeStyle(), s.activeStyle))
			}
		}
		s.setShapesLocked(list)
		return true
	})
}

func (s *Store) ActiveTool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTool
}

func (s *Store) SetActiveTool(t Tool) {
	s.mutate(func() bool {
		if s.activeTool == t {
			return false
		}
		s.activeTool = t
		return true
	})
}

// MarkImageLoaded flags the image with id as decoded, at any nesting depth.
// A zero nominal size takes the bitmap's natural size w x h.
func (s *Store) MarkImageLoaded(id int64, w, h float64) bool {
	found := false
	s.mutate(func() bool {
		list := slices.Clone(s.shapes)
		for i, sh := range list {
			if next, ok := markLoaded(sh, id, w, h); ok {
				list[i] = next
				found = true
				break
			}
		}
		if found {
			s.setShapesLocked(list)
		}
		return found
	})
	return found
}

func markLoaded(sh vector.Shape, id int64, w, h float64) (vector.Shape, bool) {
	switch v := sh.(type) {
	case *vector.Image:
		if v.ID != id {
			return sh, false
		}
		c := vector.Clone(v).(*vector.Image)
		c.Loaded = true
		if c.Size.W == 0 && c.Size.H == 0 {
			c.Size = vector.Size{W: w, H: h}
		}
		return c, true
	case *vector.Group:
		for i, ch := range v.Children {
			if next, ok := markLoaded(ch, id, w, h); ok {
				c := vector.Clone(v).(*vector.Group)
				c.Children[i] = next
				return c, true
			}
		}
	}
	return sh, false
}

func idSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
