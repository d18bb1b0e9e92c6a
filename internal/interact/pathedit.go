/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"fmt"

	"vecdraw/internal/scene"
	"vecdraw/internal/vector"
)

// PathEditor edits single segments of a path: its point or one of its
// Bezier handles. The segment under edit is kept in the store.
type PathEditor struct {
	store *scene.Store
}

func NewPathEditor(store *scene.Store) *PathEditor { return &PathEditor{store: store} }

// SelectSegment starts editing segment index of path id.
func (e *PathEditor) SelectSegment(id int64, index int, h scene.HandleType) bool {
	return e.store.SetPathEdit(scene.PathEdit{ShapeID: id, Segment: index, Handle: h})
}

// UpdateSegment moves the edited part to p. Moving the point carries its
// handles along, since handles are stored as offsets from it.
func (e *PathEditor) UpdateSegment(p vector.Pt) error {
	pe := e.store.PathEdit()
	if !pe.Active() {
		return nil
	}
	live, ok := e.store.Shape(pe.ShapeID)
	if !ok {
		return nil
	}
	path, ok := live.(*vector.Path)
	if !ok || pe.Segment >= len(path.Segments) {
		return fmt.Errorf("path edit: shape %d segment %d: %w", pe.ShapeID, pe.Segment, vector.ErrVariantMismatch)
	}
	c := vector.Clone(path).(*vector.Path)
	seg := &c.Segments[pe.Segment]
	switch pe.Handle {
	case scene.HandlePoint:
		seg.Point = p
	case scene.HandleIn:
		off := p.Sub(seg.Point)
		seg.HandleIn = &off
	case scene.HandleOut:
		off := p.Sub(seg.Point)
		seg.HandleOut = &off
	}
	e.store.Put(c)
	return nil
}

// Clear ends segment editing.
func (e *PathEditor) Clear() { e.store.ClearPathEdit() }
