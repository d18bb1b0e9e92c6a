/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import "vecdraw/internal/vector"

// HandleType names the part of a path segment being edited.
type HandleType string

const (
	HandlePoint HandleType = "point"
	HandleIn    HandleType = "handleIn"
	HandleOut   HandleType = "handleOut"
)

// PathEdit is the segment currently under edit. The zero value means none.
type PathEdit struct {
	ShapeID int64
	Segment int
	Handle  HandleType
}

func (p PathEdit) Active() bool { return p.Handle != "" }

// PathEdit returns the current segment edit state.
func (s *Store) PathEdit() PathEdit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pathEdit
}

// SetPathEdit starts editing a segment of a top-level path. It reports
// false when the shape is not a path or the index is out of range.
func (s *Store) SetPathEdit(pe PathEdit) bool {
	ok := false
	s.mutate(func() bool {
		i := vector.IndexOf(s.shapes, pe.ShapeID)
		if i < 0 {
			return false
		}
		p, isPath := s.shapes[i].(*vector.Path)
		if !isPath || pe.Segment < 0 || pe.Segment >= len(p.Segments) {
			return false
		}
		switch pe.Handle {
		case HandlePoint, HandleIn, HandleOut:
		default:
			return false
		}
		s.pathEdit = pe
		ok = true
		return true
	})
	return ok
}

// ClearPathEdit ends segment editing.
func (s *Store) ClearPathEdit() {
	s.mutate(func() bool {
		if !s.pathEdit.Active() {
			return false
		}
		s.pathEdit = PathEdit{}
		return true
	})
}
