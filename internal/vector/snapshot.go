/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "fmt"

// Snapshot is an immutable deep copy of a shape taken at drag start.
// Shape hands out fresh clones so callers can never write through it.
type Snapshot struct {
	shape Shape
}

// Capture deep-copies s.
func Capture(s Shape) Snapshot { return Snapshot{shape: Clone(s)} }

// CaptureAll deep-copies every shape.
func CaptureAll(shapes []Shape) []Snapshot {
	out := make([]Snapshot, len(shapes))
	for i, s := range shapes {
		out[i] = Capture(s)
	}
	return out
}

func (s Snapshot) Shape() Shape { return Clone(s.shape) }

func (s Snapshot) ID() int64 {
	if s.shape == nil {
		return 0
	}
	return s.shape.ShapeID()
}

func (s Snapshot) IsZero() bool { return s.shape == nil }

// Commit writes the geometry of scaled onto live, walking both trees by
// structural position. Identity and style stay those of live, so style
// edits made during a drag survive. A variant or child-count mismatch at
// any position fails with ErrVariantMismatch.
func Commit(live, scaled Shape) (Shape, error) {
	switch l := live.(type) {
	case *Path:
		s, ok := scaled.(*Path)
		if !ok {
			return nil, mismatch(live, scaled)
		}
		c := Clone(s).(*Path)
		c.Base = Base{ID: l.ID, Style: l.Style.Clone()}
		return c, nil
	case *Rectangle:
		s, ok := scaled.(*Rectangle)
		if !ok {
			return nil, mismatch(live, scaled)
		}
		c := Clone(l).(*Rectangle)
		c.X, c.Y, c.W, c.H = s.X, s.Y, s.W, s.H
		return c, nil
	case *Ellipse:
		s, ok := scaled.(*Ellipse)
		if !ok {
			return nil, mismatch(live, scaled)
		}
		c := Clone(l).(*Ellipse)
		c.X, c.Y, c.RX, c.RY = s.X, s.Y, s.RX, s.RY
		return c, nil
	case *Line:
		s, ok := scaled.(*Line)
		if !ok {
			return nil, mismatch(live, scaled)
		}
		c := Clone(l).(*Line)
		c.X1, c.Y1, c.X2, c.Y2 = s.X1, s.Y1, s.X2, s.Y2
		return c, nil
	case *Text:
		s, ok := scaled.(*Text)
		if !ok {
			return nil, mismatch(live, scaled)
		}
		c := Clone(l).(*Text)
		c.At = s.At
		return c, nil
	case *Image:
		s, ok := scaled.(*Image)
		if !ok {
			return nil, mismatch(live, scaled)
		}
		c := Clone(l).(*Image)
		c.Position = s.Position
		// a bitmap that finished loading mid-drag keeps its natural size
		if s.Size != (Size{}) {
			c.Size = s.Size
		}
		return c, nil
	case *Group:
		s, ok := scaled.(*Group)
		if !ok || len(s.Children) != len(l.Children) {
			return nil, mismatch(live, scaled)
		}
		c := Clone(l).(*Group)
		for i := range l.Children {
			child, err := Commit(l.Children[i], s.Children[i])
			if err != nil {
				return nil, err
			}
			c.Children[i] = child
		}
		return c, nil
	default:
		return nil, unknownVariant(live)
	}
}

func mismatch(live, scaled Shape) error {
	return fmt.Errorf("shape %d: %w: live %T, scaled %T", live.ShapeID(), ErrVariantMismatch, live, scaled)
}
