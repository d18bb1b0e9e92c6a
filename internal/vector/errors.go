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
	"fmt"
)

var (
	// ErrEmptyGeometry: a path without segments or a group without children.
	ErrEmptyGeometry = errors.New("empty geometry")
	// ErrAssetNotReady: an image whose bitmap has not loaded and whose size is unknown.
	ErrAssetNotReady = errors.New("asset not ready")
	// ErrUnknownShapeVariant is a programming error; callers must not swallow it.
	ErrUnknownShapeVariant = errors.New("unknown shape variant")
	// ErrVariantMismatch: a scaled snapshot no longer matches the live tree.
	ErrVariantMismatch = errors.New("shape variant mismatch")
)

func unknownVariant(s Shape) error {
	if s == nil {
		return fmt.Errorf("%w: <nil>", ErrUnknownShapeVariant)
	}
	return fmt.Errorf("%w: %T", ErrUnknownShapeVariant, s)
}

func shapeErr(s Shape, err error) error {
	return fmt.Errorf("shape %d: %w", s.ShapeID(), err)
}

// Skippable reports whether err only disqualifies one shape from a pass
// (empty geometry or an unloaded asset) rather than the whole pass.
func Skippable(err error) bool {
	return errors.Is(err, ErrEmptyGeometry) || errors.Is(err, ErrAssetNotReady)
}
