/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"

	"vecdraw/internal/vector"
)

// WriteJSON writes the scene in its interchange form: a JSON array of
// shapes in z-order.
func WriteJSON(w io.Writer, shapes []vector.Shape) error {
	data, err := vector.MarshalScene(shapes)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func ExportJSON(path string, shapes []vector.Shape) error {
	data, err := vector.MarshalScene(shapes)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return writeFile(path, data)
}

// ImportJSON reads a scene file, accepting the legacy shape forms too.
func ImportJSON(path string) ([]vector.Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	shapes, err := vector.UnmarshalScene(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return shapes, nil
}
