/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"vecdraw/internal/vector"
)

func TestEncodedSceneConformsToSchema(t *testing.T) {
	data, err := vector.MarshalScene(sampleShapes())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := ValidateScene(data); err != nil {
		t.Fatalf("ValidateScene: %v", err)
	}
	// the exported schema is the one validation uses
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(SchemaJSON()), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Valid() {
		t.Fatalf("scene does not conform: %v", res.Errors())
	}
}

func TestValidateSceneRejects(t *testing.T) {
	cases := map[string]string{
		"not an array":   `{"id":1,"type":"rect"}`,
		"missing type":   `[{"id":1}]`,
		"unknown type":   `[{"id":1,"type":"star"}]`,
		"opacity > 1":    `[{"id":1,"type":"rect","style":{"opacity":2}}]`,
		"bad child":      `[{"id":1,"type":"group","children":[{"type":"rect"}]}]`,
		"fractional id":  `[{"id":1.5,"type":"rect"}]`,
		"negative width": `[{"id":1,"type":"line","style":{"lineWidth":-1}}]`,
	}
	for name, doc := range cases {
		if err := ValidateScene([]byte(doc)); !errors.Is(err, ErrInvalidScene) {
			t.Errorf("%s: expected ErrInvalidScene, got %v", name, err)
		}
	}
}

func TestValidateSceneAcceptsLegacyForms(t *testing.T) {
	doc := `[
		{"id":1,"type":"pen","points":[{"x":0,"y":0},{"x":5,"y":5}],"style":{"strokeWidth":3,"alpha":0.5}},
		{"id":2,"type":"rectangle","topLeft":{"x":1,"y":2},"size":{"width":3,"height":4},"radius":2},
		{"id":3,"type":"ellipse","center":{"x":10,"y":10},"radius":{"width":4,"height":2}}
	]`
	if err := ValidateScene([]byte(doc)); err != nil {
		t.Fatalf("legacy scene rejected: %v", err)
	}
}
