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
	"image"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"vecdraw/internal/render"
	"vecdraw/internal/scene"
	"vecdraw/internal/vector"
)

// RenderImage rasterizes the scene without editor decorations. Image
// sources are decoded first so bitmaps appear in the output.
func RenderImage(shapes []vector.Shape, opt Options) (image.Image, error) {
	st := scene.New()
	if err := st.Load(vector.CloneAll(shapes)); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	cache := render.NewImageCache(opt.ImageRoot)
	cache.Preload(st)
	w, h := opt.pageSize(opt.engine(), st.Shapes())
	r := render.New(render.Options{
		Width:      w,
		Height:     h,
		Background: opt.Background,
		Measurer:   opt.Measurer,
		Images:     cache,
	})
	img, err := r.Render(st.Shapes(), render.Decorations{})
	if err != nil {
		return nil, fmt.Errorf("render scene: %w", err)
	}
	return img, nil
}

// ExportPNG rasterizes the scene to a PNG file at path.
func ExportPNG(path string, shapes []vector.Shape, opt Options) error {
	img, err := RenderImage(shapes, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
