/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"

	applog "vecdraw/internal/log"
	"vecdraw/internal/scene"
	"vecdraw/internal/vector"
)

// ImageCache holds decoded bitmaps keyed by their source. Relative sources
// resolve against Root.
type ImageCache struct {
	Root string

	mu     sync.Mutex
	images map[string]image.Image
	failed map[string]error
}

func NewImageCache(root string) *ImageCache {
	return &ImageCache{Root: root, images: make(map[string]image.Image), failed: make(map[string]error)}
}

// Get returns a previously loaded bitmap.
func (c *ImageCache) Get(src string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[src]
	return img, ok
}

// Load decodes src once; later calls return the cached bitmap or error.
func (c *ImageCache) Load(src string) (image.Image, error) {
	c.mu.Lock()
	if img, ok := c.images[src]; ok {
		c.mu.Unlock()
		return img, nil
	}
	if err, ok := c.failed[src]; ok {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	path := src
	if !filepath.IsAbs(path) && c.Root != "" {
		path = filepath.Join(c.Root, src)
	}
	img, err := gg.LoadImage(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("load image %q: %w", src, err)
		c.failed[src] = err
		return nil, err
	}
	c.images[src] = img
	return img, nil
}

// Preload decodes every image of the store that is not ready yet and flags
// it loaded, which also notifies the store's subscribers. Failures are
// logged and leave the image not ready. It returns how many were loaded.
func (c *ImageCache) Preload(st *scene.Store) int {
	l := applog.WithOperation(applog.WithComponent("render"), "preload")
	var pending []*vector.Image
	for _, s := range st.Shapes() {
		vector.Walk(s, func(n vector.Shape) bool {
			if img, ok := n.(*vector.Image); ok && !img.Loaded {
				pending = append(pending, img)
			}
			return true
		})
	}
	n := 0
	for _, p := range pending {
		img, err := c.Load(p.Source)
		if err != nil {
			l.Warn("image not loaded", slog.Int64("shape", p.ID), slog.Any("err", err))
			continue
		}
		sz := img.Bounds().Size()
		if st.MarkImageLoaded(p.ID, float64(sz.X), float64(sz.Y)) {
			n++
		}
	}
	return n
}
