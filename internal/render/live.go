/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"sync"

	"vecdraw/internal/scene"
)

// Live keeps a rendering of a store current: every store notification
// redraws it.
type Live struct {
	r     *Renderer
	st    *scene.Store
	deco  func() Decorations
	stop  func()
	mu    sync.Mutex
	img   image.Image
	err   error
	count int
}

// Attach subscribes to st and renders once immediately. deco may be nil.
func (r *Renderer) Attach(st *scene.Store, deco func() Decorations) *Live {
	lv := &Live{r: r, st: st, deco: deco}
	lv.stop = st.Subscribe(lv.redraw)
	lv.redraw()
	return lv
}

func (lv *Live) redraw() {
	d := Decorations{Selection: lv.st.Selection()}
	if lv.deco != nil {
		d = lv.deco()
		if d.Selection == nil {
			d.Selection = lv.st.Selection()
		}
	}
	img, err := lv.r.Render(lv.st.Shapes(), d)
	lv.mu.Lock()
	lv.img, lv.err = img, err
	lv.count++
	lv.mu.Unlock()
}

// Image returns the latest frame and the error of the pass that made it.
func (lv *Live) Image() (image.Image, error) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.img, lv.err
}

// Frames is the number of redraws so far.
func (lv *Live) Frames() int {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.count
}

// Close unsubscribes from the store.
func (lv *Live) Close() { lv.stop() }
