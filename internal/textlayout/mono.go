/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// MonoProvider resolves every spec to the bundled Go Mono TrueType font,
// rasterized through freetype at the requested size.
type MonoProvider struct {
	once sync.Once
	font *truetype.Font
	err  error
}

func (p *MonoProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	p.once.Do(func() { p.font, p.err = truetype.Parse(gomono.TTF) })
	if p.err != nil {
		return BasicProvider{}.Resolve(spec)
	}
	size := spec.SizePt
	if size <= 0 {
		size = 16
	}
	f := truetype.NewFace(p.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	return f, metricsOf(f)
}

// ProviderFor picks a provider by name: "mono" for Go Mono, a directory of
// .ttf/.otf files for a FontLibrary (falling back to Go Mono), anything else
// for the built-in 7x13 face.
func ProviderFor(name string) (Provider, error) {
	switch name {
	case "", "basic":
		return BasicProvider{}, nil
	case "mono":
		return &MonoProvider{}, nil
	}
	lib := NewFontLibrary()
	if _, err := lib.LoadDir(name); err != nil {
		return nil, err
	}
	return OTProvider{Lib: lib, Fallback: &MonoProvider{}}, nil
}
