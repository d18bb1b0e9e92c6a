/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures text for hit-testing and bounds and resolves
// font faces for the raster renderer.
package textlayout

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float64
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Measurer answers single-line advance widths. Faces resolved through the
// provider are cached per spec since opentype faces are costly to build.
// The zero value measures with BasicProvider.
type Measurer struct {
	Provider Provider

	mu    sync.Mutex
	faces map[FontSpec]font.Face
}

func NewMeasurer(p Provider) *Measurer { return &Measurer{Provider: p} }

// MeasureText returns the advance width of content in pixels.
func (m *Measurer) MeasureText(content, family string, size float64) float64 {
	if content == "" {
		return 0
	}
	face := m.face(FontSpec{Family: family, SizePt: size})
	d := &font.Drawer{Face: face}
	return advance(d, content)
}

// Face returns the cached face for a spec.
func (m *Measurer) Face(spec FontSpec) font.Face { return m.face(spec) }

func (m *Measurer) face(spec FontSpec) font.Face {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[spec]; ok {
		return f
	}
	p := m.Provider
	if p == nil {
		p = BasicProvider{}
	}
	f, _ := p.Resolve(spec)
	if m.faces == nil {
		m.faces = make(map[FontSpec]font.Face)
	}
	m.faces[spec] = f
	return f
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}
