/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	applog "vecdraw/internal/log"
	"vecdraw/internal/textlayout"
	"vecdraw/internal/vector"
)

// Options controls every exporter.
//
// Width and Height give the page in canvas units; zero fits the page to the
// bottom-right corner of the scene (800x600 for an empty scene).
// Relative image sources resolve against ImageRoot.
type Options struct {
	Width      int
	Height     int
	Background string // empty leaves the page unpainted
	Measurer   *textlayout.Measurer
	ImageRoot  string
}

func (o Options) engine() vector.Engine {
	if o.Measurer == nil {
		return vector.Engine{}
	}
	return vector.Engine{Measure: o.Measurer}
}

// pageSize resolves the page extent for shapes.
func (o Options) pageSize(eng vector.Engine, shapes []vector.Shape) (int, int) {
	w, h := o.Width, o.Height
	if w > 0 && h > 0 {
		return w, h
	}
	fw, fh := 800, 600
	if b, ok, err := eng.UnionBounds(shapes); err == nil && ok {
		fw = int(math.Ceil(math.Max(b.Right, 1)))
		fh = int(math.Ceil(math.Max(b.Bottom, 1)))
	}
	if w <= 0 {
		w = fw
	}
	if h <= 0 {
		h = fh
	}
	return w, h
}

func (o Options) imagePath(src string) string {
	if filepath.IsAbs(src) || o.ImageRoot == "" {
		return src
	}
	return filepath.Join(o.ImageRoot, src)
}

// skip logs a shape the exporter leaves out and reports whether export may
// continue. Empty geometry and unloaded images are skipped; anything else aborts.
func skip(l *slog.Logger, s vector.Shape, err error) bool {
	switch {
	case errors.Is(err, vector.ErrEmptyGeometry):
		l.Warn("skipping shape with empty geometry", slog.Int64("shape", s.ShapeID()))
		return true
	case errors.Is(err, vector.ErrAssetNotReady):
		l.Debug("skipping image that is not ready", slog.Int64("shape", s.ShapeID()))
		return true
	}
	return false
}

func logger(op string) *slog.Logger {
	return applog.WithOperation(applog.WithComponent("export"), op)
}

// writeFile creates the parent directory and writes data.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// isOpen reports shapes without an interior: lines and open paths.
func isOpen(s vector.Shape) bool {
	switch v := s.(type) {
	case *vector.Line:
		return true
	case *vector.Path:
		return !v.Closed
	}
	return false
}

// solidOf collapses a paint to one colour: the first gradient stop, or the
// colour itself.
func solidOf(p vector.Paint) string {
	if p.Gradient != nil && len(p.Gradient.Colours) > 0 {
		return p.Gradient.Colours[0]
	}
	return p.Color
}

func hasShadow(st vector.Style) bool {
	sh := st.Shadow
	return sh != nil && (sh.OffsetX != 0 || sh.OffsetY != 0 || sh.Blur != 0)
}

func shadowAlpha(sh *vector.Shadow) float64 {
	if sh.Opacity == 0 {
		return 1
	}
	return sh.Opacity
}
