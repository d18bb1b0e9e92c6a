/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fogleman/gg"

	"vecdraw/internal/config"
	"vecdraw/internal/storage"
	"vecdraw/internal/vector"
)

// isolate keeps run away from the user's config file and keyring.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, filepath.Join(dir, "config.yaml"))
	t.Setenv(config.EnvRemoteDSN, "postgres://unused")
	t.Setenv(config.EnvLogLevel, "error")
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(args, &out)
	return code, out.String()
}

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "scene.json")
	shapes := []vector.Shape{
		&vector.Rectangle{Base: vector.Base{ID: 1, Style: vector.DefaultStyle()}, X: 10, Y: 10, W: 40, H: 20},
		&vector.Text{Base: vector.Base{ID: 2, Style: vector.DefaultStyle()}, At: vector.Pt{X: 10, Y: 60}, Content: "caption here", FontSize: 16},
	}
	if _, err := storage.Create(path, shapes); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	return path
}

func TestRunUsageAndVersion(t *testing.T) {
	isolate(t)
	if code, out := runCLI(t); code != 0 || !strings.Contains(out, "Usage:") {
		t.Fatalf("no args: code %d, out %q", code, out)
	}
	if code, out := runCLI(t, "version"); code != 0 || !strings.HasPrefix(out, "vecdraw ") {
		t.Fatalf("version: code %d, out %q", code, out)
	}
	if code, out := runCLI(t, "frobnicate"); code != 2 || !strings.Contains(out, "unknown command") {
		t.Fatalf("unknown command: code %d, out %q", code, out)
	}
	if code, _ := runCLI(t, "info"); code != 2 {
		t.Fatalf("info without args: code %d, want 2", code)
	}
}

func TestNewInfoValidate(t *testing.T) {
	dir := isolate(t)
	empty := filepath.Join(dir, "empty.json")
	if code, out := runCLI(t, "new", empty); code != 0 {
		t.Fatalf("new: code %d, out %q", code, out)
	}
	if code, _ := runCLI(t, "new", empty); code != 1 {
		t.Fatalf("new over existing file: code %d, want 1", code)
	}
	if code, out := runCLI(t, "info", empty); code != 0 || !strings.Contains(out, "Bounds: none") {
		t.Fatalf("info empty: code %d, out %q", code, out)
	}

	path := writeSample(t, dir)
	code, out := runCLI(t, "info", path)
	if code != 0 {
		t.Fatalf("info: code %d, out %q", code, out)
	}
	for _, want := range []string{"Top-level shapes: 2", "rect", "text", "Bounds: 10,"} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output missing %q:\n%s", want, out)
		}
	}
	if code, out := runCLI(t, "validate", path); code != 0 || !strings.Contains(out, "OK: 2 shapes") {
		t.Fatalf("validate: code %d, out %q", code, out)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"id":"one","type":"rect"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, out := runCLI(t, "validate", bad); code != 1 || !strings.Contains(out, "Error:") {
		t.Fatalf("validate bad: code %d, out %q", code, out)
	}
}

func TestExportFormats(t *testing.T) {
	dir := isolate(t)
	path := writeSample(t, dir)
	for _, format := range []string{"svg", "pdf", "png", "json"} {
		out := filepath.Join(dir, "out."+format)
		if code, msg := runCLI(t, "export", format, path, out); code != 0 {
			t.Fatalf("export %s: code %d, out %q", format, code, msg)
		}
		fi, err := os.Stat(out)
		if err != nil || fi.Size() == 0 {
			t.Fatalf("export %s wrote nothing: %v", format, err)
		}
	}
	svg, _ := os.ReadFile(filepath.Join(dir, "out.svg"))
	if !strings.Contains(string(svg), `id="shape-1"`) {
		t.Fatalf("svg lacks rect:\n%s", svg)
	}
	if code, _ := runCLI(t, "export", "bmp", path, filepath.Join(dir, "x.bmp")); code != 2 {
		t.Fatalf("unknown format: code %d, want 2", code)
	}
}

func TestRenderWithSelection(t *testing.T) {
	dir := isolate(t)
	path := writeSample(t, dir)
	out := filepath.Join(dir, "view.png")
	code, msg := runCLI(t, "render", "-w", "120", "-h", "90", "-select", "1", path, out)
	if code != 0 {
		t.Fatalf("render: code %d, out %q", code, msg)
	}
	img, err := gg.LoadPNG(out)
	if err != nil {
		t.Fatalf("load png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 90 {
		t.Fatalf("size = %v, want 120x90", b)
	}
	if code, _ := runCLI(t, "render", "-select", "x", path, out); code != 2 {
		t.Fatalf("bad id list: code %d, want 2", code)
	}
}

func TestReplayWritesSceneAndHistory(t *testing.T) {
	dir := isolate(t)
	path := writeSample(t, dir)
	events := filepath.Join(dir, "events.json")
	script := `[
  {"type":"tool","tool":"rect"},
  {"type":"down","x":100,"y":100},
  {"type":"move","x":150,"y":130},
  {"type":"up","x":150,"y":130}
]`
	if err := os.WriteFile(events, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	out := filepath.Join(outDir, "after.json")
	if code, msg := runCLI(t, "replay", path, events, out); code != 0 {
		t.Fatalf("replay: code %d, out %q", code, msg)
	}
	h, err := storage.Open(out)
	if err != nil {
		t.Fatalf("open replay output: %v", err)
	}
	if len(h.Shapes) != 3 {
		t.Fatalf("got %d shapes, want 3", len(h.Shapes))
	}
	r, ok := h.Shapes[2].(*vector.Rectangle)
	if !ok || r.X != 100 || r.Y != 100 || r.W != 50 || r.H != 30 {
		t.Fatalf("unexpected new shape %#v", h.Shapes[2])
	}

	code, list := runCLI(t, "history", "list", outDir)
	if code != 0 || !strings.Contains(list, "replay") {
		t.Fatalf("history list: code %d, out %q", code, list)
	}
	code, found := runCLI(t, "search", outDir, "caption")
	if code != 0 || !strings.Contains(found, "shape 2 (text)") {
		t.Fatalf("search: code %d, out %q", code, found)
	}

	id := strings.Fields(list)[0]
	restored := filepath.Join(dir, "restored.json")
	if code, msg := runCLI(t, "history", "restore", outDir, id, restored); code != 0 {
		t.Fatalf("restore: code %d, out %q", code, msg)
	}
	rh, err := storage.Open(restored)
	if err != nil || len(rh.Shapes) != 3 {
		t.Fatalf("restored scene: %v, %d shapes", err, len(rh.Shapes))
	}

	bad := filepath.Join(dir, "bad-events.json")
	if err := os.WriteFile(bad, []byte(`[{"type":"teleport"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _ := runCLI(t, "replay", path, bad, filepath.Join(dir, "never.json")); code != 1 {
		t.Fatalf("bad event: code %d, want 1", code)
	}
}

func TestRemoteDisabledByDefault(t *testing.T) {
	dir := isolate(t)
	path := writeSample(t, dir)
	code, out := runCLI(t, "push", path)
	if code != 1 || !strings.Contains(out, "disabled") {
		t.Fatalf("push: code %d, out %q", code, out)
	}
}

func TestConfigShowReportsOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvCanvasWidth, "333")
	code, out := runCLI(t, "config", "show")
	if code != 0 {
		t.Fatalf("config show: code %d, out %q", code, out)
	}
	for _, want := range []string{"width: 333", "canvas.width overridden by VECDRAW_CANVAS_WIDTH", "remote dsn: set"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
}
