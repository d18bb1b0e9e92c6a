/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report, an autosave of the live
// scene and a non-zero exit.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "vecdraw/internal/log"
	"vecdraw/internal/scene"
	"vecdraw/internal/storage"
	"vecdraw/internal/version"
)

// exitFn lets tests run Recover without terminating the process.
var exitFn = os.Exit

// Session is what Recover may save. Both fields are optional: without a
// path the report goes to the temp dir; without a store nothing is autosaved.
type Session struct {
	Path  string
	Store *scene.Store
}

// Recover captures a panic, logs it with the stack, writes a report file,
// autosaves the scene and exits with code 2.
//
// Usage: defer crash.Recover(sess)
func Recover(sess *Session) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(sess, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if sess != nil && sess.Store != nil {
		autosave(l, sess)
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

// autosave writes the live scene next to the scene file and into the
// autosave history. Each step is independent; failures are only logged.
func autosave(l *slog.Logger, sess *Session) {
	shapes := sess.Store.Shapes()
	path := sess.Path
	if path == "" {
		path = filepath.Join(os.TempDir(), "vecdraw-scene.json")
	}
	if out, err := storage.AutosaveCrash(path, shapes); err != nil {
		l.Error("autosave crash snapshot failed", slog.Any("err", err))
	} else {
		l.Info("autosave crash snapshot written", slog.String("path", out))
	}

	h, err := storage.OpenHistory(filepath.Dir(path))
	if err != nil {
		l.Error("open history failed", slog.Any("err", err))
		return
	}
	defer func() { _ = h.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if e, err := h.Save(ctx, "crash", shapes); err != nil {
		l.Error("crash history snapshot failed", slog.Any("err", err))
	} else {
		l.Info("crash history snapshot saved", slog.String("id", e.ID))
	}
}

func writeReport(sess *Session, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if sess != nil && sess.Path != "" {
		dir = filepath.Join(filepath.Dir(sess.Path), storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405.000")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "vecdraw crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if sess != nil {
		if sess.Path != "" {
			_, _ = fmt.Fprintf(&buf, "Scene: %s\n", sess.Path)
		}
		if sess.Store != nil {
			_, _ = fmt.Fprintf(&buf, "Shapes: %d\nSelection: %v\nTool: %s\n", sess.Store.Len(), sess.Store.Selection(), sess.Store.ActiveTool())
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
