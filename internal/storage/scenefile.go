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
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "vecdraw/internal/log"
	"vecdraw/internal/vector"
)

// BackupsDirName is created next to the scene file.
const BackupsDirName = "backups"

// SceneHandle tracks a scene file loaded from or saved to disk.
type SceneHandle struct {
	Path   string
	Shapes []vector.Shape
	// Recovered is set when Open fell back to a backup.
	Recovered bool
}

// Create writes shapes to a new scene file at path, creating parent directories.
func Create(path string, shapes []vector.Shape) (*SceneHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("scene path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create scene dir: %w", err)
	}
	h := &SceneHandle{Path: path, Shapes: shapes}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads a scene file. When the file cannot be read, fails schema
// validation or does not decode, the latest backup is tried instead.
func Open(path string) (*SceneHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	shapes, err := readScene(path)
	if err == nil {
		return &SceneHandle{Path: path, Shapes: shapes}, nil
	}
	shapes, berr := openFromLatestBackup(path)
	if berr != nil {
		return nil, fmt.Errorf("open scene: %w; backup attempt: %v", err, berr)
	}
	l.Warn("scene recovered from backup", slog.Any("err", err))
	return &SceneHandle{Path: path, Shapes: shapes, Recovered: true}, nil
}

func readScene(path string) ([]vector.Shape, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateScene(b); err != nil {
		return nil, err
	}
	return vector.UnmarshalScene(b)
}

// Save writes the handle's shapes with transactional semantics and a
// timestamped backup of the previous file, if any.
func Save(h *SceneHandle) error {
	if h == nil {
		return errors.New("nil SceneHandle")
	}
	if h.Path == "" {
		return errors.New("invalid SceneHandle: missing path")
	}
	data, err := vector.MarshalScene(h.Shapes)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}

	if _, statErr := os.Stat(h.Path); statErr == nil {
		bdir := filepath.Join(filepath.Dir(h.Path), BackupsDirName)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		stamp := time.Now().Format("20060102-150405.000000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(h.Path), stamp))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current scene: %w", cerr)
		}
	}

	// temp file in the same directory, then rename over the target
	dir := filepath.Dir(h.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(h.Path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp scene: %w", werr)
	}
	// Windows refuses to rename over an existing file
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace scene: %w", rerr)
	}
	h.Recovered = false
	return nil
}

// SaveAs writes the scene to a new path and repoints the handle.
func SaveAs(h *SceneHandle, newPath string) error {
	if h == nil {
		return errors.New("nil SceneHandle")
	}
	if newPath == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create scene dir: %w", err)
	}
	h.Path = newPath
	return Save(h)
}

// Backups lists the backup files of the scene at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	// timestamp in the name sorts lexicographically
	sort.Strings(out)
	return out, nil
}

func openFromLatestBackup(path string) ([]vector.Shape, error) {
	candidates, err := Backups(path)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	latest := candidates[len(candidates)-1]
	shapes, err := readScene(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	return shapes, nil
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// AutosaveCrash writes shapes to <dir>/backups/<name>.crash-<stamp>.json
// next to the scene at path and returns the written file.
func AutosaveCrash(path string, shapes []vector.Shape) (string, error) {
	data, err := vector.MarshalScene(shapes)
	if err != nil {
		return "", fmt.Errorf("marshal scene: %w", err)
	}
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", name, time.Now().Format("20060102-150405")))
	if err := writeFileSync(out, data); err != nil {
		return "", fmt.Errorf("write crash autosave: %w", err)
	}
	return out, nil
}
