/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"gopkg.in/yaml.v3"

	"vecdraw/internal/config"
	"vecdraw/internal/export"
	"vecdraw/internal/interact"
	applog "vecdraw/internal/log"
	"vecdraw/internal/render"
	"vecdraw/internal/scene"
	"vecdraw/internal/storage"
	"vecdraw/internal/vector"
)

// flagSet returns a FlagSet that reports parse errors as usage errors.
func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string, want int, synopsis string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, usagef("%s: %v", fs.Name(), err)
	}
	rest := fs.Args()
	if len(rest) != want {
		return nil, usagef("%s requires %s", fs.Name(), synopsis)
	}
	return rest, nil
}

func (c *cli) openScene(path string) (*storage.SceneHandle, error) {
	abs, _ := filepath.Abs(path)
	c.log.Info("open scene", slog.String("path", abs))
	h, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	if h.Recovered {
		c.printf("Warning: %s could not be read; loaded the latest backup\n", path)
	}
	return h, nil
}

func (c *cli) cmdNew(args []string) error {
	if len(args) != 1 {
		return usagef("new requires <scene.json>")
	}
	abs, _ := filepath.Abs(args[0])
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("%s already exists", abs)
	}
	if _, err := storage.Create(abs, []vector.Shape{}); err != nil {
		return err
	}
	c.printf("Created scene at %s\n", abs)
	return nil
}

func (c *cli) cmdInfo(args []string) error {
	if len(args) != 1 {
		return usagef("info requires <scene.json>")
	}
	h, err := c.openScene(args[0])
	if err != nil {
		return err
	}
	m, err := c.textMeasurer()
	if err != nil {
		return err
	}
	counts := map[vector.Kind]int{}
	total := 0
	for _, s := range h.Shapes {
		vector.Walk(s, func(sh vector.Shape) bool {
			counts[sh.Kind()]++
			total++
			return true
		})
	}
	c.printf("Scene: %s\n", h.Path)
	c.printf("Top-level shapes: %d\n", len(h.Shapes))
	c.printf("All shapes: %d\n", total)
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		c.printf("  %-8s %d\n", k, counts[vector.Kind(k)])
	}
	eng := vector.Engine{Measure: m}
	b, ok, err := eng.UnionBounds(h.Shapes)
	if err != nil {
		return err
	}
	if ok {
		c.printf("Bounds: %g,%g %gx%g\n", b.Left, b.Top, b.Width(), b.Height())
	} else {
		c.printf("Bounds: none\n")
	}
	return nil
}

func (c *cli) cmdValidate(args []string) error {
	if len(args) != 1 {
		return usagef("validate requires <scene.json>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := storage.ValidateScene(data); err != nil {
		return err
	}
	shapes, err := vector.UnmarshalScene(data)
	if err != nil {
		return err
	}
	c.printf("OK: %d shapes\n", len(shapes))
	return nil
}

func (c *cli) cmdRender(args []string) error {
	fs := c.flagSet("render")
	w := fs.Int("w", c.cfg.Canvas.Width, "image width")
	ht := fs.Int("h", c.cfg.Canvas.Height, "image height")
	bg := fs.String("bg", c.cfg.Canvas.Background, "background colour")
	sel := fs.String("select", "", "comma-separated shape ids drawn as selected")
	hover := fs.Int64("hover", 0, "shape id drawn as hovered")
	images := fs.String("images", "", "directory for relative image sources (default: scene dir)")
	rest, err := parseFlags(fs, args, 2, "<scene.json> <out.png>")
	if err != nil {
		return err
	}
	ids, err := parseIDs(*sel)
	if err != nil {
		return usagef("render: %v", err)
	}
	h, err := c.openScene(rest[0])
	if err != nil {
		return err
	}
	m, err := c.textMeasurer()
	if err != nil {
		return err
	}
	st := scene.New()
	if err := st.Load(h.Shapes); err != nil {
		return err
	}
	c.sess.Path, c.sess.Store = h.Path, st
	st.SetSelection(ids)

	root := *images
	if root == "" {
		root = filepath.Dir(h.Path)
	}
	cache := render.NewImageCache(root)
	cache.Preload(st)
	r := render.New(render.Options{Width: *w, Height: *ht, Background: *bg, Measurer: m, Images: cache})
	img, err := r.Render(st.Shapes(), render.Decorations{
		Selection:  st.Selection(),
		Hover:      *hover,
		HandleSize: c.cfg.Interaction.HandleSize,
	})
	if err != nil {
		return err
	}
	if err := gg.SavePNG(rest[1], img); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	c.printf("Rendered %d shapes to %s\n", st.Len(), rest[1])
	return nil
}

func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad shape id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *cli) cmdExport(args []string) error {
	fs := c.flagSet("export")
	w := fs.Int("w", 0, "page width (0 fits the scene)")
	ht := fs.Int("h", 0, "page height (0 fits the scene)")
	bg := fs.String("bg", c.cfg.Canvas.Background, "background colour")
	images := fs.String("images", "", "directory for relative image sources (default: scene dir)")
	rest, err := parseFlags(fs, args, 3, "svg|pdf|png|json <scene.json> <out>")
	if err != nil {
		return err
	}
	format, in, out := strings.ToLower(rest[0]), rest[1], rest[2]
	h, err := c.openScene(in)
	if err != nil {
		return err
	}
	m, err := c.textMeasurer()
	if err != nil {
		return err
	}
	root := *images
	if root == "" {
		root = filepath.Dir(h.Path)
	}
	opt := export.Options{Width: *w, Height: *ht, Background: *bg, Measurer: m, ImageRoot: root}
	switch format {
	case "svg":
		err = export.ExportSVG(out, h.Shapes, opt)
	case "pdf":
		err = export.ExportPDF(out, h.Shapes, opt)
	case "png":
		err = export.ExportPNG(out, h.Shapes, opt)
	case "json":
		err = export.ExportJSON(out, h.Shapes)
	default:
		return usagef("export: unknown format %q", rest[0])
	}
	if err != nil {
		return err
	}
	c.printf("Exported %s to %s\n", format, out)
	return nil
}

func (c *cli) cmdReplay(args []string) error {
	if len(args) != 3 {
		return usagef("replay requires <scene.json> <events.json> <out.json>")
	}
	h, err := c.openScene(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	evs, err := interact.DecodeEvents(data)
	if err != nil {
		return err
	}
	m, err := c.textMeasurer()
	if err != nil {
		return err
	}
	st := scene.New()
	if err := st.Load(h.Shapes); err != nil {
		return err
	}
	out, _ := filepath.Abs(args[2])
	c.sess.Path, c.sess.Store = out, st

	ctl := interact.New(st, vector.Engine{Measure: m}, interact.Options{
		HandleSize:    c.cfg.Interaction.HandleSize,
		SnapEnabled:   c.cfg.Interaction.SnapEnabled,
		SnapThreshold: c.cfg.Interaction.SnapThreshold,
	})
	if err := ctl.Replay(evs); err != nil {
		return err
	}
	if _, err := storage.Create(out, st.Shapes()); err != nil {
		return err
	}
	c.autosave(filepath.Dir(out), "replay", st.Shapes())
	c.printf("Replayed %d events; %d shapes written to %s\n", len(evs), st.Len(), out)
	return nil
}

// autosave snapshots shapes into the history under dir and prunes it to
// the configured size. Failures are logged, never fatal.
func (c *cli) autosave(dir, label string, shapes []vector.Shape) {
	l := applog.WithOperation(c.log, "autosave")
	hist, err := storage.OpenHistory(dir)
	if err != nil {
		l.Warn("open history failed", slog.Any("err", err))
		return
	}
	defer func() { _ = hist.Close() }()
	ctx := context.Background()
	if _, err := hist.Save(ctx, label, shapes); err != nil {
		l.Warn("history snapshot failed", slog.Any("err", err))
		return
	}
	if n, err := hist.Prune(ctx, c.cfg.Storage.AutosaveKeep); err != nil {
		l.Warn("history prune failed", slog.Any("err", err))
	} else if n > 0 {
		l.Debug("history pruned", slog.Int64("removed", n))
	}
}

func (c *cli) cmdHistory(args []string) error {
	if len(args) == 0 {
		return usagef("history requires list|save|restore")
	}
	switch args[0] {
	case "list":
		fs := c.flagSet("history list")
		n := fs.Int("n", 20, "maximum entries")
		rest, err := parseFlags(fs, args[1:], 1, "<dir>")
		if err != nil {
			return err
		}
		hist, err := storage.OpenHistory(rest[0])
		if err != nil {
			return err
		}
		defer func() { _ = hist.Close() }()
		entries, err := hist.List(context.Background(), *n)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			c.printf("No snapshots in %s\n", hist.Path())
			return nil
		}
		for _, e := range entries {
			c.printf("%s  %s  %-10s %d shapes\n", e.ID, e.At.Local().Format("2006-01-02 15:04:05"), e.Label, e.ShapeCount)
		}
		return nil
	case "save":
		fs := c.flagSet("history save")
		label := fs.String("label", "manual", "snapshot label")
		rest, err := parseFlags(fs, args[1:], 1, "<scene.json>")
		if err != nil {
			return err
		}
		h, err := c.openScene(rest[0])
		if err != nil {
			return err
		}
		hist, err := storage.OpenHistory(filepath.Dir(h.Path))
		if err != nil {
			return err
		}
		defer func() { _ = hist.Close() }()
		ctx := context.Background()
		e, err := hist.Save(ctx, *label, h.Shapes)
		if err != nil {
			return err
		}
		if _, err := hist.Prune(ctx, c.cfg.Storage.AutosaveKeep); err != nil {
			return err
		}
		c.printf("Saved snapshot %s (%d shapes)\n", e.ID, e.ShapeCount)
		return nil
	case "restore":
		if len(args) != 4 {
			return usagef("history restore requires <dir> <id> <out.json>")
		}
		hist, err := storage.OpenHistory(args[1])
		if err != nil {
			return err
		}
		defer func() { _ = hist.Close() }()
		shapes, e, err := hist.Load(context.Background(), args[2])
		if err != nil {
			return err
		}
		out, _ := filepath.Abs(args[3])
		if _, err := storage.Create(out, shapes); err != nil {
			return err
		}
		c.printf("Restored snapshot %s (%s) to %s\n", e.ID, e.Label, out)
		return nil
	}
	return usagef("unknown history command %q", args[0])
}

func (c *cli) cmdSearch(args []string) error {
	fs := c.flagSet("search")
	n := fs.Int("n", 20, "maximum matches")
	rest, err := parseFlags(fs, args, 2, "<dir> <query>")
	if err != nil {
		return err
	}
	hist, err := storage.OpenHistory(rest[0])
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()
	matches, err := hist.Search(context.Background(), rest[1], *n)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		c.printf("No matches for %q\n", rest[1])
		return nil
	}
	for _, m := range matches {
		c.printf("%s  shape %d (%s)  %s\n", m.SnapshotID, m.ShapeID, m.Kind, m.Snippet)
	}
	return nil
}

// remote opens the configured repository with the configured timeout.
func (c *cli) remote() (*storage.Remote, context.Context, context.CancelFunc, error) {
	if !c.cfg.Remote.Enabled {
		return nil, nil, nil, fmt.Errorf("remote repository is disabled; set remote.enabled or %s", config.EnvRemoteEnabled)
	}
	if c.dsn == "" {
		return nil, nil, nil, fmt.Errorf("no remote DSN; run 'vecdraw config set-dsn <dsn>' or set %s", config.EnvRemoteDSN)
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Remote.Timeout())
	r, err := storage.OpenRemote(ctx, c.dsn)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return r, ctx, cancel, nil
}

func (c *cli) cmdPush(args []string) error {
	fs := c.flagSet("push")
	name := fs.String("name", "", "scene name (default: file name)")
	rest, err := parseFlags(fs, args, 1, "<scene.json>")
	if err != nil {
		return err
	}
	h, err := c.openScene(rest[0])
	if err != nil {
		return err
	}
	if *name == "" {
		*name = strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path))
	}
	r, ctx, cancel, err := c.remote()
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = r.Close() }()
	rs, err := r.Push(ctx, *name, h.Shapes)
	if err != nil {
		return err
	}
	c.printf("Pushed %s as version %d (%s)\n", rs.Name, rs.Version, rs.StableID)
	return nil
}

func (c *cli) cmdPull(args []string) error {
	if len(args) != 2 {
		return usagef("pull requires <name> <out.json>")
	}
	r, ctx, cancel, err := c.remote()
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = r.Close() }()
	shapes, rs, err := r.Pull(ctx, args[0])
	if err != nil {
		return err
	}
	out, _ := filepath.Abs(args[1])
	if _, err := storage.Create(out, shapes); err != nil {
		return err
	}
	c.printf("Pulled %s version %d to %s\n", rs.Name, rs.Version, out)
	return nil
}

func (c *cli) cmdRemote(args []string) error {
	if len(args) == 0 {
		return usagef("remote requires list|delete")
	}
	switch args[0] {
	case "list":
		r, ctx, cancel, err := c.remote()
		if err != nil {
			return err
		}
		defer cancel()
		defer func() { _ = r.Close() }()
		scenes, err := r.List(ctx)
		if err != nil {
			return err
		}
		for _, s := range scenes {
			c.printf("%-24s v%-4d %4d shapes  %s\n", s.Name, s.Version, s.Shapes, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	case "delete":
		if len(args) != 2 {
			return usagef("remote delete requires <name>")
		}
		r, ctx, cancel, err := c.remote()
		if err != nil {
			return err
		}
		defer cancel()
		defer func() { _ = r.Close() }()
		if err := r.Delete(ctx, args[1]); err != nil {
			return err
		}
		c.printf("Deleted %s\n", args[1])
		return nil
	}
	return usagef("unknown remote command %q", args[0])
}

func (c *cli) cmdConfig(args []string) error {
	if len(args) == 0 {
		return usagef("config requires show|path|set-dsn|forget-dsn")
	}
	switch args[0] {
	case "path":
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		c.printf("%s\n", p)
		return nil
	case "show":
		data, err := yaml.Marshal(c.cfg)
		if err != nil {
			return err
		}
		c.printf("%s", data)
		for _, key := range config.OverridableKeys() {
			if name, ok := config.EnvOverrideFor(key); ok {
				c.printf("# %s overridden by %s\n", key, name)
			}
		}
		if c.dsn != "" {
			c.printf("# remote dsn: set\n")
		} else {
			c.printf("# remote dsn: not set\n")
		}
		return nil
	case "set-dsn":
		if len(args) != 2 {
			return usagef("config set-dsn requires <dsn>")
		}
		if err := config.Save(c.cfg, args[1]); err != nil {
			return err
		}
		c.printf("Remote DSN stored in the system keyring\n")
		return nil
	case "forget-dsn":
		if err := config.ForgetRemoteDSN(); err != nil {
			return err
		}
		c.printf("Remote DSN removed\n")
		return nil
	}
	return usagef("unknown config command %q", args[0])
}
