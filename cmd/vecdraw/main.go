/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"vecdraw/internal/config"
	"vecdraw/internal/crash"
	applog "vecdraw/internal/log"
	"vecdraw/internal/textlayout"
	"vecdraw/internal/version"
)

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "vecdraw - vector scene tool")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  vecdraw version|-v|--version                        Show version")
	_, _ = fmt.Fprintln(w, "  vecdraw new <scene.json>                            Create an empty scene file")
	_, _ = fmt.Fprintln(w, "  vecdraw info <scene.json>                           Print shape counts and bounds")
	_, _ = fmt.Fprintln(w, "  vecdraw validate <scene.json>                       Check a file against the scene schema")
	_, _ = fmt.Fprintln(w, "  vecdraw render [flags] <scene.json> <out.png>       Rasterize with editor decorations")
	_, _ = fmt.Fprintln(w, "  vecdraw export [flags] svg|pdf|png|json <scene.json> <out>")
	_, _ = fmt.Fprintln(w, "  vecdraw replay <scene.json> <events.json> <out.json> Drive the editor from scripted events")
	_, _ = fmt.Fprintln(w, "  vecdraw history list [-n N] <dir>                   List autosave snapshots")
	_, _ = fmt.Fprintln(w, "  vecdraw history save [-label L] <scene.json>        Snapshot a scene into its history")
	_, _ = fmt.Fprintln(w, "  vecdraw history restore <dir> <id> <out.json>       Write a snapshot back to a file")
	_, _ = fmt.Fprintln(w, "  vecdraw search [-n N] <dir> <query>                 Find text and comments in history")
	_, _ = fmt.Fprintln(w, "  vecdraw push [-name N] <scene.json>                 Upload a scene to the remote repository")
	_, _ = fmt.Fprintln(w, "  vecdraw pull <name> <out.json>                      Download a scene from the remote repository")
	_, _ = fmt.Fprintln(w, "  vecdraw remote list|delete <name>                   Inspect the remote repository")
	_, _ = fmt.Fprintln(w, "  vecdraw config show|path|set-dsn <dsn>|forget-dsn   Inspect or change configuration")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// usageError makes run exit with code 2 and print the usage text.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{msg: fmt.Sprintf(format, args...)} }

// run executes one command and returns the process exit code.
func run(args []string, out io.Writer) int {
	cfg, dsn, err := config.Load()
	applog.Init(cfg.LogOptions())
	l := applog.WithComponent("cli")
	if err != nil {
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}

	sess := &crash.Session{}
	defer crash.Recover(sess)

	c := &cli{out: out, cfg: cfg, dsn: dsn, log: l, sess: sess}
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(out)
		return 0
	}
	if err := c.dispatch(args[0], args[1:]); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			_, _ = fmt.Fprintln(out, ue.msg)
			usage(out)
			return 2
		}
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	return 0
}

type cli struct {
	out  io.Writer
	cfg  config.AppConfig
	dsn  string
	log  *slog.Logger
	sess *crash.Session

	measurer *textlayout.Measurer
}

func (c *cli) dispatch(cmd string, args []string) error {
	switch cmd {
	case "version", "--version", "-v":
		c.printf("vecdraw %s\n", version.String())
		return nil
	case "help", "-h", "--help":
		usage(c.out)
		return nil
	case "new":
		return c.cmdNew(args)
	case "info":
		return c.cmdInfo(args)
	case "validate":
		return c.cmdValidate(args)
	case "render":
		return c.cmdRender(args)
	case "export":
		return c.cmdExport(args)
	case "replay":
		return c.cmdReplay(args)
	case "history":
		return c.cmdHistory(args)
	case "search":
		return c.cmdSearch(args)
	case "push":
		return c.cmdPush(args)
	case "pull":
		return c.cmdPull(args)
	case "remote":
		return c.cmdRemote(args)
	case "config":
		return c.cmdConfig(args)
	}
	return usagef("unknown command %q", cmd)
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// textMeasurer resolves the configured font provider once.
func (c *cli) textMeasurer() (*textlayout.Measurer, error) {
	if c.measurer != nil {
		return c.measurer, nil
	}
	p, err := textlayout.ProviderFor(c.cfg.Canvas.Font)
	if err != nil {
		return nil, fmt.Errorf("load fonts %q: %w", c.cfg.Canvas.Font, err)
	}
	c.measurer = textlayout.NewMeasurer(p)
	return c.measurer, nil
}
