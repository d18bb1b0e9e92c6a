/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact turns pointer and keyboard events into scene edits.
// The Controller is a small state machine (idle, drawing, moving, resizing,
// marquee selecting) over a scene.Store. Live drag feedback is written to the
// store; the pre-gesture list is kept so a gesture can be cancelled.
package interact

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	applog "vecdraw/internal/log"
	"vecdraw/internal/scene"
	"vecdraw/internal/vector"
)

// State of the gesture machine.
type State int

const (
	Idle State = iota
	Drawing
	Moving
	Resizing
	MarqueeSelecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Moving:
		return "moving"
	case Resizing:
		return "resizing"
	case MarqueeSelecting:
		return "marquee"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Modifiers are the keyboard flags delivered with pointer events.
type Modifiers struct {
	Shift, Ctrl, Alt bool
}

// Prompter asks the user for the content of a text or comment shape.
// Returning false (or an empty string) abandons the shape.
type Prompter func(kind vector.Kind) (string, bool)

// Options tune the controller. Zero values fall back to the defaults.
type Options struct {
	HandleSize    float64 // default 8
	SnapEnabled   bool
	SnapThreshold float64 // default 6
}

// Overlay is the transient state the renderer draws on top of the scene.
type Overlay struct {
	Hover      int64 // 0 when nothing is hovered
	Marquee    *vector.Bounds
	Guides     []vector.GuideLine
	HandleSize float64
}

// Controller is not safe for concurrent use; events arrive from one source.
type Controller struct {
	store  *scene.Store
	engine vector.Engine
	opts   Options
	Prompt Prompter

	state State
	start vector.Pt
	last  vector.Pt

	// pre-gesture list, restored by CancelActiveGesture
	before []vector.Shape

	drawID int64

	// moving
	moveSnaps []vector.Snapshot
	moveLT    []vector.Pt
	moveUnion vector.Bounds
	haveUnion bool

	// resizing
	handle      vector.Handle
	resizeOrig  vector.Bounds
	resizeSnaps []vector.Snapshot

	marqueeAdd bool
	marqueeEnd vector.Pt

	hover  int64
	guides []vector.GuideLine

	paths *PathEditor
}

// New builds a controller over store.
func New(store *scene.Store, engine vector.Engine, opts Options) *Controller {
	if opts.HandleSize <= 0 {
		opts.HandleSize = 8
	}
	if opts.SnapThreshold <= 0 {
		opts.SnapThreshold = 6
	}
	return &Controller{store: store, engine: engine, opts: opts, paths: NewPathEditor(store)}
}

func (c *Controller) State() State { return c.state }

// Overlay returns the hover, marquee and guide state for drawing.
func (c *Controller) Overlay() Overlay {
	o := Overlay{Hover: c.hover, HandleSize: c.opts.HandleSize}
	if c.state == MarqueeSelecting {
		m := vector.B(c.start.X, c.start.Y, c.marqueeEnd.X, c.marqueeEnd.Y)
		o.Marquee = &m
	}
	if len(c.guides) > 0 {
		o.Guides = append([]vector.GuideLine(nil), c.guides...)
	}
	return o
}

func (c *Controller) logger() *slog.Logger { return applog.WithComponent("interact") }

// PointerDown starts a gesture according to the active tool.
func (c *Controller) PointerDown(p vector.Pt, mods Modifiers) error {
	if c.state != Idle {
		// a missed pointer-up; the stale gesture is discarded, not committed
		c.CancelActiveGesture()
	}
	c.start, c.last = p, p
	c.hover = 0
	tool := c.store.ActiveTool()
	switch tool {
	case scene.ToolSelect:
		return c.downSelect(p, mods)
	case scene.ToolText, scene.ToolComment:
		return c.placeText(p, tool)
	case scene.ToolPen, scene.ToolRect, scene.ToolLine, scene.ToolEllipse:
		c.before = c.store.Shapes()
		sh := c.provisional(tool, p)
		if err := c.store.Insert(sh); err != nil {
			return err
		}
		c.drawID = sh.ShapeID()
		c.state = Drawing
		c.logger().Debug("drawing started", slog.String("tool", string(tool)), slog.Int64("shape", c.drawID))
		return nil
	default:
		return fmt.Errorf("unknown tool %q", tool)
	}
}

func (c *Controller) downSelect(p vector.Pt, mods Modifiers) error {
	if h, ok, err := c.handleAt(p); err != nil {
		return err
	} else if ok {
		return c.beginResize(h, p)
	}
	target, err := c.engine.FindShape(p, c.store.Shapes())
	if err != nil {
		return err
	}
	if target == nil {
		if !mods.Shift {
			c.store.Clear()
		}
		c.marqueeAdd = mods.Shift
		c.marqueeEnd = p
		c.state = MarqueeSelecting
		return nil
	}
	id := target.ShapeID()
	switch {
	case mods.Shift:
		c.store.Toggle(id)
	case !c.store.IsSelected(id):
		c.store.Select(id)
	}
	if !c.store.IsSelected(id) {
		return nil
	}
	return c.beginMove()
}

func (c *Controller) beginMove() error {
	sel := c.store.SelectedShapes()
	if len(sel) == 0 {
		return nil
	}
	c.before = c.store.Shapes()
	c.moveSnaps = vector.CaptureAll(sel)
	c.moveLT = make([]vector.Pt, len(sel))
	for i, s := range sel {
		b, err := c.engine.Bounds(s)
		if err != nil && !vector.Skippable(err) {
			return err
		}
		c.moveLT[i] = vector.Pt{X: b.Left, Y: b.Top}
	}
	u, ok, err := c.engine.UnionBounds(sel)
	if err != nil {
		return err
	}
	c.moveUnion, c.haveUnion = u, ok
	c.state = Moving
	return nil
}

func (c *Controller) beginResize(h vector.Handle, p vector.Pt) error {
	sel := c.store.SelectedShapes()
	u, ok, err := c.engine.UnionBounds(sel)
	if err != nil || !ok {
		return err
	}
	c.before = c.store.Shapes()
	c.handle = h
	c.resizeOrig = u
	c.resizeSnaps = vector.CaptureAll(sel)
	c.state = Resizing
	c.logger().Debug("resize started", slog.String("handle", string(h)), slog.Int("shapes", len(sel)))
	return nil
}

// handleAt hit-tests the corner grips of the selection box: the bounds of
// a single selected shape or the union box of several.
func (c *Controller) handleAt(p vector.Pt) (vector.Handle, bool, error) {
	sel := c.store.SelectedShapes()
	if len(sel) == 0 {
		return "", false, nil
	}
	b, ok, err := c.engine.UnionBounds(sel)
	if err != nil || !ok {
		return "", false, err
	}
	half := c.opts.HandleSize / 2
	for _, h := range vector.Handles {
		corner := b.Corner(h)
		if math.Abs(p.X-corner.X) <= half && math.Abs(p.Y-corner.Y) <= half {
			return h, true, nil
		}
	}
	return "", false, nil
}

// PointerMove advances the active gesture, or updates the hover target.
func (c *Controller) PointerMove(p vector.Pt, mods Modifiers) error {
	c.last = p
	switch c.state {
	case Drawing:
		return c.moveDrawing(p)
	case Moving:
		return c.moveSelection(p)
	case Resizing:
		return c.moveResize(p)
	case MarqueeSelecting:
		c.marqueeEnd = p
		return nil
	}
	return c.updateHover(p)
}

func (c *Controller) updateHover(p vector.Pt) error {
	c.hover = 0
	if c.store.ActiveTool() != scene.ToolSelect || len(c.store.Selection()) > 1 {
		return nil
	}
	hit, err := c.engine.FindShape(p, c.store.Shapes())
	if err != nil {
		return err
	}
	if hit != nil {
		c.hover = hit.ShapeID()
	}
	return nil
}

func (c *Controller) moveDrawing(p vector.Pt) error {
	live, ok := c.store.Shape(c.drawID)
	if !ok {
		c.reset()
		return nil
	}
	c.store.Put(dragTo(live, c.start, p))
	return nil
}

// dragTo reshapes a provisional shape for a drag from start to p.
func dragTo(live vector.Shape, start, p vector.Pt) vector.Shape {
	switch v := vector.Clone(live).(type) {
	case *vector.Path:
		v.Segments = append(v.Segments, vector.Segment{Point: p})
		return v
	case *vector.Rectangle:
		b := vector.B(start.X, start.Y, p.X, p.Y)
		v.X, v.Y, v.W, v.H = b.Left, b.Top, b.Width(), b.Height()
		return v
	case *vector.Ellipse:
		b := vector.B(start.X, start.Y, p.X, p.Y)
		v.X, v.Y, v.RX, v.RY = b.Left, b.Top, b.Width()/2, b.Height()/2
		return v
	case *vector.Line:
		v.X2, v.Y2 = p.X, p.Y
		return v
	default:
		return live
	}
}

func (c *Controller) moveSelection(p vector.Pt) error {
	dx, dy := p.X-c.start.X, p.Y-c.start.Y
	c.guides = nil
	if c.opts.SnapEnabled && c.haveUnion {
		moved := vector.Bounds{
			Left: c.moveUnion.Left + dx, Top: c.moveUnion.Top + dy,
			Right: c.moveUnion.Right + dx, Bottom: c.moveUnion.Bottom + dy,
		}
		anchors, err := c.anchors()
		if err != nil {
			return err
		}
		sx, sy, guides := vector.SnapBounds(moved, anchors, vector.SnapOptions{
			Threshold: c.opts.SnapThreshold, SnapToEdges: true, SnapToCenters: true,
		})
		dx, dy = dx+sx, dy+sy
		c.guides = guides
	}
	updated := make([]vector.Shape, 0, len(c.moveSnaps))
	for i, snap := range c.moveSnaps {
		orig := snap.Shape()
		moved, err := c.engine.Translate(orig, c.moveLT[i].X+dx, c.moveLT[i].Y+dy)
		if vector.Skippable(err) {
			moved, err = vector.Offset(orig, dx, dy)
		}
		if err != nil {
			return err
		}
		live, ok := c.store.Shape(snap.ID())
		if !ok {
			continue
		}
		committed, err := vector.Commit(live, moved)
		if err != nil {
			return err
		}
		updated = append(updated, committed)
	}
	c.store.Put(updated...)
	return nil
}

// anchors are the bounds of the top-level shapes not being moved.
func (c *Controller) anchors() ([]vector.Bounds, error) {
	moving := make(map[int64]bool, len(c.moveSnaps))
	for _, s := range c.moveSnaps {
		moving[s.ID()] = true
	}
	var out []vector.Bounds
	for _, s := range c.store.Shapes() {
		if moving[s.ShapeID()] {
			continue
		}
		b, err := c.engine.Bounds(s)
		if err != nil {
			if vector.Skippable(err) {
				continue
			}
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (c *Controller) moveResize(p vector.Pt) error {
	f, err := vector.NewResizeFrame(c.handle, c.resizeOrig, c.start, p)
	if err != nil {
		return err
	}
	updated := make([]vector.Shape, 0, len(c.resizeSnaps))
	for _, snap := range c.resizeSnaps {
		scaled, err := c.engine.Apply(snap.Shape(), f)
		if err != nil {
			if vector.Skippable(err) {
				continue
			}
			return err
		}
		live, ok := c.store.Shape(snap.ID())
		if !ok {
			continue
		}
		committed, err := vector.Commit(live, scaled)
		if err != nil {
			return err
		}
		updated = append(updated, committed)
	}
	c.store.Put(updated...)
	return nil
}

// PointerUp completes the active gesture.
func (c *Controller) PointerUp(p vector.Pt, _ Modifiers) error {
	c.last = p
	return c.finish(p)
}

// PointerLeave ends the active gesture as if the pointer was released at its
// last known position.
func (c *Controller) PointerLeave() error {
	c.hover = 0
	return c.finish(c.last)
}

func (c *Controller) finish(p vector.Pt) error {
	var err error
	switch c.state {
	case Drawing:
		c.logger().Debug("drawing finished", slog.Int64("shape", c.drawID))
		c.store.SetActiveTool(scene.ToolSelect)
	case MarqueeSelecting:
		c.marqueeEnd = p
		err = c.selectMarquee()
	}
	c.reset()
	return err
}

func (c *Controller) selectMarquee() error {
	ids, err := c.engine.Intersecting(c.start, c.marqueeEnd, c.store.Shapes())
	if err != nil {
		return err
	}
	if c.marqueeAdd {
		ids = append(c.store.Selection(), ids...)
	}
	c.store.SetSelection(ids)
	return nil
}

// CancelActiveGesture abandons the gesture in progress and restores the
// shape list from before it started. Nothing of the gesture is committed.
func (c *Controller) CancelActiveGesture() {
	if c.state == Idle {
		return
	}
	if c.before != nil {
		c.store.Replace(c.before)
	}
	c.logger().Debug("gesture cancelled", slog.String("state", c.state.String()))
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.before = nil
	c.drawID = 0
	c.moveSnaps, c.moveLT = nil, nil
	c.haveUnion = false
	c.resizeSnaps = nil
	c.handle = ""
	c.marqueeAdd = false
	c.guides = nil
}

// Key handles the editing shortcuts: Delete/Backspace remove the selection,
// Escape cancels the active gesture.
func (c *Controller) Key(key string) {
	switch key {
	case "Delete", "Backspace":
		if c.state != Idle {
			return
		}
		if sel := c.store.Selection(); len(sel) > 0 {
			c.store.Remove(sel...)
		}
	case "Escape":
		c.CancelActiveGesture()
	}
}

func (c *Controller) provisional(tool scene.Tool, p vector.Pt) vector.Shape {
	base := vector.Base{ID: c.store.NewID(), Style: c.store.ActiveStyle()}
	if tool == scene.ToolPen || tool == scene.ToolLine {
		// lines and pen strokes are created with their stroke on
		on := true
		base.Style = vector.StylePatch{StrokeEnabled: &on}.Apply(base.Style, vector.DefaultStyle())
	}
	switch tool {
	case scene.ToolPen:
		return &vector.Path{Base: base, Segments: []vector.Segment{{Point: p}}}
	case scene.ToolRect:
		return &vector.Rectangle{Base: base, X: p.X, Y: p.Y}
	case scene.ToolEllipse:
		return &vector.Ellipse{Base: base, X: p.X, Y: p.Y}
	default:
		return &vector.Line{Base: base, X1: p.X, Y1: p.Y, X2: p.X, Y2: p.Y}
	}
}

// ErrNoPrompter is returned when a text tool is used without a Prompter.
var ErrNoPrompter = errors.New("no prompter for text input")

func (c *Controller) placeText(p vector.Pt, tool scene.Tool) error {
	kind := vector.KindText
	if tool == scene.ToolComment {
		kind = vector.KindComment
	}
	if c.Prompt == nil {
		return ErrNoPrompter
	}
	content, ok := c.Prompt(kind)
	if !ok || content == "" {
		return nil
	}
	st := c.store.ActiveStyle()
	st.Fill, st.FillEnabled = vector.Solid("#000000"), true
	st.Stroke = vector.Solid("#000000")
	st.LineWidth = 1
	t := &vector.Text{
		Base:     vector.Base{ID: c.store.NewID(), Style: st},
		At:       p,
		Content:  content,
		FontSize: vector.TextAscent,
		Comment:  tool == scene.ToolComment,
	}
	if err := c.store.Insert(t); err != nil {
		return err
	}
	c.store.SetActiveTool(scene.ToolSelect)
	return nil
}
