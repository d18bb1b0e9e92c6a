/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"encoding/json"
	"fmt"

	"vecdraw/internal/scene"
	"vecdraw/internal/vector"
)

// Event is one scripted input for Dispatch. Type is one of down, move, up,
// leave, key, tool, cancel, edit, edit-move, edit-end. A down event with the
// text or comment tool takes its content from Text. An edit event selects
// segment Index of path Shape for Handle (point, handleIn, handleOut);
// edit-move drags that part to X,Y.
type Event struct {
	Type  string  `json:"type"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Shift bool    `json:"shift,omitempty"`
	Ctrl  bool    `json:"ctrl,omitempty"`
	Alt   bool    `json:"alt,omitempty"`
	Key   string  `json:"key,omitempty"`
	Tool  string  `json:"tool,omitempty"`
	Text  string  `json:"text,omitempty"`

	Shape  int64  `json:"shape,omitempty"`
	Index  int    `json:"index,omitempty"`
	Handle string `json:"handle,omitempty"`
}

// DecodeEvents parses a JSON array of events.
func DecodeEvents(data []byte) ([]Event, error) {
	var evs []Event
	if err := json.Unmarshal(data, &evs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return evs, nil
}

// Dispatch feeds one event into the controller.
func (c *Controller) Dispatch(ev Event) error {
	p := vector.Pt{X: ev.X, Y: ev.Y}
	mods := Modifiers{Shift: ev.Shift, Ctrl: ev.Ctrl, Alt: ev.Alt}
	switch ev.Type {
	case "down":
		if ev.Text != "" {
			prev := c.Prompt
			c.Prompt = func(vector.Kind) (string, bool) { return ev.Text, true }
			defer func() { c.Prompt = prev }()
		}
		return c.PointerDown(p, mods)
	case "move":
		return c.PointerMove(p, mods)
	case "up":
		return c.PointerUp(p, mods)
	case "leave":
		return c.PointerLeave()
	case "key":
		c.Key(ev.Key)
		return nil
	case "tool":
		t := scene.Tool(ev.Tool)
		if t != scene.ToolSelect && !t.Creates() {
			return fmt.Errorf("unknown tool %q", ev.Tool)
		}
		c.store.SetActiveTool(t)
		return nil
	case "cancel":
		c.CancelActiveGesture()
		return nil
	case "edit":
		h := scene.HandleType(ev.Handle)
		if h == "" {
			h = scene.HandlePoint
		}
		if !c.paths.SelectSegment(ev.Shape, ev.Index, h) {
			return fmt.Errorf("cannot edit segment %d of shape %d", ev.Index, ev.Shape)
		}
		return nil
	case "edit-move":
		return c.paths.UpdateSegment(p)
	case "edit-end":
		c.paths.Clear()
		return nil
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

// Replay dispatches events in order and stops at the first error.
func (c *Controller) Replay(evs []Event) error {
	for i, ev := range evs {
		if err := c.Dispatch(ev); err != nil {
			return fmt.Errorf("event #%d (%s): %w", i, ev.Type, err)
		}
	}
	return nil
}
