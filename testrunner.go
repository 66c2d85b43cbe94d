package loupe

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// scriptStep is a single action in a gesture script. Coordinates are logical
// pixels.
type scriptStep struct {
	Action   string  `json:"action"`
	Label    string  `json:"label,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	FromX    float64 `json:"fromX,omitempty"`
	FromY    float64 `json:"fromY,omitempty"`
	ToX      float64 `json:"toX,omitempty"`
	ToY      float64 `json:"toY,omitempty"`
	FromDist float64 `json:"fromDist,omitempty"`
	ToDist   float64 `json:"toDist,omitempty"`
	Frames   int     `json:"frames,omitempty"`
}

// GestureScript is the top-level JSON structure for a gesture script.
type GestureScript struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"tap": true, "doubletap": true, "drag": true, "pinch": true,
	"wait": true, "screenshot": true, "reset": true,
}

// ScriptRunner replays a gesture script through a viewer's recognizer, one
// step per frame once earlier injections have drained. Attach it with
// Viewer.SetScript.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadGestureScript parses a JSON gesture script.
func LoadGestureScript(jsonData []byte) (*ScriptRunner, error) {
	var script GestureScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse gesture script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse gesture script: no steps")
	}
	for i, st := range script.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse gesture script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// LoadGestureScriptFile reads and parses a gesture script file.
func LoadGestureScriptFile(path string) (*ScriptRunner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load gesture script: %w", err)
	}
	return LoadGestureScript(data)
}

// SetScript attaches a runner. Its step method is called from Update before
// input is read each frame. The viewer must own its recognizer.
func (v *Viewer) SetScript(runner *ScriptRunner) {
	v.script = runner
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame.
func (r *ScriptRunner) step(v *Viewer) {
	if r.done {
		return
	}
	// Nothing to drive until the image is on screen.
	if !v.loaded {
		return
	}
	rec := v.recognizer
	// Wait for pending injections and held pointers to drain before advancing.
	if rec != nil && (rec.Pending() > 0 || rec.Active() > 0) {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		v.Screenshot(st.Label)
	case "reset":
		if err := v.Reset(); err != nil {
			v.log.Warn("gesture script reset failed", slog.Any("err", err))
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	default:
		if rec == nil {
			v.log.Warn("gesture script needs the viewer's recognizer", slog.String("action", st.Action))
			break
		}
		injectStep(rec, st)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && (rec == nil || rec.Pending() == 0) {
		r.done = true
	}
}

func injectStep(rec *Recognizer, st scriptStep) {
	switch st.Action {
	case "tap":
		rec.InjectTap(st.X, st.Y)
	case "doubletap":
		rec.InjectTap(st.X, st.Y)
		rec.InjectTap(st.X, st.Y)
	case "drag":
		rec.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, max(st.Frames, 2))
	case "pinch":
		rec.InjectPinch(st.X, st.Y, st.FromDist, st.ToDist, max(st.Frames, 2))
	}
}
