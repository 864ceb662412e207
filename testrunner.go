package tileui

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a touch script.
type testStep struct {
	Action string     `json:"action"`
	Label  string     `json:"label,omitempty"`
	User   int        `json:"user,omitempty"`
	State  TouchState `json:"state,omitempty"`
	X      int        `json:"x,omitempty"`
	Y      int        `json:"y,omitempty"`
	FromX  int        `json:"fromX,omitempty"`
	FromY  int        `json:"fromY,omitempty"`
	ToX    int        `json:"toX,omitempty"`
	ToY    int        `json:"toY,omitempty"`
	Steps  int        `json:"steps,omitempty"`
	Passes int        `json:"passes,omitempty"`
}

// testScript is the top-level JSON structure for a touch script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var knownActions = map[string]bool{
	"press": true, "touch": true, "drag": true, "wait": true, "snapshot": true,
}

// TestRunner sequences injected touches and snapshots across sync passes for
// automated testing. Attach to a UI via SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool

	// Snapshots holds the paths written by snapshot steps.
	Snapshots []string
}

// LoadTestScript parses a JSON touch script and returns a TestRunner ready
// to be attached to a UI via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner to the UI. The runner advances at the
// start of every Update.
func (u *UI) SetTestRunner(runner *TestRunner) {
	u.injectMu.Lock()
	u.runner = runner
	u.injectMu.Unlock()
}

func (u *UI) testRunner() *TestRunner {
	u.injectMu.Lock()
	defer u.injectMu.Unlock()
	return u.runner
}

// Done reports whether all steps in the script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the runner by one sync pass.
func (r *TestRunner) step(u *UI) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if u.Pending() > 0 {
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
	case "snapshot":
		path, err := u.Snapshot(st.User, st.Label)
		if err != nil {
			u.logger.Error("tileui: snapshot", "label", st.Label, "err", err)
		} else {
			r.Snapshots = append(r.Snapshots, path)
		}
	case "press":
		u.InjectPress(st.User, st.X, st.Y)
	case "touch":
		u.InjectTouch(st.User, st.X, st.Y, st.State)
	case "drag":
		u.InjectDrag(st.User, st.FromX, st.FromY, st.ToX, st.ToY, st.Steps)
	case "wait":
		if st.Passes > 0 {
			r.waitCount = st.Passes - 1 // this pass counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && u.Pending() == 0 {
		r.done = true
	}
}
