package orchestrator

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// PauseController is the process-wide submission halt. Captcha and
// auth-expiry signals pause it; only an explicit Resume clears it. It is an
// injectable dependency, created at startup, not a package global, and is
// layered on top of record statuses rather than stored in them.
type PauseController struct {
	mu     sync.RWMutex
	paused bool
	reason string
	since  time.Time

	// stateFile, when set, mirrors the pause flag to disk so separate
	// invocations observe a halt until it is explicitly cleared.
	stateFile string
}

type pauseState struct {
	Reason string    `json:"reason"`
	Since  time.Time `json:"since"`
}

// NewPauseController creates an unpaused controller.
func NewPauseController() *PauseController {
	return &PauseController{}
}

// NewFilePauseController creates a controller that persists the pause flag
// at path. If the file exists, the controller starts paused with the saved
// reason.
func NewFilePauseController(path string) *PauseController {
	p := &PauseController{stateFile: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	var state pauseState
	if err := json.Unmarshal(data, &state); err != nil {
		// Unreadable state still means someone paused; keep the halt.
		state.Reason = "pause state file present"
	}
	p.paused = true
	p.reason = state.Reason
	p.since = state.Since
	return p
}

// Pause halts all submissions, recording why. Pausing an already-paused
// controller keeps the original reason and timestamp.
func (p *PauseController) Pause(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return
	}
	p.paused = true
	p.reason = reason
	p.since = time.Now()

	if p.stateFile != "" {
		// Best effort: a failed write only loses cross-invocation memory
		// of the pause, never the in-process halt.
		data, err := json.Marshal(pauseState{Reason: p.reason, Since: p.since})
		if err == nil {
			_ = os.WriteFile(p.stateFile, data, 0o644)
		}
	}
}

// Resume clears the pause.
func (p *PauseController) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	p.reason = ""
	p.since = time.Time{}

	if p.stateFile != "" {
		_ = os.Remove(p.stateFile)
	}
}

// Paused reports whether submissions are halted.
func (p *PauseController) Paused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused
}

// Status returns the pause flag plus its reason and start time.
func (p *PauseController) Status() (paused bool, reason string, since time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused, p.reason, p.since
}
