package input

import (
	"context"
	"sync"
)

// StepOp names a primitive engine operation.
type StepOp string

const (
	StepKeyDown StepOp = "down"
	StepKeyUp   StepOp = "up"
	StepText    StepOp = "text"
	StepWheel   StepOp = "wheel"
	StepTilt    StepOp = "tilt"
)

// Step is one primitive operation performed while executing a plan.
type Step struct {
	Op    StepOp
	Code  KeyCode
	Text  string
	Delta int
}

// Recorder is an Engine that performs nothing and remembers what it was asked
// to do. It backs dry runs and tests.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
	steps   []Step
	closed  bool
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Execute records the plan and the primitive steps it expands to.
func (r *Recorder) Execute(ctx context.Context, actions []Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrEngineClosed
	}
	if err := runPlan(ctx, recordingDriver{r}, actions, 0); err != nil {
		return err
	}
	for _, a := range actions {
		r.actions = append(r.actions, a.clone())
	}
	return nil
}

// Close marks the recorder closed; later plans are refused.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Actions returns a copy of every executed action.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.clone()
	}
	return out
}

// Steps returns a copy of every primitive step.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.steps...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.actions = nil
	r.steps = nil
	r.mu.Unlock()
}

// recordingDriver appends steps; the caller holds r.mu.
type recordingDriver struct{ r *Recorder }

func (d recordingDriver) keyDown(c KeyCode) error {
	d.r.steps = append(d.r.steps, Step{Op: StepKeyDown, Code: c})
	return nil
}

func (d recordingDriver) keyUp(c KeyCode) error {
	d.r.steps = append(d.r.steps, Step{Op: StepKeyUp, Code: c})
	return nil
}

func (d recordingDriver) text(s string) error {
	d.r.steps = append(d.r.steps, Step{Op: StepText, Text: s})
	return nil
}

func (d recordingDriver) wheel(delta int) error {
	d.r.steps = append(d.r.steps, Step{Op: StepWheel, Delta: delta})
	return nil
}

func (d recordingDriver) tilt(delta int) error {
	d.r.steps = append(d.r.steps, Step{Op: StepTilt, Delta: delta})
	return nil
}
