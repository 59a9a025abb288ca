package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"devinput/internal/keys"
)

// TestRecorderExpandsPlan tests the primitive steps a plan expands to
func TestRecorderExpandsPlan(t *testing.T) {
	rec := NewRecorder()
	plan := NewBuilder().
		KeyPress(2, keys.Control, keys.C).
		KeyDown(1, keys.Shift).
		KeyUp(1, keys.Shift).
		Type("hi").
		Wheel(-1, 2).
		Tilt(3, 1).
		Actions()

	if err := rec.Execute(context.Background(), plan); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	ctrl, c, shift := KeyCode(keys.Control), KeyCode(keys.C), KeyCode(keys.Shift)
	want := []Step{
		{Op: StepKeyDown, Code: ctrl}, {Op: StepKeyDown, Code: c},
		{Op: StepKeyUp, Code: c}, {Op: StepKeyUp, Code: ctrl},
		{Op: StepKeyDown, Code: ctrl}, {Op: StepKeyDown, Code: c},
		{Op: StepKeyUp, Code: c}, {Op: StepKeyUp, Code: ctrl},
		{Op: StepKeyDown, Code: shift},
		{Op: StepKeyUp, Code: shift},
		{Op: StepText, Text: "hi"},
		{Op: StepWheel, Delta: -1}, {Op: StepWheel, Delta: -1},
		{Op: StepTilt, Delta: 3},
	}
	got := rec.Steps()
	if len(got) != len(want) {
		t.Fatalf("Expected %d steps, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if len(rec.Actions()) != len(plan) {
		t.Errorf("Expected %d recorded actions, got %d", len(plan), len(rec.Actions()))
	}
}

// TestExecuteRejectsInvalidPlan tests that nothing runs when any action is invalid
func TestExecuteRejectsInvalidPlan(t *testing.T) {
	rec := NewRecorder()
	plan := []Action{
		{Kind: ActionWheel, Delta: 1, Repeat: 1},
		{Kind: ActionTilt, Delta: 1, Repeat: 0},
	}
	err := rec.Execute(context.Background(), plan)
	if !errors.Is(err, ErrInvalidRepeatCount) {
		t.Errorf("Expected ErrInvalidRepeatCount, got %v", err)
	}
	if len(rec.Steps()) != 0 || len(rec.Actions()) != 0 {
		t.Error("Expected no steps for an invalid plan")
	}
}

// TestExecuteCancelled tests that a cancelled context stops execution
func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := NewRecorder()
	err := rec.Execute(ctx, NewBuilder().Press(keys.A).Actions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

type failingDriver struct {
	recordingDriver
	failOn KeyCode
}

func (d failingDriver) keyDown(c KeyCode) error {
	if c == d.failOn {
		return errors.New("device gone")
	}
	return d.recordingDriver.keyDown(c)
}

// TestRunPlanStopsOnDriverError tests that a driver failure aborts the rest of the plan
func TestRunPlanStopsOnDriverError(t *testing.T) {
	r := NewRecorder()
	d := failingDriver{recordingDriver{r}, KeyCode(keys.B)}
	plan := NewBuilder().Press(keys.A).Press(keys.B).Press(keys.C).Actions()

	err := runPlan(context.Background(), d, plan, 0)
	if err == nil {
		t.Fatal("Expected driver error")
	}
	if len(r.steps) != 2 {
		t.Errorf("Expected 2 steps before failure, got %d", len(r.steps))
	}
}

// cancellingDriver cancels the plan's context on its first key down.
type cancellingDriver struct {
	recordingDriver
	cancel context.CancelFunc
}

func (d cancellingDriver) keyDown(c KeyCode) error {
	err := d.recordingDriver.keyDown(c)
	d.cancel()
	return err
}

// TestCancelledKeyPressReleasesKeys tests that a cancelled combo leaves no key held
func TestCancelledKeyPressReleasesKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRecorder()
	d := cancellingDriver{recordingDriver{r}, cancel}
	err := runPlan(ctx, d, NewBuilder().Press(keys.Control, keys.C).Actions(), 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	ctrl := KeyCode(keys.Control)
	want := []Step{{Op: StepKeyDown, Code: ctrl}, {Op: StepKeyUp, Code: ctrl}}
	if len(r.steps) != len(want) {
		t.Fatalf("Expected %v, got %v", want, r.steps)
	}
	for i := range want {
		if r.steps[i] != want[i] {
			t.Errorf("step %d: expected %+v, got %+v", i, want[i], r.steps[i])
		}
	}
}

// TestFailedPlanReleasesKeyDown tests that keys held by KeyDown are lifted when a later action fails
func TestFailedPlanReleasesKeyDown(t *testing.T) {
	r := NewRecorder()
	d := failingDriver{recordingDriver{r}, KeyCode(keys.B)}
	plan := NewBuilder().KeyDown(1, keys.Shift, keys.Control).Press(keys.B).Actions()

	if err := runPlan(context.Background(), d, plan, 0); err == nil {
		t.Fatal("Expected driver error")
	}

	shift, ctrl := KeyCode(keys.Shift), KeyCode(keys.Control)
	want := []Step{
		{Op: StepKeyDown, Code: shift}, {Op: StepKeyDown, Code: ctrl},
		{Op: StepKeyUp, Code: ctrl}, {Op: StepKeyUp, Code: shift},
	}
	if len(r.steps) != len(want) {
		t.Fatalf("Expected %v, got %v", want, r.steps)
	}
	for i := range want {
		if r.steps[i] != want[i] {
			t.Errorf("step %d: expected %+v, got %+v", i, want[i], r.steps[i])
		}
	}
}

// TestCompletedPlanKeepsKeyDown tests that a successful plan leaves KeyDown keys held
func TestCompletedPlanKeepsKeyDown(t *testing.T) {
	r := NewRecorder()
	if err := runPlan(context.Background(), recordingDriver{r}, NewBuilder().KeyDown(1, keys.Shift).Actions(), 0); err != nil {
		t.Fatalf("runPlan failed: %v", err)
	}
	if len(r.steps) != 1 || r.steps[0].Op != StepKeyDown {
		t.Errorf("Expected a single key down, got %v", r.steps)
	}
}

// TestRunPlanDelayHonoursContext tests that the inter-step delay is cancellable
func TestRunPlanDelayHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r := NewRecorder()
	start := time.Now()
	err := runPlan(ctx, recordingDriver{r}, NewBuilder().Wheel(1, 1000).Actions(), 10*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Delay did not honour context")
	}
}

// TestSubmitResetsBuilder tests the builder reuse contract of Submit
func TestSubmitResetsBuilder(t *testing.T) {
	rec := NewRecorder()
	b := NewBuilder().Press(keys.A)
	if err := Submit(context.Background(), rec, b); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Expected builder to be empty after Submit, got %d actions", b.Len())
	}

	b.Press(keys.B).Wheel(1, 0)
	if err := Submit(context.Background(), rec, b); !errors.Is(err, ErrInvalidRepeatCount) {
		t.Errorf("Expected ErrInvalidRepeatCount, got %v", err)
	}
	if b.Len() != 1 {
		t.Error("Expected failed builder to be left untouched")
	}
	if len(rec.Actions()) != 1 {
		t.Errorf("Expected 1 executed action, got %d", len(rec.Actions()))
	}
}

// TestRecorderClosed tests that a closed recorder refuses plans
func TestRecorderClosed(t *testing.T) {
	rec := NewRecorder()
	rec.Close()
	if err := rec.Execute(context.Background(), NewBuilder().Press(keys.A).Actions()); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Expected ErrEngineClosed, got %v", err)
	}
}

type chanSource struct {
	ch chan RawEvent
}

func (s *chanSource) Start() error            { return nil }
func (s *chanSource) Stop() error             { return nil }
func (s *chanSource) Events() <-chan RawEvent { return s.ch }

// TestMonitorSkipsBadRecords tests that the monitor loop decodes and skips failures
func TestMonitorSkipsBadRecords(t *testing.T) {
	src := &chanSource{ch: make(chan RawEvent, 3)}
	src.ch <- *sampleRecord()
	src.ch <- RawEvent{Kind: 42, Key: &RawKeyRecord{}, Mouse: &RawMouseRecord{}}
	src.ch <- RawEvent{Kind: 3}
	close(src.ch)

	var got []*DeviceState
	if err := Monitor(context.Background(), src, func(st *DeviceState) { got = append(got, st) }); err != nil {
		t.Fatalf("Monitor failed: %v", err)
	}
	if len(got) != 1 || got[0].Kind() != EventKeyPress {
		t.Errorf("Expected one key_press snapshot, got %v", got)
	}
}
