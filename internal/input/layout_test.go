package input

import (
	"errors"
	"testing"

	"devinput/internal/keys"
)

func TestStrokesFor(t *testing.T) {
	strokes, err := strokesFor("aA1!")
	if err != nil {
		t.Fatalf("strokesFor failed: %v", err)
	}
	want := []charStroke{
		{KeyCode(keys.A), false},
		{KeyCode(keys.A), true},
		{KeyCode(keys.D1), false},
		{KeyCode(keys.D1), true},
	}
	if len(strokes) != len(want) {
		t.Fatalf("Expected %d strokes, got %d", len(want), len(strokes))
	}
	for i := range want {
		if strokes[i] != want[i] {
			t.Errorf("stroke %d: expected %+v, got %+v", i, want[i], strokes[i])
		}
	}

	if _, err := strokesFor("é"); !errors.Is(err, ErrInvalidKeyArgument) {
		t.Errorf("Expected ErrInvalidKeyArgument, got %v", err)
	}
}

// TestTypeStrokesWrapsShift tests that shifted characters are bracketed by Shift
func TestTypeStrokesWrapsShift(t *testing.T) {
	r := NewRecorder()
	if err := typeStrokes(recordingDriver{r}, "a?"); err != nil {
		t.Fatalf("typeStrokes failed: %v", err)
	}
	shift, a, q := KeyCode(keys.Shift), KeyCode(keys.A), KeyCode(keys.OemQuestion)
	want := []Step{
		{Op: StepKeyDown, Code: a}, {Op: StepKeyUp, Code: a},
		{Op: StepKeyDown, Code: shift},
		{Op: StepKeyDown, Code: q}, {Op: StepKeyUp, Code: q},
		{Op: StepKeyUp, Code: shift},
	}
	if len(r.steps) != len(want) {
		t.Fatalf("Expected %d steps, got %d", len(want), len(r.steps))
	}
	for i := range want {
		if r.steps[i] != want[i] {
			t.Errorf("step %d: expected %+v, got %+v", i, want[i], r.steps[i])
		}
	}
}
