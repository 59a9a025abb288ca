package input

import (
	"errors"
	"testing"

	"devinput/internal/keys"
)

// TestBuilderKeyDownThenWheel tests a two-call chain
func TestBuilderKeyDownThenWheel(t *testing.T) {
	actions, err := NewBuilder().
		KeyDown(3, keys.A, keys.B).
		Wheel(-2, 1).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("Expected 2 actions, got %d", len(actions))
	}

	first := actions[0]
	if first.Kind != ActionKeyDown {
		t.Errorf("Expected key_down, got %s", first.Kind)
	}
	if !first.Keys.Equal(KeyCodeSet{KeyCode(keys.A), KeyCode(keys.B)}) {
		t.Errorf("Unexpected keys: %v", first.Keys)
	}
	if first.Repeat != 3 {
		t.Errorf("Expected repeat 3, got %d", first.Repeat)
	}

	second := actions[1]
	if second.Kind != ActionWheel || second.Delta != -2 || second.Repeat != 1 {
		t.Errorf("Expected wheel(-2, 1), got %s", second)
	}
}

// TestBuilderOrdering tests that every call appends exactly one action in call order
func TestBuilderOrdering(t *testing.T) {
	b := NewBuilder().
		KeyDown(1, keys.Shift).
		KeyPress(2, keys.D1).
		KeyUp(1, keys.Shift).
		KeyPressText(1, "x", "y").
		Tilt(4, 2).
		Wheel(1, 5).
		Press(keys.Return)

	want := []ActionKind{
		ActionKeyDown, ActionKeyPress, ActionKeyUp,
		ActionKeyPressText, ActionTilt, ActionWheel, ActionKeyPress,
	}
	if b.Len() != len(want) {
		t.Fatalf("Expected %d actions, got %d", len(want), b.Len())
	}
	for i, a := range b.Actions() {
		if a.Kind != want[i] {
			t.Errorf("action %d: expected %s, got %s", i, want[i], a.Kind)
		}
	}
	if got := b.Actions()[4]; got.Delta != 4 || got.Repeat != 2 {
		t.Errorf("Expected tilt(4, 2), got %s", got)
	}
}

// TestBuilderKeyPressText tests that text is carried verbatim
func TestBuilderKeyPressText(t *testing.T) {
	actions, err := NewBuilder().KeyPressText(2, "ab").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("Expected 1 action, got %d", len(actions))
	}
	a := actions[0]
	if a.Kind != ActionKeyPressText {
		t.Errorf("Expected key_press_text, got %s", a.Kind)
	}
	if len(a.Texts) != 1 || a.Texts[0] != "ab" {
		t.Errorf("Expected texts [ab], got %v", a.Texts)
	}
	if a.Keys != nil {
		t.Errorf("Expected no key codes, got %v", a.Keys)
	}
	if a.Repeat != 2 {
		t.Errorf("Expected repeat 2, got %d", a.Repeat)
	}
}

// TestBuilderRejectsRepeat tests eager rejection of non-positive repeat counts
func TestBuilderRejectsRepeat(t *testing.T) {
	for _, n := range []int{0, -1} {
		b := NewBuilder().Press(keys.A).KeyDown(n, keys.B).Wheel(1, 1)
		if !errors.Is(b.Err(), ErrInvalidRepeatCount) {
			t.Errorf("repeat %d: expected ErrInvalidRepeatCount, got %v", n, b.Err())
		}
		// the failing call and everything after it append nothing
		if b.Len() != 1 {
			t.Errorf("repeat %d: expected 1 action, got %d", n, b.Len())
		}
		if actions, err := b.Build(); err == nil || actions != nil {
			t.Errorf("repeat %d: expected Build to fail with no plan", n)
		}
	}

	if err := NewBuilder().Wheel(1, 0).Err(); !errors.Is(err, ErrInvalidRepeatCount) {
		t.Errorf("Expected ErrInvalidRepeatCount for wheel, got %v", err)
	}
	if err := NewBuilder().KeyPressText(0, "a").Err(); !errors.Is(err, ErrInvalidRepeatCount) {
		t.Errorf("Expected ErrInvalidRepeatCount for text, got %v", err)
	}
}

// TestBuilderRejectsEmptyArguments tests eager rejection of empty key and text arguments
func TestBuilderRejectsEmptyArguments(t *testing.T) {
	if err := NewBuilder().KeyPress(1).Err(); !errors.Is(err, ErrInvalidKeyArgument) {
		t.Errorf("Expected ErrInvalidKeyArgument for keys, got %v", err)
	}
	if err := NewBuilder().KeyPressText(1).Err(); !errors.Is(err, ErrInvalidKeyArgument) {
		t.Errorf("Expected ErrInvalidKeyArgument for text, got %v", err)
	}
}

// TestBuilderActionsAreCopies tests that returned plans do not alias builder storage
func TestBuilderActionsAreCopies(t *testing.T) {
	b := NewBuilder().KeyPress(1, keys.A, keys.B).Type("x")
	actions := b.Actions()
	actions[0].Keys[0] = KeyCode(keys.Z)
	actions[1].Texts[0] = "y"

	again := b.Actions()
	if again[0].Keys[0] != KeyCode(keys.A) {
		t.Error("Builder keys were modified through a returned plan")
	}
	if again[1].Texts[0] != "x" {
		t.Error("Builder texts were modified through a returned plan")
	}
}

// TestBuilderReset tests reuse after Reset
func TestBuilderReset(t *testing.T) {
	b := NewBuilder().Press(keys.A).Wheel(1, 0)
	if b.Err() == nil {
		t.Fatal("Expected an error before reset")
	}
	b.Reset().Press(keys.B)
	if b.Err() != nil {
		t.Errorf("Expected no error after reset, got %v", b.Err())
	}
	if b.Len() != 1 || b.Actions()[0].Keys[0] != KeyCode(keys.B) {
		t.Errorf("Unexpected plan after reset: %v", b.Actions())
	}
}

// TestBuilderAppend tests appending prebuilt actions
func TestBuilderAppend(t *testing.T) {
	src := NewBuilder().Press(keys.A).Tilt(-1, 1).Actions()
	b := NewBuilder().Append(src...)
	if b.Err() != nil || b.Len() != 2 {
		t.Fatalf("Append failed: len=%d err=%v", b.Len(), b.Err())
	}

	b = NewBuilder().Append(Action{Kind: ActionKeyDown, Repeat: 1})
	if !errors.Is(b.Err(), ErrInvalidKeyArgument) {
		t.Errorf("Expected ErrInvalidKeyArgument, got %v", b.Err())
	}
	b = NewBuilder().Append(Action{Kind: ActionKind(42), Repeat: 1})
	if b.Err() == nil {
		t.Error("Expected error for unknown action kind")
	}
}
