package input

import (
	"errors"
	"testing"

	"devinput/internal/keys"
)

// TestKeyCodeSetPreservesOrder tests that translation is one-to-one and ordered
func TestKeyCodeSetPreservesOrder(t *testing.T) {
	in := []keys.Key{keys.Control, keys.A, keys.A, keys.F5}
	set, err := NewKeyCodeSet(in...)
	if err != nil {
		t.Fatalf("NewKeyCodeSet failed: %v", err)
	}
	if len(set) != len(in) {
		t.Fatalf("Expected %d codes, got %d", len(in), len(set))
	}
	for i, k := range in {
		if set[i] != KeyCode(k) {
			t.Errorf("code %d: expected 0x%X, got 0x%X", i, int(k), uint16(set[i]))
		}
	}

	again, _ := NewKeyCodeSet(in...)
	if !set.Equal(again) {
		t.Error("Expected repeated translation to be value-equal")
	}
}

// TestKeyCodeSetRejectsInvalid tests eager rejection of bad key arguments
func TestKeyCodeSetRejectsInvalid(t *testing.T) {
	if _, err := NewKeyCodeSet(); !errors.Is(err, ErrInvalidKeyArgument) {
		t.Errorf("Expected ErrInvalidKeyArgument for empty set, got %v", err)
	}
	if _, err := NewKeyCodeSet(keys.A, keys.Key(-1)); !errors.Is(err, ErrInvalidKeyArgument) {
		t.Errorf("Expected ErrInvalidKeyArgument for negative key, got %v", err)
	}
	if _, err := NewKeyCodeSet(keys.Key(0x10000)); !errors.Is(err, ErrInvalidKeyArgument) {
		t.Errorf("Expected ErrInvalidKeyArgument for oversized key, got %v", err)
	}
	// unnamed but representable codes are the engine's concern
	if _, err := NewKeyCodeSet(keys.Key(0xFF)); err != nil {
		t.Errorf("Expected unnamed key to pass through, got %v", err)
	}
}

// TestDeviceEventKindValues tests the wire values of event kinds
func TestDeviceEventKindValues(t *testing.T) {
	want := map[int]DeviceEventKind{
		-1: EventNone,
		0:  EventKeyDown,
		1:  EventKeyPress,
		2:  EventKeyUp,
		3:  EventMouseMove,
		4:  EventMouseWheel,
		5:  EventMouseTilt,
	}
	for v, k := range want {
		got, err := ToDeviceEventKind(v)
		if err != nil {
			t.Errorf("ToDeviceEventKind(%d) failed: %v", v, err)
			continue
		}
		if got != k {
			t.Errorf("ToDeviceEventKind(%d) = %v, want %v", v, got, k)
		}
	}
	for _, v := range []int{-2, 6, 99, 1 << 20} {
		if _, err := ToDeviceEventKind(v); !errors.Is(err, ErrUnknownEventKind) {
			t.Errorf("Expected ErrUnknownEventKind for %d, got %v", v, err)
		}
	}
	if !EventKeyUp.IsKey() || EventKeyUp.IsMouse() {
		t.Error("EventKeyUp misclassified")
	}
	if !EventMouseTilt.IsMouse() || EventNone.IsMouse() {
		t.Error("EventMouseTilt misclassified")
	}
}

// TestActionString tests the readable form of actions
func TestActionString(t *testing.T) {
	b := NewBuilder().KeyDown(3, keys.Control, keys.C).Type("hi").Wheel(-2, 1)
	got := b.Actions()
	want := []string{
		"key_down(Control+C, 3)",
		`key_press_text("hi", 1)`,
		"wheel(-2, 1)",
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("action %d: expected %s, got %s", i, want[i], got[i].String())
		}
	}
	kind, err := ParseActionKind("key_press_text")
	if err != nil || kind != ActionKeyPressText {
		t.Errorf("ParseActionKind returned %v, %v", kind, err)
	}
	if _, err := ParseActionKind("jump"); err == nil {
		t.Error("Expected error for unknown action kind")
	}
}
