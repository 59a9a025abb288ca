package keys

import (
	"errors"
	"testing"
)

// TestParseNames tests canonical names and aliases
func TestParseNames(t *testing.T) {
	cases := map[string]Key{
		"A":       A,
		"z":       Z,
		"ctrl":    Control,
		"Alt":     Menu,
		"enter":   Return,
		"F12":     F12,
		"f24":     F24,
		"7":       D7,
		"NumPad3": NumPad3,
		"mouse4":  XButton1,
		"/":       OemQuestion,
	}
	for name, want := range cases {
		got, err := Parse(name)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("Parse(%q) = %v, want %v", name, got, want)
		}
	}
}

// TestParseUnknown tests that unknown names are rejected
func TestParseUnknown(t *testing.T) {
	for _, name := range []string{"", "  ", "hyper", "F25"} {
		if _, err := Parse(name); !errors.Is(err, ErrUnknownKey) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknownKey", name, err)
		}
	}
}

// TestParseCombo tests combo parsing keeps order
func TestParseCombo(t *testing.T) {
	got, err := ParseCombo("Ctrl+Alt+Shift+Esc")
	if err != nil {
		t.Fatalf("ParseCombo failed: %v", err)
	}
	want := []Key{Control, Menu, Shift, Escape}
	if len(got) != len(want) {
		t.Fatalf("Expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	if FormatCombo(got) != "Control+Menu+Shift+Escape" {
		t.Errorf("Unexpected FormatCombo output: %s", FormatCombo(got))
	}

	if _, err := ParseCombo("Ctrl++"); err == nil {
		t.Error("Expected error for empty combo part")
	}
	if _, err := ParseCombo(""); err == nil {
		t.Error("Expected error for empty combo")
	}
}

// TestKeyString tests naming of known and unknown keys
func TestKeyString(t *testing.T) {
	if A.String() != "A" {
		t.Errorf("Expected 'A', got '%s'", A.String())
	}
	if D0.String() != "D0" {
		t.Errorf("Expected 'D0', got '%s'", D0.String())
	}
	if Key(0xFF).String() != "Key(0xFF)" {
		t.Errorf("Unexpected name for unknown key: %s", Key(0xFF).String())
	}
	if None.Valid() {
		t.Error("None must not be valid")
	}
	if !LButton.IsMouseButton() || A.IsMouseButton() {
		t.Error("IsMouseButton misclassified keys")
	}
}
