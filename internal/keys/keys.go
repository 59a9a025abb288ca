// Package keys defines the logical key enumeration shared by input plans and
// decoded device events.
package keys

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned when a key name cannot be resolved.
var ErrUnknownKey = errors.New("keys: unknown key")

// Key identifies a logical keyboard key or mouse button. Values follow the
// Windows virtual-key numbering so they can be handed to native engines as-is.
type Key int

const (
	None     Key = 0x00
	LButton  Key = 0x01
	RButton  Key = 0x02
	Cancel   Key = 0x03
	MButton  Key = 0x04
	XButton1 Key = 0x05
	XButton2 Key = 0x06
	Back     Key = 0x08
	Tab      Key = 0x09
	Clear    Key = 0x0C
	Return   Key = 0x0D
	Shift    Key = 0x10
	Control  Key = 0x11
	Menu     Key = 0x12 // Alt
	Pause    Key = 0x13
	Capital  Key = 0x14 // Caps Lock
	Escape   Key = 0x1B
	Space    Key = 0x20
	PageUp   Key = 0x21
	PageDown Key = 0x22
	End      Key = 0x23
	Home     Key = 0x24
	Left     Key = 0x25
	Up       Key = 0x26
	Right    Key = 0x27
	Down     Key = 0x28
	PrintScr Key = 0x2C
	Insert   Key = 0x2D
	Delete   Key = 0x2E

	D0 Key = 0x30
	D1 Key = 0x31
	D2 Key = 0x32
	D3 Key = 0x33
	D4 Key = 0x34
	D5 Key = 0x35
	D6 Key = 0x36
	D7 Key = 0x37
	D8 Key = 0x38
	D9 Key = 0x39

	A Key = 0x41
	B Key = 0x42
	C Key = 0x43
	D Key = 0x44
	E Key = 0x45
	F Key = 0x46
	G Key = 0x47
	H Key = 0x48
	I Key = 0x49
	J Key = 0x4A
	K Key = 0x4B
	L Key = 0x4C
	M Key = 0x4D
	N Key = 0x4E
	O Key = 0x4F
	P Key = 0x50
	Q Key = 0x51
	R Key = 0x52
	S Key = 0x53
	T Key = 0x54
	U Key = 0x55
	V Key = 0x56
	W Key = 0x57
	X Key = 0x58
	Y Key = 0x59
	Z Key = 0x5A

	LWin Key = 0x5B
	RWin Key = 0x5C
	Apps Key = 0x5D

	NumPad0  Key = 0x60
	NumPad1  Key = 0x61
	NumPad2  Key = 0x62
	NumPad3  Key = 0x63
	NumPad4  Key = 0x64
	NumPad5  Key = 0x65
	NumPad6  Key = 0x66
	NumPad7  Key = 0x67
	NumPad8  Key = 0x68
	NumPad9  Key = 0x69
	Multiply Key = 0x6A
	Add      Key = 0x6B
	Subtract Key = 0x6D
	Decimal  Key = 0x6E
	Divide   Key = 0x6F

	F1  Key = 0x70
	F2  Key = 0x71
	F3  Key = 0x72
	F4  Key = 0x73
	F5  Key = 0x74
	F6  Key = 0x75
	F7  Key = 0x76
	F8  Key = 0x77
	F9  Key = 0x78
	F10 Key = 0x79
	F11 Key = 0x7A
	F12 Key = 0x7B
	F13 Key = 0x7C
	F14 Key = 0x7D
	F15 Key = 0x7E
	F16 Key = 0x7F
	F17 Key = 0x80
	F18 Key = 0x81
	F19 Key = 0x82
	F20 Key = 0x83
	F21 Key = 0x84
	F22 Key = 0x85
	F23 Key = 0x86
	F24 Key = 0x87

	NumLock Key = 0x90
	Scroll  Key = 0x91

	LShift   Key = 0xA0
	RShift   Key = 0xA1
	LControl Key = 0xA2
	RControl Key = 0xA3
	LMenu    Key = 0xA4
	RMenu    Key = 0xA5

	OemSemicolon    Key = 0xBA
	OemPlus         Key = 0xBB
	OemComma        Key = 0xBC
	OemMinus        Key = 0xBD
	OemPeriod       Key = 0xBE
	OemQuestion     Key = 0xBF
	OemTilde        Key = 0xC0
	OemOpenBracket  Key = 0xDB
	OemPipe         Key = 0xDC
	OemCloseBracket Key = 0xDD
	OemQuotes       Key = 0xDE
)

var names = map[Key]string{
	None:            "None",
	LButton:         "LButton",
	RButton:         "RButton",
	Cancel:          "Cancel",
	MButton:         "MButton",
	XButton1:        "XButton1",
	XButton2:        "XButton2",
	Back:            "Back",
	Tab:             "Tab",
	Clear:           "Clear",
	Return:          "Return",
	Shift:           "Shift",
	Control:         "Control",
	Menu:            "Menu",
	Pause:           "Pause",
	Capital:         "Capital",
	Escape:          "Escape",
	Space:           "Space",
	PageUp:          "PageUp",
	PageDown:        "PageDown",
	End:             "End",
	Home:            "Home",
	Left:            "Left",
	Up:              "Up",
	Right:           "Right",
	Down:            "Down",
	PrintScr:        "PrintScreen",
	Insert:          "Insert",
	Delete:          "Delete",
	LWin:            "LWin",
	RWin:            "RWin",
	Apps:            "Apps",
	Multiply:        "Multiply",
	Add:             "Add",
	Subtract:        "Subtract",
	Decimal:         "Decimal",
	Divide:          "Divide",
	NumLock:         "NumLock",
	Scroll:          "Scroll",
	LShift:          "LShift",
	RShift:          "RShift",
	LControl:        "LControl",
	RControl:        "RControl",
	LMenu:           "LMenu",
	RMenu:           "RMenu",
	OemSemicolon:    "OemSemicolon",
	OemPlus:         "OemPlus",
	OemComma:        "OemComma",
	OemMinus:        "OemMinus",
	OemPeriod:       "OemPeriod",
	OemQuestion:     "OemQuestion",
	OemTilde:        "OemTilde",
	OemOpenBracket:  "OemOpenBracket",
	OemPipe:         "OemPipe",
	OemCloseBracket: "OemCloseBracket",
	OemQuotes:       "OemQuotes",
}

// aliases maps lower-case spellings used in combo strings to keys.
var aliases = map[string]Key{
	"ctrl":      Control,
	"alt":       Menu,
	"option":    Menu,
	"win":       LWin,
	"meta":      LWin,
	"cmd":       LWin,
	"super":     LWin,
	"enter":     Return,
	"esc":       Escape,
	"backspace": Back,
	"del":       Delete,
	"ins":       Insert,
	"pgup":      PageUp,
	"pgdn":      PageDown,
	"capslock":  Capital,
	"mouse1":    LButton,
	"mouse2":    RButton,
	"mouse3":    MButton,
	"mouse4":    XButton1,
	"mouse5":    XButton2,
	";":         OemSemicolon,
	"=":         OemPlus,
	",":         OemComma,
	"-":         OemMinus,
	".":         OemPeriod,
	"/":         OemQuestion,
	"`":         OemTilde,
	"[":         OemOpenBracket,
	"\\":        OemPipe,
	"]":         OemCloseBracket,
	"'":         OemQuotes,
}

var byName = make(map[string]Key)

func init() {
	for k := A; k <= Z; k++ {
		names[k] = string(rune('A' + (k - A)))
	}
	for k := D0; k <= D9; k++ {
		names[k] = fmt.Sprintf("D%d", k-D0)
		aliases[string(rune('0'+(k-D0)))] = k
	}
	for k := NumPad0; k <= NumPad9; k++ {
		names[k] = fmt.Sprintf("NumPad%d", k-NumPad0)
	}
	for k := F1; k <= F24; k++ {
		names[k] = fmt.Sprintf("F%d", k-F1+1)
	}
	for k, name := range names {
		byName[strings.ToLower(name)] = k
	}
	for alias, k := range aliases {
		byName[alias] = k
	}
}

// String returns the canonical name of the key, or its hex value when the key
// has no name.
func (k Key) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(0x%02X)", int(k))
}

// Valid reports whether k is a named key.
func (k Key) Valid() bool {
	_, ok := names[k]
	return ok && k != None
}

// IsMouseButton reports whether k names a mouse button rather than a keyboard key.
func (k Key) IsMouseButton() bool {
	switch k {
	case LButton, RButton, MButton, XButton1, XButton2:
		return true
	}
	return false
}

// Parse resolves a single key name such as "A", "ctrl", "F5" or "enter".
func Parse(name string) (Key, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return None, fmt.Errorf("%w: empty name", ErrUnknownKey)
	}
	if k, ok := byName[s]; ok {
		return k, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// ParseCombo resolves a "+"-separated combination such as "Ctrl+Alt+T" into
// its keys, preserving order.
func ParseCombo(combo string) ([]Key, error) {
	if strings.TrimSpace(combo) == "" {
		return nil, fmt.Errorf("%w: empty combo", ErrUnknownKey)
	}
	parts := strings.Split(combo, "+")
	out := make([]Key, 0, len(parts))
	for _, p := range parts {
		k, err := Parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// FormatCombo is the inverse of ParseCombo.
func FormatCombo(ks []Key) string {
	parts := make([]string, len(ks))
	for i, k := range ks {
		parts[i] = k.String()
	}
	return strings.Join(parts, "+")
}
