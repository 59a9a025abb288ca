package input

import (
	"fmt"
	"sort"
	"strings"
)

// RawEvent is the record layout emitted by native event sources. Its storage
// belongs to the source; Decode copies everything it keeps.
type RawEvent struct {
	Kind  int32
	Key   *RawKeyRecord
	Mouse *RawMouseRecord
}

// RawKeyRecord holds the key half of a raw event: which target raised it and
// every key state known at that moment.
type RawKeyRecord struct {
	Target string
	Keys   []KeyEntry
}

// KeyEntry is one key state inside a raw key record.
type KeyEntry struct {
	Key   KeyCode
	Value bool
}

// RawMouseRecord holds the mouse half of a raw event.
type RawMouseRecord struct {
	Target   string
	Position RawPoint
	Scroll   RawPoint
}

// RawPoint is the native point layout.
type RawPoint struct {
	X, Y int32
}

// KeyState is the key half of a DeviceState.
type KeyState struct {
	target string
	keys   map[KeyCode]bool
}

// Target identifies the source that raised the event.
func (k KeyState) Target() string {
	return k.target
}

// Keys returns a copy of the key states known when the event fired.
func (k KeyState) Keys() map[KeyCode]bool {
	out := make(map[KeyCode]bool, len(k.keys))
	for code, v := range k.keys {
		out[code] = v
	}
	return out
}

// Value returns the state recorded for code and whether code was present.
func (k KeyState) Value(code KeyCode) (value, ok bool) {
	value, ok = k.keys[code]
	return value, ok
}

// Pressed reports whether code is present and set.
func (k KeyState) Pressed(code KeyCode) bool {
	return k.keys[code]
}

// Len returns the number of recorded keys.
func (k KeyState) Len() int {
	return len(k.keys)
}

// Codes returns the recorded key codes in ascending order.
func (k KeyState) Codes() []KeyCode {
	codes := make([]KeyCode, 0, len(k.keys))
	for code := range k.keys {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// MouseState is the mouse half of a DeviceState.
type MouseState struct {
	Target   string
	Position Point
	Scroll   Point
}

// DeviceState is an immutable snapshot of one raw event.
type DeviceState struct {
	kind  DeviceEventKind
	key   KeyState
	mouse MouseState
}

// Decode builds a DeviceState from one raw event record. The record is not
// retained: the source may reuse or free it as soon as Decode returns. Decode
// either returns a complete snapshot or an error, never both. It is safe for
// concurrent use on distinct records.
func Decode(rec *RawEvent) (*DeviceState, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedEventRecord)
	}
	kind, err := ToDeviceEventKind(int(rec.Kind))
	if err != nil {
		return nil, err
	}
	if rec.Key == nil {
		return nil, fmt.Errorf("%w: missing key record", ErrMalformedEventRecord)
	}
	if rec.Mouse == nil {
		return nil, fmt.Errorf("%w: missing mouse record", ErrMalformedEventRecord)
	}

	// Later entries for the same code win.
	km := make(map[KeyCode]bool, len(rec.Key.Keys))
	for _, e := range rec.Key.Keys {
		km[e.Key] = e.Value
	}

	return &DeviceState{
		kind: kind,
		key: KeyState{
			target: rec.Key.Target,
			keys:   km,
		},
		mouse: MouseState{
			Target:   rec.Mouse.Target,
			Position: Point{X: int(rec.Mouse.Position.X), Y: int(rec.Mouse.Position.Y)},
			Scroll:   Point{X: int(rec.Mouse.Scroll.X), Y: int(rec.Mouse.Scroll.Y)},
		},
	}, nil
}

// Kind returns the event kind.
func (s *DeviceState) Kind() DeviceEventKind {
	return s.kind
}

// Key returns the key state.
func (s *DeviceState) Key() KeyState {
	return s.key
}

// Mouse returns the mouse state.
func (s *DeviceState) Mouse() MouseState {
	return s.mouse
}

func (s *DeviceState) String() string {
	var pressed []string
	for _, code := range s.key.Codes() {
		if s.key.keys[code] {
			pressed = append(pressed, code.String())
		}
	}
	return fmt.Sprintf("%s key[%s: %s] mouse[%s: pos=%s scroll=%s]",
		s.kind, s.key.target, strings.Join(pressed, "+"),
		s.mouse.Target, s.mouse.Position, s.mouse.Scroll)
}
