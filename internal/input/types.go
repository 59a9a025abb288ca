// Package input composes synthetic keyboard and mouse plans for native
// injection engines and decodes raw device events into immutable snapshots.
package input

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devinput/internal/keys"

	"github.com/kataras/golog"
)

var logger = golog.Child("[input]")

var (
	// ErrInvalidKeyArgument is returned when a key set is empty or holds a key
	// that has no native key code.
	ErrInvalidKeyArgument = errors.New("input: invalid key argument")
	// ErrInvalidRepeatCount is returned when an action repeat count is below 1.
	ErrInvalidRepeatCount = errors.New("input: invalid repeat count")
	// ErrUnknownActionKind is returned for an action kind outside ActionKind.
	ErrUnknownActionKind = errors.New("input: unknown action kind")
	// ErrUnknownEventKind is returned when a raw event carries an event kind
	// outside DeviceEventKind.
	ErrUnknownEventKind = errors.New("input: unknown event kind")
	// ErrMalformedEventRecord is returned when a raw event lacks its key or
	// mouse sub-record.
	ErrMalformedEventRecord = errors.New("input: malformed event record")
	// ErrUnsupported is returned by native engines and sources on platforms
	// they do not support.
	ErrUnsupported = errors.New("input: not supported on this platform")
	// ErrEngineClosed is returned when a plan is handed to a closed engine.
	ErrEngineClosed = errors.New("input: engine closed")
)

// Point is a 2-D integer coordinate, used for cursor positions and scroll deltas.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// KeyCode is the key representation native engines consume.
type KeyCode uint16

// Key returns the logical key for the code.
func (c KeyCode) Key() keys.Key {
	return keys.Key(c)
}

func (c KeyCode) String() string {
	return keys.Key(c).String()
}

// KeyCodeSet is an ordered sequence of native key codes translated one-to-one
// from logical keys.
type KeyCodeSet []KeyCode

// NewKeyCodeSet translates ks into native key codes, preserving order and
// duplicates. It fails for an empty argument or for a key that cannot be
// represented as a native code; range checks beyond that belong to the engine.
func NewKeyCodeSet(ks ...keys.Key) (KeyCodeSet, error) {
	if len(ks) == 0 {
		return nil, fmt.Errorf("%w: no keys", ErrInvalidKeyArgument)
	}
	set := make(KeyCodeSet, len(ks))
	for i, k := range ks {
		if k < 0 || k > 0xFFFF {
			return nil, fmt.Errorf("%w: key %d out of native range", ErrInvalidKeyArgument, int(k))
		}
		set[i] = KeyCode(k)
	}
	return set, nil
}

// Keys returns the logical keys of the set.
func (s KeyCodeSet) Keys() []keys.Key {
	out := make([]keys.Key, len(s))
	for i, c := range s {
		out[i] = keys.Key(c)
	}
	return out
}

// Equal reports whether both sets hold the same codes in the same order.
func (s KeyCodeSet) Equal(other KeyCodeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s KeyCodeSet) String() string {
	return keys.FormatCombo(s.Keys())
}

// Engine executes input plans against an input subsystem.
type Engine interface {
	// Execute runs actions in order. An invalid plan is rejected before any
	// action runs.
	Execute(ctx context.Context, actions []Action) error
	Close() error
}

// Source produces raw event records from a native hook or monitor.
type Source interface {
	Start() error
	Stop() error
	Events() <-chan RawEvent
}

// EngineOptions configures native engines.
type EngineOptions struct {
	// DeviceName names the virtual device where the platform creates one.
	DeviceName string
	// KeyDelay is slept between primitive steps. Zero disables it.
	KeyDelay time.Duration
}

// DefaultEngineOptions returns the options used when none are configured.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		DeviceName: "devinput virtual device",
		KeyDelay:   5 * time.Millisecond,
	}
}
