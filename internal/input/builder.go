package input

import (
	"fmt"

	"devinput/internal/keys"
)

// Builder accumulates an ordered plan of actions through chainable calls:
//
//	b := input.NewBuilder().
//		KeyDown(1, keys.Control).
//		KeyPress(1, keys.C).
//		KeyUp(1, keys.Control).
//		Wheel(-1, 3)
//
// Arguments are validated eagerly. The first invalid call is recorded, appends
// nothing, and turns every later call into a no-op; Err reports it. A Builder
// is not safe for concurrent use.
type Builder struct {
	actions []Action
	err     error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// KeyDown appends a key-down of every key in ks, repeated n times.
func (b *Builder) KeyDown(n int, ks ...keys.Key) *Builder {
	return b.appendKeys(ActionKeyDown, n, ks)
}

// KeyUp appends a key-up of every key in ks, repeated n times.
func (b *Builder) KeyUp(n int, ks ...keys.Key) *Builder {
	return b.appendKeys(ActionKeyUp, n, ks)
}

// KeyPress appends a press of the key combination ks, repeated n times.
func (b *Builder) KeyPress(n int, ks ...keys.Key) *Builder {
	return b.appendKeys(ActionKeyPress, n, ks)
}

// Press is KeyPress with a repeat count of 1.
func (b *Builder) Press(ks ...keys.Key) *Builder {
	return b.KeyPress(1, ks...)
}

// KeyPressText appends typing of texts, repeated n times. The texts are not
// translated to key codes; the engine resolves characters itself.
func (b *Builder) KeyPressText(n int, texts ...string) *Builder {
	if b.err != nil {
		return b
	}
	if len(texts) == 0 {
		return b.fail(fmt.Errorf("%w: %s without text", ErrInvalidKeyArgument, ActionKeyPressText))
	}
	return b.append(Action{
		Kind:   ActionKeyPressText,
		Texts:  append([]string(nil), texts...),
		Repeat: n,
	})
}

// Type is KeyPressText with a repeat count of 1.
func (b *Builder) Type(texts ...string) *Builder {
	return b.KeyPressText(1, texts...)
}

// Wheel appends a vertical wheel movement of delta notches, repeated n times.
// Positive values scroll forward, away from the user.
func (b *Builder) Wheel(delta, n int) *Builder {
	return b.append(Action{Kind: ActionWheel, Delta: delta, Repeat: n})
}

// Tilt appends a horizontal wheel movement of delta notches, repeated n
// times. Positive values scroll right.
func (b *Builder) Tilt(delta, n int) *Builder {
	return b.append(Action{Kind: ActionTilt, Delta: delta, Repeat: n})
}

// Append appends already-built actions, validating each one.
func (b *Builder) Append(actions ...Action) *Builder {
	for _, a := range actions {
		b.append(a.clone())
	}
	return b
}

func (b *Builder) appendKeys(kind ActionKind, n int, ks []keys.Key) *Builder {
	if b.err != nil {
		return b
	}
	set, err := NewKeyCodeSet(ks...)
	if err != nil {
		return b.fail(fmt.Errorf("%s: %w", kind, err))
	}
	return b.append(Action{Kind: kind, Keys: set, Repeat: n})
}

func (b *Builder) append(a Action) *Builder {
	if b.err != nil {
		return b
	}
	if err := a.Validate(); err != nil {
		return b.fail(err)
	}
	b.actions = append(b.actions, a)
	return b
}

func (b *Builder) fail(err error) *Builder {
	b.err = err
	return b
}

// Err returns the first error recorded by a chained call.
func (b *Builder) Err() error {
	return b.err
}

// Len returns the number of queued actions.
func (b *Builder) Len() int {
	return len(b.actions)
}

// Actions returns a copy of the queued actions in call order.
func (b *Builder) Actions() []Action {
	out := make([]Action, len(b.actions))
	for i, a := range b.actions {
		out[i] = a.clone()
	}
	return out
}

// Build returns the queued plan, or the recorded error.
func (b *Builder) Build() ([]Action, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.Actions(), nil
}

// Reset empties the builder and clears any recorded error.
func (b *Builder) Reset() *Builder {
	b.actions = nil
	b.err = nil
	return b
}
