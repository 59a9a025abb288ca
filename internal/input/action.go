package input

import (
	"fmt"
	"strings"
)

// ActionKind identifies the kind of a queued input action.
type ActionKind int

const (
	ActionKeyDown ActionKind = iota
	ActionKeyUp
	ActionKeyPress
	ActionKeyPressText
	ActionWheel
	ActionTilt
)

var actionKindNames = [...]string{
	ActionKeyDown:      "key_down",
	ActionKeyUp:        "key_up",
	ActionKeyPress:     "key_press",
	ActionKeyPressText: "key_press_text",
	ActionWheel:        "wheel",
	ActionTilt:         "tilt",
}

func (k ActionKind) String() string {
	if k >= 0 && int(k) < len(actionKindNames) {
		return actionKindNames[k]
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// ParseActionKind is the inverse of ActionKind.String.
func ParseActionKind(s string) (ActionKind, error) {
	for i, name := range actionKindNames {
		if name == s {
			return ActionKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownActionKind, s)
}

// Action is one queued operation. Which payload field is meaningful depends
// on Kind:
//
//	ActionKeyDown, ActionKeyUp, ActionKeyPress: Keys
//	ActionKeyPressText:                         Texts
//	ActionWheel, ActionTilt:                    Delta
//
// Repeat applies to every kind and is at least 1.
type Action struct {
	Kind   ActionKind
	Keys   KeyCodeSet
	Texts  []string
	Delta  int
	Repeat int
}

// Validate checks the action against its kind.
func (a Action) Validate() error {
	if a.Repeat < 1 {
		return fmt.Errorf("%w: %s repeat %d", ErrInvalidRepeatCount, a.Kind, a.Repeat)
	}
	switch a.Kind {
	case ActionKeyDown, ActionKeyUp, ActionKeyPress:
		if len(a.Keys) == 0 {
			return fmt.Errorf("%w: %s without keys", ErrInvalidKeyArgument, a.Kind)
		}
	case ActionKeyPressText:
		if len(a.Texts) == 0 {
			return fmt.Errorf("%w: %s without text", ErrInvalidKeyArgument, a.Kind)
		}
	case ActionWheel, ActionTilt:
	default:
		return fmt.Errorf("%w %d", ErrUnknownActionKind, int(a.Kind))
	}
	return nil
}

// clone returns a copy that shares no slices with a.
func (a Action) clone() Action {
	if a.Keys != nil {
		a.Keys = append(KeyCodeSet(nil), a.Keys...)
	}
	if a.Texts != nil {
		a.Texts = append([]string(nil), a.Texts...)
	}
	return a
}

func (a Action) String() string {
	var payload string
	switch a.Kind {
	case ActionKeyDown, ActionKeyUp, ActionKeyPress:
		payload = a.Keys.String()
	case ActionKeyPressText:
		payload = fmt.Sprintf("%q", strings.Join(a.Texts, ""))
	default:
		payload = fmt.Sprintf("%d", a.Delta)
	}
	return fmt.Sprintf("%s(%s, %d)", a.Kind, payload, a.Repeat)
}

// ValidatePlan validates every action of a plan and reports the first failure
// together with its index.
func ValidatePlan(actions []Action) error {
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}
