package input

import "fmt"

// DeviceEventKind classifies a raw device event. The numeric values are the
// wire encoding used by native event sources.
type DeviceEventKind int32

const (
	EventNone       DeviceEventKind = -1
	EventKeyDown    DeviceEventKind = 0
	EventKeyPress   DeviceEventKind = 1
	EventKeyUp      DeviceEventKind = 2
	EventMouseMove  DeviceEventKind = 3
	EventMouseWheel DeviceEventKind = 4
	EventMouseTilt  DeviceEventKind = 5
)

var eventKindNames = map[DeviceEventKind]string{
	EventNone:       "none",
	EventKeyDown:    "key_down",
	EventKeyPress:   "key_press",
	EventKeyUp:      "key_up",
	EventMouseMove:  "mouse_move",
	EventMouseWheel: "mouse_wheel",
	EventMouseTilt:  "mouse_tilt",
}

// ToDeviceEventKind maps a wire value to its kind. Values outside the closed
// set fail with ErrUnknownEventKind.
func ToDeviceEventKind(v int) (DeviceEventKind, error) {
	k := DeviceEventKind(v)
	if int(k) != v || !k.Valid() {
		return EventNone, fmt.Errorf("%w: %d", ErrUnknownEventKind, v)
	}
	return k, nil
}

// Valid reports whether k is one of the defined kinds.
func (k DeviceEventKind) Valid() bool {
	_, ok := eventKindNames[k]
	return ok
}

// IsKey reports whether k is a keyboard (or mouse button) event.
func (k DeviceEventKind) IsKey() bool {
	return k == EventKeyDown || k == EventKeyPress || k == EventKeyUp
}

// IsMouse reports whether k is a pointer movement or scroll event.
func (k DeviceEventKind) IsMouse() bool {
	return k == EventMouseMove || k == EventMouseWheel || k == EventMouseTilt
}

func (k DeviceEventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DeviceEventKind(%d)", int32(k))
}
