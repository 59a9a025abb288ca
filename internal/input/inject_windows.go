//go:build windows

package input

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf16"
	"unsafe"

	"devinput/internal/keys"

	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	keyEventFKeyUp   = 0x0002
	keyEventFUnicode = 0x0004

	mouseEventFLeftDown   = 0x0002
	mouseEventFLeftUp     = 0x0004
	mouseEventFRightDown  = 0x0008
	mouseEventFRightUp    = 0x0010
	mouseEventFMiddleDown = 0x0020
	mouseEventFMiddleUp   = 0x0040
	mouseEventFXDown      = 0x0080
	mouseEventFXUp        = 0x0100
	mouseEventFWheel      = 0x0800
	mouseEventFHWheel     = 0x1000

	wheelDelta = 120
	xButton1   = 0x0001
	xButton2   = 0x0002
)

type mouseInput struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// INPUT is a union; the keyboard variant is padded to the size of the mouse one.
type mouseINPUT struct {
	Type uint32
	Mi   mouseInput
}

type keybdINPUT struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

// SendInputEngine injects input with the user32 SendInput API.
type SendInputEngine struct {
	mu     sync.Mutex
	delay  time.Duration
	closed bool
}

// NewEngine creates the native engine for this platform.
func NewEngine(opts EngineOptions) (Engine, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &SendInputEngine{delay: opts.KeyDelay}, nil
}

// Execute runs the plan. Plans are serialized.
func (e *SendInputEngine) Execute(ctx context.Context, actions []Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	return runPlan(ctx, e, actions, e.delay)
}

// Close marks the engine closed.
func (e *SendInputEngine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

func sendInput(ptr unsafe.Pointer, size uintptr) error {
	n, _, err := procSendInput.Call(1, uintptr(ptr), size)
	if n != 1 {
		return fmt.Errorf("SendInput failed: %v", err)
	}
	return nil
}

func sendKey(vk, scan uint16, flags uint32) error {
	in := keybdINPUT{
		Type: inputKeyboard,
		Ki:   keybdInput{Vk: vk, Scan: scan, Flags: flags},
	}
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func sendMouse(flags, data uint32) error {
	in := mouseINPUT{
		Type: inputMouse,
		Mi:   mouseInput{Flags: flags, MouseData: data},
	}
	return sendInput(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func mouseButtonFlags(k keys.Key, down bool) (flags, data uint32, ok bool) {
	switch k {
	case keys.LButton:
		flags = mouseEventFLeftUp
		if down {
			flags = mouseEventFLeftDown
		}
	case keys.RButton:
		flags = mouseEventFRightUp
		if down {
			flags = mouseEventFRightDown
		}
	case keys.MButton:
		flags = mouseEventFMiddleUp
		if down {
			flags = mouseEventFMiddleDown
		}
	case keys.XButton1, keys.XButton2:
		flags = mouseEventFXUp
		if down {
			flags = mouseEventFXDown
		}
		data = xButton1
		if k == keys.XButton2 {
			data = xButton2
		}
	default:
		return 0, 0, false
	}
	return flags, data, true
}

func (e *SendInputEngine) key(c KeyCode, down bool) error {
	if flags, data, ok := mouseButtonFlags(keys.Key(c), down); ok {
		return sendMouse(flags, data)
	}
	var flags uint32
	if !down {
		flags = keyEventFKeyUp
	}
	return sendKey(uint16(c), 0, flags)
}

func (e *SendInputEngine) keyDown(c KeyCode) error { return e.key(c, true) }

func (e *SendInputEngine) keyUp(c KeyCode) error { return e.key(c, false) }

// text sends UTF-16 units directly, so no keyboard layout is involved.
func (e *SendInputEngine) text(s string) error {
	for _, u := range utf16.Encode([]rune(s)) {
		if err := sendKey(0, u, keyEventFUnicode); err != nil {
			return err
		}
		if err := sendKey(0, u, keyEventFUnicode|keyEventFKeyUp); err != nil {
			return err
		}
	}
	return nil
}

func (e *SendInputEngine) wheel(delta int) error {
	return sendMouse(mouseEventFWheel, uint32(int32(delta*wheelDelta)))
}

func (e *SendInputEngine) tilt(delta int) error {
	return sendMouse(mouseEventFHWheel, uint32(int32(delta*wheelDelta)))
}
