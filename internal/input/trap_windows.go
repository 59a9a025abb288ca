//go:build windows

package input

import (
	"errors"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"devinput/internal/keys"

	"golang.org/x/sys/windows"
)

// Windows implementation of the event source using low-level hooks

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
	wmMouseHWheel = 0x020E

	keyboardTarget = "keyboard"
	mouseTarget    = "mouse"
)

var (
	procSetWindowsHookEx   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook  = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx     = user32.NewProc("CallNextHookEx")
	procGetMessage         = user32.NewProc("GetMessageW")
	procPostThreadMessage  = user32.NewProc("PostThreadMessageW")
	procGetCursorPos       = user32.NewProc("GetCursorPos")
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle    = kernel32.NewProc("GetModuleHandleW")
	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")
)

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// HookSource captures keyboard and mouse input with WH_KEYBOARD_LL and
// WH_MOUSE_LL hooks installed on a dedicated OS thread.
type HookSource struct {
	mu       sync.Mutex
	running  bool
	threadID uintptr
	done     chan struct{}
	events   chan RawEvent

	pressed map[KeyCode]bool
	cursor  RawPoint
	wheelY  notchAccumulator
	wheelX  notchAccumulator
}

// NewSource creates the native event source for this platform.
func NewSource() Source {
	return &HookSource{
		pressed: make(map[KeyCode]bool),
		wheelY:  notchAccumulator{unit: wheelDelta},
		wheelX:  notchAccumulator{unit: wheelDelta},
	}
}

// Start installs the hooks.
func (s *HookSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("input: source already running")
	}

	s.events = make(chan RawEvent, 1000)
	s.done = make(chan struct{})
	started := make(chan error, 1)
	go s.hookThread(started)
	if err := <-started; err != nil {
		return err
	}
	s.running = true
	return nil
}

// Stop removes the hooks and closes the events channel.
func (s *HookSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	procPostThreadMessage.Call(s.threadID, wmQuit, 0, 0)
	<-s.done
	close(s.events)
	return nil
}

// Events returns the raw record channel.
func (s *HookSource) Events() <-chan RawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// hookThread installs both hooks and pumps messages; hooks are only called
// on the thread that installed them.
func (s *HookSource) hookThread(started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	s.threadID, _, _ = procGetCurrentThreadID.Call()
	hMod, _, _ := procGetModuleHandle.Call(0)

	keyHook, _, err := procSetWindowsHookEx.Call(whKeyboardLL, syscall.NewCallback(s.keyboardProc), hMod, 0)
	if keyHook == 0 {
		started <- err
		return
	}
	defer procUnhookWindowsHook.Call(keyHook)

	mouseHook, _, err := procSetWindowsHookEx.Call(whMouseLL, syscall.NewCallback(s.mouseProc), hMod, 0)
	if mouseHook == 0 {
		started <- err
		return
	}
	defer procUnhookWindowsHook.Call(mouseHook)

	var pt point
	procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	s.cursor = RawPoint{X: pt.X, Y: pt.Y}

	logger.Infof("low-level hooks installed")
	started <- nil

	var m msg
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}
	logger.Infof("hook thread exiting")
}

func (s *HookSource) keyboardProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		hs := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		code := KeyCode(hs.VkCode)
		switch wParam {
		case wmKeyDown, wmSysKeyDown:
			kind := EventKeyDown
			if s.pressed[code] {
				kind = EventKeyPress
			}
			s.emitKey(kind, keyboardTarget, code, true)
		case wmKeyUp, wmSysKeyUp:
			s.emitKey(EventKeyUp, keyboardTarget, code, false)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func (s *HookSource) mouseProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		hs := (*msllHookStruct)(unsafe.Pointer(lParam))
		s.cursor = RawPoint{X: hs.Pt.X, Y: hs.Pt.Y}
		// high word of MouseData carries the wheel delta or X button index
		hi := int16(hs.MouseData >> 16)

		switch wParam {
		case wmMouseMove:
			s.emit(EventMouseMove, mouseTarget, RawPoint{})
		case wmMouseWheel:
			if n := s.wheelY.add(int32(hi)); n != 0 {
				s.emit(EventMouseWheel, mouseTarget, RawPoint{Y: n})
			}
		case wmMouseHWheel:
			if n := s.wheelX.add(int32(hi)); n != 0 {
				s.emit(EventMouseTilt, mouseTarget, RawPoint{X: n})
			}
		case wmLButtonDown:
			s.emitKey(EventKeyDown, mouseTarget, KeyCode(keys.LButton), true)
		case wmLButtonUp:
			s.emitKey(EventKeyUp, mouseTarget, KeyCode(keys.LButton), false)
		case wmRButtonDown:
			s.emitKey(EventKeyDown, mouseTarget, KeyCode(keys.RButton), true)
		case wmRButtonUp:
			s.emitKey(EventKeyUp, mouseTarget, KeyCode(keys.RButton), false)
		case wmMButtonDown:
			s.emitKey(EventKeyDown, mouseTarget, KeyCode(keys.MButton), true)
		case wmMButtonUp:
			s.emitKey(EventKeyUp, mouseTarget, KeyCode(keys.MButton), false)
		case wmXButtonDown, wmXButtonUp:
			btn := KeyCode(keys.XButton1)
			if hi == xButton2 {
				btn = KeyCode(keys.XButton2)
			}
			s.emitKey(EventKeyDown, mouseTarget, btn, wParam == wmXButtonDown)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

// emitKey updates the pressed set and emits; the hook thread is the only
// writer of s.pressed and s.cursor.
func (s *HookSource) emitKey(kind DeviceEventKind, target string, code KeyCode, down bool) {
	if !down {
		kind = EventKeyUp
	}
	s.pressed[code] = down
	s.emit(kind, target, RawPoint{})
	if !down {
		delete(s.pressed, code)
	}
}

func (s *HookSource) emit(kind DeviceEventKind, target string, scroll RawPoint) {
	entries := make([]KeyEntry, 0, len(s.pressed))
	for code, v := range s.pressed {
		entries = append(entries, KeyEntry{Key: code, Value: v})
	}
	rec := RawEvent{
		Kind:  int32(kind),
		Key:   &RawKeyRecord{Target: target, Keys: entries},
		Mouse: &RawMouseRecord{Target: mouseTarget, Position: s.cursor, Scroll: scroll},
	}
	// never block inside a hook
	select {
	case s.events <- rec:
	default:
	}
}
