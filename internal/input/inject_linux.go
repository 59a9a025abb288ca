//go:build linux

package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"devinput/internal/keys"

	"golang.org/x/sys/unix"
)

// uinput ioctls and event codes (uinput.h, input-event-codes.h)
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566

	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	synReport = 0x00

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	busUSB      = 0x03
	maxNameSize = 80
	absSize     = 64
)

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type userDev struct {
	Name       [maxNameSize]byte
	ID         inputID
	EffectsMax uint32
	Absmax     [absSize]int32
	Absmin     [absSize]int32
	Absfuzz    [absSize]int32
	Absflat    [absSize]int32
}

type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// UinputEngine injects input through a virtual keyboard and mouse created on
// /dev/uinput.
type UinputEngine struct {
	mu     sync.Mutex
	file   *os.File
	delay  time.Duration
	closed bool
}

// NewEngine creates the native engine for this platform.
func NewEngine(opts EngineOptions) (Engine, error) {
	return NewUinputEngine(opts)
}

// NewUinputEngine creates the virtual device. The caller needs write access to
// /dev/uinput.
func NewUinputEngine(opts EngineOptions) (*UinputEngine, error) {
	f, err := os.OpenFile("/dev/uinput", unix.O_WRONLY|unix.O_NONBLOCK, 0660)
	if err != nil {
		return nil, fmt.Errorf("failed to open uinput: %w", err)
	}

	if err := setupUinput(f, opts.DeviceName); err != nil {
		f.Close()
		return nil, err
	}

	// udev needs a moment before the new device accepts events
	time.Sleep(200 * time.Millisecond)

	logger.Infof("uinput device %q created", opts.DeviceName)
	return &UinputEngine{file: f, delay: opts.KeyDelay}, nil
}

func setupUinput(f *os.File, name string) error {
	fd := f.Fd()
	for _, ev := range []uintptr{evKey, evRel, evSyn} {
		if err := ioctl(fd, uiSetEvBit, ev); err != nil {
			return fmt.Errorf("failed to set event bit %d: %w", ev, err)
		}
	}
	for _, code := range vkToEvdev {
		if err := ioctl(fd, uiSetKeyBit, uintptr(code)); err != nil {
			return fmt.Errorf("failed to set key bit %d: %w", code, err)
		}
	}
	for _, rel := range []uintptr{relX, relY, relWheel, relHWheel} {
		if err := ioctl(fd, uiSetRelBit, rel); err != nil {
			return fmt.Errorf("failed to set rel bit %d: %w", rel, err)
		}
	}

	dev := userDev{
		ID: inputID{Bustype: busUSB, Vendor: 0x1209, Product: 0x0001, Version: 1},
	}
	copy(dev.Name[:maxNameSize-1], name)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.NativeEndian, &dev); err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write device description: %w", err)
	}
	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

func ioctl(fd, req, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// Execute runs the plan on the virtual device. Plans are serialized.
func (e *UinputEngine) Execute(ctx context.Context, actions []Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	return runPlan(ctx, e, actions, e.delay)
}

// Close destroys the virtual device.
func (e *UinputEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	_ = ioctl(e.file.Fd(), uiDevDestroy, 0)
	return e.file.Close()
}

func (e *UinputEngine) emit(typ, code uint16, value int32) error {
	ev := inputEvent{Type: typ, Code: code, Value: value}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.NativeEndian, &ev); err != nil {
		return err
	}
	syn := inputEvent{Type: evSyn, Code: synReport}
	if err := binary.Write(&buf, binary.NativeEndian, &syn); err != nil {
		return err
	}
	_, err := e.file.Write(buf.Bytes())
	return err
}

func (e *UinputEngine) key(c KeyCode, value int32) error {
	code, ok := vkToEvdev[keys.Key(c)]
	if !ok {
		return fmt.Errorf("%w: no evdev code for %s", ErrInvalidKeyArgument, c)
	}
	return e.emit(evKey, code, value)
}

func (e *UinputEngine) keyDown(c KeyCode) error { return e.key(c, 1) }

func (e *UinputEngine) keyUp(c KeyCode) error { return e.key(c, 0) }

func (e *UinputEngine) text(s string) error {
	return typeStrokes(e, s)
}

func (e *UinputEngine) wheel(delta int) error {
	return e.emit(evRel, relWheel, int32(delta))
}

func (e *UinputEngine) tilt(delta int) error {
	return e.emit(evRel, relHWheel, int32(delta))
}
