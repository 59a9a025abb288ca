//go:build linux

package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const evdevEventSize = int(unsafe.Sizeof(inputEvent{}))

// EvdevSource reads /dev/input event devices and emits one raw record per
// input frame (SYN_REPORT). Key state and the cursor position are shared
// across all opened devices.
type EvdevSource struct {
	paths  []string
	events chan RawEvent

	mu      sync.Mutex
	files   []*os.File
	running bool
	wg      sync.WaitGroup

	stateMu sync.Mutex
	pressed map[KeyCode]bool
	cursor  RawPoint
}

// NewSource creates the native event source for this platform, reading every
// /dev/input/event* device.
func NewSource() Source {
	paths, _ := filepath.Glob("/dev/input/event*")
	return NewEvdevSource(paths...)
}

// NewEvdevSource creates a source over the given device paths.
func NewEvdevSource(paths ...string) *EvdevSource {
	return &EvdevSource{
		paths:   paths,
		pressed: make(map[KeyCode]bool),
	}
}

// Start opens the devices and begins reading. Devices that cannot be opened
// are skipped; Start fails only if none could be opened.
func (s *EvdevSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("input: source already running")
	}

	for _, p := range s.paths {
		f, err := os.OpenFile(p, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			logger.Debugf("skipping %s: %v", p, err)
			continue
		}
		s.files = append(s.files, f)
	}
	if len(s.files) == 0 {
		return fmt.Errorf("input: no readable event devices among %d path(s)", len(s.paths))
	}

	s.running = true
	s.events = make(chan RawEvent, 1000)
	for _, f := range s.files {
		s.wg.Add(1)
		go s.readLoop(f)
	}
	logger.Infof("evdev source reading %d device(s)", len(s.files))
	return nil
}

// Stop closes the devices and the events channel.
func (s *EvdevSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	for _, f := range s.files {
		f.Close()
	}
	s.files = nil
	s.mu.Unlock()

	s.wg.Wait()
	close(s.events)
	return nil
}

// Events returns the raw record channel.
func (s *EvdevSource) Events() <-chan RawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// frame accumulates the events of one device between two SYN_REPORTs.
type frame struct {
	kind   DeviceEventKind
	keys   map[KeyCode]int32
	move   RawPoint
	scroll RawPoint
	dirty  bool
}

func newFrame() frame {
	return frame{kind: EventNone, keys: make(map[KeyCode]int32)}
}

// apply adds one evdev event to the frame and reports whether a SYN_REPORT
// completed a frame worth publishing.
func (fr *frame) apply(ev inputEvent) bool {
	switch ev.Type {
	case evKey:
		vk, ok := evdevToVK[ev.Code]
		if !ok {
			return false
		}
		fr.keys[KeyCode(vk)] = ev.Value
		fr.kind = keyEventKind(ev.Value)
		fr.dirty = true
	case evRel:
		switch ev.Code {
		case relX:
			fr.move.X += ev.Value
		case relY:
			fr.move.Y += ev.Value
		case relWheel:
			fr.scroll.Y += ev.Value
		case relHWheel:
			fr.scroll.X += ev.Value
		default:
			return false
		}
		fr.dirty = true
	case evSyn:
		return ev.Code == synReport && fr.dirty
	}
	return false
}

func (s *EvdevSource) readLoop(f *os.File) {
	defer s.wg.Done()

	target := f.Name()
	buf := make([]byte, evdevEventSize)
	fr := newFrame()

	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			if !errors.Is(err, os.ErrClosed) {
				logger.Debugf("%s: read stopped: %v", target, err)
			}
			return
		}

		var ev inputEvent
		ev.Type = binary.NativeEndian.Uint16(buf[evdevEventSize-8:])
		ev.Code = binary.NativeEndian.Uint16(buf[evdevEventSize-6:])
		ev.Value = int32(binary.NativeEndian.Uint32(buf[evdevEventSize-4:]))

		if fr.apply(ev) {
			s.publish(target, &fr)
			fr = newFrame()
		}
	}
}

func keyEventKind(value int32) DeviceEventKind {
	switch value {
	case 0:
		return EventKeyUp
	case 2:
		// autorepeat
		return EventKeyPress
	default:
		return EventKeyDown
	}
}

// publish emits the record for a completed frame, dropping it when the
// consumer is behind.
func (s *EvdevSource) publish(target string, fr *frame) {
	select {
	case s.events <- s.fold(target, fr):
	default:
	}
}

// fold merges a frame into the shared key and cursor state and returns a
// fresh record of the result.
func (s *EvdevSource) fold(target string, fr *frame) RawEvent {
	s.stateMu.Lock()

	kind := fr.kind
	if kind == EventNone {
		switch {
		case fr.scroll.Y != 0:
			kind = EventMouseWheel
		case fr.scroll.X != 0:
			kind = EventMouseTilt
		case fr.move.X != 0 || fr.move.Y != 0:
			kind = EventMouseMove
		}
	}

	for code, v := range fr.keys {
		s.pressed[code] = v != 0
	}
	s.cursor.X += fr.move.X
	s.cursor.Y += fr.move.Y

	entries := make([]KeyEntry, 0, len(s.pressed))
	for code, down := range s.pressed {
		entries = append(entries, KeyEntry{Key: code, Value: down})
		// released keys are reported once, then forgotten
		if !down {
			delete(s.pressed, code)
		}
	}
	cursor := s.cursor
	s.stateMu.Unlock()

	return RawEvent{
		Kind:  int32(kind),
		Key:   &RawKeyRecord{Target: target, Keys: entries},
		Mouse: &RawMouseRecord{Target: target, Position: cursor, Scroll: fr.scroll},
	}
}
