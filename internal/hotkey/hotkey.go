// Package hotkey matches key combos against decoded device state.
package hotkey

import (
	"sync"

	"devinput/internal/input"
	"devinput/internal/keys"

	"github.com/kataras/golog"
)

var logger = golog.Child("[hotkey]")

// generic modifiers match either side
var sides = map[keys.Key][]keys.Key{
	keys.Control: {keys.Control, keys.LControl, keys.RControl},
	keys.Shift:   {keys.Shift, keys.LShift, keys.RShift},
	keys.Menu:    {keys.Menu, keys.LMenu, keys.RMenu},
	keys.LWin:    {keys.LWin, keys.RWin},
}

// Manager handles hotkey registration and matching
type Manager struct {
	mu      sync.Mutex
	hotkeys []*registeredHotkey
}

type registeredHotkey struct {
	parts    []keys.Key
	original string
	callback func()
	active   bool // fired and not yet released
}

// NewManager creates a new hotkey manager
func NewManager() *Manager {
	return &Manager{}
}

// Register registers a combo string (e.g. "Ctrl+Alt+1", "Mouse4+Mouse5")
// and its callback. Callbacks run on their own goroutine.
func (m *Manager) Register(combo string, callback func()) error {
	parts, err := keys.ParseCombo(combo)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: combo,
		callback: callback,
	})
	return nil
}

// Clear removes all registered hotkeys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// Len returns the number of registered hotkeys.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hotkeys)
}

// Handle checks st against every registered combo. A combo fires on a key
// down event once all its keys are pressed, and fires again only after one
// of them has been released.
func (m *Manager) Handle(st *input.DeviceState) {
	if st == nil || !st.Kind().IsKey() {
		return
	}
	ks := st.Key()

	m.mu.Lock()
	var fire []*registeredHotkey
	for _, hk := range m.hotkeys {
		held := allPressed(ks, hk.parts)
		switch {
		case !held:
			hk.active = false
		case st.Kind() == input.EventKeyDown && !hk.active:
			hk.active = true
			fire = append(fire, hk)
		}
	}
	m.mu.Unlock()

	for _, hk := range fire {
		logger.Infof("hotkey triggered: %s", hk.original)
		go hk.callback()
	}
}

func allPressed(ks input.KeyState, parts []keys.Key) bool {
	for _, k := range parts {
		if !pressed(ks, k) {
			return false
		}
	}
	return true
}

func pressed(ks input.KeyState, k keys.Key) bool {
	if alts, ok := sides[k]; ok {
		for _, a := range alts {
			if ks.Pressed(input.KeyCode(a)) {
				return true
			}
		}
		return false
	}
	return ks.Pressed(input.KeyCode(k))
}
