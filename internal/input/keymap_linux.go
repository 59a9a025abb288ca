//go:build linux

package input

import "devinput/internal/keys"

// Virtual-key to evdev key code mapping.
// Reference: linux/input-event-codes.h
var vkToEvdev = map[keys.Key]uint16{
	keys.Escape:   1,
	keys.D1:       2,
	keys.D2:       3,
	keys.D3:       4,
	keys.D4:       5,
	keys.D5:       6,
	keys.D6:       7,
	keys.D7:       8,
	keys.D8:       9,
	keys.D9:       10,
	keys.D0:       11,
	keys.OemMinus: 12,
	keys.OemPlus:  13,
	keys.Back:     14,
	keys.Tab:      15,
	keys.Q:        16,
	keys.W:        17,
	keys.E:        18,
	keys.R:        19,
	keys.T:        20,
	keys.Y:        21,
	keys.U:        22,
	keys.I:        23,
	keys.O:        24,
	keys.P:        25,

	keys.OemOpenBracket:  26,
	keys.OemCloseBracket: 27,
	keys.Return:          28,
	keys.Control:         29,
	keys.LControl:        29,

	keys.A:            30,
	keys.S:            31,
	keys.D:            32,
	keys.F:            33,
	keys.G:            34,
	keys.H:            35,
	keys.J:            36,
	keys.K:            37,
	keys.L:            38,
	keys.OemSemicolon: 39,
	keys.OemQuotes:    40,
	keys.OemTilde:     41,
	keys.Shift:        42,
	keys.LShift:       42,
	keys.OemPipe:      43,
	keys.Z:            44,
	keys.X:            45,
	keys.C:            46,
	keys.V:            47,
	keys.B:            48,
	keys.N:            49,
	keys.M:            50,
	keys.OemComma:     51,
	keys.OemPeriod:    52,
	keys.OemQuestion:  53,
	keys.RShift:       54,
	keys.Multiply:     55,
	keys.Menu:         56,
	keys.LMenu:        56,
	keys.Space:        57,
	keys.Capital:      58,

	keys.F1:  59,
	keys.F2:  60,
	keys.F3:  61,
	keys.F4:  62,
	keys.F5:  63,
	keys.F6:  64,
	keys.F7:  65,
	keys.F8:  66,
	keys.F9:  67,
	keys.F10: 68,

	keys.NumLock:  69,
	keys.Scroll:   70,
	keys.NumPad7:  71,
	keys.NumPad8:  72,
	keys.NumPad9:  73,
	keys.Subtract: 74,
	keys.NumPad4:  75,
	keys.NumPad5:  76,
	keys.NumPad6:  77,
	keys.Add:      78,
	keys.NumPad1:  79,
	keys.NumPad2:  80,
	keys.NumPad3:  81,
	keys.NumPad0:  82,
	keys.Decimal:  83,
	keys.F11:      87,
	keys.F12:      88,

	keys.RControl: 97,
	keys.Divide:   98,
	keys.PrintScr: 99,
	keys.RMenu:    100,
	keys.Home:     102,
	keys.Up:       103,
	keys.PageUp:   104,
	keys.Left:     105,
	keys.Right:    106,
	keys.End:      107,
	keys.Down:     108,
	keys.PageDown: 109,
	keys.Insert:   110,
	keys.Delete:   111,
	keys.Pause:    119,
	keys.LWin:     125,
	keys.RWin:     126,
	keys.Apps:     127,

	keys.F13: 183,
	keys.F14: 184,
	keys.F15: 185,
	keys.F16: 186,
	keys.F17: 187,
	keys.F18: 188,
	keys.F19: 189,
	keys.F20: 190,
	keys.F21: 191,
	keys.F22: 192,
	keys.F23: 193,
	keys.F24: 194,

	keys.LButton:  0x110,
	keys.RButton:  0x111,
	keys.MButton:  0x112,
	keys.XButton1: 0x113,
	keys.XButton2: 0x114,
}

// evdevToVK is the reverse of vkToEvdev. Generic modifiers lose to their
// left-hand variants so decoded events report the physical key.
var evdevToVK = make(map[uint16]keys.Key, len(vkToEvdev))

func init() {
	for vk, code := range vkToEvdev {
		switch vk {
		case keys.Control, keys.Shift, keys.Menu:
			continue
		}
		evdevToVK[code] = vk
	}
}
