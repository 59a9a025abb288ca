package input

import (
	"fmt"

	"devinput/internal/keys"
)

// charStroke is the key and shift state that produces a character on a US
// keyboard layout.
type charStroke struct {
	code  KeyCode
	shift bool
}

var usLayout = map[rune]charStroke{
	' ':  {KeyCode(keys.Space), false},
	'\n': {KeyCode(keys.Return), false},
	'\t': {KeyCode(keys.Tab), false},
	'-':  {KeyCode(keys.OemMinus), false},
	'_':  {KeyCode(keys.OemMinus), true},
	'=':  {KeyCode(keys.OemPlus), false},
	'+':  {KeyCode(keys.OemPlus), true},
	'[':  {KeyCode(keys.OemOpenBracket), false},
	'{':  {KeyCode(keys.OemOpenBracket), true},
	']':  {KeyCode(keys.OemCloseBracket), false},
	'}':  {KeyCode(keys.OemCloseBracket), true},
	'\\': {KeyCode(keys.OemPipe), false},
	'|':  {KeyCode(keys.OemPipe), true},
	';':  {KeyCode(keys.OemSemicolon), false},
	':':  {KeyCode(keys.OemSemicolon), true},
	'\'': {KeyCode(keys.OemQuotes), false},
	'"':  {KeyCode(keys.OemQuotes), true},
	',':  {KeyCode(keys.OemComma), false},
	'<':  {KeyCode(keys.OemComma), true},
	'.':  {KeyCode(keys.OemPeriod), false},
	'>':  {KeyCode(keys.OemPeriod), true},
	'/':  {KeyCode(keys.OemQuestion), false},
	'?':  {KeyCode(keys.OemQuestion), true},
	'`':  {KeyCode(keys.OemTilde), false},
	'~':  {KeyCode(keys.OemTilde), true},
}

// shifted digits, indexed by digit
const digitSymbols = ")!@#$%^&*("

func init() {
	for r := 'a'; r <= 'z'; r++ {
		code := KeyCode(keys.A) + KeyCode(r-'a')
		usLayout[r] = charStroke{code, false}
		usLayout[r-'a'+'A'] = charStroke{code, true}
	}
	for i, sym := range digitSymbols {
		code := KeyCode(keys.D0) + KeyCode(i)
		usLayout[rune('0'+i)] = charStroke{code, false}
		usLayout[sym] = charStroke{code, true}
	}
}

// strokesFor resolves text into key strokes for engines that cannot send
// characters directly.
func strokesFor(text string) ([]charStroke, error) {
	out := make([]charStroke, 0, len(text))
	for _, r := range text {
		s, ok := usLayout[r]
		if !ok {
			return nil, fmt.Errorf("%w: no key for character %q", ErrInvalidKeyArgument, r)
		}
		out = append(out, s)
	}
	return out, nil
}

// typeStrokes drives a key-only driver through text, wrapping shifted
// characters in Shift.
func typeStrokes(d driver, text string) error {
	strokes, err := strokesFor(text)
	if err != nil {
		return err
	}
	shift := KeyCode(keys.Shift)
	for _, s := range strokes {
		if s.shift {
			if err := d.keyDown(shift); err != nil {
				return err
			}
		}
		if err := d.keyDown(s.code); err != nil {
			return err
		}
		if err := d.keyUp(s.code); err != nil {
			return err
		}
		if s.shift {
			if err := d.keyUp(shift); err != nil {
				return err
			}
		}
	}
	return nil
}
