package input

import (
	"context"
	"fmt"
	"time"
)

// driver is the set of primitive operations a native engine implements.
// runPlan expands actions into driver calls.
type driver interface {
	keyDown(code KeyCode) error
	keyUp(code KeyCode) error
	text(s string) error
	wheel(delta int) error
	tilt(delta int) error
}

// runPlan validates the whole plan, then executes it in order. ctx is checked
// before every repetition; delay is slept between primitive steps.
//
// When the plan aborts, on cancellation or a driver error, every key it
// pressed and has not released yet is released in reverse order, ignoring
// ctx. A plan that completes leaves KeyDown keys held as requested.
func runPlan(ctx context.Context, d driver, actions []Action, delay time.Duration) (err error) {
	if err := ValidatePlan(actions); err != nil {
		return err
	}

	pause := func() error {
		if delay <= 0 {
			return ctx.Err()
		}
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}

	held := &heldKeys{}
	defer func() {
		if err != nil {
			held.releaseAll(d)
		}
	}()

	for i, a := range actions {
		for n := 0; n < a.Repeat; n++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := runAction(d, a, held, pause); err != nil {
				return fmt.Errorf("action %d (%s): %w", i, a.Kind, err)
			}
		}
	}
	return nil
}

// heldKeys tracks keys pressed by the running plan, in press order.
type heldKeys struct {
	codes []KeyCode
}

func (h *heldKeys) down(c KeyCode) {
	h.up(c)
	h.codes = append(h.codes, c)
}

func (h *heldKeys) up(c KeyCode) {
	for i, held := range h.codes {
		if held == c {
			h.codes = append(h.codes[:i], h.codes[i+1:]...)
			return
		}
	}
}

// releaseAll lifts every held key, newest first. Errors are logged only;
// the plan already failed.
func (h *heldKeys) releaseAll(d driver) {
	for i := len(h.codes) - 1; i >= 0; i-- {
		if err := d.keyUp(h.codes[i]); err != nil {
			logger.Warnf("failed to release %s: %v", h.codes[i], err)
		}
	}
	h.codes = nil
}

func runAction(d driver, a Action, held *heldKeys, pause func() error) error {
	switch a.Kind {
	case ActionKeyDown:
		for _, c := range a.Keys {
			if err := d.keyDown(c); err != nil {
				return err
			}
			held.down(c)
			if err := pause(); err != nil {
				return err
			}
		}
	case ActionKeyUp:
		for _, c := range a.Keys {
			if err := d.keyUp(c); err != nil {
				return err
			}
			held.up(c)
			if err := pause(); err != nil {
				return err
			}
		}
	case ActionKeyPress:
		// press in order, release in reverse so modifiers wrap the combo
		for _, c := range a.Keys {
			if err := d.keyDown(c); err != nil {
				return err
			}
			held.down(c)
			if err := pause(); err != nil {
				return err
			}
		}
		for i := len(a.Keys) - 1; i >= 0; i-- {
			if err := d.keyUp(a.Keys[i]); err != nil {
				return err
			}
			held.up(a.Keys[i])
			if err := pause(); err != nil {
				return err
			}
		}
	case ActionKeyPressText:
		for _, s := range a.Texts {
			if err := d.text(s); err != nil {
				return err
			}
			if err := pause(); err != nil {
				return err
			}
		}
	case ActionWheel:
		if err := d.wheel(a.Delta); err != nil {
			return err
		}
		return pause()
	case ActionTilt:
		if err := d.tilt(a.Delta); err != nil {
			return err
		}
		return pause()
	}
	return nil
}

// Submit hands the builder's plan to engine and resets the builder so it can
// compose the next plan. A builder carrying an error is left untouched and
// nothing is executed.
func Submit(ctx context.Context, engine Engine, b *Builder) error {
	actions, err := b.Build()
	if err != nil {
		return err
	}
	b.Reset()
	if len(actions) == 0 {
		return nil
	}
	logger.Debugf("submitting plan of %d action(s)", len(actions))
	return engine.Execute(ctx, actions)
}

// Monitor starts src and decodes its records until ctx is done or the source
// closes its channel. Records that fail to decode are logged and skipped.
func Monitor(ctx context.Context, src Source, handle func(*DeviceState)) error {
	if err := src.Start(); err != nil {
		return err
	}
	defer src.Stop()

	events := src.Events()
	if events == nil {
		return ErrUnsupported
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-events:
			if !ok {
				return nil
			}
			st, err := Decode(&rec)
			if err != nil {
				logger.Warnf("dropping raw event: %v", err)
				continue
			}
			handle(st)
		}
	}
}
