package input

// notchAccumulator turns raw wheel deltas into whole notches, carrying the
// remainder so high-resolution devices that report fractions of a notch
// still scroll. A change of direction drops the carried remainder.
type notchAccumulator struct {
	unit int32
	rem  int32
}

func (a *notchAccumulator) add(raw int32) int32 {
	if (raw > 0 && a.rem < 0) || (raw < 0 && a.rem > 0) {
		a.rem = 0
	}
	a.rem += raw
	n := a.rem / a.unit
	a.rem -= n * a.unit
	return n
}
