package input

import (
	"errors"
	"sync"
	"testing"
)

func sampleRecord() *RawEvent {
	return &RawEvent{
		Kind: 1,
		Key: &RawKeyRecord{
			Target: "kbd0",
			Keys:   []KeyEntry{{Key: 65, Value: true}},
		},
		Mouse: &RawMouseRecord{
			Target:   "mouse0",
			Position: RawPoint{X: 100, Y: 200},
			Scroll:   RawPoint{X: 0, Y: -1},
		},
	}
}

// TestDecode tests decoding of a complete record
func TestDecode(t *testing.T) {
	st, err := Decode(sampleRecord())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if st.Kind() != EventKeyPress {
		t.Errorf("Expected key_press, got %s", st.Kind())
	}
	if st.Key().Target() != "kbd0" {
		t.Errorf("Expected key target 'kbd0', got '%s'", st.Key().Target())
	}
	km := st.Key().Keys()
	if len(km) != 1 || !km[65] {
		t.Errorf("Expected keys {65: true}, got %v", km)
	}
	m := st.Mouse()
	if m.Target != "mouse0" {
		t.Errorf("Expected mouse target 'mouse0', got '%s'", m.Target)
	}
	if m.Position != Pt(100, 200) {
		t.Errorf("Expected position (100, 200), got %s", m.Position)
	}
	if m.Scroll != Pt(0, -1) {
		t.Errorf("Expected scroll (0, -1), got %s", m.Scroll)
	}
}

// TestDecodeUnknownKind tests that out-of-range kinds fail without a snapshot
func TestDecodeUnknownKind(t *testing.T) {
	rec := sampleRecord()
	rec.Kind = 99
	st, err := Decode(rec)
	if !errors.Is(err, ErrUnknownEventKind) {
		t.Errorf("Expected ErrUnknownEventKind, got %v", err)
	}
	if st != nil {
		t.Error("Expected no snapshot on failure")
	}
}

// TestDecodeMalformed tests records with missing sub-records
func TestDecodeMalformed(t *testing.T) {
	noKey := sampleRecord()
	noKey.Key = nil
	noMouse := sampleRecord()
	noMouse.Mouse = nil

	for name, rec := range map[string]*RawEvent{"nil": nil, "no key": noKey, "no mouse": noMouse} {
		st, err := Decode(rec)
		if !errors.Is(err, ErrMalformedEventRecord) {
			t.Errorf("%s: expected ErrMalformedEventRecord, got %v", name, err)
		}
		if st != nil {
			t.Errorf("%s: expected no snapshot", name)
		}
	}
}

// TestDecodeCopiesRecord tests that later record mutation does not reach the snapshot
func TestDecodeCopiesRecord(t *testing.T) {
	rec := sampleRecord()
	st, err := Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	rec.Kind = 3
	rec.Key.Target = "other"
	rec.Key.Keys[0] = KeyEntry{Key: 66, Value: false}
	rec.Key.Keys = append(rec.Key.Keys, KeyEntry{Key: 67, Value: true})
	rec.Mouse.Target = "other"
	rec.Mouse.Position.X = -5
	rec.Mouse.Scroll.Y = 7

	if st.Kind() != EventKeyPress {
		t.Errorf("Kind changed to %s", st.Kind())
	}
	if st.Key().Target() != "kbd0" || st.Mouse().Target != "mouse0" {
		t.Error("Targets changed after record mutation")
	}
	if st.Key().Len() != 1 || !st.Key().Pressed(65) {
		t.Errorf("Keys changed after record mutation: %v", st.Key().Keys())
	}
	if st.Mouse().Position != Pt(100, 200) || st.Mouse().Scroll != Pt(0, -1) {
		t.Error("Mouse points changed after record mutation")
	}
}

// TestKeyStateAccessorsDoNotMutate tests that callers cannot change a snapshot
func TestKeyStateAccessorsDoNotMutate(t *testing.T) {
	st, _ := Decode(sampleRecord())
	km := st.Key().Keys()
	km[65] = false
	km[1] = true
	if !st.Key().Pressed(65) || st.Key().Len() != 1 {
		t.Error("Snapshot changed through the map returned by Keys")
	}
	if v, ok := st.Key().Value(1); ok || v {
		t.Error("Expected code 1 to be absent")
	}
}

// TestDecodeDuplicateEntries tests that the last entry for a code wins
func TestDecodeDuplicateEntries(t *testing.T) {
	rec := sampleRecord()
	rec.Key.Keys = []KeyEntry{{Key: 65, Value: true}, {Key: 16, Value: true}, {Key: 65, Value: false}}
	st, err := Decode(rec)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if st.Key().Len() != 2 {
		t.Errorf("Expected 2 keys, got %d", st.Key().Len())
	}
	if v, ok := st.Key().Value(65); !ok || v {
		t.Errorf("Expected 65 present and released, got %v %v", v, ok)
	}
	codes := st.Key().Codes()
	if codes[0] != 16 || codes[1] != 65 {
		t.Errorf("Expected sorted codes [16 65], got %v", codes)
	}
}

// TestDecodeConcurrent tests independent decodes from many goroutines
func TestDecodeConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := sampleRecord()
			rec.Mouse.Position.X = int32(i)
			st, err := Decode(rec)
			if err != nil {
				errs <- err
				return
			}
			if st.Mouse().Position.X != i {
				errs <- errors.New("position mixed up between decodes")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// TestDeviceStateString tests the readable form of a snapshot
func TestDeviceStateString(t *testing.T) {
	st, _ := Decode(sampleRecord())
	want := "key_press key[kbd0: A] mouse[mouse0: pos=(100, 200) scroll=(0, -1)]"
	if st.String() != want {
		t.Errorf("Expected %q, got %q", want, st.String())
	}
}
