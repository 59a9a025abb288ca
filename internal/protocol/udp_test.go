package protocol

import (
	"errors"
	"testing"

	"devinput/internal/input"
)

func TestEncodeDecodeEvent(t *testing.T) {
	ev := &input.RawEvent{
		Kind: -1,
		Key: &input.RawKeyRecord{
			Target: "kbd0",
			Keys:   []input.KeyEntry{{Key: 65, Value: true}, {Key: 0xA0, Value: false}},
		},
		Mouse: &input.RawMouseRecord{
			Target:   "mouse0",
			Position: input.RawPoint{X: -100, Y: 200},
			Scroll:   input.RawPoint{X: 0, Y: -1},
		},
	}
	data, err := EncodeUDPPacket(&UDPPacket{Type: UDPPacketEvent, Seq: 7, Timestamp: 12345, Event: ev})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	wantLen := UDPHeaderSize + 1 + 1 + 4 + 2 + 2*3 + 1 + 6 + 16
	if len(data) != wantLen {
		t.Errorf("Expected %d bytes, got %d", wantLen, len(data))
	}

	pkt, err := DecodeUDPPacket(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if pkt.Seq != 7 || pkt.Timestamp != 12345 {
		t.Errorf("Header mismatch: seq=%d ts=%d", pkt.Seq, pkt.Timestamp)
	}
	got := pkt.Event
	if got.Kind != -1 {
		t.Errorf("Expected kind -1, got %d", got.Kind)
	}
	if got.Key.Target != "kbd0" || len(got.Key.Keys) != 2 {
		t.Fatalf("Unexpected key record: %+v", got.Key)
	}
	if got.Key.Keys[0] != ev.Key.Keys[0] || got.Key.Keys[1] != ev.Key.Keys[1] {
		t.Errorf("Key entries mismatch: %+v", got.Key.Keys)
	}
	if got.Mouse.Target != "mouse0" || got.Mouse.Position != ev.Mouse.Position || got.Mouse.Scroll != ev.Mouse.Scroll {
		t.Errorf("Unexpected mouse record: %+v", got.Mouse)
	}

	// decoded records feed straight into input.Decode
	st, err := input.Decode(got)
	if err != nil {
		t.Fatalf("input.Decode failed: %v", err)
	}
	if st.Kind() != input.EventNone {
		t.Errorf("Expected none, got %s", st.Kind())
	}
}

func TestControlPackets(t *testing.T) {
	for _, typ := range []uint8{UDPPacketRegister, UDPPacketHeartbeat, UDPPacketAck} {
		data, err := EncodeUDPPacket(&UDPPacket{Type: typ, Seq: 1})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if len(data) != UDPHeaderSize {
			t.Errorf("Expected %d bytes, got %d", UDPHeaderSize, len(data))
		}
		pkt, err := DecodeUDPPacket(data)
		if err != nil || pkt.Type != typ || pkt.Event != nil {
			t.Errorf("Unexpected decode of type 0x%02x: %+v %v", typ, pkt, err)
		}
	}
}

func TestDecodeRejectsBadPackets(t *testing.T) {
	if _, err := DecodeUDPPacket([]byte{UDPPacketEvent, 0, 0}); !errors.Is(err, ErrPacketTooShort) {
		t.Errorf("Expected ErrPacketTooShort, got %v", err)
	}

	unknown := make([]byte, UDPHeaderSize)
	unknown[0] = 0x7F
	if _, err := DecodeUDPPacket(unknown); !errors.Is(err, ErrUnknownPacketType) {
		t.Errorf("Expected ErrUnknownPacketType, got %v", err)
	}

	ev := &input.RawEvent{Kind: 0, Key: &input.RawKeyRecord{Target: "k"}, Mouse: &input.RawMouseRecord{Target: "m"}}
	data, _ := EncodeUDPPacket(&UDPPacket{Type: UDPPacketEvent, Event: ev})
	if _, err := DecodeUDPPacket(data[:len(data)-3]); !errors.Is(err, ErrPacketTooShort) {
		t.Errorf("Expected truncated event to fail, got %v", err)
	}
}

func TestEncodeRejectsMalformedEvent(t *testing.T) {
	_, err := EncodeUDPPacket(&UDPPacket{Type: UDPPacketEvent, Event: &input.RawEvent{}})
	if !errors.Is(err, input.ErrMalformedEventRecord) {
		t.Errorf("Expected ErrMalformedEventRecord, got %v", err)
	}

	// a kind that would wrap to a valid int8 is refused, not truncated
	_, err = EncodeUDPPacket(&UDPPacket{Type: UDPPacketEvent, Event: &input.RawEvent{
		Kind:  257,
		Key:   &input.RawKeyRecord{Target: "kbd0"},
		Mouse: &input.RawMouseRecord{Target: "mouse0"},
	}})
	if !errors.Is(err, input.ErrUnknownEventKind) {
		t.Errorf("Expected ErrUnknownEventKind for kind 257, got %v", err)
	}
}
