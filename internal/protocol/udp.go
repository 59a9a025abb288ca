package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"devinput/internal/input"
)

// UDP Packet types
const (
	UDPPacketEvent     uint8 = 0x01
	UDPPacketRegister  uint8 = 0x10
	UDPPacketHeartbeat uint8 = 0x11
	UDPPacketAck       uint8 = 0x12 // Sender -> Receiver: confirms UDP path is open
)

// Header: [type(1)] [seq(4)] [timestamp(8)] = 13 bytes
const UDPHeaderSize = 13

// MaxTargetLen is the longest target name an event packet can carry.
const MaxTargetLen = 255

var (
	ErrPacketTooShort    = errors.New("udp: packet too short")
	ErrUnknownPacketType = errors.New("udp: unknown packet type")
)

// UDPPacket is one datagram of the event stream.
//
// Wire format per type:
//
//	Event     (0x01): header + kind(int8)
//	                  + keyTargetLen(uint8) + keyTarget
//	                  + nKeys(uint16) + nKeys * (code(uint16) + value(uint8))
//	                  + mouseTargetLen(uint8) + mouseTarget
//	                  + posX posY scrollX scrollY (int32 each)
//	Register  (0x10): header only = 13 bytes
//	Heartbeat (0x11): header only = 13 bytes
//	Ack       (0x12): header only = 13 bytes
//
// All integers are big-endian.
type UDPPacket struct {
	Type      uint8
	Seq       uint32
	Timestamp int64
	Event     *input.RawEvent // set for UDPPacketEvent only
}

// EncodeUDPPacket serializes a UDPPacket to wire format.
func EncodeUDPPacket(pkt *UDPPacket) ([]byte, error) {
	size := UDPHeaderSize
	ev := pkt.Event
	if pkt.Type == UDPPacketEvent {
		if ev == nil || ev.Key == nil || ev.Mouse == nil {
			return nil, fmt.Errorf("udp: %w", input.ErrMalformedEventRecord)
		}
		if _, err := input.ToDeviceEventKind(int(ev.Kind)); err != nil {
			return nil, fmt.Errorf("udp: %w", err)
		}
		if len(ev.Key.Target) > MaxTargetLen || len(ev.Mouse.Target) > MaxTargetLen {
			return nil, errors.New("udp: target name too long")
		}
		if len(ev.Key.Keys) > 0xFFFF {
			return nil, errors.New("udp: too many keys")
		}
		size += 1 + 1 + len(ev.Key.Target) + 2 + 3*len(ev.Key.Keys) + 1 + len(ev.Mouse.Target) + 16
	}

	buf := make([]byte, size)
	buf[0] = pkt.Type
	binary.BigEndian.PutUint32(buf[1:5], pkt.Seq)
	binary.BigEndian.PutUint64(buf[5:13], uint64(pkt.Timestamp))

	if pkt.Type != UDPPacketEvent {
		return buf, nil
	}

	p := buf[UDPHeaderSize:]
	p[0] = byte(int8(ev.Kind))
	p = p[1:]
	p[0] = uint8(len(ev.Key.Target))
	p = p[1+copy(p[1:], ev.Key.Target):]
	binary.BigEndian.PutUint16(p, uint16(len(ev.Key.Keys)))
	p = p[2:]
	for _, k := range ev.Key.Keys {
		binary.BigEndian.PutUint16(p, uint16(k.Key))
		if k.Value {
			p[2] = 1
		}
		p = p[3:]
	}
	p[0] = uint8(len(ev.Mouse.Target))
	p = p[1+copy(p[1:], ev.Mouse.Target):]
	binary.BigEndian.PutUint32(p[0:4], uint32(ev.Mouse.Position.X))
	binary.BigEndian.PutUint32(p[4:8], uint32(ev.Mouse.Position.Y))
	binary.BigEndian.PutUint32(p[8:12], uint32(ev.Mouse.Scroll.X))
	binary.BigEndian.PutUint32(p[12:16], uint32(ev.Mouse.Scroll.Y))

	return buf, nil
}

// DecodeUDPPacket deserializes wire bytes into a UDPPacket. The returned
// event shares no memory with data.
func DecodeUDPPacket(data []byte) (*UDPPacket, error) {
	if len(data) < UDPHeaderSize {
		return nil, ErrPacketTooShort
	}

	pkt := &UDPPacket{
		Type:      data[0],
		Seq:       binary.BigEndian.Uint32(data[1:5]),
		Timestamp: int64(binary.BigEndian.Uint64(data[5:13])),
	}

	switch pkt.Type {
	case UDPPacketEvent:
		ev, err := decodeEvent(data[UDPHeaderSize:])
		if err != nil {
			return nil, err
		}
		pkt.Event = ev
	case UDPPacketRegister, UDPPacketHeartbeat, UDPPacketAck:
		// no payload
	default:
		return nil, ErrUnknownPacketType
	}

	return pkt, nil
}

// reader walks a payload, remembering the first short read.
type reader struct {
	p   []byte
	err error
}

func (r *reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.p) < n {
		r.err = fmt.Errorf("%w: event payload truncated", ErrPacketTooShort)
		return nil
	}
	b := r.p[:n]
	r.p = r.p[n:]
	return b
}

func (r *reader) u8() uint8 {
	if b := r.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.next(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *reader) i32() int32 {
	if b := r.next(4); b != nil {
		return int32(binary.BigEndian.Uint32(b))
	}
	return 0
}

func (r *reader) str() string {
	n := int(r.u8())
	return string(r.next(n))
}

func decodeEvent(payload []byte) (*input.RawEvent, error) {
	r := &reader{p: payload}
	kind := int32(int8(r.u8()))
	keyTarget := r.str()
	n := int(r.u16())
	var entries []input.KeyEntry
	for i := 0; i < n && r.err == nil; i++ {
		code := r.u16()
		entries = append(entries, input.KeyEntry{Key: input.KeyCode(code), Value: r.u8() != 0})
	}
	mouseTarget := r.str()
	px, py, sx, sy := r.i32(), r.i32(), r.i32(), r.i32()
	if r.err != nil {
		return nil, r.err
	}

	return &input.RawEvent{
		Kind: kind,
		Key:  &input.RawKeyRecord{Target: keyTarget, Keys: entries},
		Mouse: &input.RawMouseRecord{
			Target:   mouseTarget,
			Position: input.RawPoint{X: px, Y: py},
			Scroll:   input.RawPoint{X: sx, Y: sy},
		},
	}, nil
}
