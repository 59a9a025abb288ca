package network

import (
	"net"
	"sync"
	"time"

	"devinput/internal/input"
	"devinput/internal/protocol"
)

// maxDatagram bounds one event packet: two 255-byte targets and a full
// pressed-key set fit comfortably.
const maxDatagram = 64 << 10

// EventReceiver registers with an EventSender, keeps the registration alive
// and turns every received record into a DeviceState.
type EventReceiver struct {
	senderAddr string
	conn       *net.UDPConn
	done       chan struct{}
	stopOnce   sync.Once

	// OnState is called for each decoded event, from the receive goroutine.
	OnState func(*input.DeviceState)

	// dedup ring buffer for redundant packets
	dedup seqDedup
}

// seqDedup tracks recently seen sequence numbers to discard redundant packets.
// Fixed-size ring buffer, O(1) lookup.
type seqDedup struct {
	ring [512]uint32
	pos  int
	seen map[uint32]struct{}
}

func newSeqDedup() seqDedup {
	return seqDedup{seen: make(map[uint32]struct{}, 512)}
}

func (d *seqDedup) isDuplicate(seq uint32) bool {
	if _, ok := d.seen[seq]; ok {
		return true
	}
	old := d.ring[d.pos]
	if old != 0 {
		delete(d.seen, old)
	}
	d.ring[d.pos] = seq
	d.seen[seq] = struct{}{}
	d.pos = (d.pos + 1) % len(d.ring)
	return false
}

// NewEventReceiver creates a receiver for the sender at senderAddr ("ip:port").
func NewEventReceiver(senderAddr string) *EventReceiver {
	return &EventReceiver{
		senderAddr: senderAddr,
		done:       make(chan struct{}),
		dedup:      newSeqDedup(),
	}
}

// Probe sends register packets and waits for an Ack. It reports whether the
// sender answered within about 1.5s.
func (r *EventReceiver) Probe() bool {
	senderUDP, err := net.ResolveUDPAddr("udp", r.senderAddr)
	if err != nil {
		logger.Warnf("probe: failed to resolve sender: %v", err)
		return false
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		logger.Warnf("probe: failed to bind: %v", err)
		return false
	}
	defer conn.Close()

	register, _ := protocol.EncodeUDPPacket(&protocol.UDPPacket{Type: protocol.UDPPacketRegister})
	buf := make([]byte, 64)
	for attempt := 0; attempt < 3; attempt++ {
		conn.WriteToUDP(register, senderUDP)

		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		resp, err := protocol.DecodeUDPPacket(buf[:n])
		if err != nil {
			continue
		}
		if resp.Type == protocol.UDPPacketAck {
			logger.Infof("probe: sender replied with ack (attempt %d)", attempt+1)
			return true
		}
	}

	logger.Warnf("probe: no ack after 3 attempts, UDP path blocked")
	return false
}

// Start opens a socket, registers with the sender and begins receiving.
func (r *EventReceiver) Start() error {
	senderUDP, err := net.ResolveUDPAddr("udp", r.senderAddr)
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return err
	}
	r.conn = conn
	conn.SetReadBuffer(1 << 20)

	logger.Infof("event receiver listening on %s, sender=%s", conn.LocalAddr(), r.senderAddr)

	r.sendControl(protocol.UDPPacketRegister, senderUDP)
	go r.heartbeatLoop(senderUDP)
	go r.readLoop()
	return nil
}

func (r *EventReceiver) heartbeatLoop(addr *net.UDPAddr) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sendControl(protocol.UDPPacketHeartbeat, addr)
		case <-r.done:
			return
		}
	}
}

func (r *EventReceiver) sendControl(pktType uint8, addr *net.UDPAddr) {
	data, _ := protocol.EncodeUDPPacket(&protocol.UDPPacket{
		Type:      pktType,
		Timestamp: time.Now().UnixMilli(),
	})
	r.conn.WriteToUDP(data, addr)
}

func (r *EventReceiver) readLoop() {
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
				continue
			}
		}

		pkt, err := protocol.DecodeUDPPacket(buf[:n])
		if err != nil {
			logger.Debugf("dropping packet: %v", err)
			continue
		}
		if pkt.Type != protocol.UDPPacketEvent {
			continue
		}
		if r.dedup.isDuplicate(pkt.Seq) {
			continue
		}
		r.dispatch(pkt)
	}
}

func (r *EventReceiver) dispatch(pkt *protocol.UDPPacket) {
	st, err := input.Decode(pkt.Event)
	if err != nil {
		logger.Warnf("dropping event seq=%d: %v", pkt.Seq, err)
		return
	}
	if r.OnState != nil {
		r.OnState(st)
	}
}

// Stop shuts down the receiver.
func (r *EventReceiver) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		if r.conn != nil {
			r.conn.Close()
		}
	})
}
