package network

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"devinput/internal/input"
	"devinput/internal/protocol"
)

const (
	listenerTimeout = 30 * time.Second
	cleanupInterval = 10 * time.Second
)

// EventSender streams raw event records over UDP to every receiver that has
// registered with it. Receivers that stop sending heartbeats are dropped.
type EventSender struct {
	conn        *net.UDPConn
	port        int
	listeners   map[string]*udpListener
	listenersMu sync.RWMutex
	seq         uint32 // atomic, monotonically increasing
	done        chan struct{}
	stopOnce    sync.Once
}

type udpListener struct {
	addr     *net.UDPAddr
	lastSeen time.Time
}

// NewEventSender creates a sender bound to port once started. Port 0 picks a
// free port.
func NewEventSender(port int) *EventSender {
	return &EventSender{
		port:      port,
		listeners: make(map[string]*udpListener),
		done:      make(chan struct{}),
	}
}

// Start binds the UDP socket and begins listening for registrations.
func (s *EventSender) Start() error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: s.port})
	if err != nil {
		return err
	}
	s.conn = conn

	// 1 MB write buffer for bursts of events
	conn.SetWriteBuffer(1 << 20)
	conn.SetReadBuffer(1 << 16)

	logger.Infof("event sender listening on %s", conn.LocalAddr())

	go s.readLoop()
	go s.cleanupLoop()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *EventSender) Addr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// readLoop handles register and heartbeat packets.
func (s *EventSender) readLoop() {
	buf := make([]byte, 64)
	for {
		n, remoteAddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}

		pkt, err := protocol.DecodeUDPPacket(buf[:n])
		if err != nil {
			continue
		}

		switch pkt.Type {
		case protocol.UDPPacketRegister:
			s.touch(remoteAddr, "register")
			ack, _ := protocol.EncodeUDPPacket(&protocol.UDPPacket{
				Type:      protocol.UDPPacketAck,
				Timestamp: time.Now().UnixMilli(),
			})
			s.conn.WriteToUDP(ack, remoteAddr)
		case protocol.UDPPacketHeartbeat:
			s.touch(remoteAddr, "heartbeat")
		}
	}
}

func (s *EventSender) touch(addr *net.UDPAddr, via string) {
	key := addr.String()
	s.listenersMu.Lock()
	if _, exists := s.listeners[key]; !exists {
		logger.Infof("listener registered from %s (via %s)", key, via)
	}
	s.listeners[key] = &udpListener{addr: addr, lastSeen: time.Now()}
	s.listenersMu.Unlock()
}

// cleanupLoop removes listeners that have gone quiet.
func (s *EventSender) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.expire(time.Now())
		case <-s.done:
			return
		}
	}
}

func (s *EventSender) expire(now time.Time) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	for key, l := range s.listeners {
		if now.Sub(l.lastSeen) > listenerTimeout {
			logger.Infof("removing stale listener %s", key)
			delete(s.listeners, key)
		}
	}
}

// Send encodes rec and writes it to every registered listener. Key
// transitions are sent more than once since UDP has no delivery guarantee;
// receivers drop the copies by sequence number.
func (s *EventSender) Send(rec *input.RawEvent) error {
	if !s.HasListeners() {
		return nil
	}
	data, err := protocol.EncodeUDPPacket(&protocol.UDPPacket{
		Type:      protocol.UDPPacketEvent,
		Seq:       atomic.AddUint32(&s.seq, 1),
		Timestamp: time.Now().UnixMilli(),
		Event:     rec,
	})
	if err != nil {
		return err
	}

	redundancy := 1
	switch input.DeviceEventKind(rec.Kind) {
	case input.EventKeyDown, input.EventKeyUp:
		redundancy = 3
	case input.EventMouseWheel, input.EventMouseTilt:
		redundancy = 2
	}
	s.broadcast(data, redundancy)
	return nil
}

func (s *EventSender) broadcast(data []byte, redundancy int) {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()

	for _, l := range s.listeners {
		for i := 0; i < redundancy; i++ {
			s.conn.WriteToUDP(data, l.addr)
		}
	}
}

// HasListeners returns true if at least one receiver is registered.
func (s *EventSender) HasListeners() bool {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	return len(s.listeners) > 0
}

// Listeners returns the number of registered receivers.
func (s *EventSender) Listeners() int {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	return len(s.listeners)
}

// Stop shuts down the sender.
func (s *EventSender) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}
