package network

import (
	"fmt"
	"testing"
	"time"

	"devinput/internal/input"
)

// TestSeqDedup tests that repeated sequence numbers are detected
func TestSeqDedup(t *testing.T) {
	d := newSeqDedup()
	if d.isDuplicate(1) {
		t.Error("First sighting of 1 reported as duplicate")
	}
	if !d.isDuplicate(1) {
		t.Error("Second sighting of 1 not reported as duplicate")
	}

	// push 1 out of the ring
	for seq := uint32(2); seq < 2+uint32(len(d.ring)); seq++ {
		d.isDuplicate(seq)
	}
	if d.isDuplicate(1) {
		t.Error("Expected 1 to be forgotten after the ring wrapped")
	}
}

// TestEventStreamLoopback tests a sender and receiver over loopback UDP
func TestEventStreamLoopback(t *testing.T) {
	sender := NewEventSender(0)
	if err := sender.Start(); err != nil {
		t.Fatalf("sender Start failed: %v", err)
	}
	defer sender.Stop()

	states := make(chan *input.DeviceState, 16)
	receiver := NewEventReceiver(fmt.Sprintf("127.0.0.1:%d", sender.Addr().Port))
	receiver.OnState = func(st *input.DeviceState) { states <- st }
	if !receiver.Probe() {
		t.Fatal("Probe got no ack from sender")
	}
	if err := receiver.Start(); err != nil {
		t.Fatalf("receiver Start failed: %v", err)
	}
	defer receiver.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for sender.Listeners() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	// the probe socket registered too
	if sender.Listeners() != 2 {
		t.Fatalf("Expected 2 listeners, got %d", sender.Listeners())
	}

	rec := &input.RawEvent{
		Kind:  int32(input.EventKeyDown),
		Key:   &input.RawKeyRecord{Target: "kbd0", Keys: []input.KeyEntry{{Key: 65, Value: true}}},
		Mouse: &input.RawMouseRecord{Target: "mouse0", Position: input.RawPoint{X: 3, Y: 4}},
	}
	if err := sender.Send(rec); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case st := <-states:
		if st.Kind() != input.EventKeyDown || !st.Key().Pressed(65) {
			t.Errorf("Unexpected state: %s", st)
		}
		if st.Mouse().Position != input.Pt(3, 4) {
			t.Errorf("Unexpected position: %s", st.Mouse().Position)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}

	// redundant copies of a key event are dropped
	select {
	case st := <-states:
		t.Errorf("Unexpected duplicate state: %s", st)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestSenderExpiresListeners tests stale listener cleanup
func TestSenderExpiresListeners(t *testing.T) {
	s := NewEventSender(0)
	now := time.Now()
	s.listeners["a"] = &udpListener{lastSeen: now.Add(-time.Minute)}
	s.listeners["b"] = &udpListener{lastSeen: now.Add(-time.Second)}

	s.expire(now)
	if _, ok := s.listeners["a"]; ok {
		t.Error("Expected stale listener to be removed")
	}
	if _, ok := s.listeners["b"]; !ok {
		t.Error("Expected fresh listener to be kept")
	}
}

// TestSendWithoutListeners tests that sending with nobody registered is a no-op
func TestSendWithoutListeners(t *testing.T) {
	s := NewEventSender(0)
	if err := s.Send(&input.RawEvent{}); err != nil {
		t.Errorf("Expected no error without listeners, got %v", err)
	}
}
