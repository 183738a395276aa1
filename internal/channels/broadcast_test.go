package channels

import (
	"errors"
	"testing"
	"time"

	"garden-alert-service/internal/models"
)

type fakeConn struct {
	writeErr error
	writes   int
	closed   bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.writes++
	return f.writeErr
}
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetReadLimit(limit int64)           {}
func (f *fakeConn) SetPongHandler(h func(string) error) {}
func (f *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("no more messages")
}
func (f *fakeConn) Close() error { f.closed = true; return nil }

func TestBroadcastNoSubscribersIsNoOp(t *testing.T) {
	b := NewBroadcastChannel(nil)
	b.Broadcast(models.Alert{AlertID: "a1"})
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.SubscriberCount())
	}
}

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcastChannel(nil)
	c1 := &fakeConn{}
	c2 := &fakeConn{}
	b.addSubscriberForTest("sub1", c1)
	b.addSubscriberForTest("sub2", c2)

	b.Broadcast(models.Alert{AlertID: "a1"})

	if c1.writes != 1 || c2.writes != 1 {
		t.Fatalf("expected both subscribers to receive 1 message, got %d/%d", c1.writes, c2.writes)
	}
	if b.SubscriberCount() != 2 {
		t.Fatalf("expected 2 subscribers still connected, got %d", b.SubscriberCount())
	}
}

func TestBroadcastDropsFailingSubscriberWithoutAffectingOthers(t *testing.T) {
	b := NewBroadcastChannel(nil)
	failing := &fakeConn{writeErr: errors.New("connection reset")}
	healthy := &fakeConn{}
	b.addSubscriberForTest("failing", failing)
	b.addSubscriberForTest("healthy", healthy)

	b.Broadcast(models.Alert{AlertID: "a1"})

	if !failing.closed {
		t.Fatal("expected failing subscriber's connection to be closed")
	}
	if healthy.writes != 1 {
		t.Fatalf("expected healthy subscriber to still receive the message, got %d writes", healthy.writes)
	}
	if b.SubscriberCount() != 1 {
		t.Fatalf("expected failing subscriber removed, count = %d", b.SubscriberCount())
	}
}
