package services

import (
	"testing"
	"time"
)

func TestEventHub_AddressedDelivery(t *testing.T) {
	hub := &EventHub{clients: make(map[string]eventClient)}

	id1, ch1 := hub.Subscribe(1)
	id2, ch2 := hub.Subscribe(2)
	defer hub.Unsubscribe(id1)
	defer hub.Unsubscribe(id2)

	hub.Publish(NotificationEvent{ID: 10, UserID: 1, Type: "application_created"})

	select {
	case event := <-ch1:
		if event.ID != 10 {
			t.Errorf("event id = %d, want 10", event.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber for user 1 got nothing")
	}

	select {
	case event := <-ch2:
		t.Fatalf("subscriber for user 2 got foreign event %+v", event)
	default:
	}
}

func TestEventHub_MultipleSubscribersSameUser(t *testing.T) {
	hub := &EventHub{clients: make(map[string]eventClient)}

	id1, ch1 := hub.Subscribe(7)
	id2, ch2 := hub.Subscribe(7)
	defer hub.Unsubscribe(id1)
	defer hub.Unsubscribe(id2)

	hub.Publish(NotificationEvent{ID: 1, UserID: 7})

	for i, ch := range []<-chan NotificationEvent{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d got nothing", i)
		}
	}
}

func TestEventHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := &EventHub{clients: make(map[string]eventClient)}

	id, ch := hub.Subscribe(1)
	hub.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}

	// Unsubscribing twice is harmless.
	hub.Unsubscribe(id)
}

func TestEventHub_SlowClientSkipped(t *testing.T) {
	hub := &EventHub{clients: make(map[string]eventClient)}

	id, _ := hub.Subscribe(1)
	defer hub.Unsubscribe(id)

	// Fill the buffer and keep publishing; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(NotificationEvent{ID: uint(i), UserID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow client")
	}
}
