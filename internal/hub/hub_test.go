package hub

import (
	"context"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcast(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	a := &Client{hub: h, send: make(chan []byte, 1)}
	b := &Client{hub: h, send: make(chan []byte, 1)}
	h.Register(a)
	h.Register(b)
	waitFor(t, func() bool { return h.Len() == 2 })

	h.Broadcast([]byte("one"))
	for _, c := range []*Client{a, b} {
		if got := string(<-c.send); got != "one" {
			t.Errorf("got %q", got)
		}
	}

	// a's buffer fills and it gets dropped; b keeps draining.
	h.Broadcast([]byte("two"))
	<-b.send
	h.Broadcast([]byte("three"))
	waitFor(t, func() bool { return h.Len() == 1 })
	if got := string(<-b.send); got != "three" {
		t.Errorf("got %q", got)
	}
}

func TestRunStopClosesClients(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	c := &Client{hub: h, send: make(chan []byte, 1)}
	h.Register(c)
	waitFor(t, func() bool { return h.Len() == 1 })
	cancel()
	<-stopped

	if _, ok := <-c.send; ok {
		t.Error("send channel still open")
	}
	h.Unregister(c)

	late := &Client{hub: h, send: make(chan []byte, 1)}
	h.Register(late)
	if _, ok := <-late.send; ok {
		t.Error("late client accepted after stop")
	}
}
