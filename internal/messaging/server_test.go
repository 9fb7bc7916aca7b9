package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"
)

func startServer(t *testing.T) *NatsServer {
	t.Helper()

	s, err := NewNatsServer(WithPort(-1), WithStartTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-s.Ready():
	case err := <-done:
		t.Fatalf("server stopped early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not become ready")
	}
	return s
}

func TestNatsServer_NotStarted(t *testing.T) {
	s, err := NewNatsServer(WithPort(-1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.Subscribe("anything", func([]byte, string) {})
	testutil.AssertErrorContains(t, err, "not started")
	testutil.AssertErrorContains(t, s.Publish("anything", nil), "not started")
}

func TestNatsServer_RequestReply(t *testing.T) {
	s := startServer(t)

	unsub, err := s.Subscribe("grants", func(data []byte, reply string) {
		_ = s.Publish(reply, append([]byte("ack:"), data...))
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsub()

	c, err := Connect(s.ClientURL(), "test-client")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	owner := uuid.New()
	got := make(chan string, 1)
	stop, err := c.Subscribe(PlayerSubject(owner), func(data []byte, _ string) {
		got <- string(data)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stop()
	if err := c.Flush(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.PublishRequest("grants", PlayerSubject(owner), []byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case msg := <-got:
		testutil.AssertEqual(t, "reply", msg, "ack:hello")
	case <-time.After(5 * time.Second):
		t.Fatal("no reply")
	}
}

func TestPlayerPublisher(t *testing.T) {
	s := startServer(t)
	owner := uuid.New()

	got := make(chan []byte, 1)
	unsub, err := s.Subscribe("player-"+owner.String(), func(data []byte, _ string) {
		got <- data
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsub()

	if err := NewPlayerPublisher(s).PublishToPlayer(owner, []byte("update")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case data := <-got:
		testutil.AssertEqual(t, "data", string(data), "update")
	case <-time.After(5 * time.Second):
		t.Fatal("no message")
	}
}
