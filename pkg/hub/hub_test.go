package hub

import (
	"testing"
	"time"
)

func TestHubLifecycle(t *testing.T) {
	h := New("test", nil)
	if h.IsRunning() {
		t.Error("hub running before Run")
	}
	go h.Run()

	deadline := time.Now().Add(time.Second)
	for !h.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !h.IsRunning() {
		t.Fatal("hub never started")
	}
	if got := h.ClientCount(); got != 0 {
		t.Errorf("client count = %d, want 0", got)
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := New("test", nil)
	go h.Run()

	// Broadcasting with no clients must not block or error.
	if err := h.BroadcastJSON(map[string]string{"state": "idle"}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}
	h.BroadcastBinary([]byte{0xff, 0xd8})
}

func TestBroadcastJSONRejectsUnmarshalable(t *testing.T) {
	h := New("test", nil)
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestMessageConstructors(t *testing.T) {
	if m := NewJSONMessage([]byte(`{}`)); m.Type != JSONMessage {
		t.Errorf("type = %v, want JSONMessage", m.Type)
	}
	if m := NewBinaryMessage([]byte{1}); m.Type != BinaryMessage {
		t.Errorf("type = %v, want BinaryMessage", m.Type)
	}
}
