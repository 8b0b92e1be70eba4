package sse

import (
	"bufio"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBroker_PublishReachesSubscribers(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	b.PublishRegistryEvent("reloaded", map[string]string{"source": "watcher"})

	select {
	case raw := <-ch:
		msg := string(raw)
		if !strings.Contains(msg, "event: registry.reloaded") {
			t.Errorf("message = %q", msg)
		}
		if !strings.Contains(msg, `"source":"watcher"`) {
			t.Errorf("message = %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("clients = %d, want 1", n)
	}

	b.Unsubscribe(ch)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("clients after unsubscribe = %d, want 0", n)
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed after unsubscribe")
	}
}

func TestBroker_CloseClosesClients(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	b.Close()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client channel not closed")
	}

	// Operations on a closed broker are no-ops.
	b.Publish(Event{Type: "x"})
	if n := b.ClientCount(); n != 0 {
		t.Errorf("clients after close = %d, want 0", n)
	}
}

func TestBroker_ServeHTTP(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	// Wait for the subscription to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	b.PublishRegistryEvent("template_added", map[string]string{"id": "gln_lenta"})

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(line) != "event: registry.template_added" {
		t.Errorf("first line = %q", line)
	}
	line, err = r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(line, `"id":"gln_lenta"`) {
		t.Errorf("data line = %q", line)
	}
}
