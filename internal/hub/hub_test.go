package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	return h
}

func waitForCount(t *testing.T, h *Hub, runID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.SubscriberCount(runID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subscriber count for %s never reached %d (got %d)", runID, want, h.SubscriberCount(runID))
}

func TestPublishReachesRunSubscribers(t *testing.T) {
	h := startHub(t)

	sub := h.NewSubscriber(nil, "run_11111111")
	h.Register(sub)
	waitForCount(t, h, "run_11111111", 1)

	h.Publish(Event{
		Type:    EventMessage,
		RunID:   "run_11111111",
		Phase:   "research",
		Source:  "planner",
		Role:    "assistant",
		Content: "research plan",
	})

	select {
	case data := <-sub.Send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if ev.Type != EventMessage {
			t.Errorf("type = %q, want message", ev.Type)
		}
		if ev.Source != "planner" || ev.Content != "research plan" {
			t.Errorf("unexpected event payload: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishIsolatedPerRun(t *testing.T) {
	h := startHub(t)

	watching := h.NewSubscriber(nil, "run_aaaaaaaa")
	other := h.NewSubscriber(nil, "run_bbbbbbbb")
	h.Register(watching)
	h.Register(other)
	waitForCount(t, h, "run_aaaaaaaa", 1)
	waitForCount(t, h, "run_bbbbbbbb", 1)

	h.Publish(Event{Type: EventStatus, RunID: "run_aaaaaaaa", Status: "COMPLETED"})

	select {
	case <-watching.Send:
	case <-time.After(2 * time.Second):
		t.Fatal("watching subscriber never received the event")
	}

	select {
	case data := <-other.Send:
		t.Fatalf("subscriber of another run received event: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := startHub(t)

	sub := h.NewSubscriber(nil, "run_cccccccc")
	h.Register(sub)
	waitForCount(t, h, "run_cccccccc", 1)

	h.Unregister(sub)
	waitForCount(t, h, "run_cccccccc", 0)

	select {
	case _, ok := <-sub.Send:
		if ok {
			t.Fatal("expected closed channel, got a value")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel never closed")
	}
}

func TestStatusEventOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventStatus, RunID: "run_dddddddd", Status: "STOPPED"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if raw["status"] != "STOPPED" {
		t.Errorf("status = %v, want STOPPED", raw["status"])
	}
	for _, key := range []string{"phase", "source", "role", "content", "reason"} {
		if _, present := raw[key]; present {
			t.Errorf("empty field %q should be omitted", key)
		}
	}
}
