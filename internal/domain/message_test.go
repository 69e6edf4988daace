package domain

import "testing"

func TestTranscriptAppendAndLast(t *testing.T) {
	tr := NewTranscript()
	if _, ok := tr.Last(); ok {
		t.Fatal("empty transcript should have no last message")
	}

	tr.Append(Message{Source: "user", Role: RoleUser, Content: "task"})
	tr.Append(
		Message{Source: "planner", Role: RoleAssistant, Content: "plan"},
		Message{Source: "retriever", Role: RoleAssistant, Content: "evidence"},
	)

	if tr.Len() != 3 {
		t.Errorf("len = %d, want 3", tr.Len())
	}
	last, ok := tr.Last()
	if !ok || last.Source != "retriever" {
		t.Errorf("last = %+v, want retriever message", last)
	}
}

func TestTranscriptMessagesReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Source: "user", Role: RoleUser, Content: "original"})

	snapshot := tr.Messages()
	snapshot[0].Content = "mutated"

	fresh := tr.Messages()
	if fresh[0].Content != "original" {
		t.Errorf("transcript was mutated through a snapshot: %q", fresh[0].Content)
	}
}
