package team

import (
	"testing"

	"github.com/lexcouncil/lexcouncil/internal/domain"
)

func msg(content string) domain.Message {
	return domain.Message{Source: "agent", Role: domain.RoleAssistant, Content: content}
}

func TestTextMentionSubstring(t *testing.T) {
	c := TextMention("APPROVE")

	if c.Check(msg("still working on it")) {
		t.Fatalf("fired without keyword")
	}
	if !c.Check(msg("The draft is good. APPROVE")) {
		t.Fatalf("did not fire on keyword")
	}
}

func TestTextMentionCaseSensitive(t *testing.T) {
	c := TextMention("APPROVE")

	if c.Check(msg("I approve of this")) {
		t.Fatalf("fired on lowercase match")
	}
	if !c.Check(msg("preAPPROVEd")) {
		t.Fatalf("did not fire on embedded substring")
	}
}

func TestTextMentionLatches(t *testing.T) {
	c := TextMention("APPROVE")

	c.Check(msg("APPROVE"))
	if !c.Check(msg("unrelated follow-up")) {
		t.Fatalf("latch released after firing")
	}
}

func TestMaxMessagesExact(t *testing.T) {
	c := MaxMessages(3)

	if c.Check(msg("one")) {
		t.Fatalf("fired at message 1")
	}
	if c.Check(msg("two")) {
		t.Fatalf("fired at message 2")
	}
	if !c.Check(msg("three")) {
		t.Fatalf("did not fire at message 3")
	}
}

func TestOrTerminatesAtCapWithoutKeyword(t *testing.T) {
	c := Or(TextMention("APPROVE"), MaxMessages(4))

	for i := 0; i < 3; i++ {
		if c.Check(msg("no keyword here")) {
			t.Fatalf("fired early at message %d", i+1)
		}
	}
	if !c.Check(msg("still no keyword")) {
		t.Fatalf("did not fire at the cap")
	}
}

func TestOrFiresOnEitherSide(t *testing.T) {
	c := Or(TextMention("APPROVE"), MaxMessages(10))
	if !c.Check(msg("APPROVE")) {
		t.Fatalf("did not fire on text mention")
	}
	if c.Reason() != TextMention("APPROVE").Reason() {
		t.Fatalf("reason should come from the fired side, got %q", c.Reason())
	}
}

func TestOrKeepsCountingBothSides(t *testing.T) {
	// Both sides must observe every message, so the count cannot drift
	// if the other side is evaluated first.
	c := Or(MaxMessages(2), TextMention("NEVER"))

	c.Check(msg("one"))
	if !c.Check(msg("two")) {
		t.Fatalf("message count drifted inside Or")
	}
}

func TestAndIsLatchOverHistory(t *testing.T) {
	// Keyword fires on message 1, the count cap only on message 3. The
	// conjunction must stop at message 3: a side that fired earlier stays
	// satisfied even though the keyword never reappears.
	c := And(TextMention("APPROVE"), MaxMessages(3))

	if c.Check(msg("APPROVE")) {
		t.Fatalf("fired with only one side satisfied")
	}
	if c.Check(msg("second message")) {
		t.Fatalf("fired before count cap")
	}
	if !c.Check(msg("third message")) {
		t.Fatalf("did not fire once both sides had fired")
	}
}

func TestAndRequiresBothSides(t *testing.T) {
	c := And(TextMention("APPROVE"), MaxMessages(2))

	c.Check(msg("one"))
	if c.Check(msg("two")) {
		t.Fatalf("fired without the keyword ever appearing")
	}
}

func TestNestedComposition(t *testing.T) {
	c := Or(And(TextMention("A"), TextMention("B")), MaxMessages(5))

	if c.Check(msg("A")) {
		t.Fatalf("fired with half of the conjunction")
	}
	if !c.Check(msg("B")) {
		t.Fatalf("did not fire once both mentions had occurred")
	}
}
