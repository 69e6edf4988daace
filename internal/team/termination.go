package team

import (
	"fmt"
	"strings"

	"github.com/lexcouncil/lexcouncil/internal/domain"
)

// Condition decides when a conversation run stops. Check is called once per
// appended message, in append order, excluding the seed task message.
// Conditions carry per-run state (counters, latches) and must be created
// fresh for every run.
type Condition interface {
	// Check observes one appended message and reports whether the run
	// should stop now.
	Check(msg domain.Message) bool
	// Reason describes why the condition fired. Only meaningful after
	// Check has returned true.
	Reason() string
}

type textMention struct {
	keyword string
	fired   bool
}

// TextMention stops the run when a message contains the keyword as a
// case-sensitive substring. The first occurrence ends the run.
func TextMention(keyword string) Condition {
	return &textMention{keyword: keyword}
}

func (c *textMention) Check(msg domain.Message) bool {
	if strings.Contains(msg.Content, c.keyword) {
		c.fired = true
	}
	return c.fired
}

func (c *textMention) Reason() string {
	return fmt.Sprintf("text %q mentioned", c.keyword)
}

type maxMessages struct {
	limit int
	seen  int
}

// MaxMessages stops the run once n messages have been appended since the
// run started. The seed task message is not counted.
func MaxMessages(n int) Condition {
	return &maxMessages{limit: n}
}

func (c *maxMessages) Check(msg domain.Message) bool {
	c.seen++
	return c.seen >= c.limit
}

func (c *maxMessages) Reason() string {
	return fmt.Sprintf("maximum messages reached (%d)", c.limit)
}

type orCondition struct {
	a, b           Condition
	aFired, bFired bool
}

// Or stops when either condition fires.
func Or(a, b Condition) Condition {
	return &orCondition{a: a, b: b}
}

func (c *orCondition) Check(msg domain.Message) bool {
	// Evaluate both sides on every message so nested latches keep
	// observing the full history.
	if c.a.Check(msg) {
		c.aFired = true
	}
	if c.b.Check(msg) {
		c.bFired = true
	}
	return c.aFired || c.bFired
}

func (c *orCondition) Reason() string {
	switch {
	case c.aFired:
		return c.a.Reason()
	case c.bFired:
		return c.b.Reason()
	default:
		return c.a.Reason() + " or " + c.b.Reason()
	}
}

type andCondition struct {
	a, b           Condition
	aFired, bFired bool
}

// And stops once both conditions have fired at some point during the run.
// It is a latch over history, not an instantaneous conjunction: a side that
// fired on an earlier message stays satisfied.
func And(a, b Condition) Condition {
	return &andCondition{a: a, b: b}
}

func (c *andCondition) Check(msg domain.Message) bool {
	if c.a.Check(msg) {
		c.aFired = true
	}
	if c.b.Check(msg) {
		c.bFired = true
	}
	return c.aFired && c.bFired
}

func (c *andCondition) Reason() string {
	return c.a.Reason() + " and " + c.b.Reason()
}
