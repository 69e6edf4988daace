package domain

import "encoding/json"

// Role identifies the conversational role of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single capability invocation emitted by a model completion.
// IDs are unique within one completion so results can be correlated back.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message is one entry of a conversation transcript. For tool-result
// messages Source carries the tool name and CalledID the originating
// ToolCall ID. Messages are immutable once appended to a transcript.
type Message struct {
	Source    string     `json:"source"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CalledID  string     `json:"called_id,omitempty"`
}

// Transcript is the append-only message history of one orchestration run.
// It has exactly one logical writer (the team driving the run); readers get
// copies via Messages.
type Transcript struct {
	msgs []Message
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds messages in order. Appended messages must not be mutated by
// the caller afterwards.
func (t *Transcript) Append(msgs ...Message) {
	t.msgs = append(t.msgs, msgs...)
}

// Messages returns a copy of the transcript so far.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of messages appended so far.
func (t *Transcript) Len() int {
	return len(t.msgs)
}

// Last returns the most recent message, or false when the transcript is empty.
func (t *Transcript) Last() (Message, bool) {
	if len(t.msgs) == 0 {
		return Message{}, false
	}
	return t.msgs[len(t.msgs)-1], true
}
