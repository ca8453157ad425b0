package internal

import (
	"fmt"
	"strings"

	"github.com/huandu/go-clone"
)

// Ledger is the ordered record of turns in one conversation.
//
// After every completed request cycle the turns alternate user, assistant
// and the length is even. A trailing user turn without a reply only exists
// while a request is in flight.
type Ledger struct {
	turns  []Turn
	render RenderFunc
}

// NewLedger creates an empty ledger. A nil render uses RenderMarkdown.
func NewLedger(render RenderFunc) *Ledger {
	if render == nil {
		render = RenderMarkdown
	}
	return &Ledger{render: render}
}

// NewLedgerFromTurns creates a ledger holding a copy of turns
func NewLedgerFromTurns(turns []Turn, render RenderFunc) *Ledger {
	l := NewLedger(render)
	if len(turns) > 0 {
		l.turns = clone.Clone(turns).([]Turn)
	}
	return l
}

// AppendUser records a user prompt. Blank prompts are rejected without
// changing the ledger.
func (l *Ledger) AppendUser(text, attachmentPath string) (TurnID, error) {
	if strings.TrimSpace(text) == "" {
		return -1, &EmptyInputError{}
	}
	l.turns = append(l.turns, NewUserTurn(text, attachmentPath))
	return TurnID(len(l.turns) - 1), nil
}

// AppendAssistant records the reply to the pending user turn
func (l *Ledger) AppendAssistant(canonical string) (TurnID, error) {
	if !l.hasPendingUser() {
		return -1, ErrUnpairedReply
	}
	l.turns = append(l.turns, NewAssistantTurn(canonical, l.render))
	return TurnID(len(l.turns) - 1), nil
}

// RemoveLastIfUnmatchedUser drops a trailing user turn. It is the rollback
// step for a failed request and reports whether a turn was removed.
func (l *Ledger) RemoveLastIfUnmatchedUser() bool {
	if !l.hasPendingUser() {
		return false
	}
	l.turns = l.turns[:len(l.turns)-1]
	return true
}

func (l *Ledger) hasPendingUser() bool {
	return len(l.turns) > 0 && l.turns[len(l.turns)-1].Role == RoleUser
}

// Reset empties the ledger
func (l *Ledger) Reset() {
	l.turns = nil
}

// Len returns the number of turns
func (l *Ledger) Len() int {
	return len(l.turns)
}

// IsEmpty reports whether the ledger has no turns
func (l *Ledger) IsEmpty() bool {
	return len(l.turns) == 0
}

// Last returns the most recent turn
func (l *Ledger) Last() (Turn, bool) {
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}

// Turns returns a deep copy of the turns
func (l *Ledger) Turns() []Turn {
	if len(l.turns) == 0 {
		return []Turn{}
	}
	return clone.Clone(l.turns).([]Turn)
}

// ToProviderMessages builds the request payload for the whole history.
//
// Assistant turns carry their canonical text. Only the trailing user turn
// carries image bytes; attachments on earlier turns are sent as text only.
func (l *Ledger) ToProviderMessages() ([]ProviderMessage, error) {
	messages := make([]ProviderMessage, 0, len(l.turns))
	for i, turn := range l.turns {
		msg := ProviderMessage{Role: turn.Role, Text: turn.CanonicalContent}
		if i == len(l.turns)-1 && turn.HasAttachment() {
			att, err := LoadAttachment(turn.AttachmentPath)
			if err != nil {
				return nil, err
			}
			msg.Image = att.Payload()
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// CheckAlternation reports the first place where turns do not alternate
// user, assistant. It is diagnostic only.
func (l *Ledger) CheckAlternation() error {
	for i, turn := range l.turns {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if turn.Role != want {
			return fmt.Errorf("turn %d has role %s, expected %s", i, turn.Role, want)
		}
	}
	return nil
}
