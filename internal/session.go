package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultModel is used when no model is configured
const DefaultModel = "claude-sonnet-4-20250514"

// DefaultMaxTokens caps the reply length when nothing is configured
const DefaultMaxTokens = 1000

// Transport sends a conversation to the model endpoint and returns the reply text
type Transport interface {
	Send(ctx context.Context, messages []ProviderMessage, model string, maxTokens int) (string, error)
}

// Session is the active conversation: a ledger plus the model it talks to.
// It is not safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	model     string
	maxTokens int
	ledger    *Ledger
	transport Transport
}

// NewSession creates an empty session
func NewSession(transport Transport, model string, maxTokens int) *Session {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		model:     model,
		maxTokens: maxTokens,
		ledger:    NewLedger(nil),
		transport: transport,
	}
}

// Model returns the model id used for requests
func (s *Session) Model() string {
	return s.model
}

// MaxTokens returns the reply length limit
func (s *Session) MaxTokens() int {
	return s.maxTokens
}

// Ledger returns the session's ledger
func (s *Session) Ledger() *Ledger {
	return s.ledger
}

// SetTransport replaces the transport used by Ask
func (s *Session) SetTransport(t Transport) {
	s.transport = t
}

// SetModel switches the model. Once the conversation has turns only the
// current model is accepted.
func (s *Session) SetModel(model string) error {
	if model == "" || model == s.model {
		return nil
	}
	if !s.ledger.IsEmpty() {
		return ErrModelLocked
	}
	s.model = model
	return nil
}

// Ask runs one request cycle: record the prompt, send the history and
// record the reply. On failure the prompt is rolled back and the ledger is
// left as it was.
func (s *Session) Ask(ctx context.Context, text, attachmentPath string) (Turn, error) {
	if _, err := s.ledger.AppendUser(text, attachmentPath); err != nil {
		return Turn{}, err
	}

	messages, err := s.ledger.ToProviderMessages()
	if err != nil {
		s.ledger.RemoveLastIfUnmatchedUser()
		return Turn{}, err
	}

	LogDebug("Sending %d messages to %s", len(messages), s.model)
	reply, err := s.transport.Send(ctx, messages, s.model, s.maxTokens)
	if err != nil {
		s.ledger.RemoveLastIfUnmatchedUser()
		return Turn{}, &TransportError{Model: s.model, Err: err}
	}

	if _, err := s.ledger.AppendAssistant(reply); err != nil {
		s.ledger.RemoveLastIfUnmatchedUser()
		return Turn{}, err
	}

	last, _ := s.ledger.Last()
	return last, nil
}

// Replace installs imported turns wholesale. An empty model keeps the current one.
func (s *Session) Replace(turns []Turn, model string, createdAt time.Time) {
	s.ledger = NewLedgerFromTurns(turns, s.ledger.render)
	if model != "" {
		s.model = model
	}
	if !createdAt.IsZero() {
		s.CreatedAt = createdAt
	}
	s.ID = uuid.NewString()
}

// Reset discards the conversation and starts a new one
func (s *Session) Reset() {
	s.ledger.Reset()
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now()
}

// Metadata summarizes the session for export
func (s *Session) Metadata() Metadata {
	return Metadata{
		CreatedAt: s.CreatedAt,
		Model:     s.model,
		TurnCount: s.ledger.Len(),
	}
}
