package internal

import (
	"context"
	"fmt"
)

// CreateTestTurns returns n completed exchanges
func CreateTestTurns(n int) []Turn {
	turns := make([]Turn, 0, n*2)
	for i := 1; i <= n; i++ {
		turns = append(turns,
			NewUserTurn(fmt.Sprintf("Question %d", i), ""),
			NewAssistantTurn(fmt.Sprintf("**Answer** %d", i), RenderMarkdown),
		)
	}
	return turns
}

// CreateTestLedger returns a ledger holding n completed exchanges
func CreateTestLedger(n int) *Ledger {
	return NewLedgerFromTurns(CreateTestTurns(n), nil)
}

// StubTransport is a Transport that replays canned replies
type StubTransport struct {
	Replies []string
	Err     error

	Calls []StubCall
}

// StubCall records one Send invocation
type StubCall struct {
	Messages  []ProviderMessage
	Model     string
	MaxTokens int
}

// Send implements Transport
func (s *StubTransport) Send(ctx context.Context, messages []ProviderMessage, model string, maxTokens int) (string, error) {
	s.Calls = append(s.Calls, StubCall{Messages: messages, Model: model, MaxTokens: maxTokens})
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Replies) == 0 {
		return "ok", nil
	}
	reply := s.Replies[0]
	s.Replies = s.Replies[1:]
	return reply, nil
}
