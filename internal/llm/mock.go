package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dkoutsos/lexroom/internal/protocol"
)

// MockAdapter provides deterministic local replies when no gateway is
// configured. Scripted responses are consumed in order; once exhausted it
// echoes the last user turn.
type MockAdapter struct {
	mu       sync.Mutex
	scripted []Response
}

func NewMockAdapter(scripted ...Response) *MockAdapter {
	return &MockAdapter{scripted: scripted}
}

func (a *MockAdapter) Complete(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	a.mu.Lock()
	if len(a.scripted) > 0 {
		next := a.scripted[0]
		a.scripted = a.scripted[1:]
		a.mu.Unlock()
		return next, nil
	}
	a.mu.Unlock()

	return Response{Text: buildMockReply(req.Turns)}, nil
}

func buildMockReply(turns []protocol.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == protocol.RoleUser {
			text := strings.TrimSpace(turns[i].Content)
			if text == "" {
				break
			}
			return fmt.Sprintf("I heard you: %s", text)
		}
	}
	return "I am listening."
}
