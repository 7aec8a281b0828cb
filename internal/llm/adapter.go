package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkoutsos/lexroom/internal/protocol"
	"github.com/dkoutsos/lexroom/internal/tools"
)

// ErrGatewayTimeout marks a completion call that exceeded its deadline.
var ErrGatewayTimeout = errors.New("llm gateway timeout")

// Request carries the full ordered turn history and the advertised tools.
type Request struct {
	Turns []protocol.Turn
	Tools []tools.Spec
}

// Response is either a final text answer or a set of tool-call requests.
type Response struct {
	Text      string
	ToolCalls []protocol.ToolCall
}

// Adapter bridges the orchestrator with a language-model provider. The
// orchestrator is agnostic to which model serves it.
type Adapter interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Config controls adapter construction.
type Config struct {
	Mode      string
	URL       string
	APIKey    string
	Model     string
	MaxTokens int
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.URL) != "" {
			return NewHTTPAdapter(cfg), nil
		}
		return NewMockAdapter(), nil
	case "http":
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, errors.New("LLM gateway url is required for http mode")
		}
		return NewHTTPAdapter(cfg), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported llm adapter mode %q", cfg.Mode)
	}
}
