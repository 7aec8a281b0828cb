package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/dkoutsos/lexroom/internal/protocol"
	"github.com/dkoutsos/lexroom/internal/tools"
)

// ChatToolArgs is the argument shape for the llm_chat passthrough tool.
type ChatToolArgs struct {
	Prompt string `json:"prompt" jsonschema:"description=Prompt to send to the language model"`
}

type chatToolResult struct {
	Response string `json:"response"`
}

// ChatTool exposes the gateway itself as a tool, so the model can request a
// plain completion for a sub-prompt without the tool-calling surface.
func ChatTool(adapter Adapter) tools.Tool {
	return tools.New("llm_chat",
		"Get a chat completion from the language model for a standalone prompt.",
		func(ctx context.Context, args ChatToolArgs) (any, error) {
			prompt := strings.TrimSpace(args.Prompt)
			if prompt == "" {
				return nil, errors.New("prompt must not be empty")
			}
			resp, err := adapter.Complete(ctx, Request{
				Turns: []protocol.Turn{protocol.UserTurn(prompt)},
			})
			if err != nil {
				return nil, err
			}
			return chatToolResult{Response: resp.Text}, nil
		})
}
