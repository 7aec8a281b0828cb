package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/dkoutsos/lexroom/internal/protocol"
)

const systemPrompt = `You are an expert text-analysis consultant. ` +
	`Use the tools provided to you when the user query calls for analysis; ` +
	`otherwise respond directly. Do not make up your own analysis results.`

// HTTPAdapter speaks an OpenAI-style chat-completions protocol with tool
// calling to a remote gateway.
type HTTPAdapter struct {
	url       string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

func NewHTTPAdapter(cfg Config) *HTTPAdapter {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 10000
	}
	return &HTTPAdapter{
		url:       strings.TrimSpace(cfg.URL),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     strings.TrimSpace(cfg.Model),
		maxTokens: maxTokens,
		// No client-level timeout: the per-call deadline on ctx governs.
		client: &http.Client{},
	}
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireToolSpec `json:"function"`
}

type wireToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type completionRequest struct {
	Model               string        `json:"model"`
	Messages            []wireMessage `json:"messages"`
	Tools               []wireTool    `json:"tools,omitempty"`
	ToolChoice          string        `json:"tool_choice,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

func (a *HTTPAdapter) Complete(ctx context.Context, req Request) (Response, error) {
	body := completionRequest{
		Model:               a.model,
		Messages:            buildMessages(req.Turns),
		MaxCompletionTokens: a.maxTokens,
	}
	for _, spec := range req.Tools {
		body.Tools = append(body.Tools, wireTool{
			Type: "function",
			Function: wireToolSpec{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Schema,
			},
		})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	res, err := a.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return Response{}, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Response{}, fmt.Errorf("llm gateway status %d: %s", res.StatusCode, string(detail))
	}

	var parsed completionResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Response{}, errors.New("llm gateway returned no choices")
	}

	msg := parsed.Choices[0].Message
	out := Response{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, protocol.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

// buildMessages maps the turn history to the wire protocol: tool-call turns
// fold into an assistant message carrying tool_calls, tool results become
// tool-role messages bound by call id.
func buildMessages(turns []protocol.Turn) []wireMessage {
	messages := []wireMessage{{Role: "system", Content: systemPrompt}}

	var pendingCalls []wireToolCall
	flushCalls := func() {
		if len(pendingCalls) == 0 {
			return
		}
		messages = append(messages, wireMessage{Role: "assistant", ToolCalls: pendingCalls})
		pendingCalls = nil
	}

	for _, turn := range turns {
		switch turn.Role {
		case protocol.RoleUser:
			flushCalls()
			messages = append(messages, wireMessage{Role: "user", Content: turn.Content})
		case protocol.RoleAssistant:
			flushCalls()
			messages = append(messages, wireMessage{Role: "assistant", Content: turn.Content})
		case protocol.RoleToolCall:
			if turn.ToolCall == nil {
				continue
			}
			pendingCalls = append(pendingCalls, wireToolCall{
				ID:   turn.ToolCall.ID,
				Type: "function",
				Function: wireFunction{
					Name:      turn.ToolCall.Name,
					Arguments: string(turn.ToolCall.Arguments),
				},
			})
		case protocol.RoleToolResult:
			flushCalls()
			messages = append(messages, wireMessage{
				Role:       "tool",
				ToolCallID: turn.CallID,
				Content:    turn.Text(),
			})
		}
	}
	flushCalls()
	return messages
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
