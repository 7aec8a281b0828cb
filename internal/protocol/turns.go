package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolCall   Role = "tool_call"
	RoleToolResult Role = "tool_result"
)

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Turn is one append-only unit of conversation state. Exactly one of
// Content, ToolCall or Result is meaningful depending on Role.
type Turn struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content,omitempty"`
	ToolCall  *ToolCall       `json:"tool_call,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	CallID    string          `json:"call_id,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func newTurn(role Role) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
}

// UserTurn wraps a user message.
func UserTurn(text string) Turn {
	t := newTurn(RoleUser)
	t.Content = text
	return t
}

// AssistantTurn wraps a textual model response.
func AssistantTurn(text string) Turn {
	t := newTurn(RoleAssistant)
	t.Content = text
	return t
}

// ToolCallTurn records a tool invocation requested by the model.
func ToolCallTurn(call ToolCall) Turn {
	t := newTurn(RoleToolCall)
	c := call
	t.ToolCall = &c
	t.ToolName = call.Name
	t.CallID = call.ID
	return t
}

// ToolResultTurn records a successful tool execution.
func ToolResultTurn(call ToolCall, result json.RawMessage) Turn {
	t := newTurn(RoleToolResult)
	t.ToolName = call.Name
	t.CallID = call.ID
	t.Result = result
	return t
}

// ToolErrorTurn records a failed tool execution. The error text is kept in
// Content so the model can read it and recover.
func ToolErrorTurn(call ToolCall, errText string) Turn {
	t := newTurn(RoleToolResult)
	t.ToolName = call.Name
	t.CallID = call.ID
	t.Content = errText
	t.IsError = true
	return t
}

// Text returns the display form of the turn payload.
func (t Turn) Text() string {
	switch t.Role {
	case RoleToolResult:
		if t.IsError {
			return t.Content
		}
		return string(t.Result)
	case RoleToolCall:
		if t.ToolCall != nil {
			return string(t.ToolCall.Arguments)
		}
		return ""
	default:
		return t.Content
	}
}
