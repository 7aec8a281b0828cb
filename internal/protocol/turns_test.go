package protocol

import (
	"encoding/json"
	"testing"
)

func TestTurnConstructors(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "repeated_words", Arguments: json.RawMessage(`{"text":"a a"}`)}

	user := UserTurn("hi")
	if user.Role != RoleUser || user.Content != "hi" || user.ID == "" {
		t.Fatalf("UserTurn = %+v", user)
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("UserTurn should stamp CreatedAt")
	}

	callTurn := ToolCallTurn(call)
	if callTurn.Role != RoleToolCall || callTurn.ToolName != "repeated_words" || callTurn.CallID != "c1" {
		t.Fatalf("ToolCallTurn = %+v", callTurn)
	}
	if callTurn.ToolCall == nil || callTurn.ToolCall.ID != "c1" {
		t.Fatalf("ToolCallTurn should embed the call")
	}

	resultTurn := ToolResultTurn(call, json.RawMessage(`{"ok":true}`))
	if resultTurn.Role != RoleToolResult || resultTurn.IsError {
		t.Fatalf("ToolResultTurn = %+v", resultTurn)
	}

	errTurn := ToolErrorTurn(call, "boom")
	if errTurn.Role != RoleToolResult || !errTurn.IsError || errTurn.Content != "boom" {
		t.Fatalf("ToolErrorTurn = %+v", errTurn)
	}
}

func TestTurnText(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "probe", Arguments: json.RawMessage(`{"x":1}`)}

	if got := UserTurn("hi").Text(); got != "hi" {
		t.Fatalf("user Text() = %q, want %q", got, "hi")
	}
	if got := ToolCallTurn(call).Text(); got != `{"x":1}` {
		t.Fatalf("tool call Text() = %q, want arguments", got)
	}
	if got := ToolResultTurn(call, json.RawMessage(`{"ok":true}`)).Text(); got != `{"ok":true}` {
		t.Fatalf("tool result Text() = %q, want result payload", got)
	}
	if got := ToolErrorTurn(call, "boom").Text(); got != "boom" {
		t.Fatalf("tool error Text() = %q, want error text", got)
	}
}
