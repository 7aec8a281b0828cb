package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	defs := Builtin()
	if _, err := NewRegistry(append(defs, defs[0])...); err == nil {
		t.Fatalf("NewRegistry(duplicate) should fail")
	}
}

func TestSpecsInRegistrationOrder(t *testing.T) {
	r := builtinRegistry(t)
	specs := r.Specs()
	if len(specs) != 2 {
		t.Fatalf("len(Specs()) = %d, want 2", len(specs))
	}
	if specs[0].Name != "analyze_script_punct" || specs[1].Name != "repeated_words" {
		t.Fatalf("spec order = [%s %s], want [analyze_script_punct repeated_words]", specs[0].Name, specs[1].Name)
	}
	if specs[0].Schema == nil {
		t.Fatalf("spec schema should be populated")
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	r := builtinRegistry(t)
	_, err := r.Invoke(context.Background(), "no_such_tool", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("Invoke(unknown) error = %v, want ErrUnknownTool", err)
	}
}

func TestInvokeRejectsUnknownField(t *testing.T) {
	r := builtinRegistry(t)
	_, err := r.Invoke(context.Background(), "repeated_words", json.RawMessage(`{"text":"a","bogus":1}`))
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("Invoke(unknown field) error = %v, want ErrInvalidArguments", err)
	}
}

func TestInvokeRejectsMissingRequiredField(t *testing.T) {
	r := builtinRegistry(t)
	_, err := r.Invoke(context.Background(), "analyze_script_punct", json.RawMessage(`{"lang_code":"en"}`))
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("Invoke(missing input_string) error = %v, want ErrInvalidArguments", err)
	}
}

func TestInvokeRejectsTrailingData(t *testing.T) {
	r := builtinRegistry(t)
	for _, raw := range []string{
		`{"text":"a"} garbage`,
		`{"text":"a"}{"text":"b"}`,
		`{"text":"a"} 7`,
	} {
		_, err := r.Invoke(context.Background(), "repeated_words", json.RawMessage(raw))
		if !errors.Is(err, ErrInvalidArguments) {
			t.Fatalf("Invoke(%q) error = %v, want ErrInvalidArguments", raw, err)
		}
	}
}

func TestInvokeRejectsMalformedJSON(t *testing.T) {
	r := builtinRegistry(t)
	_, err := r.Invoke(context.Background(), "repeated_words", json.RawMessage(`{broken`))
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("Invoke(malformed json) error = %v, want ErrInvalidArguments", err)
	}
}

func TestInvokeReturnsJSONResult(t *testing.T) {
	r := builtinRegistry(t)
	out, err := r.Invoke(context.Background(), "repeated_words", json.RawMessage(`{"text":"go go go"}`))
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	var parsed struct {
		Repeated []string `json:"repeated"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(parsed.Repeated) != 1 || parsed.Repeated[0] != "go" {
		t.Fatalf("repeated = %v, want [go]", parsed.Repeated)
	}
}

func TestInvokeSurfacesHandlerError(t *testing.T) {
	r := builtinRegistry(t)
	_, err := r.Invoke(context.Background(), "analyze_script_punct", json.RawMessage(`{"input_string":"  "}`))
	if err == nil {
		t.Fatalf("Invoke(blank input) should surface the handler error")
	}
	if errors.Is(err, ErrInvalidArguments) || errors.Is(err, ErrUnknownTool) {
		t.Fatalf("handler error should not be classified as %v", err)
	}
}

func TestSchemaMarksRequiredFields(t *testing.T) {
	type args struct {
		Needed   string `json:"needed"`
		Optional string `json:"optional,omitempty"`
	}
	tool := New("probe", "schema probe", func(_ context.Context, a args) (any, error) {
		return a, nil
	})

	required := tool.Spec.Schema.Required
	if len(required) != 1 || required[0] != "needed" {
		t.Fatalf("required = %v, want [needed]", required)
	}
}

func TestNewToolAcceptsEmptyArguments(t *testing.T) {
	type args struct {
		Text string `json:"text,omitempty"`
	}
	tool := New("probe", "schema probe", func(_ context.Context, a args) (any, error) {
		return a.Text, nil
	})
	r, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`{}`)} {
		if _, err := r.Invoke(context.Background(), "probe", raw); err != nil {
			t.Fatalf("Invoke(%q) error = %v", string(raw), err)
		}
	}
}
