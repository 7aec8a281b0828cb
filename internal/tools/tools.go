package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/invopop/jsonschema"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Spec is the static metadata advertised to the model for tool discovery.
type Spec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Schema      *jsonschema.Schema `json:"parameters"`
}

// Tool pairs a spec with its argument validation and invocation logic.
type Tool struct {
	Spec     Spec
	validate func(raw json.RawMessage) error
	invoke   func(ctx context.Context, raw json.RawMessage) (any, error)
}

// New builds a tool whose argument shape is reflected from the typed struct
// A. Unknown fields are rejected at call time and fields without omitempty
// are required.
func New[A any](name, description string, fn func(ctx context.Context, args A) (any, error)) Tool {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(new(A))

	decode := func(raw json.RawMessage) (A, error) {
		var args A
		if len(raw) == 0 || string(raw) == "null" {
			raw = json.RawMessage(`{}`)
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&args); err != nil {
			return args, err
		}
		// Decode stops at the first complete value; anything after it is
		// not valid arguments.
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return args, errors.New("unexpected data after arguments object")
		}
		return args, nil
	}

	return Tool{
		Spec: Spec{Name: name, Description: description, Schema: schema},
		validate: func(raw json.RawMessage) error {
			if _, err := decode(raw); err != nil {
				return err
			}
			return checkRequired(raw, schema.Required)
		},
		invoke: func(ctx context.Context, raw json.RawMessage) (any, error) {
			args, err := decode(raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, args)
		},
	}
}

func checkRequired(raw json.RawMessage, required []string) error {
	if len(required) == 0 {
		return nil
	}
	fields := map[string]json.RawMessage{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return err
		}
	}
	for _, name := range required {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return fmt.Errorf("missing required field %q", name)
		}
	}
	return nil
}

// Registry maps tool names to handlers. It is populated once at startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	order  []Spec
	byName map[string]Tool
}

func NewRegistry(defs ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(defs))}
	for _, def := range defs {
		name := strings.TrimSpace(def.Spec.Name)
		if name == "" {
			return nil, errors.New("tool name is empty")
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("tool %s already registered", name)
		}
		r.byName[name] = def
		r.order = append(r.order, def.Spec)
	}
	return r, nil
}

// Specs returns tool metadata in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, len(r.order))
	copy(out, r.order)
	return out
}

// Invoke validates args against the tool's schema and runs it. An unknown
// name or invalid arguments never reach the handler.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	def, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if err := def.validate(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	out, err := def.invoke(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("tool %s: encode result: %w", name, err)
	}
	return payload, nil
}
