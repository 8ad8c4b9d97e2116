package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/prediagent/prediagent/errors"
	"github.com/prediagent/prediagent/llm"
	"github.com/prediagent/prediagent/logging"
)

// Handler executes a tool with validated arguments.
type Handler func(ctx context.Context, args Args) (interface{}, error)

// Field describes one tool argument.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string", "int", "float", "bool"
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	// Default value injected when the argument is absent. Ignored for
	// required fields.
	Default interface{} `json:"default,omitempty"`
}

// Tool is a named capability the agent can execute and advertise.
type Tool struct {
	Name        string
	ID          string // skill id for the agent card; defaults to Name
	Description string
	Args        []Field
	Handler     Handler
}

// Registry holds the agent's tools. Registration order is preserved because
// it defines the order of skills on the agent card.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	order  []string
	logger *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.New()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger.WithComponent("tools"),
	}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return errors.InvalidInput("tool name is required")
	}
	if t.Handler == nil {
		return errors.InvalidInput(fmt.Sprintf("tool %s has no handler", t.Name))
	}
	if t.ID == "" {
		t.ID = t.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return errors.InvalidInput(fmt.Sprintf("tool %s already registered", t.Name))
	}
	r.tools[t.Name] = &t
	r.order = append(r.order, t.Name)
	return nil
}

// Has reports whether a tool with the given name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Invoke validates arguments and runs the named tool.
// Unknown tools yield NOT_FOUND; missing or uncoercible arguments yield
// INVALID_INPUT; handler failures come back wrapped as-is.
func (r *Registry) Invoke(ctx context.Context, name string, rawArgs map[string]interface{}) (interface{}, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("unknown tool %q", name))
	}

	args, err := validateArgs(t, rawArgs)
	if err != nil {
		return nil, err
	}

	r.logger.ToolCall(name)
	start := time.Now()
	result, err := t.Handler(ctx, args)
	r.logger.ToolResult(name, time.Since(start), err)
	return result, err
}

// validateArgs checks required fields, injects defaults, and coerces values
// to the declared types.
func validateArgs(t *Tool, raw map[string]interface{}) (Args, error) {
	args := make(Args, len(raw))
	for k, v := range raw {
		args[k] = v
	}

	for _, f := range t.Args {
		v, present := args[f.Name]
		if !present {
			if f.Required {
				return nil, errors.InvalidInput(
					fmt.Sprintf("missing required argument %q for tool %s", f.Name, t.Name),
					errors.WithMetadata("tool", t.Name),
					errors.WithMetadata("argument", f.Name),
				)
			}
			if f.Default != nil {
				args[f.Name] = f.Default
			}
			continue
		}

		coerced, err := coerce(v, f.Type)
		if err != nil {
			return nil, errors.InvalidInput(
				fmt.Sprintf("argument %q for tool %s: %v", f.Name, t.Name, err),
				errors.WithMetadata("tool", t.Name),
				errors.WithMetadata("argument", f.Name),
			)
		}
		args[f.Name] = coerced
	}
	return args, nil
}

// coerce converts v to the declared field type.
func coerce(v interface{}, fieldType string) (interface{}, error) {
	switch fieldType {
	case "", "string":
		return cast.ToStringE(v)
	case "int":
		return cast.ToIntE(v)
	case "float", "number":
		return cast.ToFloat64E(v)
	case "bool":
		return cast.ToBoolE(v)
	default:
		return v, nil
	}
}

// Defs returns tool definitions in the shape the LLM layer expects,
// in registration order.
func (r *Registry) Defs() []llm.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]

		props := make(map[string]interface{}, len(t.Args))
		var required []string
		for _, f := range t.Args {
			fieldType := f.Type
			if fieldType == "" {
				fieldType = "string"
			}
			if fieldType == "float" {
				fieldType = "number"
			}
			if fieldType == "int" {
				fieldType = "integer"
			}
			prop := map[string]interface{}{"type": fieldType}
			if f.Description != "" {
				prop["description"] = f.Description
			}
			props[f.Name] = prop
			if f.Required {
				required = append(required, f.Name)
			}
		}

		defs = append(defs, llm.ToolDef{
			Name:        t.Name,
			Description: t.Description,
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": props,
				"required":   required,
			},
		})
	}
	return defs
}
