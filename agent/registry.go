package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrUnknownTool is returned when the model requests a tool that was never
// registered. It is fatal for the requesting session.
var ErrUnknownTool = errors.New("unknown tool")

// Param describes one parameter of a tool.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Handler executes a tool call with its decoded arguments and returns the
// text fed back to the model.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is one named, schema-described action the model may invoke.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Registry maps tool names to handlers and exposes the set as a schema
// for the model's function-calling interface. Tools are registered
// explicitly at construction time, so the available set is statically
// inspectable.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool. Registering a name twice replaces the earlier
// tool but keeps its schema position.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Schema renders the registry as the tool definitions sent with every
// inference request.
func (r *Registry) Schema() []openai.Tool {
	schema := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]

		properties := make(map[string]any, len(t.Params))
		var required []string
		for _, p := range t.Params {
			properties[p.Name] = map[string]any{
				"type":        p.Type,
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}

		schema = append(schema, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return schema
}

// Dispatch decodes rawArgs and invokes the named tool. An unregistered
// name or an undecodable argument payload is an error; both abort the
// calling session.
func (r *Registry) Dispatch(ctx context.Context, name, rawArgs string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	args := make(map[string]any)
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", fmt.Errorf("malformed arguments for tool %s: %w", name, err)
		}
	}

	return t.Handler(ctx, args)
}
