// Package tools exposes the mailbox engine as callable operations for an
// agent/tool runtime: JSON-schema definitions plus a dispatcher keyed by
// tool name. The registry is an explicit instance bound to its settings,
// not a process-wide table.
package tools

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/zerolib/mailagent/pkgs/config"
)

// Property describes a JSON Schema property for a tool parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Parameters describes the JSON Schema for tool parameters.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Function describes a callable function exposed as a tool.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Definition is a runtime-compatible tool definition.
type Definition struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Tool binds a definition with its execution logic.
type Tool struct {
	Def     Definition
	Execute func(args json.RawMessage) (string, error)
}

// Registry holds the tools for one settings context.
type Registry struct {
	settings *config.Settings
	logger   *slog.Logger
	tools    map[string]*Tool
	order    []string
}

// New builds a registry with the built-in email tools registered.
func New(settings *config.Settings, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		settings: settings,
		logger:   logger,
		tools:    map[string]*Tool{},
	}
	r.registerEmailTools()
	return r
}

func (r *Registry) register(t *Tool) {
	name := t.Def.Function.Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// All returns the definitions of every registered tool, in registration
// order.
func (r *Registry) All() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Def)
	}
	return defs
}

// Call executes the named tool with raw JSON arguments.
func (r *Registry) Call(name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	r.logger.Debug("tool call", "tool", name)
	return t.Execute(args)
}
