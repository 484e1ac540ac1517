// Package tools provides the tool interface and the tutor's built-in tools.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Tool is the interface for agent tools.
type Tool interface {
	// Def describes the tool.
	Def() Def
	// Run executes the tool. Failures the model should see are returned as
	// result text. An error means the arguments could not be used.
	Run(ctx context.Context, args json.RawMessage) (string, error)
}

// Def describes a tool and its JSON Schema parameters.
type Def struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Registry holds registered tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	r.tools[t.Def().Name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Defs returns all tool definitions sorted by name.
func (r *Registry) Defs() []Def {
	defs := make([]Def, 0, len(r.tools))
	for _, name := range r.Names() {
		defs = append(defs, r.tools[name].Def())
	}
	return defs
}

// Names returns the names of all registered tools.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterDefaultTools registers the calculator and notes search. notesDir
// is consulted on every search so configuration reloads take effect.
func (r *Registry) RegisterDefaultTools(notesDir func() string) {
	r.Register(&CalculatorTool{})
	r.Register(&SearchNotesTool{dir: notesDir})
}

// parseArgs decodes tool arguments. A missing or null object decodes to the
// zero value.
func parseArgs(args json.RawMessage, dst any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func stringParam(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}
