package domain

import (
	"context"
	"fmt"
	"strings"
)

// ToolKind identifies which kind of capability a tool provides.
// The set is closed: the registry dispatches on it with an explicit switch.
type ToolKind string

const (
	// ToolKindSearch queries a web search backend and returns one observation string.
	ToolKindSearch ToolKind = "search"
)

// SearchFunc runs a web search and returns the serialized observation.
type SearchFunc func(ctx context.Context, query string) (string, error)

// Tool represents an executable capability available to the resolver
type Tool struct {
	Kind        ToolKind
	Name        string
	Description string
	Search      SearchFunc // set when Kind == ToolKindSearch
}

// ToolRegistry is the fixed tool set of one resolver. It is immutable after construction.
type ToolRegistry struct {
	tools []Tool
}

// NewToolRegistry validates and registers the given tools.
func NewToolRegistry(tools ...Tool) (*ToolRegistry, error) {
	r := &ToolRegistry{}
	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool name cannot be empty")
		}
		key := strings.ToLower(t.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate tool name: %s", t.Name)
		}
		switch t.Kind {
		case ToolKindSearch:
			if t.Search == nil {
				return nil, fmt.Errorf("tool %s: search function is required", t.Name)
			}
		default:
			return nil, fmt.Errorf("tool %s: unsupported kind %q", t.Name, t.Kind)
		}
		seen[key] = struct{}{}
		r.tools = append(r.tools, t)
	}
	return r, nil
}

// Lookup finds a tool by name (case-insensitive, surrounding whitespace ignored).
func (r *ToolRegistry) Lookup(name string) (Tool, bool) {
	name = strings.TrimSpace(name)
	for _, t := range r.tools {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Tool{}, false
}

// Execute dispatches an invocation to its tool.
// An unregistered tool name yields an *UnknownToolError.
func (r *ToolRegistry) Execute(ctx context.Context, inv ActionInvocation) (string, error) {
	tool, ok := r.Lookup(inv.ToolName)
	if !ok {
		return "", &UnknownToolError{Name: inv.ToolName}
	}

	switch tool.Kind {
	case ToolKindSearch:
		return tool.Search(ctx, strings.TrimSpace(inv.ToolInput))
	default:
		return "", fmt.Errorf("tool %s: unsupported kind %q", tool.Name, tool.Kind)
	}
}

// Names returns the registered tool names in registration order.
func (r *ToolRegistry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name
	}
	return names
}

// FormatToolsForPrompt generates a concise description of available tools for LLM prompt.
func (r *ToolRegistry) FormatToolsForPrompt() string {
	var b strings.Builder
	for _, t := range r.tools {
		fmt.Fprintf(&b, "%s: %s\n", t.Name, t.Description)
	}
	return b.String()
}
