package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

// Tool pairs a declared schema with its local implementation. Run
// mutates the turn (to-do list, facts) and may call the catalog; it
// reports failures as errors, which the loop folds into a failed
// ToolResult rather than letting them escape.
type Tool struct {
	Schema domain.ToolSchema
	Run    func(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error)
}

// Registry is the closed mapping from tool name to implementation.
// The set is fixed at startup; a model request for any other name
// fails fast with ErrToolNotFound.
type Registry struct {
	tools map[string]Tool
	names []string
}

// NewRegistry validates the tool set once at startup: names must be
// unique and non-empty, every required parameter must be declared, and
// every tool must have an implementation.
func NewRegistry(tools []Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Schema.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if t.Run == nil {
			return nil, fmt.Errorf("tool %q has no implementation", t.Schema.Name)
		}
		if _, dup := r.tools[t.Schema.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Schema.Name)
		}
		for _, req := range t.Schema.Required {
			if _, ok := t.Schema.Params[req]; !ok {
				return nil, fmt.Errorf("tool %q requires undeclared parameter %q", t.Schema.Name, req)
			}
		}
		r.tools[t.Schema.Name] = t
		r.names = append(r.names, t.Schema.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Resolve returns the tool for name or ErrToolNotFound.
func (r *Registry) Resolve(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %q", domain.ErrToolNotFound, name)
	}
	return t, nil
}

// Schemas returns the declared schemas in a stable order. The slice is
// rebuilt per call; the schemas themselves are static.
func (r *Registry) Schemas() []domain.ToolSchema {
	out := make([]domain.ToolSchema, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.tools[name].Schema)
	}
	return out
}

// ValidateArgs checks model-supplied arguments against the declared
// schema before the executor runs: required parameters must be
// present, no undeclared parameter is accepted, and every value must
// match its declared type.
func ValidateArgs(schema domain.ToolSchema, args map[string]any) error {
	for _, req := range schema.Required {
		if _, ok := args[req]; !ok {
			return fmt.Errorf("%w: %s: missing required parameter %q", domain.ErrValidation, schema.Name, req)
		}
	}
	for name, value := range args {
		param, ok := schema.Params[name]
		if !ok {
			return fmt.Errorf("%w: %s: unknown parameter %q", domain.ErrValidation, schema.Name, name)
		}
		if err := checkType(param, value); err != nil {
			return fmt.Errorf("%w: %s: parameter %q: %v", domain.ErrValidation, schema.Name, name, err)
		}
	}
	return nil
}

func checkType(param domain.Param, value any) error {
	if value == nil {
		return fmt.Errorf("is null")
	}
	switch param.Type {
	case domain.TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case domain.TypeInteger:
		// JSON numbers decode as float64.
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		if f != float64(int64(f)) {
			return fmt.Errorf("expected integer, got %v", f)
		}
	case domain.TypeNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expected number, got %T", value)
		}
	case domain.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case domain.TypeArray:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
		if param.Items != nil {
			for i, item := range items {
				if err := checkType(*param.Items, item); err != nil {
					return fmt.Errorf("element %d: %v", i, err)
				}
			}
		}
	case domain.TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
		for _, req := range param.Required {
			if _, present := obj[req]; !present {
				return fmt.Errorf("missing required field %q", req)
			}
		}
		for field, fieldValue := range obj {
			fieldParam, declared := param.Properties[field]
			if !declared {
				continue
			}
			if err := checkType(fieldParam, fieldValue); err != nil {
				return fmt.Errorf("field %q: %v", field, err)
			}
		}
	}
	return nil
}
