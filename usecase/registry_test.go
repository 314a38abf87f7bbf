package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

func noopRun(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	return nil, nil
}

func TestNewRegistryValidatesToolSet(t *testing.T) {
	t.Run("builtin tools are valid", func(t *testing.T) {
		r, err := NewRegistry(builtinTools())
		require.NoError(t, err)
		assert.Len(t, r.Schemas(), 8)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := NewRegistry([]Tool{
			{Schema: domain.ToolSchema{Name: "x"}, Run: noopRun},
			{Schema: domain.ToolSchema{Name: "x"}, Run: noopRun},
		})
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("missing implementation", func(t *testing.T) {
		_, err := NewRegistry([]Tool{{Schema: domain.ToolSchema{Name: "x"}}})
		assert.ErrorContains(t, err, "no implementation")
	})

	t.Run("required parameter not declared", func(t *testing.T) {
		_, err := NewRegistry([]Tool{{
			Schema: domain.ToolSchema{Name: "x", Required: []string{"ghost"}},
			Run:    noopRun,
		}})
		assert.ErrorContains(t, err, "undeclared parameter")
	})
}

func TestResolveUnknownTool(t *testing.T) {
	r, err := NewRegistry(builtinTools())
	require.NoError(t, err)

	_, err = r.Resolve("fly_to_the_moon")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestSchemasStableOrder(t *testing.T) {
	r, err := NewRegistry(builtinTools())
	require.NoError(t, err)

	first := r.Schemas()
	second := r.Schemas()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
}

func TestValidateArgs(t *testing.T) {
	schema := domain.ToolSchema{
		Name: "add_product",
		Params: map[string]domain.Param{
			"title":     {Type: domain.TypeString},
			"price":     {Type: domain.TypeString},
			"image_url": {Type: domain.TypeString},
		},
		Required: []string{"title", "price"},
	}

	t.Run("valid", func(t *testing.T) {
		err := ValidateArgs(schema, map[string]any{"title": "Tutu", "price": "10"})
		assert.NoError(t, err)
	})

	t.Run("missing required", func(t *testing.T) {
		err := ValidateArgs(schema, map[string]any{"title": "Tutu"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		err := ValidateArgs(schema, map[string]any{"title": "Tutu", "price": "10", "color": "red"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("wrong type", func(t *testing.T) {
		err := ValidateArgs(schema, map[string]any{"title": 12.0, "price": "10"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestValidateArgsNestedLineItems(t *testing.T) {
	var schema domain.ToolSchema
	for _, tool := range builtinTools() {
		if tool.Schema.Name == "add_order" {
			schema = tool.Schema
		}
	}

	valid := map[string]any{
		"customer_email": "alice@example.com",
		"line_items": []any{
			map[string]any{"title": "Charger", "quantity": 2.0, "price": 9.99},
		},
	}
	assert.NoError(t, ValidateArgs(schema, valid))

	missingField := map[string]any{
		"customer_email": "alice@example.com",
		"line_items": []any{
			map[string]any{"title": "Charger", "price": 9.99},
		},
	}
	assert.ErrorIs(t, ValidateArgs(schema, missingField), domain.ErrValidation)

	fractionalQuantity := map[string]any{
		"customer_email": "alice@example.com",
		"line_items": []any{
			map[string]any{"title": "Charger", "quantity": 1.5, "price": 9.99},
		},
	}
	assert.ErrorIs(t, ValidateArgs(schema, fractionalQuantity), domain.ErrValidation)
}
