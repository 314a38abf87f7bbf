package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

// GeminiClient implements domain.Llm on top of the Gemini API,
// declaring the tool registry's schemas as function declarations.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, history []domain.ChatMessage, tools []domain.ToolSchema) (domain.Completion, error) {
	config := &genai.GenerateContentConfig{}
	if len(tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(tools)}}
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case domain.SystemRole:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		case domain.UserRole:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case domain.AssistantRole:
			parts := []*genai.Part{}
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		case domain.ToolRole:
			if msg.ToolResult == nil {
				continue
			}
			// Gemini expects function responses in a user-role turn.
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.ToolResult.ID,
						Name:     msg.ToolResult.Name,
						Response: toResponseMap(msg.ToolResult),
					},
				}},
			})
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Completion{}, fmt.Errorf("%w: gemini: %v", domain.ErrUpstreamTimeout, err)
		}
		return domain.Completion{}, fmt.Errorf("%w: gemini: %v", domain.ErrUpstreamUnavailable, err)
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		requests := make([]domain.ToolCallRequest, 0, len(calls))
		for _, call := range calls {
			requests = append(requests, domain.ToolCallRequest{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Args,
			})
		}
		return domain.Completion{ToolCalls: requests}, nil
	}

	return domain.Completion{Text: resp.Text()}, nil
}

func toResponseMap(result *domain.ToolResult) map[string]any {
	if result.Success {
		response := make(map[string]any, len(result.Payload)+1)
		for k, v := range result.Payload {
			response[k] = v
		}
		response["success"] = true
		return response
	}
	return map[string]any{"success": false, "error": result.Reason}
}

func toDeclarations(tools []domain.ToolSchema) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: toProperties(tool.Params),
				Required:   tool.Required,
			},
		})
	}
	return decls
}

func toProperties(params map[string]domain.Param) map[string]*genai.Schema {
	props := make(map[string]*genai.Schema, len(params))
	for name, param := range params {
		props[name] = toSchema(param)
	}
	return props
}

func toSchema(param domain.Param) *genai.Schema {
	schema := &genai.Schema{
		Type:        toType(param.Type),
		Description: param.Description,
		Required:    param.Required,
	}
	if param.Items != nil {
		schema.Items = toSchema(*param.Items)
	}
	if len(param.Properties) > 0 {
		schema.Properties = toProperties(param.Properties)
	}
	return schema
}

func toType(t domain.ParamType) genai.Type {
	switch t {
	case domain.TypeString:
		return genai.TypeString
	case domain.TypeInteger:
		return genai.TypeInteger
	case domain.TypeNumber:
		return genai.TypeNumber
	case domain.TypeBoolean:
		return genai.TypeBoolean
	case domain.TypeArray:
		return genai.TypeArray
	default:
		return genai.TypeObject
	}
}
