package domain

import "context"

// Llm abstracts any chat/LLM provider with tool-calling support.
//
// A completion either carries natural-language text or one or more
// tool-call requests, never both. The provider is a black box: prompt
// plus schema in, text or tool calls out.
type Llm interface {
	Complete(ctx context.Context, history []ChatMessage, tools []ToolSchema) (Completion, error)
}

// Completion is the model's answer to one Complete call.
type Completion struct {
	Text      string
	ToolCalls []ToolCallRequest
}

type Role string

const (
	SystemRole    Role = "system"
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	ToolRole      Role = "tool"
)

// ChatMessage is one entry of the conversation history. The first
// entry of a session is always the system instruction; tool-role
// entries carry the result of an executed tool call.
type ChatMessage struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
	ToolResult *ToolResult       `json:"tool_result,omitempty"`
}

// ToolCallRequest is produced by the model and consumed by the tool
// registry.
type ToolCallRequest struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is fed back into the history as a tool-role message so
// the model can verbalize successes and failures alike.
type ToolResult struct {
	ID      string         `json:"id,omitempty"`
	Name    string         `json:"name"`
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// ToolSchema declares one callable tool to the model: name, free-text
// description and a parameter schema. It is static for the lifetime of
// the process and serialized once per model call.
type ToolSchema struct {
	Name        string
	Description string
	Params      map[string]Param
	Required    []string
}

// Param describes a single tool parameter. Items and Properties allow
// nested array/object parameters (Shopify order line items).
type Param struct {
	Type        ParamType
	Description string
	Items       *Param
	Properties  map[string]Param
	Required    []string
}

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)
