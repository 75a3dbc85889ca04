// Package llm provides the language-model boundary: a channel-based
// streaming client interface plus helpers for schema-constrained
// (structured) generation. Two call shapes are supported: structured
// generation against a JSON schema and free-text generation, optionally
// grounded with web search or augmented with caller-executed tools.
package llm

import "context"

// Client is the consumer-side interface for calling a language model.
type Client interface {
	// Generate sends a conversation to the model and returns a stream of
	// chunks. The returned channel is closed when the stream completes.
	// Errors are delivered as ErrorChunk values in the channel.
	Generate(ctx context.Context, input *GenerateInput) (<-chan Chunk, error)

	// Close releases the underlying connection.
	Close() error
}

// GenerateInput describes one model call.
type GenerateInput struct {
	TurnID   string
	Model    string
	Messages []Message

	// ResponseSchema constrains the output to a JSON schema when non-empty.
	ResponseSchema string

	// Tools the model may call. The caller executes tool calls and feeds
	// results back as RoleTool messages.
	Tools []ToolDefinition

	// WebSearch enables search-grounded generation.
	WebSearch bool

	Temperature *float32
	MaxTokens   *int32
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one conversation entry.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // for assistant messages
	ToolCallID string     // for tool result messages
	ToolName   string     // for tool result messages
}

// ToolDefinition describes a tool available to the model.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string // JSON Schema
}

// ToolCall is the model's request to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeToolCall ChunkType = "tool_call"
	ChunkTypeUsage    ChunkType = "usage"
	ChunkTypeError    ChunkType = "error"
)

// Chunk is the interface for all streaming chunk types.
type Chunk interface {
	chunkType() ChunkType
}

// TextChunk is a delta of the model's text response.
type TextChunk struct{ Content string }

// ToolCallChunk signals the model wants to call a tool.
type ToolCallChunk struct{ CallID, Name, Arguments string }

// UsageChunk reports token consumption for this call.
type UsageChunk struct{ InputTokens, OutputTokens, TotalTokens int }

// ErrorChunk signals an error from the provider.
type ErrorChunk struct {
	Message   string
	Code      string
	Retryable bool
}

func (c *TextChunk) chunkType() ChunkType     { return ChunkTypeText }
func (c *ToolCallChunk) chunkType() ChunkType { return ChunkTypeToolCall }
func (c *UsageChunk) chunkType() ChunkType    { return ChunkTypeUsage }
func (c *ErrorChunk) chunkType() ChunkType    { return ChunkTypeError }

// TokenUsage aggregates token consumption across multiple model calls.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add accumulates u2 into u.
func (u *TokenUsage) Add(u2 TokenUsage) {
	u.InputTokens += u2.InputTokens
	u.OutputTokens += u2.OutputTokens
	u.TotalTokens += u2.TotalTokens
}
