package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Response holds the fully-collected result of a streaming model call.
type Response struct {
	Text      string
	ToolCalls []ToolCall
	Usage     *TokenUsage
}

// StreamCallback is invoked for each text delta during collection. delta is
// the new content only, never the accumulated text.
type StreamCallback func(delta string)

// Collect drains a chunk channel into a complete Response.
// Returns an error if an ErrorChunk is received.
func Collect(stream <-chan Chunk) (*Response, error) {
	return CollectWithCallback(stream, nil)
}

// CollectWithCallback collects a stream while calling back for each text
// delta. The callback is optional (nil = buffered mode, same as Collect).
func CollectWithCallback(stream <-chan Chunk, callback StreamCallback) (*Response, error) {
	resp := &Response{}
	var text strings.Builder

	for chunk := range stream {
		switch c := chunk.(type) {
		case *TextChunk:
			text.WriteString(c.Content)
			if callback != nil {
				callback(c.Content)
			}
		case *ToolCallChunk:
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        c.CallID,
				Name:      c.Name,
				Arguments: c.Arguments,
			})
		case *UsageChunk:
			resp.Usage = &TokenUsage{
				InputTokens:  c.InputTokens,
				OutputTokens: c.OutputTokens,
				TotalTokens:  c.TotalTokens,
			}
		case *ErrorChunk:
			return nil, fmt.Errorf("llm error: %s (code: %s, retryable: %v)",
				c.Message, c.Code, c.Retryable)
		}
	}

	resp.Text = text.String()
	return resp, nil
}

// Call performs a single model call and collects the complete response.
// The producer goroutine inside Generate is cleaned up on return via the
// derived cancellable context.
func Call(ctx context.Context, client Client, input *GenerateInput) (*Response, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := client.Generate(callCtx, input)
	if err != nil {
		return nil, fmt.Errorf("llm generate failed: %w", err)
	}
	return Collect(stream)
}

// GenerateObject performs a schema-constrained call, validates the model
// output against the same schema, and unmarshals it into out. The returned
// usage is nil when the provider reported none.
func GenerateObject(ctx context.Context, client Client, input *GenerateInput, out any) (*TokenUsage, error) {
	if input.ResponseSchema == "" {
		return nil, fmt.Errorf("structured generation requires a response schema")
	}

	resp, err := Call(ctx, client, input)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSON(resp.Text)
	if err := ValidateAgainstSchema(input.ResponseSchema, raw); err != nil {
		return resp.Usage, fmt.Errorf("model output failed schema validation: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return resp.Usage, fmt.Errorf("failed to unmarshal model output: %w", err)
	}
	return resp.Usage, nil
}

// ValidateAgainstSchema validates a raw JSON document against a JSON schema.
func ValidateAgainstSchema(schemaJSON, doc string) error {
	schema, err := jsonschema.CompileString("response.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("invalid response schema: %w", err)
	}
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w", err)
	}
	return schema.Validate(v)
}

// ExtractJSON strips markdown code fences some providers wrap around JSON
// output even in schema-constrained mode.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
