package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// HTTPClient talks to an OpenAI-compatible chat-completions endpoint over
// HTTP with server-sent-event streaming.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// HTTPClientOption customizes an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPDoer overrides the underlying *http.Client. Used in tests.
func WithHTTPDoer(c *http.Client) HTTPClientOption {
	return func(h *HTTPClient) { h.httpClient = c }
}

// NewHTTPClient creates a client for the given base URL (without the
// /chat/completions suffix). The apiKey is sent as a bearer token.
func NewHTTPClient(baseURL, apiKey string, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// No overall client timeout: streams are bounded by the request
		// context. The dial/TLS phase is bounded by the transport defaults.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close implements Client. The underlying transport pools connections and
// needs no explicit teardown.
func (c *HTTPClient) Close() error { return nil }

// chatRequest is the wire shape of a chat-completions call.
type chatRequest struct {
	Model            string            `json:"model"`
	Messages         []chatMessage     `json:"messages"`
	Stream           bool              `json:"stream"`
	StreamOptions    map[string]bool   `json:"stream_options,omitempty"`
	Temperature      *float32          `json:"temperature,omitempty"`
	MaxTokens        *int32            `json:"max_tokens,omitempty"`
	ResponseFormat   *responseFormat   `json:"response_format,omitempty"`
	Tools            []chatTool        `json:"tools,omitempty"`
	WebSearchOptions map[string]string `json:"web_search_options,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string      `json:"type"`
	Function chatToolDef `json:"function"`
}

type chatToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type responseFormat struct {
	Type       string        `json:"type"`
	JSONSchema rawJSONSchema `json:"json_schema"`
}

type rawJSONSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

// Generate implements Client. The request is sent immediately; chunks are
// delivered on the returned channel by a producer goroutine that exits when
// the stream ends, an error occurs, or ctx is cancelled.
func (c *HTTPClient) Generate(ctx context.Context, input *GenerateInput) (<-chan Chunk, error) {
	body, err := c.buildRequestBody(input)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	chunks := make(chan Chunk, 64)
	go func() {
		defer close(chunks)
		c.stream(ctx, req, chunks)
	}()
	return chunks, nil
}

func (c *HTTPClient) buildRequestBody(input *GenerateInput) ([]byte, error) {
	msgs := make([]chatMessage, 0, len(input.Messages))
	for _, m := range input.Messages {
		cm := chatMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.ToolName,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: chatToolFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		msgs = append(msgs, cm)
	}

	req := chatRequest{
		Model:         input.Model,
		Messages:      msgs,
		Stream:        true,
		StreamOptions: map[string]bool{"include_usage": true},
		Temperature:   input.Temperature,
		MaxTokens:     input.MaxTokens,
	}
	if input.ResponseSchema != "" {
		req.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: rawJSONSchema{
				Name:   "response",
				Strict: true,
				Schema: json.RawMessage(input.ResponseSchema),
			},
		}
	}
	for _, t := range input.Tools {
		req.Tools = append(req.Tools, chatTool{
			Type: "function",
			Function: chatToolDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(t.ParametersSchema),
			},
		})
	}
	if input.WebSearch {
		req.WebSearchOptions = map[string]string{"search_context_size": "medium"}
	}
	return json.Marshal(req)
}

// toolCallAccumulator assembles a tool call from streamed argument deltas.
type toolCallAccumulator struct {
	id   string
	name string
	args strings.Builder
}

// stream reads SSE frames and converts them into chunks. Provider and
// transport errors are delivered as ErrorChunk values, never panics.
func (c *HTTPClient) stream(ctx context.Context, req *http.Request, chunks chan<- Chunk) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		chunks <- &ErrorChunk{Message: err.Error(), Code: "transport", Retryable: true}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		chunks <- &ErrorChunk{
			Message:   fmt.Sprintf("provider returned %d: %s", resp.StatusCode, gjson.GetBytes(body, "error.message").String()),
			Code:      fmt.Sprintf("http_%d", resp.StatusCode),
			Retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
		return
	}

	toolCalls := map[int64]*toolCallAccumulator{}
	flushToolCalls := func() {
		indexes := make([]int64, 0, len(toolCalls))
		for i := range toolCalls {
			indexes = append(indexes, i)
		}
		sort.Slice(indexes, func(a, b int) bool { return indexes[a] < indexes[b] })
		for _, i := range indexes {
			acc := toolCalls[i]
			chunks <- &ToolCallChunk{CallID: acc.id, Name: acc.name, Arguments: acc.args.String()}
		}
		toolCalls = map[int64]*toolCallAccumulator{}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}
		frame := gjson.Parse(data)

		if errMsg := frame.Get("error.message"); errMsg.Exists() {
			chunks <- &ErrorChunk{Message: errMsg.String(), Code: frame.Get("error.code").String()}
			return
		}

		delta := frame.Get("choices.0.delta")
		if content := delta.Get("content"); content.Exists() && content.String() != "" {
			select {
			case chunks <- &TextChunk{Content: content.String()}:
			case <-ctx.Done():
				return
			}
		}
		delta.Get("tool_calls").ForEach(func(_, tc gjson.Result) bool {
			idx := tc.Get("index").Int()
			acc, ok := toolCalls[idx]
			if !ok {
				acc = &toolCallAccumulator{}
				toolCalls[idx] = acc
			}
			if id := tc.Get("id").String(); id != "" {
				acc.id = id
			}
			if name := tc.Get("function.name").String(); name != "" {
				acc.name = name
			}
			acc.args.WriteString(tc.Get("function.arguments").String())
			return true
		})

		if finish := frame.Get("choices.0.finish_reason").String(); finish == "tool_calls" {
			flushToolCalls()
		}

		if usage := frame.Get("usage"); usage.Exists() && usage.Get("total_tokens").Int() > 0 {
			chunks <- &UsageChunk{
				InputTokens:  int(usage.Get("prompt_tokens").Int()),
				OutputTokens: int(usage.Get("completion_tokens").Int()),
				TotalTokens:  int(usage.Get("total_tokens").Int()),
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		chunks <- &ErrorChunk{Message: fmt.Sprintf("stream read failed: %v", err), Code: "stream", Retryable: true}
		return
	}
	// Some providers omit finish_reason on the last tool-call frame.
	flushToolCalls()
}
