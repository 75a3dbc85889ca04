package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, frames []string, capture *[]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			body, _ := io.ReadAll(r.Body)
			*capture = body
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestHTTPClientGenerateText(t *testing.T) {
	var captured []byte
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"Hello"}}]}`,
		`{"choices":[{"delta":{"content":" world"}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`,
	}, &captured)
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key")
	stream, err := client.Generate(context.Background(), &GenerateInput{
		Model: "gpt-test",
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a helper."},
			{Role: RoleUser, Content: "Say hello."},
		},
	})
	require.NoError(t, err)

	resp, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Text)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	var req map[string]any
	require.NoError(t, json.Unmarshal(captured, &req))
	assert.Equal(t, "gpt-test", req["model"])
	assert.Equal(t, true, req["stream"])
}

func TestHTTPClientGenerateToolCalls(t *testing.T) {
	srv := sseServer(t, []string{
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_price","arguments":"{\"tick"}}]}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"er\":\"AAPL\"}"}}]}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
	}, nil)
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "")
	stream, err := client.Generate(context.Background(), &GenerateInput{
		Model:    "gpt-test",
		Messages: []Message{{Role: RoleUser, Content: "price of AAPL"}},
		Tools: []ToolDefinition{
			{Name: "get_price", Description: "fetch a price", ParametersSchema: `{"type":"object"}`},
		},
	})
	require.NoError(t, err)

	resp, err := Collect(stream)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "get_price", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"ticker":"AAPL"}`, resp.ToolCalls[0].Arguments)
}

func TestHTTPClientProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "")
	stream, err := client.Generate(context.Background(), &GenerateInput{
		Model:    "gpt-test",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	_, err = Collect(stream)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Contains(t, err.Error(), "retryable: true")
}

func TestHTTPClientContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewHTTPClient(srv.URL, "")
	stream, err := client.Generate(ctx, &GenerateInput{
		Model:    "gpt-test",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	<-stream // first delta
	cancel()

	// Channel must close without hanging once the context is cancelled.
	for range stream {
	}
}
