package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model string `json:"model"`
			Input []struct {
				Role string `json:"role"`
			} `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-5.1", req.Model)
		require.Len(t, req.Input, 2)
		assert.Equal(t, "system", req.Input[0].Role)
		assert.Equal(t, "user", req.Input[1].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"model":       "gpt-5.1-2026-01-15",
			"output_text": "hello from openai",
		})
	}))
	defer ts.Close()

	connector := NewOpenAI("test-key", "gpt-5.1")
	resp, err := connector.Generate(context.Background(), &GenerateRequest{
		Text:     "hi",
		ProxyURL: ts.URL, // the proxy override doubles as the test hook
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from openai", resp.Text)
	assert.Equal(t, "gpt-5.1-2026-01-15", resp.Model)
}

func TestOpenAIGenerateCollectsOutputParts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"output": []map[string]any{
				{"content": []map[string]any{
					{"type": "output_text", "text": "part one"},
					{"type": "reasoning", "text": "ignored"},
				}},
				{"content": []map[string]any{
					{"type": "output_text", "text": "part two"},
				}},
			},
		})
	}))
	defer ts.Close()

	connector := NewOpenAI("test-key", "gpt-5.1")
	resp, err := connector.Generate(context.Background(), &GenerateRequest{Text: "hi", ProxyURL: ts.URL})
	require.NoError(t, err)
	assert.Equal(t, "part one\n\npart two", resp.Text)
	assert.Equal(t, "gpt-5.1", resp.Model, "configured model used when the API omits one")
}

func TestOpenAIGenerateErrorPassthrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer ts.Close()

	connector := NewOpenAI("test-key", "gpt-5.1")
	_, err := connector.Generate(context.Background(), &GenerateRequest{Text: "hi", ProxyURL: ts.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIGenerateWithoutKey(t *testing.T) {
	connector := NewOpenAI("", "gpt-5.1")
	_, err := connector.Generate(context.Background(), &GenerateRequest{Text: "hi"})
	assert.Error(t, err)
}

func TestOpenAIFetchModelInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/gpt-5.1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "gpt-5.1-2026-01-15"})
	}))
	defer ts.Close()

	connector := NewOpenAI("test-key", "gpt-5.1")
	info := connector.FetchModelInfo(context.Background(), ts.URL)
	assert.True(t, info.OK)
	assert.Equal(t, "gpt-5.1", info.ConfiguredModel)
	assert.Equal(t, "gpt-5.1-2026-01-15", info.APIModel)
	assert.Empty(t, info.Error)
}

func TestOpenAIFetchModelInfoWithoutKey(t *testing.T) {
	connector := NewOpenAI("", "gpt-5.1")
	info := connector.FetchModelInfo(context.Background(), "")
	assert.False(t, info.OK)
	assert.NotEmpty(t, info.Error)
}

func TestGeminiGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req struct {
			Contents []struct {
				Parts []map[string]any `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2, "text part plus inline image")

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{
					{"text": "gemini says hi"},
				}}},
			},
		})
	}))
	defer ts.Close()

	connector := NewGemini("test-key")
	resp, err := connector.Generate(context.Background(), &GenerateRequest{
		Text:         "hi",
		ImageDataURL: "data:image/png;base64,aGk=",
		ProxyURL:     ts.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini says hi", resp.Text)
	assert.Equal(t, "gemini-2.0-flash", resp.Model)
}

func TestGeminiGenerateErrorPassthrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer ts.Close()

	connector := NewGemini("test-key")
	_, err := connector.Generate(context.Background(), &GenerateRequest{Text: "hi", ProxyURL: ts.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
