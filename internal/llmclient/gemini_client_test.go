package llmclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/scout-cli/api/schemas"
)

// setupGeminiClient points a GeminiClient at a local test server.
func setupGeminiClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *observer.ObservedLogs) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	core, logs := observer.New(zap.DebugLevel)
	cfg := getValidLLMConfig()
	cfg.Endpoint = server.URL

	client, err := NewGeminiClient(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)
	return client, logs
}

func createTestRequest() schemas.GenerationRequest {
	return schemas.GenerationRequest{
		SystemPrompt: "System prompt instructions.",
		UserPrompt:   "User query.",
		Options: schemas.GenerationOptions{
			Temperature:     0.2,
			ForceJSONFormat: true,
		},
	}
}

// -- Test Cases: Initialization --

func TestNewGeminiClient_Failure_MissingAPIKey(t *testing.T) {
	cfg := getValidLLMConfig()
	cfg.APIKey = ""

	client, err := NewGeminiClient(context.Background(), cfg, setupTestLogger(t))
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "gemini API key is required")
}

func TestNewGeminiClient_Failure_MissingModel(t *testing.T) {
	cfg := getValidLLMConfig()
	cfg.Model = ""

	_, err := NewGeminiClient(context.Background(), cfg, setupTestLogger(t))
	assert.Error(t, err)
}

// -- Test Cases: Generation Config --

func TestBuildGenerationConfig_RequestOverrides(t *testing.T) {
	client, err := NewGeminiClient(context.Background(), getValidLLMConfig(), setupTestLogger(t))
	require.NoError(t, err)
	client.config.MaxTokens = 2048

	req := createTestRequest()
	req.Options.TopK = 5
	genConfig := client.buildGenerationConfig(req)

	require.NotNil(t, genConfig.Temperature)
	assert.Equal(t, float32(0.2), *genConfig.Temperature)
	require.NotNil(t, genConfig.TopP)
	assert.Equal(t, float32(0.9), *genConfig.TopP, "model default applies when the request leaves it unset")
	require.NotNil(t, genConfig.TopK)
	assert.Equal(t, float32(5), *genConfig.TopK)
	assert.Equal(t, int32(2048), genConfig.MaxOutputTokens)
	assert.Equal(t, "application/json", genConfig.ResponseMIMEType)
	require.NotNil(t, genConfig.SystemInstruction)
	require.Len(t, genConfig.SystemInstruction.Parts, 1)
	assert.Equal(t, req.SystemPrompt, genConfig.SystemInstruction.Parts[0].Text)
}

func TestBuildGenerationConfig_ModelDefaults(t *testing.T) {
	client, err := NewGeminiClient(context.Background(), getValidLLMConfig(), setupTestLogger(t))
	require.NoError(t, err)

	genConfig := client.buildGenerationConfig(schemas.GenerationRequest{UserPrompt: "x"})
	require.NotNil(t, genConfig.Temperature)
	assert.Equal(t, float32(0.7), *genConfig.Temperature)
	assert.Nil(t, genConfig.SystemInstruction)
	assert.Empty(t, genConfig.ResponseMIMEType)
	assert.Zero(t, genConfig.MaxOutputTokens)
}

// -- Test Cases: Generate --

func TestGenerate_Success(t *testing.T) {
	client, logs := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "test-model:generateContent"), "unexpected path %s", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-goog-api-key"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "User query.")
		assert.Contains(t, string(body), "System prompt instructions.")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"ok\": true}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 100, "candidatesTokenCount": 50, "totalTokenCount": 150}
		}`)
	})

	text, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, text)

	entries := logs.FilterMessage("LLM generation complete (Gemini)").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 150, entries[0].ContextMap()["total_tokens"])
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error": {"code": 500, "message": "internal", "status": "INTERNAL"}}`,
			wantErr: "gemini API error",
		},
		{
			name:    "no candidates",
			status:  http.StatusOK,
			body:    `{"candidates": []}`,
			wantErr: "no candidates",
		},
		{
			name:    "safety block",
			status:  http.StatusOK,
			body:    `{"candidates": [{"finishReason": "SAFETY"}]}`,
			wantErr: "blocked the request",
		},
		{
			name:    "empty parts",
			status:  http.StatusOK,
			body:    `{"candidates": [{"content": {"role": "model", "parts": []}, "finishReason": "MAX_TOKENS"}]}`,
			wantErr: "empty content parts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			text, err := client.Generate(context.Background(), createTestRequest())
			require.Error(t, err)
			assert.Empty(t, text)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerate_ContextCanceled(t *testing.T) {
	client, _ := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, createTestRequest())
	assert.Error(t, err)
}
