package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaBackend talks to a self-hosted model server speaking the Ollama
// generate API.
type OllamaBackend struct {
	baseURL string
	client  *http.Client
}

func NewOllamaBackend(baseURL string, client *http.Client) *OllamaBackend {
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaBackend{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (o *OllamaBackend) Name() string { return "ollama" }

type ollamaRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (o *OllamaBackend) Generate(ctx context.Context, model string, req Request) (string, Usage, error) {
	payload := ollamaRequest{
		Model:  model,
		System: req.System,
		Prompt: req.Prompt,
		Stream: false,
	}
	if req.JSONMode {
		payload.Format = "json"
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		payload.Options = map[string]any{}
		if req.Temperature > 0 {
			payload.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			payload.Options["num_predict"] = req.MaxTokens
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", Usage{}, fmt.Errorf("encode request: %w", err)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return "", Usage{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", Usage{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", Usage{}, &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", Usage{}, fmt.Errorf("decode response: %w", err)
	}
	content := strings.TrimSpace(out.Response)
	if content == "" {
		return "", Usage{}, errEmptyResponse
	}
	usage := Usage{
		PromptTokens:     out.PromptEvalCount,
		CompletionTokens: out.EvalCount,
		TotalTokens:      out.PromptEvalCount + out.EvalCount,
	}
	return content, usage, nil
}

var _ Backend = (*OllamaBackend)(nil)
