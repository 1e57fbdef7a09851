// Package llm presents one generation call surface over two interchangeable
// backends: a hosted chat-completion API and a self-hosted model server.
// Callers always receive a structured Result; transport failures are retried
// with backoff and escalated through backup model and fallback backend before
// being surfaced.
package llm

import (
	"context"
	"time"
)

// Request describes one generation call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// JSONMode asks the backend for a strict-JSON response where supported.
	JSONMode bool
}

// Usage is the token accounting reported by a backend.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ErrKind classifies a terminal gateway failure.
type ErrKind string

const (
	ErrKindTimeout       ErrKind = "timeout"
	ErrKindConnection    ErrKind = "connection"
	ErrKindAPIError      ErrKind = "api_error"
	ErrKindEmptyResponse ErrKind = "empty_response"
)

// Result is the uniform outcome of a gateway call.
type Result struct {
	Success    bool
	Content    string
	Model      string
	Backend    string
	Usage      Usage
	CostUSD    float64
	ErrKind    ErrKind
	ErrMessage string
}

// Backend is one concrete model server the gateway can call.
type Backend interface {
	Name() string
	Generate(ctx context.Context, model string, req Request) (string, Usage, error)
}
