package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func chatCompletionBody(content string) string {
	return fmt.Sprintf(`{
		"choices": [{"message": {"content": %q}}],
		"usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}
	}`, content)
}

func noSleep(context.Context, time.Duration) error { return nil }

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// fakeBackend is a scripted secondary backend.
type fakeBackend struct {
	name    string
	content string
	err     error
	calls   atomic.Int32
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(context.Context, string, Request) (string, Usage, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", Usage{}, f.err
	}
	return f.content, Usage{TotalTokens: 10}, nil
}

func TestGatewayPrimarySuccess(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIChatRequest
		if err := decodeBody(r, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		models = append(models, req.Model)
		fmt.Fprint(w, chatCompletionBody(`{"ok": true}`))
	}))
	defer srv.Close()

	gw := NewGateway(GatewayOptions{
		Primary:      NewOpenAIBackend(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()}),
		PrimaryModel: "gpt-4o-mini",
		Logger:       zerolog.Nop(),
		Sleep:        noSleep,
	})

	res := gw.Generate(context.Background(), Request{Prompt: "p"})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.ErrMessage)
	}
	if res.Content != `{"ok": true}` || res.Model != "gpt-4o-mini" || res.Backend != "openai" {
		t.Fatalf("res = %+v", res)
	}
	if res.Usage.TotalTokens != 150 {
		t.Fatalf("tokens = %d", res.Usage.TotalTokens)
	}
	if res.CostUSD <= 0 {
		t.Fatalf("cost = %f, want positive for a priced model", res.CostUSD)
	}
	if len(models) != 1 {
		t.Fatalf("models called: %v", models)
	}
}

func TestGatewayRetriesTransportThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			panic(http.ErrAbortHandler) // connection reset, a transport failure
		}
		fmt.Fprint(w, chatCompletionBody("late but fine"))
	}))
	defer srv.Close()

	gw := NewGateway(GatewayOptions{
		Primary:      NewOpenAIBackend(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()}),
		PrimaryModel: "gpt-4o-mini",
		Logger:       zerolog.Nop(),
		Sleep:        noSleep,
	})

	res := gw.Generate(context.Background(), Request{Prompt: "p"})
	if !res.Success {
		t.Fatalf("expected third attempt to succeed: %+v", res)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("server hit %d times, want 3", got)
	}
}

func TestGatewayAPIErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error": "model overloaded"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	gw := NewGateway(GatewayOptions{
		Primary:      NewOpenAIBackend(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()}),
		PrimaryModel: "gpt-4o-mini",
		Logger:       zerolog.Nop(),
		Sleep:        noSleep,
	})

	res := gw.Generate(context.Background(), Request{Prompt: "p"})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ErrKind != ErrKindAPIError {
		t.Fatalf("ErrKind = %q", res.ErrKind)
	}
	// One call for the primary model, one for nothing else: 4xx ends the
	// ladder without burning retries.
	if got := hits.Load(); got != 1 {
		t.Fatalf("server hit %d times, want 1", got)
	}
}

func TestGatewayFallsBackToBackupModelThenSecondary(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIChatRequest
		_ = decodeBody(r, &req)
		models = append(models, req.Model)
		http.Error(w, "gateway timeout", http.StatusBadGateway)
	}))
	defer srv.Close()

	secondary := &fakeBackend{name: "ollama", content: `{"rescued": true}`}
	gw := NewGateway(GatewayOptions{
		Primary:        NewOpenAIBackend(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()}),
		PrimaryModel:   "gpt-4o-mini",
		BackupModel:    "gpt-3.5-turbo",
		Secondary:      secondary,
		SecondaryModel: "llama3.1",
		Logger:         zerolog.Nop(),
		Sleep:          noSleep,
	})

	res := gw.Generate(context.Background(), Request{Prompt: "p"})
	if !res.Success {
		t.Fatalf("secondary should have rescued the call: %+v", res)
	}
	if res.Backend != "ollama" || res.Model != "llama3.1" {
		t.Fatalf("res = %+v", res)
	}
	if len(models) != 2 || models[0] != "gpt-4o-mini" || models[1] != "gpt-3.5-turbo" {
		t.Fatalf("primary models tried: %v", models)
	}
	if secondary.calls.Load() != 1 {
		t.Fatalf("secondary called %d times", secondary.calls.Load())
	}
}

func TestGatewayAllBackendsExhausted(t *testing.T) {
	secondary := &fakeBackend{name: "ollama", err: errors.New("dial tcp: connection refused")}
	gw := NewGateway(GatewayOptions{
		// No primary credential: hosted path is skipped entirely.
		Primary:        NewOpenAIBackend(OpenAIOptions{}),
		PrimaryModel:   "gpt-4o-mini",
		Secondary:      secondary,
		SecondaryModel: "llama3.1",
		Logger:         zerolog.Nop(),
		Sleep:          noSleep,
	})

	res := gw.Generate(context.Background(), Request{Prompt: "p"})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ErrKind != ErrKindConnection {
		t.Fatalf("ErrKind = %q", res.ErrKind)
	}
	// Connection failures are retried up to the attempt cap.
	if secondary.calls.Load() != 3 {
		t.Fatalf("secondary called %d times, want 3", secondary.calls.Load())
	}
}

func TestGatewayNoBackendConfigured(t *testing.T) {
	gw := NewGateway(GatewayOptions{
		Primary: NewOpenAIBackend(OpenAIOptions{}),
		Logger:  zerolog.Nop(),
		Sleep:   noSleep,
	})
	res := gw.Generate(context.Background(), Request{Prompt: "p"})
	if res.Success || res.ErrKind != ErrKindConnection {
		t.Fatalf("res = %+v", res)
	}
}

func TestClassify(t *testing.T) {
	cases := map[ErrKind]error{
		ErrKindEmptyResponse: errEmptyResponse,
		ErrKindAPIError:      &apiError{status: 500, body: "oops"},
		ErrKindTimeout:       context.DeadlineExceeded,
		ErrKindConnection:    errors.New("dial tcp: connection refused"),
	}
	for want, err := range cases {
		if got := classify(err); got != want {
			t.Fatalf("classify(%v) = %q, want %q", err, got, want)
		}
	}
}
