package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"wisentia/internal/infra/metrics"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 5 * time.Second
	defaultTimeoutGrowth  = 1.5
)

// GatewayOptions wires the backends and tuning knobs.
type GatewayOptions struct {
	// Primary is the hosted provider; skipped when no credential is set.
	Primary      *OpenAIBackend
	PrimaryModel string
	// BackupModel is retried on the primary backend after the primary model
	// is exhausted.
	BackupModel string
	// Secondary is the self-hosted fallback backend.
	Secondary      Backend
	SecondaryModel string

	Logger zerolog.Logger

	MaxAttempts    int
	InitialBackoff time.Duration
	TimeoutGrowth  float64

	// Sleep is replaceable in tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Gateway presents one generate contract regardless of which backend answers.
type Gateway struct {
	primary        *OpenAIBackend
	primaryModel   string
	backupModel    string
	secondary      Backend
	secondaryModel string

	logger         zerolog.Logger
	maxAttempts    int
	initialBackoff time.Duration
	timeoutGrowth  float64
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewGateway(opts GatewayOptions) *Gateway {
	g := &Gateway{
		primary:        opts.Primary,
		primaryModel:   opts.PrimaryModel,
		backupModel:    opts.BackupModel,
		secondary:      opts.Secondary,
		secondaryModel: opts.SecondaryModel,
		logger:         opts.Logger,
		maxAttempts:    opts.MaxAttempts,
		initialBackoff: opts.InitialBackoff,
		timeoutGrowth:  opts.TimeoutGrowth,
		sleep:          opts.Sleep,
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = defaultMaxAttempts
	}
	if g.initialBackoff <= 0 {
		g.initialBackoff = defaultInitialBackoff
	}
	if g.timeoutGrowth <= 1 {
		g.timeoutGrowth = defaultTimeoutGrowth
	}
	if g.sleep == nil {
		g.sleep = sleepCtx
	}
	return g
}

// Generate runs the request through the backend ladder: primary model, then
// the backup model on the same provider, then the self-hosted fallback. The
// outcome is always a structured Result; nothing escapes this boundary.
func (g *Gateway) Generate(ctx context.Context, req Request) Result {
	var (
		lastKind ErrKind
		lastMsg  string
	)

	if g.primary != nil && g.primary.Configured() {
		res, ok := g.tryBackend(ctx, g.primary, g.primaryModel, req)
		if ok {
			return res
		}
		lastKind, lastMsg = res.ErrKind, res.ErrMessage
		if g.backupModel != "" && g.backupModel != g.primaryModel {
			g.logger.Warn().Str("model", g.backupModel).Msg("llm: primary model exhausted, trying backup model")
			res, ok = g.tryBackend(ctx, g.primary, g.backupModel, req)
			if ok {
				return res
			}
			lastKind, lastMsg = res.ErrKind, res.ErrMessage
		}
	}

	if g.secondary != nil {
		if lastKind != "" {
			g.logger.Warn().Str("backend", g.secondary.Name()).Msg("llm: hosted provider unavailable, falling back")
		}
		res, ok := g.tryBackend(ctx, g.secondary, g.secondaryModel, req)
		if ok {
			return res
		}
		lastKind, lastMsg = res.ErrKind, res.ErrMessage
	}

	if lastKind == "" {
		lastKind = ErrKindConnection
		lastMsg = "no llm backend configured"
	}
	return Result{Success: false, ErrKind: lastKind, ErrMessage: lastMsg}
}

// tryBackend runs the per-backend retry loop: transport failures back off
// exponentially with a growing per-call timeout; other failures end the loop.
func (g *Gateway) tryBackend(ctx context.Context, b Backend, model string, req Request) (Result, bool) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	delay := g.initialBackoff

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		call := req
		call.Timeout = timeout
		content, usage, err := b.Generate(ctx, model, call)
		if err == nil {
			metrics.LLMRequests.WithLabelValues(b.Name(), "success").Inc()
			metrics.LLMTokens.WithLabelValues(model).Add(float64(usage.TotalTokens))
			cost := EstimateCost(model, usage)
			metrics.LLMCostUSD.WithLabelValues(model).Add(cost)
			return Result{
				Success: true,
				Content: content,
				Model:   model,
				Backend: b.Name(),
				Usage:   usage,
				CostUSD: cost,
			}, true
		}

		kind := classify(err)
		lastErr = err
		metrics.LLMRequests.WithLabelValues(b.Name(), string(kind)).Inc()
		g.logger.Warn().Err(err).
			Str("backend", b.Name()).
			Str("model", model).
			Int("attempt", attempt).
			Str("kind", string(kind)).
			Msg("llm: call failed")

		if !retryable(kind) || attempt == g.maxAttempts {
			return Result{
				Success:    false,
				Model:      model,
				Backend:    b.Name(),
				ErrKind:    kind,
				ErrMessage: err.Error(),
			}, false
		}
		if err := g.sleep(ctx, delay); err != nil {
			return Result{
				Success:    false,
				Model:      model,
				Backend:    b.Name(),
				ErrKind:    ErrKindConnection,
				ErrMessage: "canceled while waiting to retry: " + err.Error(),
			}, false
		}
		delay *= 2
		timeout = time.Duration(float64(timeout) * g.timeoutGrowth)
	}
	// Unreachable; the loop always returns. Kept for the compiler.
	return Result{Success: false, ErrKind: classify(lastErr), ErrMessage: lastErr.Error()}, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
