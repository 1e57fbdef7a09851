// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wisentia_generation_jobs_enqueued_total",
		Help: "Generation jobs accepted into the queue.",
	}, []string{"content_type"})

	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wisentia_generation_jobs_finished_total",
		Help: "Generation jobs reaching a terminal status.",
	}, []string{"content_type", "status"})

	JobsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wisentia_generation_jobs_reclaimed_total",
		Help: "Processing jobs re-queued after their lease expired.",
	})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wisentia_llm_requests_total",
		Help: "LLM backend calls by outcome.",
	}, []string{"backend", "outcome"})

	LLMTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wisentia_llm_tokens_total",
		Help: "Token usage reported by LLM backends.",
	}, []string{"model"})

	LLMCostUSD = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wisentia_llm_cost_usd_total",
		Help: "Estimated spend per model, derived from the static price table.",
	}, []string{"model"})
)

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
