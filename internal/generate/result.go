// Package generate builds prompts for quiz and quest content, runs them
// through the LLM gateway and validates the structured responses. Generators
// hold no persistent state: given inputs they return a Result.
package generate

import (
	"wisentia/internal/domain"
	"wisentia/internal/llm"
)

// Result is the uniform outcome of one generator run. Exactly one of
// Quiz/Quest is set on success. Transport distinguishes failures the
// executor may retry from validation failures it must not.
type Result struct {
	Success bool
	Quiz    *domain.GeneratedQuiz
	Quest   *domain.GeneratedQuest

	Model   string
	Usage   llm.Usage
	CostUSD float64

	ErrKind   string
	Error     string
	RawOutput string
	Transport bool
}

// ErrKindValidation marks malformed or incomplete model output. Never
// retried; the raw output is kept for diagnosis.
const ErrKindValidation = "validation"

func failureFromGateway(res llm.Result) Result {
	return Result{
		Success:   false,
		Model:     res.Model,
		ErrKind:   string(res.ErrKind),
		Error:     res.ErrMessage,
		Transport: res.ErrKind == llm.ErrKindTimeout || res.ErrKind == llm.ErrKindConnection,
	}
}

func validationFailure(msg, raw string) Result {
	return Result{
		Success:   false,
		ErrKind:   ErrKindValidation,
		Error:     msg,
		RawOutput: raw,
	}
}
