// Package jsoncfg models the JSON payload stored on a generation job row.
// The payload is a tagged union keyed by the job status: each status has one
// schema, and pollers always receive a shape they can decode from the status
// alone.
package jsoncfg

import (
	"encoding/json"
	"fmt"

	"wisentia/internal/domain"
)

// Processing stage names, persisted so pollers can see how far a job got.
const (
	StageSnapshot      = "snapshot"
	StageLLMCall       = "llm_call"
	StageParsing       = "parsing"
	StageDuplicates    = "duplicate_check"
	StageMaterializing = "materializing"
)

// QueuedInfo is the payload of a job in the queued state.
type QueuedInfo struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ProcessingProgress is the payload while the executor advances a job.
type ProcessingProgress struct {
	Status  string `json:"status"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Attempt int    `json:"attempt,omitempty"`
}

// CompletedContent carries the generated content once a job succeeds.
// Exactly one of Quiz/Quest is set, matching the job's content type.
type CompletedContent struct {
	Status     string                 `json:"status"`
	Quiz       *domain.GeneratedQuiz  `json:"quiz,omitempty"`
	Quest      *domain.GeneratedQuest `json:"quest,omitempty"`
	Model      string                 `json:"model,omitempty"`
	TokensUsed int                    `json:"tokensUsed,omitempty"`
	CostUSD    float64                `json:"costUsd,omitempty"`
}

// FailedError is the payload of a failed job. RawOutput keeps the model's
// unparsed response for operator diagnosis; Stack is set only when the
// executor recovered from a panic.
type FailedError struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RawOutput string `json:"rawOutput,omitempty"`
	Stack     string `json:"stack,omitempty"`
}

// ApprovedResult augments the generated content with the materialized
// entity ids after approval.
type ApprovedResult struct {
	Status  string                    `json:"status"`
	Quiz    *domain.MaterializedQuiz  `json:"quiz,omitempty"`
	Quest   *domain.MaterializedQuest `json:"quest,omitempty"`
	Message string                    `json:"message,omitempty"`
}

// DuplicateFound references the pre-existing entity that blocked creation.
type DuplicateFound struct {
	Status    string                 `json:"status"`
	Duplicate *domain.DuplicateMatch `json:"duplicate"`
	Message   string                 `json:"message,omitempty"`
}

// NewQueued builds the initial payload written at enqueue time.
func NewQueued() QueuedInfo {
	return QueuedInfo{Status: string(domain.JobStatusQueued), Message: "waiting for a worker"}
}

// NewProgress builds a processing checkpoint payload.
func NewProgress(stage, message string, attempt int) ProcessingProgress {
	return ProcessingProgress{
		Status:  string(domain.JobStatusProcessing),
		Stage:   stage,
		Message: message,
		Attempt: attempt,
	}
}

// Decode returns the typed payload variant for the given status.
func Decode(status domain.JobStatus, raw []byte) (any, error) {
	var (
		out any
		err error
	)
	switch status {
	case domain.JobStatusQueued:
		v := QueuedInfo{}
		err = json.Unmarshal(raw, &v)
		out = v
	case domain.JobStatusProcessing:
		v := ProcessingProgress{}
		err = json.Unmarshal(raw, &v)
		out = v
	case domain.JobStatusCompleted:
		v := CompletedContent{}
		err = json.Unmarshal(raw, &v)
		out = v
	case domain.JobStatusFailed:
		v := FailedError{}
		err = json.Unmarshal(raw, &v)
		out = v
	case domain.JobStatusApproved:
		v := ApprovedResult{}
		err = json.Unmarshal(raw, &v)
		out = v
	case domain.JobStatusDuplicateFound:
		v := DuplicateFound{}
		err = json.Unmarshal(raw, &v)
		out = v
	default:
		return nil, fmt.Errorf("unknown job status %q", status)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", status, err)
	}
	return out, nil
}

// MustMarshal serializes a payload variant, panicking on programmer error.
// Payload variants contain no unmarshalable types, so a failure here is a bug.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("jsoncfg: marshal payload: %v", err))
	}
	return b
}
