package domain

import (
	"encoding/json"
	"time"
)

// ContentType enumerates supported generation job kinds.
type ContentType string

const (
	ContentTypeQuiz  ContentType = "quiz"
	ContentTypeQuest ContentType = "quest"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued         JobStatus = "queued"
	JobStatusProcessing     JobStatus = "processing"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusApproved       JobStatus = "approved"
	JobStatusDuplicateFound JobStatus = "duplicate_found"
	JobStatusFailed         JobStatus = "failed"
)

// Terminal reports whether the executor will never touch the job again.
// An admin can still approve a completed job.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusApproved, JobStatusDuplicateFound, JobStatusFailed:
		return true
	}
	return false
}

// GenerationJob encapsulates one asynchronous quiz/quest generation request.
type GenerationJob struct {
	ID          int64
	ContentType ContentType
	Status      JobStatus
	Payload     json.RawMessage
	Params      GenerationParams
	LeaseOwner  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ApprovedAt  *time.Time
	ApprovedBy  *string
}

// GenerationParams is the parameter bag supplied at enqueue time. Quiz and
// quest jobs share one shape; unused fields stay at their zero value.
type GenerationParams struct {
	Difficulty   int    `json:"difficulty,omitempty"`
	Category     string `json:"category,omitempty"`
	NumQuestions int    `json:"numQuestions,omitempty"`
	PassingScore int    `json:"passingScore,omitempty"`
	Language     string `json:"language,omitempty"`
	Audience     string `json:"audience,omitempty"`

	// Quiz source references, resolved by natural key at materialization.
	VideoID  string `json:"videoId,omitempty"`
	CourseID int64  `json:"courseId,omitempty"`

	// Transcript is the raw text the quiz generator works from. Supplied by
	// the transcription collaborator, treated as opaque here.
	Transcript string `json:"transcript,omitempty"`

	// Quest shaping.
	RequiredPoints int  `json:"requiredPoints,omitempty"`
	RewardPoints   int  `json:"rewardPoints,omitempty"`
	AutoCreate     bool `json:"autoCreate,omitempty"`

	// Snapshot caches the catalog lookup so retries do not repeat it.
	Snapshot *CatalogSnapshot `json:"snapshot,omitempty"`
}

const (
	DefaultNumQuestions = 5
	DefaultPassingScore = 60
	DefaultDifficulty   = 2
	DefaultLanguage     = "en"

	// GeneralCategory disables category filtering of the catalog snapshot.
	GeneralCategory = "General Learning"
)

// Normalize applies server defaults to enqueue-time parameters.
func (p *GenerationParams) Normalize(locale string) {
	if p == nil {
		return
	}
	if p.NumQuestions <= 0 {
		p.NumQuestions = DefaultNumQuestions
	}
	if p.PassingScore <= 0 || p.PassingScore > 100 {
		p.PassingScore = DefaultPassingScore
	}
	if p.Difficulty <= 0 || p.Difficulty > 5 {
		p.Difficulty = DefaultDifficulty
	}
	if p.Language == "" {
		if locale != "" {
			p.Language = locale
		} else {
			p.Language = DefaultLanguage
		}
	}
	if p.Category == "" {
		p.Category = GeneralCategory
	}
}
