package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for generation jobs.
type JobRepository interface {
	// Create inserts a job in the queued state and returns its id.
	Create(ctx context.Context, contentType ContentType, params GenerationParams) (int64, error)
	// UpdateCheckpoint overwrites status and payload. Safe to repeat.
	UpdateCheckpoint(ctx context.Context, jobID int64, status JobStatus, payload []byte) error
	GetByID(ctx context.Context, jobID int64) (*GenerationJob, error)
	// ListByStatus returns jobs oldest-first. Empty statuses means all.
	ListByStatus(ctx context.Context, contentType ContentType, statuses []JobStatus) ([]GenerationJob, error)
	// CountByStatus aggregates the queue per status, across all statuses.
	CountByStatus(ctx context.Context, contentType ContentType) (map[JobStatus]int64, error)
	// ClaimNext atomically moves the oldest queued job to processing under a
	// lease. Returns ErrNoJobAvailable when the queue is empty.
	ClaimNext(ctx context.Context, owner string, leaseTTL time.Duration) (*GenerationJob, error)
	// ReclaimExpired re-queues processing jobs whose lease has lapsed and
	// returns how many rows were recovered.
	ReclaimExpired(ctx context.Context) (int64, error)
	// MarkApproved finalizes a job. Fails with ErrAlreadyApproved when the
	// job was approved before, ErrInvalidStatus for other terminal states.
	MarkApproved(ctx context.Context, jobID int64, adminID string, payload []byte) error
}

// CatalogRepository reads the domain catalog the quest generator grounds on.
type CatalogRepository interface {
	Snapshot(ctx context.Context, category string) (*CatalogSnapshot, error)
	FindVideoByYouTubeID(ctx context.Context, youtubeID string) (int64, error)
	CourseExists(ctx context.Context, courseID int64) (bool, error)
}

// QuizMaterializer creates real quiz rows from an approved payload.
type QuizMaterializer interface {
	CreateQuiz(ctx context.Context, quiz *GeneratedQuiz, videoID, courseID *int64) (*MaterializedQuiz, error)
}

// QuestMaterializer creates real quest rows from an approved payload and
// exposes the candidates duplicate detection compares against.
type QuestMaterializer interface {
	CreateQuest(ctx context.Context, quest *GeneratedQuest) (*MaterializedQuest, error)
	ActiveQuests(ctx context.Context) ([]ActiveQuest, error)
}
