package approval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"wisentia/internal/domain"
	"wisentia/internal/domain/jsoncfg"
	"wisentia/internal/infra/metrics"
)

// Service materializes approved generation payloads into domain rows.
type Service struct {
	jobs    domain.JobRepository
	catalog domain.CatalogRepository
	quizzes domain.QuizMaterializer
	quests  domain.QuestMaterializer
	scorer  Scorer
	logger  zerolog.Logger
}

func NewService(
	jobs domain.JobRepository,
	catalog domain.CatalogRepository,
	quizzes domain.QuizMaterializer,
	quests domain.QuestMaterializer,
	scorer Scorer,
	logger zerolog.Logger,
) *Service {
	if scorer == nil {
		scorer = TokenOverlapScorer{}
	}
	return &Service{
		jobs:    jobs,
		catalog: catalog,
		quizzes: quizzes,
		quests:  quests,
		scorer:  scorer,
		logger:  logger,
	}
}

// Outcome describes where a job ended up after an approval call.
type Outcome struct {
	Status          domain.JobStatus
	Payload         any
	AlreadyApproved bool
}

// Approve materializes the generated content of a completed job. Calling it
// again on an approved job returns the prior result without side effects.
// Only completed jobs are eligible; an in-flight processing job carries a
// progress payload, not content, and must finish first. The executor's
// auto-materialize path checkpoints completed before calling in here.
func (s *Service) Approve(ctx context.Context, jobID int64, adminID string) (*Outcome, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case domain.JobStatusApproved:
		payload, err := jsoncfg.Decode(job.Status, job.Payload)
		if err != nil {
			payload = jsoncfg.ApprovedResult{Status: string(job.Status)}
		}
		return &Outcome{Status: job.Status, Payload: payload, AlreadyApproved: true}, nil
	case domain.JobStatusCompleted:
		// eligible
	default:
		return nil, fmt.Errorf("job %d is %s: %w", jobID, job.Status, domain.ErrInvalidStatus)
	}

	var content jsoncfg.CompletedContent
	if err := json.Unmarshal(job.Payload, &content); err != nil {
		return nil, fmt.Errorf("decode generated content: %w", err)
	}

	switch job.ContentType {
	case domain.ContentTypeQuiz:
		return s.approveQuiz(ctx, job, adminID, content.Quiz)
	case domain.ContentTypeQuest:
		return s.approveQuest(ctx, job, adminID, content.Quest)
	default:
		return nil, fmt.Errorf("unsupported content type %q", job.ContentType)
	}
}

func (s *Service) approveQuiz(ctx context.Context, job *domain.GenerationJob, adminID string, quiz *domain.GeneratedQuiz) (*Outcome, error) {
	if quiz == nil {
		return nil, s.failJob(ctx, job, "job payload holds no quiz content")
	}

	videoID, courseID, err := s.resolveQuizTarget(ctx, job.Params)
	if err != nil {
		return nil, s.failJob(ctx, job, err.Error())
	}

	sanitized := sanitizeQuiz(quiz, s.logger)
	created, err := s.quizzes.CreateQuiz(ctx, sanitized, videoID, courseID)
	if err != nil {
		return nil, s.failJob(ctx, job, fmt.Sprintf("create quiz rows: %v", err))
	}

	payload := jsoncfg.ApprovedResult{
		Status:  string(domain.JobStatusApproved),
		Quiz:    created,
		Message: fmt.Sprintf("quiz %d created with %d questions", created.QuizID, created.QuestionCount),
	}
	if err := s.jobs.MarkApproved(ctx, job.ID, adminID, jsoncfg.MustMarshal(payload)); err != nil {
		return nil, err
	}
	metrics.JobsFinished.WithLabelValues(string(job.ContentType), string(domain.JobStatusApproved)).Inc()
	s.logger.Info().Int64("job_id", job.ID).Int64("quiz_id", created.QuizID).Msg("approval: quiz materialized")
	return &Outcome{Status: domain.JobStatusApproved, Payload: payload}, nil
}

func (s *Service) approveQuest(ctx context.Context, job *domain.GenerationJob, adminID string, quest *domain.GeneratedQuest) (*Outcome, error) {
	if quest == nil {
		return nil, s.failJob(ctx, job, "job payload holds no quest content")
	}

	existing, err := s.quests.ActiveQuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active quests: %w", err)
	}
	if dup := s.scorer.Match(quest.Title, quest.Description, existing); dup != nil {
		payload := jsoncfg.DuplicateFound{
			Status:    string(domain.JobStatusDuplicateFound),
			Duplicate: dup,
			Message:   fmt.Sprintf("matches existing quest %d (%s)", dup.QuestID, dup.Reason),
		}
		if err := s.jobs.UpdateCheckpoint(ctx, job.ID, domain.JobStatusDuplicateFound, jsoncfg.MustMarshal(payload)); err != nil {
			return nil, err
		}
		metrics.JobsFinished.WithLabelValues(string(job.ContentType), string(domain.JobStatusDuplicateFound)).Inc()
		s.logger.Info().Int64("job_id", job.ID).Int64("quest_id", dup.QuestID).Str("reason", dup.Reason).
			Msg("approval: duplicate quest detected, skipping creation")
		return &Outcome{Status: domain.JobStatusDuplicateFound, Payload: payload}, nil
	}

	if len(quest.Conditions) == 0 {
		s.logger.Warn().Int64("job_id", job.ID).Msg("approval: materializing quest without conditions")
	}

	created, err := s.quests.CreateQuest(ctx, quest)
	if err != nil {
		return nil, s.failJob(ctx, job, fmt.Sprintf("create quest rows: %v", err))
	}

	payload := jsoncfg.ApprovedResult{
		Status:  string(domain.JobStatusApproved),
		Quest:   created,
		Message: fmt.Sprintf("quest %d created with %d conditions", created.QuestID, created.ConditionCount),
	}
	if err := s.jobs.MarkApproved(ctx, job.ID, adminID, jsoncfg.MustMarshal(payload)); err != nil {
		return nil, err
	}
	metrics.JobsFinished.WithLabelValues(string(job.ContentType), string(domain.JobStatusApproved)).Inc()
	s.logger.Info().Int64("job_id", job.ID).Int64("quest_id", created.QuestID).Msg("approval: quest materialized")
	return &Outcome{Status: domain.JobStatusApproved, Payload: payload}, nil
}

// resolveQuizTarget turns the job's natural-key references into row ids.
func (s *Service) resolveQuizTarget(ctx context.Context, params domain.GenerationParams) (videoID, courseID *int64, err error) {
	if params.VideoID != "" {
		id, err := s.catalog.FindVideoByYouTubeID(ctx, params.VideoID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve video %q: %w", params.VideoID, err)
		}
		return &id, nil, nil
	}
	if params.CourseID != 0 {
		ok, err := s.catalog.CourseExists(ctx, params.CourseID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve course %d: %w", params.CourseID, err)
		}
		if !ok {
			return nil, nil, fmt.Errorf("course %d: %w", params.CourseID, domain.ErrNotFound)
		}
		id := params.CourseID
		return nil, &id, nil
	}
	return nil, nil, nil
}

// failJob records a materialization failure on the job and returns the error
// for the caller. Fatal at the whole-quiz/whole-quest level per the error
// taxonomy; per-question problems degrade inside sanitizeQuiz instead.
func (s *Service) failJob(ctx context.Context, job *domain.GenerationJob, msg string) error {
	payload := jsoncfg.FailedError{
		Status: string(domain.JobStatusFailed),
		Error:  msg,
		Kind:   "materialization",
	}
	if err := s.jobs.UpdateCheckpoint(ctx, job.ID, domain.JobStatusFailed, jsoncfg.MustMarshal(payload)); err != nil {
		s.logger.Error().Err(err).Int64("job_id", job.ID).Msg("approval: failed to record materialization failure")
	}
	metrics.JobsFinished.WithLabelValues(string(job.ContentType), string(domain.JobStatusFailed)).Inc()
	return fmt.Errorf("materialize job %d: %s", job.ID, msg)
}
