// Package executor advances generation jobs from queued to a terminal state
// outside the request/response cycle, persisting progress checkpoints so a
// polling client always sees the latest known stage.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/jitterbug/v2"
	"github.com/rs/zerolog"

	"wisentia/internal/approval"
	"wisentia/internal/domain"
	"wisentia/internal/domain/jsoncfg"
	"wisentia/internal/generate"
	"wisentia/internal/infra/metrics"
)

const (
	outerMaxAttempts  = 3
	outerInitialDelay = 10 * time.Second
)

// QuizRunner and QuestRunner are the generator surfaces the executor drives.
type QuizRunner interface {
	Generate(ctx context.Context, params domain.GenerationParams) generate.Result
}

type QuestRunner interface {
	Generate(ctx context.Context, params domain.GenerationParams, snapshot *domain.CatalogSnapshot) generate.Result
}

// Approver finalizes a job whose generated content should be materialized
// immediately.
type Approver interface {
	Approve(ctx context.Context, jobID int64, adminID string) (*approval.Outcome, error)
}

// Options wires the executor's collaborators and tuning knobs.
type Options struct {
	Jobs    domain.JobRepository
	Catalog domain.CatalogRepository
	Quiz    QuizRunner
	Quest   QuestRunner
	// Approver may be nil; auto-materialize jobs then stop at completed.
	Approver Approver
	Logger   zerolog.Logger

	PoolSize     int
	PollInterval time.Duration
	LeaseTTL     time.Duration
	ReapInterval time.Duration

	// Sleep is replaceable in tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Executor is a bounded pool of workers claiming jobs under durable leases.
type Executor struct {
	jobs     domain.JobRepository
	catalog  domain.CatalogRepository
	quiz     QuizRunner
	quest    QuestRunner
	approver Approver
	logger   zerolog.Logger

	owner        string
	poolSize     int
	pollInterval time.Duration
	leaseTTL     time.Duration
	reapInterval time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

func New(opts Options) *Executor {
	e := &Executor{
		jobs:         opts.Jobs,
		catalog:      opts.Catalog,
		quiz:         opts.Quiz,
		quest:        opts.Quest,
		approver:     opts.Approver,
		logger:       opts.Logger,
		owner:        uuid.NewString(),
		poolSize:     opts.PoolSize,
		pollInterval: opts.PollInterval,
		leaseTTL:     opts.LeaseTTL,
		reapInterval: opts.ReapInterval,
		sleep:        opts.Sleep,
	}
	if e.poolSize < 1 {
		e.poolSize = 1
	}
	if e.pollInterval <= 0 {
		e.pollInterval = 2 * time.Second
	}
	if e.leaseTTL <= 0 {
		e.leaseTTL = 15 * time.Minute
	}
	if e.reapInterval <= 0 {
		e.reapInterval = time.Minute
	}
	if e.sleep == nil {
		e.sleep = sleepCtx
	}
	return e
}

// Owner returns the lease owner identity of this executor instance.
func (e *Executor) Owner() string { return e.owner }

// Run starts the worker pool and the lease reaper and blocks until the
// context is canceled and all workers have drained.
func (e *Executor) Run(ctx context.Context) {
	e.logger.Info().
		Str("owner", e.owner).
		Int("pool_size", e.poolSize).
		Msg("executor: started")

	var wg sync.WaitGroup
	for i := 0; i < e.poolSize; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e.worker(ctx, id)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.reaper(ctx)
	}()
	wg.Wait()
	e.logger.Info().Msg("executor: stopped")
}

func (e *Executor) worker(ctx context.Context, id int) {
	ticker := jitterbug.New(e.pollInterval, &jitterbug.Norm{Stdev: e.pollInterval / 10})
	defer ticker.Stop()

	for {
		for {
			job, err := e.jobs.ClaimNext(ctx, e.owner, e.leaseTTL)
			if err != nil {
				if !errors.Is(err, domain.ErrNoJobAvailable) && ctx.Err() == nil {
					e.logger.Error().Err(err).Int("worker", id).Msg("executor: claim failed")
				}
				break
			}
			e.Process(ctx, job)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// reaper re-queues processing jobs whose lease lapsed, so a crashed worker's
// jobs are retried instead of sticking in processing forever.
func (e *Executor) reaper(ctx context.Context) {
	ticker := jitterbug.New(e.reapInterval, &jitterbug.Norm{Stdev: e.reapInterval / 10})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n, err := e.jobs.ReclaimExpired(ctx)
		if err != nil {
			if ctx.Err() == nil {
				e.logger.Error().Err(err).Msg("executor: lease reap failed")
			}
			continue
		}
		if n > 0 {
			metrics.JobsReclaimed.Add(float64(n))
			e.logger.Warn().Int64("jobs", n).Msg("executor: re-queued jobs with expired leases")
		}
	}
}

// ProcessNext claims and runs one queued job synchronously. Used by the
// manual admin trigger. Returns ErrNoJobAvailable when the queue is empty.
func (e *Executor) ProcessNext(ctx context.Context) (int64, domain.JobStatus, error) {
	job, err := e.jobs.ClaimNext(ctx, e.owner, e.leaseTTL)
	if err != nil {
		return 0, "", err
	}
	status := e.Process(ctx, job)
	return job.ID, status, nil
}

// Process drives one claimed job to a terminal status and returns it. Truly
// unexpected panics are caught here and recorded as a failure with a stack
// trace for operator diagnosis.
func (e *Executor) Process(ctx context.Context, job *domain.GenerationJob) (final domain.JobStatus) {
	log := e.logger.With().Int64("job_id", job.ID).Str("content_type", string(job.ContentType)).Logger()
	log.Info().Msg("executor: picked job")

	defer func() {
		if r := recover(); r != nil {
			final = domain.JobStatusFailed
			payload := jsoncfg.FailedError{
				Status: string(domain.JobStatusFailed),
				Error:  fmt.Sprintf("unexpected error: %v", r),
				Kind:   "panic",
				Stack:  string(debug.Stack()),
			}
			if err := e.jobs.UpdateCheckpoint(ctx, job.ID, domain.JobStatusFailed, jsoncfg.MustMarshal(payload)); err != nil {
				log.Error().Err(err).Msg("executor: failed to record panic")
			}
			metrics.JobsFinished.WithLabelValues(string(job.ContentType), string(domain.JobStatusFailed)).Inc()
			log.Error().Interface("panic", r).Msg("executor: job panicked")
		}
	}()

	result := e.runGenerator(ctx, job, log)
	if !result.Success {
		payload := jsoncfg.FailedError{
			Status:    string(domain.JobStatusFailed),
			Error:     result.Error,
			Kind:      result.ErrKind,
			RawOutput: result.RawOutput,
		}
		if err := e.jobs.UpdateCheckpoint(ctx, job.ID, domain.JobStatusFailed, jsoncfg.MustMarshal(payload)); err != nil {
			log.Error().Err(err).Msg("executor: checkpoint failed")
		}
		metrics.JobsFinished.WithLabelValues(string(job.ContentType), string(domain.JobStatusFailed)).Inc()
		log.Warn().Str("kind", result.ErrKind).Str("error", result.Error).Msg("executor: job failed")
		return domain.JobStatusFailed
	}

	content := jsoncfg.CompletedContent{
		Status:     string(domain.JobStatusCompleted),
		Quiz:       result.Quiz,
		Quest:      result.Quest,
		Model:      result.Model,
		TokensUsed: result.Usage.TotalTokens,
		CostUSD:    result.CostUSD,
	}
	if err := e.jobs.UpdateCheckpoint(ctx, job.ID, domain.JobStatusCompleted, jsoncfg.MustMarshal(content)); err != nil {
		log.Error().Err(err).Msg("executor: checkpoint completed failed")
		return domain.JobStatusProcessing
	}
	log.Info().Str("model", result.Model).Msg("executor: job completed")

	// Auto-materialize passes through the durable completed checkpoint
	// first; a crash below leaves a reviewable completed job, never a lost
	// one. The approval service records its own terminal metric, so the
	// completed count is taken only when the job actually rests there.
	if job.Params.AutoCreate && e.approver != nil {
		outcome, err := e.approver.Approve(ctx, job.ID, "auto")
		if err != nil {
			log.Warn().Err(err).Msg("executor: auto-materialize failed")
			return e.storedStatus(ctx, job, log)
		}
		log.Info().Str("status", string(outcome.Status)).Msg("executor: auto-materialized")
		return outcome.Status
	}
	metrics.JobsFinished.WithLabelValues(string(job.ContentType), string(domain.JobStatusCompleted)).Inc()
	return domain.JobStatusCompleted
}

// storedStatus reports what the store actually holds after a failed
// auto-materialize. A materialization failure already moved the row to
// failed; anything else (duplicate lookup, approval write) left it
// completed and reviewable.
func (e *Executor) storedStatus(ctx context.Context, job *domain.GenerationJob, log zerolog.Logger) domain.JobStatus {
	status := domain.JobStatusCompleted
	if cur, err := e.jobs.GetByID(ctx, job.ID); err == nil {
		status = cur.Status
	} else {
		log.Error().Err(err).Msg("executor: status re-read failed")
	}
	if status == domain.JobStatusCompleted {
		metrics.JobsFinished.WithLabelValues(string(job.ContentType), string(domain.JobStatusCompleted)).Inc()
	}
	return status
}

// runGenerator invokes the content generator with the executor-level retry
// loop around the entire call. Only transport-class failures are retried;
// validation failures are terminal immediately.
func (e *Executor) runGenerator(ctx context.Context, job *domain.GenerationJob, log zerolog.Logger) generate.Result {
	delay := outerInitialDelay
	var result generate.Result

	for attempt := 1; attempt <= outerMaxAttempts; attempt++ {
		switch job.ContentType {
		case domain.ContentTypeQuiz:
			e.checkpoint(ctx, job.ID, jsoncfg.StageLLMCall, "generating quiz from transcript", attempt)
			result = e.quiz.Generate(ctx, job.Params)
		case domain.ContentTypeQuest:
			snapshot := job.Params.Snapshot
			if snapshot == nil {
				e.checkpoint(ctx, job.ID, jsoncfg.StageSnapshot, "sampling platform catalog", attempt)
				snap, err := e.catalog.Snapshot(ctx, job.Params.Category)
				if err != nil {
					result = generate.Result{
						Success:   false,
						ErrKind:   "snapshot",
						Error:     fmt.Sprintf("catalog snapshot: %v", err),
						Transport: true,
					}
					break
				}
				// Cache so retries skip the lookup.
				job.Params.Snapshot = snap
				snapshot = snap
			}
			e.checkpoint(ctx, job.ID, jsoncfg.StageLLMCall, "generating quest", attempt)
			result = e.quest.Generate(ctx, job.Params, snapshot)
		default:
			return generate.Result{
				Success: false,
				ErrKind: generate.ErrKindValidation,
				Error:   fmt.Sprintf("unsupported content type %q", job.ContentType),
			}
		}

		if result.Success || !result.Transport {
			return result
		}
		if attempt == outerMaxAttempts {
			break
		}
		e.checkpoint(ctx, job.ID, jsoncfg.StageLLMCall,
			fmt.Sprintf("attempt %d failed (%s), retrying", attempt, result.ErrKind), attempt+1)
		log.Warn().Str("error", result.Error).Int("attempt", attempt).Msg("executor: generator attempt failed, retrying")
		if err := e.sleep(ctx, delay); err != nil {
			return result
		}
		delay *= 2
	}
	return result
}

// checkpoint persists a progress message. Checkpoint failures are logged and
// swallowed; losing a progress message must not fail the job itself.
func (e *Executor) checkpoint(ctx context.Context, jobID int64, stage, message string, attempt int) {
	payload := jsoncfg.MustMarshal(jsoncfg.NewProgress(stage, message, attempt))
	if err := e.jobs.UpdateCheckpoint(ctx, jobID, domain.JobStatusProcessing, payload); err != nil {
		e.logger.Error().Err(err).Int64("job_id", jobID).Str("stage", stage).Msg("executor: checkpoint write failed")
	}
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
