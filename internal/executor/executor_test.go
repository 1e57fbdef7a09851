package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wisentia/internal/approval"
	"wisentia/internal/domain"
	"wisentia/internal/domain/jsoncfg"
	"wisentia/internal/generate"
)

// memJobs is a minimal in-memory JobRepository for executor tests.
type memJobs struct {
	nextID int64
	jobs   map[int64]*domain.GenerationJob
}

func newMemJobs() *memJobs { return &memJobs{jobs: map[int64]*domain.GenerationJob{}} }

func (m *memJobs) add(contentType domain.ContentType, status domain.JobStatus, params domain.GenerationParams) *domain.GenerationJob {
	m.nextID++
	job := &domain.GenerationJob{
		ID:          m.nextID,
		ContentType: contentType,
		Status:      status,
		Params:      params,
		Payload:     jsoncfg.MustMarshal(jsoncfg.NewQueued()),
	}
	m.jobs[job.ID] = job
	return job
}

func (m *memJobs) Create(_ context.Context, contentType domain.ContentType, params domain.GenerationParams) (int64, error) {
	return m.add(contentType, domain.JobStatusQueued, params).ID, nil
}

func (m *memJobs) UpdateCheckpoint(_ context.Context, jobID int64, status domain.JobStatus, payload []byte) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	job.Payload = payload
	return nil
}

func (m *memJobs) GetByID(_ context.Context, jobID int64) (*domain.GenerationJob, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *memJobs) ListByStatus(context.Context, domain.ContentType, []domain.JobStatus) ([]domain.GenerationJob, error) {
	return nil, nil
}

func (m *memJobs) CountByStatus(context.Context, domain.ContentType) (map[domain.JobStatus]int64, error) {
	return nil, nil
}

func (m *memJobs) ClaimNext(_ context.Context, owner string, _ time.Duration) (*domain.GenerationJob, error) {
	for id := int64(1); id <= m.nextID; id++ {
		job, ok := m.jobs[id]
		if !ok || job.Status != domain.JobStatusQueued {
			continue
		}
		job.Status = domain.JobStatusProcessing
		job.LeaseOwner = owner
		copied := *job
		return &copied, nil
	}
	return nil, domain.ErrNoJobAvailable
}

func (m *memJobs) ReclaimExpired(context.Context) (int64, error) { return 0, nil }

func (m *memJobs) MarkApproved(_ context.Context, jobID int64, adminID string, payload []byte) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = domain.JobStatusApproved
	job.Payload = payload
	job.ApprovedBy = &adminID
	return nil
}

var _ domain.JobRepository = (*memJobs)(nil)

// memCatalog counts snapshot calls so caching can be asserted.
type memCatalog struct {
	snapshot      *domain.CatalogSnapshot
	snapshotCalls int
}

func (m *memCatalog) Snapshot(context.Context, string) (*domain.CatalogSnapshot, error) {
	m.snapshotCalls++
	return m.snapshot, nil
}

func (m *memCatalog) FindVideoByYouTubeID(context.Context, string) (int64, error) {
	return 0, domain.ErrNotFound
}

func (m *memCatalog) CourseExists(context.Context, int64) (bool, error) { return false, nil }

// scriptedQuiz returns results in order, repeating the last one.
type scriptedQuiz struct {
	results []generate.Result
	calls   int
}

func (s *scriptedQuiz) Generate(context.Context, domain.GenerationParams) generate.Result {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i]
}

type scriptedQuest struct {
	result generate.Result
	calls  int
}

func (s *scriptedQuest) Generate(_ context.Context, _ domain.GenerationParams, _ *domain.CatalogSnapshot) generate.Result {
	s.calls++
	return s.result
}

type panickyQuiz struct{}

func (panickyQuiz) Generate(context.Context, domain.GenerationParams) generate.Result {
	panic("quiz generator blew up")
}

type stubApprover struct {
	outcome *approval.Outcome
	err     error
	calls   int
	adminID string
}

func (s *stubApprover) Approve(_ context.Context, _ int64, adminID string) (*approval.Outcome, error) {
	s.calls++
	s.adminID = adminID
	return s.outcome, s.err
}

func testExecutor(jobs domain.JobRepository, catalog domain.CatalogRepository, quiz QuizRunner, quest QuestRunner, approver Approver) *Executor {
	return New(Options{
		Jobs:     jobs,
		Catalog:  catalog,
		Quiz:     quiz,
		Quest:    quest,
		Approver: approver,
		Logger:   zerolog.Nop(),
		Sleep:    func(context.Context, time.Duration) error { return nil },
	})
}

func successQuiz() generate.Result {
	return generate.Result{
		Success: true,
		Quiz:    &domain.GeneratedQuiz{Title: "T", Questions: []domain.GeneratedQuestion{{QuestionText: "Q?"}}},
		Model:   "gpt-4o-mini",
	}
}

func TestProcessQuizCompletes(t *testing.T) {
	jobs := newMemJobs()
	quiz := &scriptedQuiz{results: []generate.Result{successQuiz()}}
	exec := testExecutor(jobs, &memCatalog{}, quiz, &scriptedQuest{}, nil)

	params := domain.GenerationParams{Transcript: "text"}
	params.Normalize("en")
	job := jobs.add(domain.ContentTypeQuiz, domain.JobStatusProcessing, params)

	status := exec.Process(context.Background(), job)
	if status != domain.JobStatusCompleted {
		t.Fatalf("status = %s", status)
	}
	stored := jobs.jobs[job.ID]
	payload, err := jsoncfg.Decode(stored.Status, stored.Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	content := payload.(jsoncfg.CompletedContent)
	if content.Quiz == nil || content.Model != "gpt-4o-mini" {
		t.Fatalf("payload = %+v", content)
	}
}

func TestProcessRetriesTransportFailures(t *testing.T) {
	jobs := newMemJobs()
	quiz := &scriptedQuiz{results: []generate.Result{
		{Success: false, Transport: true, ErrKind: "timeout", Error: "deadline exceeded"},
	}}
	exec := testExecutor(jobs, &memCatalog{}, quiz, &scriptedQuest{}, nil)

	job := jobs.add(domain.ContentTypeQuiz, domain.JobStatusProcessing, domain.GenerationParams{Transcript: "text"})
	status := exec.Process(context.Background(), job)
	if status != domain.JobStatusFailed {
		t.Fatalf("status = %s", status)
	}
	if quiz.calls != outerMaxAttempts {
		t.Fatalf("generator called %d times, want %d", quiz.calls, outerMaxAttempts)
	}
}

func TestProcessDoesNotRetryValidationFailures(t *testing.T) {
	jobs := newMemJobs()
	quiz := &scriptedQuiz{results: []generate.Result{
		{Success: false, Transport: false, ErrKind: generate.ErrKindValidation, Error: "no questions", RawOutput: "garbage"},
	}}
	exec := testExecutor(jobs, &memCatalog{}, quiz, &scriptedQuest{}, nil)

	job := jobs.add(domain.ContentTypeQuiz, domain.JobStatusProcessing, domain.GenerationParams{Transcript: "text"})
	status := exec.Process(context.Background(), job)
	if status != domain.JobStatusFailed {
		t.Fatalf("status = %s", status)
	}
	if quiz.calls != 1 {
		t.Fatalf("generator called %d times, want 1", quiz.calls)
	}
	var failed jsoncfg.FailedError
	if err := json.Unmarshal(jobs.jobs[job.ID].Payload, &failed); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if failed.RawOutput != "garbage" {
		t.Fatalf("raw output = %q", failed.RawOutput)
	}
}

func TestProcessRecoversFromPanic(t *testing.T) {
	jobs := newMemJobs()
	exec := testExecutor(jobs, &memCatalog{}, panickyQuiz{}, &scriptedQuest{}, nil)

	job := jobs.add(domain.ContentTypeQuiz, domain.JobStatusProcessing, domain.GenerationParams{Transcript: "text"})
	status := exec.Process(context.Background(), job)
	if status != domain.JobStatusFailed {
		t.Fatalf("status = %s", status)
	}
	var failed jsoncfg.FailedError
	if err := json.Unmarshal(jobs.jobs[job.ID].Payload, &failed); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if failed.Kind != "panic" || failed.Stack == "" {
		t.Fatalf("payload = %+v", failed)
	}
}

func TestProcessQuestFetchesAndCachesSnapshot(t *testing.T) {
	jobs := newMemJobs()
	catalog := &memCatalog{snapshot: &domain.CatalogSnapshot{
		Courses: []domain.CourseRef{{ID: 1, Title: "C"}},
	}}
	// Two transport failures then give up; the snapshot must be fetched once.
	quest := &scriptedQuest{result: generate.Result{Success: false, Transport: true, ErrKind: "connection", Error: "refused"}}
	exec := testExecutor(jobs, catalog, &scriptedQuiz{results: []generate.Result{{}}}, quest, nil)

	job := jobs.add(domain.ContentTypeQuest, domain.JobStatusProcessing, domain.GenerationParams{Category: "Programming"})
	exec.Process(context.Background(), job)
	if catalog.snapshotCalls != 1 {
		t.Fatalf("snapshot fetched %d times, want 1", catalog.snapshotCalls)
	}
	if quest.calls != outerMaxAttempts {
		t.Fatalf("generator called %d times, want %d", quest.calls, outerMaxAttempts)
	}
}

func TestProcessAutoCreateCallsApprover(t *testing.T) {
	jobs := newMemJobs()
	approver := &stubApprover{outcome: &approval.Outcome{Status: domain.JobStatusApproved}}
	quest := &scriptedQuest{result: generate.Result{
		Success: true,
		Quest:   &domain.GeneratedQuest{Title: "Q", Description: "D"},
	}}
	exec := testExecutor(jobs, &memCatalog{snapshot: &domain.CatalogSnapshot{}}, &scriptedQuiz{results: []generate.Result{{}}}, quest, approver)

	job := jobs.add(domain.ContentTypeQuest, domain.JobStatusProcessing, domain.GenerationParams{AutoCreate: true})
	status := exec.Process(context.Background(), job)
	if status != domain.JobStatusApproved {
		t.Fatalf("status = %s", status)
	}
	if approver.calls != 1 || approver.adminID != "auto" {
		t.Fatalf("approver calls=%d adminID=%q", approver.calls, approver.adminID)
	}
}

// failingApprover records a materialization failure the way the approval
// service does before returning the error.
type failingApprover struct {
	jobs *memJobs
}

func (f *failingApprover) Approve(_ context.Context, jobID int64, _ string) (*approval.Outcome, error) {
	f.jobs.jobs[jobID].Status = domain.JobStatusFailed
	return nil, errors.New("create quest rows: connection refused")
}

func TestProcessAutoCreateFailureReportsStoredStatus(t *testing.T) {
	quest := &scriptedQuest{result: generate.Result{
		Success: true,
		Quest:   &domain.GeneratedQuest{Title: "Q", Description: "D"},
	}}

	// An approver error before any status change leaves the row completed
	// and reviewable; Process must report that, not failed.
	jobs := newMemJobs()
	approver := &stubApprover{err: errors.New("load active quests: timeout")}
	exec := testExecutor(jobs, &memCatalog{snapshot: &domain.CatalogSnapshot{}}, &scriptedQuiz{results: []generate.Result{{}}}, quest, approver)

	job := jobs.add(domain.ContentTypeQuest, domain.JobStatusProcessing, domain.GenerationParams{AutoCreate: true})
	if status := exec.Process(context.Background(), job); status != domain.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", status)
	}
	if jobs.jobs[job.ID].Status != domain.JobStatusCompleted {
		t.Fatalf("stored status = %s", jobs.jobs[job.ID].Status)
	}

	// When the approver already flipped the row to failed, Process agrees.
	jobs = newMemJobs()
	exec = testExecutor(jobs, &memCatalog{snapshot: &domain.CatalogSnapshot{}}, &scriptedQuiz{results: []generate.Result{{}}}, quest, &failingApprover{jobs: jobs})

	job = jobs.add(domain.ContentTypeQuest, domain.JobStatusProcessing, domain.GenerationParams{AutoCreate: true})
	if status := exec.Process(context.Background(), job); status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", status)
	}
}

func TestProcessWithoutAutoCreateStopsAtCompleted(t *testing.T) {
	jobs := newMemJobs()
	approver := &stubApprover{outcome: &approval.Outcome{Status: domain.JobStatusApproved}}
	quiz := &scriptedQuiz{results: []generate.Result{successQuiz()}}
	exec := testExecutor(jobs, &memCatalog{}, quiz, &scriptedQuest{}, approver)

	job := jobs.add(domain.ContentTypeQuiz, domain.JobStatusProcessing, domain.GenerationParams{Transcript: "text"})
	status := exec.Process(context.Background(), job)
	if status != domain.JobStatusCompleted {
		t.Fatalf("status = %s", status)
	}
	if approver.calls != 0 {
		t.Fatal("approver must not run without autoCreate")
	}
}

func TestProcessNextDrainsQueue(t *testing.T) {
	jobs := newMemJobs()
	quiz := &scriptedQuiz{results: []generate.Result{successQuiz()}}
	exec := testExecutor(jobs, &memCatalog{}, quiz, &scriptedQuest{}, nil)

	created := jobs.add(domain.ContentTypeQuiz, domain.JobStatusQueued, domain.GenerationParams{Transcript: "text"})
	jobID, status, err := exec.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("process next: %v", err)
	}
	if jobID != created.ID || status != domain.JobStatusCompleted {
		t.Fatalf("jobID=%d status=%s", jobID, status)
	}

	if _, _, err := exec.ProcessNext(context.Background()); !errors.Is(err, domain.ErrNoJobAvailable) {
		t.Fatalf("err = %v, want ErrNoJobAvailable", err)
	}
}
