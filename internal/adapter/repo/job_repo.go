package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wisentia/internal/domain"
	"wisentia/internal/domain/jsoncfg"
	"wisentia/internal/infra"
	"wisentia/internal/sqlinline"
)

// JobRepoPG implements domain.JobRepository on PostgreSQL.
type JobRepoPG struct {
	sql infra.SQLExecutor
}

func NewJobRepo(sql infra.SQLExecutor) *JobRepoPG {
	return &JobRepoPG{sql: sql}
}

// Create inserts a job in the queued state and returns its generated id in
// the same round trip.
func (r *JobRepoPG) Create(ctx context.Context, contentType domain.ContentType, params domain.GenerationParams) (int64, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("encode params: %w", err)
	}
	payload := jsoncfg.MustMarshal(jsoncfg.NewQueued())

	var (
		id        int64
		createdAt time.Time
	)
	row := r.sql.QueryRow(ctx, sqlinline.QCreateJob, string(contentType), payload, paramsJSON)
	if err := row.Scan(&id, &createdAt); err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return id, nil
}

func (r *JobRepoPG) UpdateCheckpoint(ctx context.Context, jobID int64, status domain.JobStatus, payload []byte) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateJobCheckpoint, jobID, string(status), payload)
	return err
}

func (r *JobRepoPG) GetByID(ctx context.Context, jobID int64) (*domain.GenerationJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QGetJob, jobID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepoPG) ListByStatus(ctx context.Context, contentType domain.ContentType, statuses []domain.JobStatus) ([]domain.GenerationJob, error) {
	var statusArr []string
	for _, s := range statuses {
		statusArr = append(statusArr, string(s))
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListJobsByStatus, string(contentType), statusArr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (r *JobRepoPG) CountByStatus(ctx context.Context, contentType domain.ContentType) (map[domain.JobStatus]int64, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCountJobsByStatus, string(contentType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.JobStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.JobStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *JobRepoPG) ClaimNext(ctx context.Context, owner string, leaseTTL time.Duration) (*domain.GenerationJob, error) {
	payload := jsoncfg.MustMarshal(jsoncfg.NewProgress(jsoncfg.StageSnapshot, "claimed by worker", 1))
	row := r.sql.QueryRow(ctx, sqlinline.QClaimNextJob, owner, leaseTTL.Seconds(), payload)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepoPG) ReclaimExpired(ctx context.Context) (int64, error) {
	payload := jsoncfg.MustMarshal(jsoncfg.QueuedInfo{
		Status:  string(domain.JobStatusQueued),
		Message: "re-queued after worker lease expired",
	})
	tag, err := r.sql.Exec(ctx, sqlinline.QReclaimExpiredJobs, payload)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkApproved finalizes a job, guarded against repeat and out-of-order
// approvals by a conditional update on the current status.
func (r *JobRepoPG) MarkApproved(ctx context.Context, jobID int64, adminID string, payload []byte) error {
	var id int64
	row := r.sql.QueryRow(ctx, sqlinline.QApproveJob, jobID, adminID, payload)
	err := row.Scan(&id)
	if err == nil {
		return nil
	}
	if !infra.IsNoRows(err) {
		return err
	}

	// The conditional update matched nothing: explain why.
	var status string
	if err := r.sql.QueryRow(ctx, sqlinline.QJobStatus, jobID).Scan(&status); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrNotFound
		}
		return err
	}
	if domain.JobStatus(status) == domain.JobStatusApproved {
		return domain.ErrAlreadyApproved
	}
	return fmt.Errorf("job %d is %s: %w", jobID, status, domain.ErrInvalidStatus)
}

// scannable covers pgx.Row and pgx.Rows for shared scan code.
type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*domain.GenerationJob, error) {
	var (
		job        domain.GenerationJob
		params     []byte
		approvedBy *string
	)
	if err := row.Scan(
		&job.ID,
		&job.ContentType,
		&job.Status,
		&job.Payload,
		&params,
		&job.LeaseOwner,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.ApprovedAt,
		&approvedBy,
	); err != nil {
		return nil, err
	}
	job.ApprovedBy = approvedBy
	if len(params) > 0 {
		if err := json.Unmarshal(params, &job.Params); err != nil {
			return nil, fmt.Errorf("decode job params: %w", err)
		}
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepoPG)(nil)
