package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// Register creates a new job in state `accepted` (spec.md §4.7).
func (db *DB) Register(ctx context.Context, processID string, mode domain.ResponseMode) (*domain.Job, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	job := &domain.Job{
		JobID:        uuid.NewString(),
		ProcessID:    processID,
		Status:       domain.JobAccepted,
		ResponseMode: mode,
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO meta.jobs (job_id, process_id, status, response)
		VALUES ($1, $2, $3, $4)`, job.JobID, job.ProcessID, string(job.Status), string(mode))
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "register job", err)
	}
	return db.Status(ctx, job.JobID)
}

// UpdateStatus transitions a job to `running` (or updates progress/message
// while running), rejecting any attempt to leave a terminal state (spec.md
// §4.7, "no transition leaves a terminal state").
func (db *DB) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, message string, progress int) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	current, err := db.Status(ctx, jobID)
	if err != nil {
		return err
	}
	if current == nil {
		return ogcerr.Newf(ogcerr.NotFound, "job %q does not exist", jobID)
	}
	if current.Status.Terminal() {
		return ogcerr.Newf(ogcerr.Conflict, "job %q is already in terminal state %q", jobID, current.Status)
	}
	_, err = db.conn.ExecContext(ctx, `
		UPDATE meta.jobs SET status=$2, message=$3, progress=$4, updated=now() WHERE job_id=$1`,
		jobID, string(status), message, progress)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "update job status", err)
	}
	return nil
}

// Finish transitions a job to a terminal state and, only for `successful`,
// persists results (spec.md §4.7, §8 "Results availability").
func (db *DB) Finish(ctx context.Context, jobID string, status domain.JobStatus, message string, links []domain.Link, results map[string]interface{}) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	current, err := db.Status(ctx, jobID)
	if err != nil {
		return err
	}
	if current == nil {
		return ogcerr.Newf(ogcerr.NotFound, "job %q does not exist", jobID)
	}
	if current.Status.Terminal() {
		return ogcerr.Newf(ogcerr.Conflict, "job %q is already in terminal state %q", jobID, current.Status)
	}

	var resultsJSON []byte
	if status == domain.JobSuccessful && results != nil {
		resultsJSON, err = json.Marshal(results)
		if err != nil {
			return ogcerr.Wrap(ogcerr.Internal, "marshal job results", err)
		}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "marshal job links", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		UPDATE meta.jobs
		   SET status=$2, message=$3, links=$4, results=$5, finished=now(), updated=now(), progress=100
		 WHERE job_id=$1`, jobID, string(status), message, linksJSON, resultsJSON)
	if err != nil {
		return ogcerr.Wrap(ogcerr.Internal, "finish job", err)
	}
	return nil
}

// Status fetches the current StatusInfo for a job, or nil if it doesn't exist.
func (db *DB) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	row := db.conn.QueryRowxContext(ctx, `
		SELECT job_id, process_id, status, message, created, updated, finished, progress, links, results, response
		  FROM meta.jobs WHERE job_id=$1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil
	}
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "read job status", err)
	}
	return job, nil
}

// Dismiss transitions accepted/running jobs to `dismissed`; dismissing an
// already-terminal job is a Conflict (SPEC_FULL.md Open Question 3 decision).
func (db *DB) Dismiss(ctx context.Context, jobID string) (*domain.Job, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	current, err := db.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ogcerr.Newf(ogcerr.NotFound, "job %q does not exist", jobID)
	}
	if !current.CanDismiss() {
		return nil, ogcerr.Newf(ogcerr.Conflict, "job %q cannot be dismissed from state %q", jobID, current.Status)
	}
	_, err = db.conn.ExecContext(ctx, `
		UPDATE meta.jobs SET status=$2, finished=now(), updated=now() WHERE job_id=$1`,
		jobID, string(domain.JobDismissed))
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "dismiss job", err)
	}
	return db.Status(ctx, jobID)
}

// StatusList paginates the job list.
func (db *DB) StatusList(ctx context.Context, offset, limit int) ([]*domain.Job, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryxContext(ctx, `
		SELECT job_id, process_id, status, message, created, updated, finished, progress, links, results, response
		  FROM meta.jobs ORDER BY created DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "list jobs", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, ogcerr.Wrap(ogcerr.Internal, "scan job", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Results returns NoSuchJob (nil, NotFound), NotReady (nil job.Results but
// status not yet successful), or the persisted results (spec.md §8,
// "Results availability").
func (db *DB) Results(ctx context.Context, jobID string) (*domain.Job, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	job, err := db.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ogcerr.Newf(ogcerr.NotFound, "job %q does not exist", jobID)
	}
	return job, nil
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		jobID, processID, status, response string
		message                            sql.NullString
		created, updated                   sql.NullTime
		finished                           sql.NullTime
		progress                           int
		links, results                     []byte
	)
	if err := row.Scan(&jobID, &processID, &status, &message, &created, &updated, &finished, &progress, &links, &results, &response); err != nil {
		return nil, err
	}
	job := &domain.Job{
		JobID:        jobID,
		ProcessID:    processID,
		Status:       domain.JobStatus(status),
		Message:      message.String,
		Created:      created.Time,
		Updated:      updated.Time,
		Progress:     progress,
		ResponseMode: domain.ResponseMode(response),
	}
	if finished.Valid {
		job.Finished = &finished.Time
	}
	if len(links) > 0 {
		_ = json.Unmarshal(links, &job.Links)
	}
	if len(results) > 0 {
		job.Results = map[string]interface{}{}
		_ = json.Unmarshal(results, &job.Results)
	}
	return job, nil
}
