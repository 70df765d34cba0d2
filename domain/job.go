package domain

import "time"

// JobStatus is a Job's place in the state machine (spec.md §4.7).
type JobStatus string

const (
	JobAccepted   JobStatus = "accepted"
	JobRunning    JobStatus = "running"
	JobSuccessful JobStatus = "successful"
	JobFailed     JobStatus = "failed"
	JobDismissed  JobStatus = "dismissed"
)

// Terminal reports whether no further transition is possible from this status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobSuccessful, JobFailed, JobDismissed:
		return true
	default:
		return false
	}
}

// ResponseMode is the client's requested result shape, fixed at job
// registration time so results() can honor it later.
type ResponseMode string

const (
	ResponseRaw      ResponseMode = "raw"
	ResponseDocument ResponseMode = "document"
)

// Job is a handle to a running or finished process execution (spec.md §3,
// Entities/Job).
type Job struct {
	JobID        string                 `json:"jobID"`
	ProcessID    string                 `json:"processID"`
	Status       JobStatus              `json:"status"`
	Message      string                 `json:"message,omitempty"`
	Created      time.Time              `json:"created"`
	Updated      time.Time              `json:"updated"`
	Finished     *time.Time             `json:"finished,omitempty"`
	Progress     int                    `json:"progress,omitempty"`
	Links        []Link                 `json:"links,omitempty"`
	Results      map[string]interface{} `json:"-"`
	ResponseMode ResponseMode           `json:"-"`
}

// CanDismiss reports whether dismiss() may transition this job: only from
// accepted or running (spec.md §4.7).
func (j *Job) CanDismiss() bool {
	return j.Status == JobAccepted || j.Status == JobRunning
}
