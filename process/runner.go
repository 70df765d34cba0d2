package process

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// Runner drives execute() against the negotiated mode and the job state
// machine (spec.md §4.7), POSTing subscriber callbacks on each transition.
type Runner struct {
	jobs       driver.JobHandler
	httpClient *http.Client
}

// NewRunner builds a Runner. httpClient is used only for subscriber
// callbacks; a nil client defaults to http.DefaultClient.
func NewRunner(jobs driver.JobHandler, httpClient *http.Client) *Runner {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Runner{jobs: jobs, httpClient: httpClient}
}

// RunSync executes p inline and returns its Result directly; no job is
// registered (spec.md §4.7, "If synchronous execution is offered ... run
// inline and return the result").
func (r *Runner) RunSync(ctx context.Context, p Processor, req Execute) (*Result, error) {
	return p.Execute(ctx, req)
}

// RunAsync registers a job, then runs p in the background against a
// detached context (the HTTP request that triggered it returns 201 before
// execution finishes). It returns the freshly registered Job so the caller
// can build the Location header and StatusInfo body.
func (r *Runner) RunAsync(ctx context.Context, p Processor, req Execute) (*domain.Job, error) {
	job, err := r.jobs.Register(ctx, p.ID(), req.Response)
	if err != nil {
		return nil, err
	}

	go r.execute(context.Background(), p, req, job.JobID)

	return job, nil
}

func (r *Runner) execute(ctx context.Context, p Processor, req Execute, jobID string) {
	if err := r.jobs.UpdateStatus(ctx, jobID, domain.JobRunning, "", 0); err != nil {
		log.Printf("process: job %s: failed to mark running: %v", jobID, err)
		return
	}
	r.notify(ctx, req.Subscriber, jobID)

	result, err := p.Execute(ctx, req)
	if err != nil {
		oe := ogcerr.As(err)
		if ferr := r.jobs.Finish(ctx, jobID, domain.JobFailed, oe.Detail, nil, nil); ferr != nil {
			log.Printf("process: job %s: failed to record failure: %v", jobID, ferr)
		}
		r.notify(ctx, req.Subscriber, jobID)
		return
	}

	results := make(map[string]interface{}, len(result.Outputs))
	var links []domain.Link
	for _, out := range result.Outputs {
		if out.Link != nil {
			links = append(links, *out.Link)
			continue
		}
		// out.Value is already-encoded JSON (e.g. `"hi"`, `42`, `{...}`);
		// decode it to an interface{} so Finish's json.Marshal round-trips
		// the original value instead of double-encoding it as a string,
		// mirroring ogc/processes/encode.go's writeDocumentResult.
		var v interface{}
		if err := json.Unmarshal(out.Value, &v); err != nil {
			results[out.Name] = string(out.Value)
		} else {
			results[out.Name] = v
		}
	}
	if err := r.jobs.Finish(ctx, jobID, domain.JobSuccessful, "", links, results); err != nil {
		log.Printf("process: job %s: failed to record success: %v", jobID, err)
	}
	r.notify(ctx, req.Subscriber, jobID)
}

// notify POSTs the job's current StatusInfo to the subscriber URI matching
// its state, best-effort with no retry (SPEC_FULL.md's Open Question 2
// decision): failures are logged at warn-equivalent level and otherwise
// ignored.
func (r *Runner) notify(ctx context.Context, sub *Subscriber, jobID string) {
	if sub == nil {
		return
	}
	job, err := r.jobs.Status(ctx, jobID)
	if err != nil || job == nil {
		return
	}
	var uri string
	switch job.Status {
	case domain.JobSuccessful:
		uri = sub.SuccessURI
	case domain.JobFailed:
		uri = sub.FailedURI
	case domain.JobRunning:
		uri = sub.InProgressURI
	default:
		return
	}
	if uri == "" {
		return
	}

	body, err := json.Marshal(job)
	if err != nil {
		log.Printf("process: job %s: failed to marshal subscriber payload: %v", jobID, err)
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		log.Printf("process: job %s: failed to build subscriber request: %v", jobID, err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("process: job %s: subscriber callback to %s failed: %v", jobID, uri, err)
		return
	}
	_ = resp.Body.Close()
}
