package process

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/PDOK/gokoala-ogc/domain"
)

// fakeJobHandler is an in-memory driver.JobHandler stub that records the
// map passed to Finish and signals done so tests can wait for the
// RunAsync goroutine without sleeping.
type fakeJobHandler struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
	done chan struct{}
}

func newFakeJobHandler() *fakeJobHandler {
	return &fakeJobHandler{jobs: make(map[string]*domain.Job), done: make(chan struct{}, 1)}
}

func (f *fakeJobHandler) Register(_ context.Context, processID string, mode domain.ResponseMode) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := &domain.Job{JobID: "job-1", ProcessID: processID, Status: domain.JobAccepted, ResponseMode: mode}
	f.jobs[job.JobID] = job
	return job, nil
}

func (f *fakeJobHandler) UpdateStatus(_ context.Context, jobID string, status domain.JobStatus, message string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[jobID]
	job.Status = status
	job.Message = message
	job.Progress = progress
	return nil
}

func (f *fakeJobHandler) Finish(_ context.Context, jobID string, status domain.JobStatus, message string, links []domain.Link, results map[string]interface{}) error {
	f.mu.Lock()
	job := f.jobs[jobID]
	job.Status = status
	job.Message = message
	job.Links = links
	job.Results = results
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeJobHandler) Status(_ context.Context, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[jobID], nil
}

func (f *fakeJobHandler) Dismiss(_ context.Context, jobID string) (*domain.Job, error) {
	return f.jobs[jobID], nil
}

func (f *fakeJobHandler) StatusList(_ context.Context, _, _ int) ([]*domain.Job, error) {
	return nil, nil
}

func (f *fakeJobHandler) Results(_ context.Context, jobID string) (*domain.Job, error) {
	return f.jobs[jobID], nil
}

func TestRunSyncEcho(t *testing.T) {
	r := NewRunner(nil, nil)
	result, err := r.RunSync(context.Background(), EchoProcessor{}, Execute{
		Inputs: map[string]interface{}{"stringInput": "hello"},
	})
	if err != nil {
		t.Fatalf("RunSync() unexpected error: %v", err)
	}
	if len(result.Outputs) != 1 {
		t.Fatalf("RunSync() returned %d outputs, want 1", len(result.Outputs))
	}
	out := result.Outputs[0]
	if out.Name != "stringOutput" {
		t.Errorf("output name = %q, want stringOutput", out.Name)
	}
	if string(out.Value) != `"hello"` {
		t.Errorf("output value = %q, want %q", out.Value, `"hello"`)
	}
}

func TestRunSyncEchoMissingInput(t *testing.T) {
	r := NewRunner(nil, nil)
	_, err := r.RunSync(context.Background(), EchoProcessor{}, Execute{})
	if err == nil {
		t.Fatal("RunSync() with missing stringInput should error")
	}
}

// TestRunAsyncPersistsUnescapedResult guards against the async path
// double-JSON-encoding a Processor's output: Finish must receive the decoded
// value ("hi"), not its JSON encoding as a Go string ("\"hi\"").
func TestRunAsyncPersistsUnescapedResult(t *testing.T) {
	jobs := newFakeJobHandler()
	r := NewRunner(jobs, nil)

	job, err := r.RunAsync(context.Background(), EchoProcessor{}, Execute{
		Inputs: map[string]interface{}{"stringInput": "hi"},
	})
	if err != nil {
		t.Fatalf("RunAsync() unexpected error: %v", err)
	}

	select {
	case <-jobs.done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunAsync() did not finish in time")
	}

	finished, err := jobs.Status(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("Status() unexpected error: %v", err)
	}
	if finished.Status != domain.JobSuccessful {
		t.Fatalf("job status = %q, want %q", finished.Status, domain.JobSuccessful)
	}
	got, ok := finished.Results["stringOutput"]
	if !ok {
		t.Fatal("Results missing stringOutput")
	}
	if got != "hi" {
		t.Errorf("Results[%q] = %#v, want %q", "stringOutput", got, "hi")
	}
}
