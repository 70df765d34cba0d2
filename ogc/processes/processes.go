// Package processes implements OGC API - Processes routes (spec.md §4.6:
// "GET /processes", "GET /processes/{id}", "POST /processes/{id}/execution";
// "GET /jobs", "GET,DELETE /jobs/{id}", "GET /jobs/{id}/results"), backed by
// package process (C7, registry + runner + job state machine) and
// driver.JobHandler (C4). Structured after ogc/collections.
package processes

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/ogcerr"
	"github.com/PDOK/gokoala-ogc/process"
	"github.com/PDOK/gokoala-ogc/query"
)

const conformanceClass = "http://www.opengis.net/spec/ogcapi-processes-1/1.0/conf/core"

// Processes implements the process listing/execution and job routes.
type Processes struct {
	engine   *engine.Engine
	registry *process.Registry
	runner   *process.Runner
	jobs     driver.JobHandler
}

// NewProcesses registers process and job routes on router.
func NewProcesses(e *engine.Engine, router chi.Router, registry *process.Registry, runner *process.Runner, jobs driver.JobHandler) *Processes {
	e.AddConformanceClasses(conformanceClass)
	e.AddLandingPageLinks(
		domain.Link{Href: "./processes", Rel: "http://www.opengis.net/def/rel/ogc/1.0/processes", Type: "application/json", Title: "Processes"},
		domain.Link{Href: "./jobs", Rel: "http://www.opengis.net/def/rel/ogc/1.0/job-list", Type: "application/json", Title: "Jobs"},
	)

	p := &Processes{engine: e, registry: registry, runner: runner, jobs: jobs}
	router.Get("/processes", p.List())
	router.Get("/processes/{id}", p.Describe())
	router.Post("/processes/{id}/execution", p.Execute())
	router.Get("/jobs", p.ListJobs())
	router.Get("/jobs/{jobId}", p.JobStatus())
	router.Delete("/jobs/{jobId}", p.DismissJob())
	router.Get("/jobs/{jobId}/results", p.JobResults())
	return p
}

type processList struct {
	Links     []domain.Link     `json:"links"`
	Processes []*domain.Process `json:"processes"`
}

func (p *Processes) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := p.registry.List()
		descs := make([]*domain.Process, 0, len(ids))
		for _, id := range ids {
			proc, err := p.registry.Lookup(id)
			if err != nil {
				continue
			}
			descs = append(descs, proc.Describe())
		}
		doc := processList{Links: engine.ResolveLinks(r, nil), Processes: descs}
		p.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, doc)
	}
}

func (p *Processes) Describe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		proc, err := p.registry.Lookup(id)
		if err != nil {
			p.engine.WriteError(w, r, err)
			return
		}
		desc := proc.Describe()
		desc.Links = engine.ResolveLinks(r, append(desc.Links,
			domain.Link{Href: "./execution", Rel: "http://www.opengis.net/def/rel/ogc/1.0/execute", Title: "Execute"}))
		p.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, desc)
	}
}

func (p *Processes) Execute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		proc, err := p.registry.Lookup(id)
		if err != nil {
			p.engine.WriteError(w, r, err)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			p.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "failed to read request body", err))
			return
		}
		var req process.Execute
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				p.engine.WriteError(w, r, ogcerr.Wrap(ogcerr.BadRequest, "invalid execute request", err))
				return
			}
		}
		if req.Response == "" {
			req.Response = domain.ResponseDocument
		}

		desc := proc.Describe()
		pref := process.ParsePrefer(r.Header.Get("Prefer"))
		mode, applied := process.Negotiate(pref,
			desc.SupportsJobControl(domain.JobControlSync),
			desc.SupportsJobControl(domain.JobControlAsync))

		if applied {
			if mode == process.ModeAsync {
				w.Header().Set("Preference-Applied", "respond-async")
			} else {
				w.Header().Set("Preference-Applied", "respond-sync")
			}
		}

		if mode == process.ModeSync {
			result, err := p.runner.RunSync(r.Context(), proc, req)
			if err != nil {
				p.engine.WriteError(w, r, err)
				return
			}
			writeResult(w, p.engine, req.Response, result)
			return
		}

		job, err := p.runner.RunAsync(r.Context(), proc, req)
		if err != nil {
			p.engine.WriteError(w, r, err)
			return
		}
		job.Links = engine.ResolveLinks(r, append(job.Links,
			domain.Link{Href: "/jobs/" + job.JobID, Rel: "monitor", Type: "application/json"}))
		w.Header().Set("Location", engine.RequestBaseURL(r).String()+"/jobs/"+job.JobID)
		p.engine.WriteJSON(w, http.StatusCreated, engine.FormatJSON, job)
	}
}

func (p *Processes) ListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := query.ParsePagination(r.URL.Query(), p.engine.Config.Limits.MaxLimit)
		if err != nil {
			p.engine.WriteError(w, r, err)
			return
		}
		jobs, err := p.jobs.StatusList(r.Context(), q.Offset, q.Limit)
		if err != nil {
			p.engine.WriteError(w, r, err)
			return
		}
		for _, job := range jobs {
			job.Links = engine.ResolveLinks(r, append(job.Links,
				domain.Link{Href: "./" + job.JobID, Rel: "self", Type: "application/json"}))
		}
		doc := map[string]interface{}{
			"links": engine.ResolveLinks(r, nil),
			"jobs":  jobs,
		}
		p.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, doc)
	}
}

func (p *Processes) JobStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		job, err := p.jobs.Status(r.Context(), jobID)
		if err != nil {
			p.engine.WriteError(w, r, err)
			return
		}
		if job == nil {
			p.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "job %q does not exist", jobID))
			return
		}
		job.Links = engine.ResolveLinks(r, append(job.Links,
			domain.Link{Href: "./results", Rel: "http://www.opengis.net/def/rel/ogc/1.0/results", Title: "Results"}))
		p.engine.WriteJSON(w, http.StatusOK, engine.FormatJSON, job)
	}
}

// DismissJob cancels a non-terminal job (spec.md §4.7, "dismiss succeeds
// only from accepted or running"). A second dismiss on an already-terminal
// job reports 409 Conflict (SPEC_FULL.md's Open Question 3 decision).
func (p *Processes) DismissJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		job, err := p.jobs.Dismiss(r.Context(), jobID)
		if err != nil {
			p.engine.WriteError(w, r, err)
			return
		}
		if job == nil {
			p.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "job %q does not exist", jobID))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (p *Processes) JobResults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		job, err := p.jobs.Results(r.Context(), jobID)
		if err != nil {
			p.engine.WriteError(w, r, err)
			return
		}
		if job == nil {
			p.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "job %q does not exist", jobID))
			return
		}
		switch job.Status {
		case domain.JobSuccessful:
			// fall through
		case domain.JobFailed:
			p.engine.WriteError(w, r, ogcerr.Newf(ogcerr.BadRequest, "job %q failed: %s", jobID, job.Message))
			return
		default:
			p.engine.WriteError(w, r, ogcerr.Newf(ogcerr.NotFound, "job %q has not finished", jobID))
			return
		}

		outputs := make([]process.Output, 0, len(job.Results))
		for name, value := range job.Results {
			body, _ := json.Marshal(value)
			outputs = append(outputs, process.Output{Name: name, ContentType: "application/json", Value: body})
		}
		for _, link := range job.Links {
			if link.Rel == "result" {
				l := link
				outputs = append(outputs, process.Output{Name: l.Title, Link: &l})
			}
		}
		writeResult(w, p.engine, job.ResponseMode, &process.Result{Outputs: outputs})
	}
}
