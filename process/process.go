// Package process implements the process runtime (spec.md §4.7, component
// C7): a Processor plugin contract, a startup-populated registry, sync/async
// execution-mode negotiation, the job state machine, and result encoding.
// Grounded on jobrunner-ortus's internal/application package, which drives a
// comparable registry-plus-lifecycle pattern for its own async jobs.
package process

import (
	"context"

	"github.com/PDOK/gokoala-ogc/domain"
)

// Execute is a parsed execution request body (spec.md §4.7,
// "Execute-request negotiation").
type Execute struct {
	Inputs     map[string]interface{} `json:"inputs,omitempty"`
	Outputs    map[string]OutputSpec  `json:"outputs,omitempty"`
	Response   domain.ResponseMode    `json:"response,omitempty"`
	Subscriber *Subscriber            `json:"subscriber,omitempty"`
}

// OutputSpec controls how a single named output is transmitted.
type OutputSpec struct {
	Transmission string `json:"transmission,omitempty"` // "value" | "reference"
}

// Subscriber carries the callback URIs the runtime POSTs StatusInfo to on
// state transitions (spec.md §4.7, "Subscriber callbacks").
type Subscriber struct {
	SuccessURI    string `json:"successUri,omitempty"`
	InProgressURI string `json:"inProgressUri,omitempty"`
	FailedURI     string `json:"failedUri,omitempty"`
}

// Output is one named result value produced by a Processor.
type Output struct {
	Name        string
	ContentType string
	Value       []byte // inline body, used for "value" transmission or raw encoding
	Link        *domain.Link
}

// Result is what execute() produces; a zero-output process returns an empty
// Outputs slice, which raw result encoding answers with 204 No Content.
type Result struct {
	Outputs []Output
}

// Processor is the plugin contract every process implementation satisfies
// (spec.md §4.7: "a Processor exposes id(), version(), describe(),
// execute()").
type Processor interface {
	ID() string
	Version() string
	Describe() *domain.Process
	Execute(ctx context.Context, req Execute) (*Result, error)
}
