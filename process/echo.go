package process

import (
	"context"
	"encoding/json"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// EchoProcessor is a minimal built-in Processor that copies its single
// string input to its single string output, offering both sync and async
// execution (spec.md §8, end-to-end scenarios 4 and 5 exercise exactly this
// process). It exists so the process runtime has at least one concrete
// implementation to register at startup. Its output is JSON-encoded with
// Content-Type application/json, so a raw-mode response body is the quoted
// string (e.g. "hi" with its quotes), not plain text.
type EchoProcessor struct{}

func (EchoProcessor) ID() string      { return "echo" }
func (EchoProcessor) Version() string { return "1.0.0" }

func (EchoProcessor) Describe() *domain.Process {
	return &domain.Process{
		ID:                "echo",
		Version:           "1.0.0",
		Title:             "Echo",
		Description:       "Returns its stringInput unchanged as stringOutput",
		JobControlOptions: []string{domain.JobControlSync, domain.JobControlAsync},
		Inputs: map[string]domain.InputDescription{
			"stringInput": {Title: "Input string", Schema: map[string]interface{}{"type": "string"}, MinOccur: 1, MaxOccur: 1},
		},
		Outputs: map[string]domain.OutputDescription{
			"stringOutput": {Title: "Output string", Schema: map[string]interface{}{"type": "string"}},
		},
	}
}

func (EchoProcessor) Execute(_ context.Context, req Execute) (*Result, error) {
	raw, ok := req.Inputs["stringInput"]
	if !ok {
		return nil, ogcerr.New(ogcerr.BadRequest, "missing required input stringInput")
	}
	value, ok := raw.(string)
	if !ok {
		return nil, ogcerr.New(ogcerr.BadRequest, "stringInput must be a string")
	}
	body, err := json.Marshal(value)
	if err != nil {
		return nil, ogcerr.Wrap(ogcerr.Internal, "marshal echo output", err)
	}
	return &Result{Outputs: []Output{{Name: "stringOutput", ContentType: "application/json", Value: body}}}, nil
}
