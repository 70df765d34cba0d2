package process

import (
	"context"
	"errors"
	"testing"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/ogcerr"
)

type stubProcessor struct{ id string }

func (s stubProcessor) ID() string      { return s.id }
func (s stubProcessor) Version() string { return "1.0.0" }
func (s stubProcessor) Describe() *domain.Process {
	return &domain.Process{ID: s.id, Version: "1.0.0"}
}
func (s stubProcessor) Execute(_ context.Context, _ Execute) (*Result, error) { return nil, nil }

func TestNewRegistryRejectsDuplicateID(t *testing.T) {
	_, err := NewRegistry(stubProcessor{id: "echo"}, stubProcessor{id: "echo"})
	if err == nil {
		t.Fatal("NewRegistry() with duplicate ids should error")
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry(stubProcessor{id: "echo"}, stubProcessor{id: "reverse"})
	if err != nil {
		t.Fatalf("NewRegistry() unexpected error: %v", err)
	}

	if _, err := reg.Lookup("echo"); err != nil {
		t.Errorf("Lookup(echo) unexpected error: %v", err)
	}

	_, err = reg.Lookup("missing")
	var oe *ogcerr.Error
	if !errors.As(err, &oe) || oe.Kind != ogcerr.NotFound {
		t.Errorf("Lookup(missing) error = %v, want NotFound", err)
	}

	ids := reg.List()
	if len(ids) != 2 {
		t.Errorf("List() returned %d ids, want 2", len(ids))
	}
}
