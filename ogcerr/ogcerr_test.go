package ogcerr

import (
	"errors"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{NotFound, http.StatusNotFound},
		{BadRequest, http.StatusBadRequest},
		{Conflict, http.StatusConflict},
		{Unsupported, http.StatusNotImplemented},
		{Timeout, http.StatusGatewayTimeout},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("Kind(%d).Status() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestAsWrapsUntypedError(t *testing.T) {
	plain := errors.New("boom")
	got := As(plain)
	if got.Kind != Internal {
		t.Errorf("As(plain error).Kind = %v, want Internal", got.Kind)
	}
	if !errors.Is(got, got) {
		t.Fatal("As() result should wrap itself")
	}
	if errors.Unwrap(got) != plain {
		t.Error("As() should preserve the original error via Unwrap")
	}
}

func TestAsPassesThroughTypedError(t *testing.T) {
	original := New(NotFound, "nope")
	got := As(original)
	if got != original {
		t.Error("As() should return the same *Error instance when already typed")
	}
}

func TestAsNil(t *testing.T) {
	if As(nil) != nil {
		t.Error("As(nil) should return nil")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("cause")
	wrapped := Wrap(Internal, "context", cause)
	if errors.Unwrap(wrapped) != cause {
		t.Error("Wrap() should make the cause retrievable via Unwrap")
	}
}
