package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("get item 7: %w", ErrItemNotFound)
	if !IsNotFound(wrapped) {
		t.Error("wrapped ErrItemNotFound should be NOT_FOUND")
	}
	if !errors.Is(wrapped, ErrItemNotFound) {
		t.Error("errors.Is should see the sentinel")
	}
	if IsNotFound(errors.New("plain")) || IsNotFound(nil) {
		t.Error("plain errors are not domain errors")
	}

	cause := errors.New("dial tcp: refused")
	err := WrapDomainError(ModuleNLP, ErrorCodeUnavailable, "nlp: service unavailable", cause)
	if !IsUnavailable(err) || !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable")
	}
	if err.Error() != "nlp: service unavailable: dial tcp: refused" {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := GetDomainError(fmt.Errorf("outer: %w", err)); got == nil || got.Module != ModuleNLP {
		t.Errorf("GetDomainError = %+v", got)
	}
	if !IsInvalidInput(NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "engine: empty query")) {
		t.Error("IsInvalidInput mismatch")
	}
}
