package errors

import (
	stdErrors "errors"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("socket closed")
	err := Wrap(CodeUnavailable, cause, "cart create failed")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to satisfy errors.Is")
	}
	if err.Code() != CodeUnavailable {
		t.Fatalf("unexpected code: %s", err.Code())
	}
	if !err.Retryable() {
		t.Fatal("unavailable errors should be retryable")
	}
}

func TestAsFindsTypedError(t *testing.T) {
	err := New(CodeValidation, "quantity must be non-negative")
	wrapped := Wrap(CodeRemote, err, "line update rejected")

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeRemote {
		t.Fatalf("expected outermost code, got %s", typed.Code())
	}
}

func TestIsCode(t *testing.T) {
	if IsCode(nil, CodeRemote) {
		t.Fatal("nil error should not match any code")
	}
	err := New(CodePersistence, "flush failed")
	if !IsCode(err, CodePersistence) {
		t.Fatal("expected code match")
	}
	if IsCode(err, CodeRemote) {
		t.Fatal("unexpected code match")
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.PublicMessage != "internal error" {
		t.Fatalf("expected internal fallback, got %q", meta.PublicMessage)
	}
}

func TestDumpBuildsChain(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := Wrap(CodePersistence, cause, "flush failed")

	d := Dump(err)
	if d.Code != CodePersistence {
		t.Fatalf("unexpected code: %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(d.Chain))
	}
}
