package errors

import (
	stderrs "errors"
	"fmt"
	"testing"
)

func TestNewAndMessage(t *testing.T) {
	err := New(ErrorCodeValidation, "bad signature")
	if err.Error() != "bad signature" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !IsCode(err, ErrorCodeValidation) {
		t.Fatalf("expected validation code")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrs.New("connection refused")
	err := Wrap(cause, ErrorCodeUnavailable, "github transport error")

	if got := err.Error(); got != "github transport error: connection refused" {
		t.Fatalf("Error() = %q", got)
	}
	if !stderrs.Is(err, cause) {
		t.Fatalf("wrapped cause must survive errors.Is")
	}
	if Root(err) != cause {
		t.Fatalf("Root should reach the deepest cause")
	}
}

func TestCodeOfUnwrapsThroughFmt(t *testing.T) {
	inner := Newf(ErrorCodeRateLimited, "quota exhausted")
	outer := fmt.Errorf("fetching repos: %w", inner)
	if CodeOf(outer) != ErrorCodeRateLimited {
		t.Fatalf("CodeOf should see through fmt wrapping, got %d", CodeOf(outer))
	}
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatalf("foreign errors default to unknown")
	}
	if CodeOf(nil) != ErrorCodeUnknown {
		t.Fatalf("nil defaults to unknown")
	}
}

func TestWithOp(t *testing.T) {
	err := New(ErrorCodeDB, "insert failed")
	tagged := WithOp(err, "repo.SaveBlob")

	e, ok := As(tagged)
	if !ok || e.Op() != "repo.SaveBlob" {
		t.Fatalf("expected op tag, got %+v", e)
	}
	// original stays untouched
	orig, _ := As(err)
	if orig.Op() != "" {
		t.Fatalf("WithOp must copy, not mutate")
	}
	// non-platform errors pass through unchanged
	plain := stderrs.New("x")
	if WithOp(plain, "op") != plain {
		t.Fatalf("WithOp should return foreign errors unchanged")
	}
}

func TestWrapIf(t *testing.T) {
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) must be nil")
	}
	if err := WrapIf(stderrs.New("y"), ErrorCodeDB, "x"); !IsCode(err, ErrorCodeDB) {
		t.Fatalf("WrapIf should wrap non-nil errors")
	}
}

func TestSugarCodes(t *testing.T) {
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{NotFoundf("no accounts found"), ErrorCodeNotFound},
		{InvalidArgf("no targets given"), ErrorCodeInvalidArgument},
		{Validationf("missing required signature key: %s", "caption"), ErrorCodeValidation},
		{DBf("bump counts failed"), ErrorCodeDB},
	}
	for _, c := range cases {
		if !IsCode(c.err, c.code) {
			t.Errorf("%v: expected code %d, got %d", c.err, c.code, CodeOf(c.err))
		}
	}
}
