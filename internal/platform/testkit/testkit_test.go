package testkit

import (
	"errors"
	"testing"
)

func TestMustPanicPasses(t *testing.T) {
	MustPanic(t, func() { panic("boom") })
}

func TestMustNotPanicPasses(t *testing.T) {
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	MustContain(t, "missing required signature key: caption", "caption")
}

func TestMustErrAndNoErr(t *testing.T) {
	MustErr(t, errors.New("x"))
	MustNoErr(t, nil)
}
