package kyuaerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestUsageErrorFormats(t *testing.T) {
	err := NewUsageError("bad filter %q", "x:")
	if err.Error() != `bad filter "x:"` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFormatErrorWrapsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := WrapFormatError("parsing result file", cause)
	if !errors.Is(err, cause) {
		t.Error("WrapFormatError result does not unwrap to cause")
	}
}

func TestSystemErrorAsDistinguishable(t *testing.T) {
	wrapped := fmt.Errorf("layer: %w", NewSystemError("fork", errors.New("resource temporarily unavailable")))
	var sysErr *SystemError
	if !errors.As(wrapped, &sysErr) {
		t.Fatal("expected errors.As to find a *SystemError")
	}
	if sysErr.Op != "fork" {
		t.Errorf("Op = %q, want fork", sysErr.Op)
	}
}

func TestIntegrityErrorFormats(t *testing.T) {
	err := NewIntegrityError("result for %s:%s is passed but carries a reason %q", "prog", "case1", "oops")
	want := `result for prog:case1 is passed but carries a reason "oops"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
