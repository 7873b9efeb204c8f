package wmerrors

import (
	"errors"
	"testing"
)

func TestPortErrorUnwrapsToKind(t *testing.T) {
	pe := &PortError{Kind: ErrPermissionDenied, Err: errors.New("X11 BadAccess")}
	if !errors.Is(pe, ErrPermissionDenied) {
		t.Fatal("errors.Is(pe, ErrPermissionDenied) = false")
	}
	want := "accessibility port refused operation: X11 BadAccess"
	if pe.Error() != want {
		t.Fatalf("Error() = %q, want %q", pe.Error(), want)
	}
}

func TestPortErrorWithNilErrFormatsKindOnly(t *testing.T) {
	pe := &PortError{Kind: ErrWindowGone}
	if pe.Error() != ErrWindowGone.Error() {
		t.Fatalf("Error() = %q, want %q", pe.Error(), ErrWindowGone.Error())
	}
}

func TestGoneReportsBareSentinel(t *testing.T) {
	if !Gone(ErrWindowGone) {
		t.Fatal("Gone(ErrWindowGone) = false")
	}
}

func TestGoneReportsWrappedSentinel(t *testing.T) {
	wrapped := &PortError{Kind: ErrWindowGone, Err: errors.New("no such window")}
	if !Gone(wrapped) {
		t.Fatal("Gone() = false for a PortError wrapping ErrWindowGone")
	}
}

func TestGoneFalseForUnrelatedError(t *testing.T) {
	if Gone(ErrPermissionDenied) {
		t.Fatal("Gone(ErrPermissionDenied) = true, want false")
	}
	if Gone(errors.New("some other failure")) {
		t.Fatal("Gone() = true for an unrelated error")
	}
}
