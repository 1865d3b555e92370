package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestIO_WrapsCause(t *testing.T) {
	err := IO("send message", io.ErrUnexpectedEOF)

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %T", err)
	}
	if ioErr.Op != "send message" {
		t.Errorf("op = %q, want %q", ioErr.Op, "send message")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected error to unwrap to io.ErrUnexpectedEOF")
	}
	if got := err.Error(); got != "send message: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIO_NilPassthrough(t *testing.T) {
	if err := IO("noop", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("get %q: %w", "k", ErrMissingData)
	if !IsMissing(wrapped) {
		t.Error("expected IsMissing on wrapped ErrMissingData")
	}
	if IsUnimplemented(wrapped) {
		t.Error("did not expect IsUnimplemented")
	}

	wrapped = fmt.Errorf("join: %w", ErrUnimplemented)
	if !IsUnimplemented(wrapped) {
		t.Error("expected IsUnimplemented on wrapped ErrUnimplemented")
	}
}

func TestGeneric(t *testing.T) {
	err := Genericf("route %d failed", 3)

	var g *GenericError
	if !errors.As(err, &g) {
		t.Fatalf("expected *GenericError, got %T", err)
	}
	if g.Message != "route 3 failed" {
		t.Errorf("message = %q", g.Message)
	}
}
