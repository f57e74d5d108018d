package errors_test

import (
	"errors"
	"strings"
	"testing"

	xe "github.com/mikage-io/kagami/pkg/errors"
)

func TestWrap(t *testing.T) {
	t.Run("records the caller location", func(t *testing.T) {
		err := xe.Wrap(errors.New("fake error"))

		wc := new(xe.ErrWithCaller)
		if !errors.As(err, &wc) {
			t.Fatalf("should be ErrWithCaller: %v", err)
		}
		if !strings.HasSuffix(wc.File(), "errors_test.go") {
			t.Errorf("file should be this test file: %s", wc.File())
		}
		if wc.Line() <= 0 {
			t.Errorf("line should be recorded: %d", wc.Line())
		}
		if !strings.Contains(err.Error(), "fake error") {
			t.Errorf("message should contain the cause: %s", err.Error())
		}
	})

	t.Run("wrapped error unwraps to the cause", func(t *testing.T) {
		cause := errors.New("fake error")
		if !errors.Is(xe.Wrap(cause), cause) {
			t.Error("errors.Is should reach the cause")
		}
	})
}

func TestWrapWithNote(t *testing.T) {
	err := xe.WrapWithNote("while testing", errors.New("fake error"))
	if !strings.Contains(err.Error(), "while testing") {
		t.Errorf("message should contain the note: %s", err.Error())
	}
}

func TestWrapAsOuter(t *testing.T) {
	// helper standing in for an error-constructor in another package
	newErr := func() error {
		return xe.WrapAsOuter(errors.New("fake error"), 1)
	}

	err := newErr()
	wc := new(xe.ErrWithCaller)
	if !errors.As(err, &wc) {
		t.Fatalf("should be ErrWithCaller: %v", err)
	}
	if !strings.HasSuffix(wc.File(), "errors_test.go") {
		t.Errorf("recorded location should be the helper's caller: %s", wc.File())
	}
}
