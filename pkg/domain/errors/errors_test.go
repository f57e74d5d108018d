package errors_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	kerr "github.com/mikage-io/kagami/pkg/domain/errors"
)

func TestErrorTaxonomy(t *testing.T) {
	for name, testcase := range map[string]struct {
		err  error
		pred func(error) bool
	}{
		"missing":  {kerr.NewMissing("no such cluster"), kerr.AsMissingError},
		"invalid":  {kerr.NewInvalid("user id is required"), kerr.AsInvalidError},
		"conflict": {kerr.NewConflict("already exists"), kerr.AsConflict},
	} {
		t.Run(name+" is detected by its predicate", func(t *testing.T) {
			if !testcase.pred(testcase.err) {
				t.Errorf("predicate should match: %v", testcase.err)
			}
		})

		t.Run(name+" survives wrapping", func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", testcase.err)
			if !testcase.pred(wrapped) {
				t.Errorf("predicate should match through %%w: %v", wrapped)
			}
		})
	}

	t.Run("predicates do not cross-match", func(t *testing.T) {
		err := kerr.NewMissing("no such cluster")
		if kerr.AsInvalidError(err) || kerr.AsConflict(err) {
			t.Errorf("missing should be missing only: %v", err)
		}
	})

	t.Run("nil never matches", func(t *testing.T) {
		if kerr.AsMissingError(nil) || kerr.AsInvalidError(nil) || kerr.AsConflict(nil) {
			t.Error("nil is not an error")
		}
	})
}

func TestCausedBy(t *testing.T) {
	cause := errors.New("fake error")
	err := kerr.NewConflictCausedBy("write lost", cause)

	if !kerr.AsConflict(err) {
		t.Errorf("should be conflict: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should reach the cause: %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "write lost") || !strings.Contains(msg, "fake error") {
		t.Errorf("message should carry both message and cause: %s", msg)
	}
}
