package domain_test

import (
	"errors"
	"testing"

	"github.com/mikage-io/kagami/pkg/domain"
	"github.com/mikage-io/kagami/pkg/utils/cmp"
	"github.com/mikage-io/kagami/pkg/utils/try"
)

func obj(cluster domain.ClusterID, name string) domain.Object {
	return domain.Object{
		ObjectMeta: domain.ObjectMeta{
			Name: name, Cluster: cluster, Version: "v1", Kind: "ConfigMap",
		},
	}
}

func names(objs []domain.Object) []string {
	ret := make([]string, len(objs))
	for i, o := range objs {
		ret[i] = o.Name
	}
	return ret
}

func TestSliceCursor(t *testing.T) {
	t.Run("yields all elements in order", func(t *testing.T) {
		want := []domain.Object{obj("c1", "a"), obj("c1", "b"), obj("c1", "c")}
		got := try.To(domain.CollectCursor(domain.SliceCursor(want))).OrFatal(t)
		if !cmp.SliceEqWith(got, want, domain.Object.Equal) {
			t.Errorf("got %v, want %v", names(got), names(want))
		}
	})

	t.Run("empty slice yields nothing", func(t *testing.T) {
		got := try.To(domain.CollectCursor(domain.SliceCursor(nil))).OrFatal(t)
		if len(got) != 0 {
			t.Errorf("should be empty: %v", names(got))
		}
	})
}

func TestConcatCursor(t *testing.T) {
	t.Run("concatenates sources in order", func(t *testing.T) {
		cur := domain.ConcatCursor(
			func() (domain.Cursor, error) {
				return domain.SliceCursor([]domain.Object{obj("c1", "a"), obj("c1", "b")}), nil
			},
			func() (domain.Cursor, error) {
				return domain.SliceCursor(nil), nil
			},
			func() (domain.Cursor, error) {
				return domain.SliceCursor([]domain.Object{obj("c2", "c")}), nil
			},
		)
		got := try.To(domain.CollectCursor(cur)).OrFatal(t)
		if !cmp.SliceEq(names(got), []string{"a", "b", "c"}) {
			t.Errorf("unexpected order: %v", names(got))
		}
	})

	t.Run("sources are opened lazily", func(t *testing.T) {
		opened := false
		cur := domain.ConcatCursor(
			func() (domain.Cursor, error) {
				return domain.SliceCursor([]domain.Object{obj("c1", "a")}), nil
			},
			func() (domain.Cursor, error) {
				opened = true
				return domain.SliceCursor([]domain.Object{obj("c2", "b")}), nil
			},
		)
		defer cur.Close()

		if !cur.Next() {
			t.Fatal("first element should be there")
		}
		if opened {
			t.Error("second source should not be opened while the first has elements")
		}
		if !cur.Next() {
			t.Fatal("second element should be there")
		}
		if !opened {
			t.Error("second source should be opened now")
		}
	})

	t.Run("error on opening a source stops iteration", func(t *testing.T) {
		wantErr := errors.New("fake error")
		thirdOpened := false
		cur := domain.ConcatCursor(
			func() (domain.Cursor, error) {
				return domain.SliceCursor([]domain.Object{obj("c1", "a")}), nil
			},
			func() (domain.Cursor, error) { return nil, wantErr },
			func() (domain.Cursor, error) {
				thirdOpened = true
				return domain.SliceCursor(nil), nil
			},
		)

		got, err := domain.CollectCursor(cur)
		if !errors.Is(err, wantErr) {
			t.Errorf("error should propagate: got %v", err)
		}
		if got != nil {
			t.Errorf("no partial result on failure: %v", names(got))
		}
		if thirdOpened {
			t.Error("sources after the failing one should never be opened")
		}
	})

	t.Run("error while iterating a source stops iteration", func(t *testing.T) {
		wantErr := errors.New("fake error")
		cur := domain.ConcatCursor(
			func() (domain.Cursor, error) {
				return &failingCursor{
					objs: []domain.Object{obj("c1", "a")}, err: wantErr,
				}, nil
			},
			func() (domain.Cursor, error) {
				t.Error("next source should not be opened after a failure")
				return domain.SliceCursor(nil), nil
			},
		)

		if _, err := domain.CollectCursor(cur); !errors.Is(err, wantErr) {
			t.Errorf("error should propagate: got %v", err)
		}
	})

	t.Run("closed cursor yields nothing", func(t *testing.T) {
		cur := domain.ConcatCursor(
			func() (domain.Cursor, error) {
				return domain.SliceCursor([]domain.Object{obj("c1", "a")}), nil
			},
		)
		cur.Close()
		if cur.Next() {
			t.Error("closed cursor should not advance")
		}
		cur.Close() // idempotent
	})
}

// failingCursor yields its objects, then fails with err.
type failingCursor struct {
	objs []domain.Object
	pos  int
	cur  domain.Object
	err  error

	failed bool
}

func (f *failingCursor) Next() bool {
	if len(f.objs) <= f.pos {
		f.failed = true
		return false
	}
	f.cur = f.objs[f.pos]
	f.pos += 1
	return true
}

func (f *failingCursor) Object() domain.Object { return f.cur }

func (f *failingCursor) Err() error {
	if f.failed {
		return f.err
	}
	return nil
}

func (f *failingCursor) Close() {}
