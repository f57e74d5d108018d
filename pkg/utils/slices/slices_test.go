package slices_test

import (
	"sort"
	"strconv"
	"testing"

	"github.com/mikage-io/kagami/pkg/utils/cmp"
	"github.com/mikage-io/kagami/pkg/utils/slices"
)

func TestMap(t *testing.T) {
	t.Run("applies mapper elementwise", func(t *testing.T) {
		got := slices.Map([]int{1, 2, 3}, strconv.Itoa)
		if !cmp.SliceEq(got, []string{"1", "2", "3"}) {
			t.Errorf("unexpected: %v", got)
		}
	})

	t.Run("nil in, nil out", func(t *testing.T) {
		var src []int
		if got := slices.Map(src, strconv.Itoa); got != nil {
			t.Errorf("should be nil: %v", got)
		}
	})
}

func TestKeysOf(t *testing.T) {
	got := slices.KeysOf(map[string]int{"a": 1, "b": 2, "c": 3})
	sort.Strings(got)
	if !cmp.SliceEq(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected keys: %v", got)
	}
}

func TestFirst(t *testing.T) {
	even := func(n int) bool { return n%2 == 0 }

	t.Run("finds the first match", func(t *testing.T) {
		got, ok := slices.First([]int{1, 3, 4, 6}, even)
		if !ok || got != 4 {
			t.Errorf("First = (%d, %v), want (4, true)", got, ok)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, ok := slices.First([]int{1, 3, 5}, even); ok {
			t.Error("should not match")
		}
	})
}

func TestFilter(t *testing.T) {
	got := slices.Filter([]int{1, 2, 3, 4, 5}, func(n int) bool { return n%2 == 0 })
	if !cmp.SliceEq(got, []int{2, 4}) {
		t.Errorf("unexpected: %v", got)
	}
}
