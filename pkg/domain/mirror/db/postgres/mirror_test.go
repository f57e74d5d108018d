package postgres

import (
	"testing"

	"github.com/mikage-io/kagami/pkg/domain"
	"github.com/mikage-io/kagami/pkg/utils/cmp"
)

func TestIdentityCond(t *testing.T) {
	meta := domain.ObjectMeta{
		Name: "web", Namespace: "apps", Cluster: "c1",
		Group: "apps", Version: "v1", Kind: "Deployment", UserID: "u-1",
	}

	conds, args := identityCond(meta, nil, nil)

	wantConds := []string{
		`"cluster" = $1`,
		`lower("kind") = lower($2)`,
		`lower("group") = lower($3)`,
		`lower("version") = lower($4)`,
		`"namespace" = $5`,
		`"name" = $6`,
		`"user_id" = $7`,
	}
	if !cmp.SliceEq(conds, wantConds) {
		t.Errorf("unexpected conditions: %v", conds)
	}

	wantArgs := []interface{}{"c1", "Deployment", "apps", "v1", "apps", "web", "u-1"}
	if !cmp.SliceEqWith(args, wantArgs, func(a, b interface{}) bool { return a == b }) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestIdentityCond_AppendsAfterExisting(t *testing.T) {
	conds := []string{`NOT "deleted"`}
	args := []interface{}{}

	conds, args = identityCond(domain.ObjectMeta{Name: "web", Cluster: "c1"}, conds, args)

	if conds[0] != `NOT "deleted"` {
		t.Errorf("existing conditions should be kept first: %v", conds)
	}
	// placeholders continue from the existing args
	if conds[1] != `"cluster" = $1` {
		t.Errorf("placeholder numbering should follow args, not conds: %v", conds)
	}
	if len(args) != 7 {
		t.Errorf("every identity column should be bound: %v", args)
	}
}

func TestJoinAnd(t *testing.T) {
	for name, testcase := range map[string]struct {
		conds []string
		want  string
	}{
		"empty":    {nil, ""},
		"single":   {[]string{"a = 1"}, "a = 1"},
		"multiple": {[]string{"a = 1", "b = 2", "c = 3"}, "a = 1 AND b = 2 AND c = 3"},
	} {
		t.Run(name, func(t *testing.T) {
			if got := joinAnd(testcase.conds); got != testcase.want {
				t.Errorf("joinAnd = %q, want %q", got, testcase.want)
			}
		})
	}
}
