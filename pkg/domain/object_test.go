package domain_test

import (
	"testing"

	"github.com/mikage-io/kagami/pkg/domain"
	"github.com/mikage-io/kagami/pkg/utils/cmp"
)

func TestObjectMeta_Equal(t *testing.T) {
	base := domain.ObjectMeta{
		Name: "web", Namespace: "apps", Cluster: "c1",
		Group: "apps", Version: "v1", Kind: "Deployment", UserID: "u-1",
	}

	t.Run("same identity is equal", func(t *testing.T) {
		if !base.Equal(base) {
			t.Error("identity should equal itself")
		}
	})

	t.Run("group/version/kind are case-insensitive", func(t *testing.T) {
		other := base
		other.Group = "Apps"
		other.Version = "V1"
		other.Kind = "deployment"
		if !base.Equal(other) {
			t.Error("case of group/version/kind should not matter")
		}
	})

	t.Run("name and namespace are case-sensitive", func(t *testing.T) {
		other := base
		other.Name = "Web"
		if base.Equal(other) {
			t.Error("names differing by case are different resources")
		}
	})

	for name, mutate := range map[string]func(*domain.ObjectMeta){
		"name":      func(m *domain.ObjectMeta) { m.Name = "api" },
		"namespace": func(m *domain.ObjectMeta) { m.Namespace = "other" },
		"cluster":   func(m *domain.ObjectMeta) { m.Cluster = "c2" },
		"group":     func(m *domain.ObjectMeta) { m.Group = "batch" },
		"version":   func(m *domain.ObjectMeta) { m.Version = "v2" },
		"kind":      func(m *domain.ObjectMeta) { m.Kind = "StatefulSet" },
		"user":      func(m *domain.ObjectMeta) { m.UserID = "u-2" },
	} {
		t.Run("differing "+name+" is not equal", func(t *testing.T) {
			other := base
			mutate(&other)
			if base.Equal(other) {
				t.Errorf("should differ: %+v vs %+v", base, other)
			}
		})
	}
}

func TestObjectMeta_Validate(t *testing.T) {
	valid := domain.ObjectMeta{
		Name: "web", Cluster: "c1", Version: "v1", Kind: "ConfigMap",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %s", err)
	}

	for name, mutate := range map[string]func(*domain.ObjectMeta){
		"without name":    func(m *domain.ObjectMeta) { m.Name = "" },
		"without cluster": func(m *domain.ObjectMeta) { m.Cluster = "" },
		"without version": func(m *domain.ObjectMeta) { m.Version = "" },
		"without kind":    func(m *domain.ObjectMeta) { m.Kind = "" },
	} {
		t.Run(name, func(t *testing.T) {
			meta := valid
			mutate(&meta)
			if err := meta.Validate(); err == nil {
				t.Errorf("should be invalid: %+v", meta)
			}
		})
	}

	t.Run("empty namespace is fine (cluster-scoped kinds)", func(t *testing.T) {
		meta := valid
		meta.Namespace = ""
		if err := meta.Validate(); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
	})
}

func TestManifest_Labels(t *testing.T) {
	t.Run("reads metadata.labels", func(t *testing.T) {
		m := domain.Manifest{
			"metadata": map[string]any{
				"name": "web",
				"labels": map[string]any{
					"app":  "web",
					"tier": "frontend",
				},
			},
		}
		if !cmp.MapEq(m.Labels(), map[string]string{"app": "web", "tier": "frontend"}) {
			t.Errorf("unexpected labels: %+v", m.Labels())
		}
	})

	t.Run("no labels means empty, not nil", func(t *testing.T) {
		for name, m := range map[string]domain.Manifest{
			"empty manifest":      {},
			"metadata w/o labels": {"metadata": map[string]any{"name": "web"}},
			"nil manifest":        nil,
		} {
			labels := m.Labels()
			if labels == nil {
				t.Errorf("%s: labels should be non-nil", name)
			}
			if len(labels) != 0 {
				t.Errorf("%s: labels should be empty: %+v", name, labels)
			}
		}
	})

	t.Run("non-string label values are skipped", func(t *testing.T) {
		m := domain.Manifest{
			"metadata": map[string]any{
				"labels": map[string]any{"app": "web", "weight": 42},
			},
		}
		if !cmp.MapEq(m.Labels(), map[string]string{"app": "web"}) {
			t.Errorf("unexpected labels: %+v", m.Labels())
		}
	})
}

func TestObjectFilter_Matches(t *testing.T) {
	obj := domain.Object{
		ObjectMeta: domain.ObjectMeta{
			Name: "web", Namespace: "apps", Cluster: "c1",
			Group: "apps", Version: "v1", Kind: "Deployment", UserID: "u-1",
		},
		Manifest: domain.Manifest{
			"metadata": map[string]any{
				"labels": map[string]any{"app": "web", "tier": "frontend"},
			},
		},
	}

	for name, testcase := range map[string]struct {
		filter domain.ObjectFilter
		want   bool
	}{
		"empty filter matches everything": {
			filter: domain.ObjectFilter{}, want: true,
		},
		"kind, case-insensitive": {
			filter: domain.ObjectFilter{Kind: "deployment"}, want: true,
		},
		"kind mismatch": {
			filter: domain.ObjectFilter{Kind: "StatefulSet"}, want: false,
		},
		"group mismatch": {
			filter: domain.ObjectFilter{Group: "batch"}, want: false,
		},
		"namespace mismatch": {
			filter: domain.ObjectFilter{Namespace: "other"}, want: false,
		},
		"cluster mismatch": {
			filter: domain.ObjectFilter{Cluster: "c2"}, want: false,
		},
		"user mismatch": {
			filter: domain.ObjectFilter{UserID: "u-2"}, want: false,
		},
		"label subset matches": {
			filter: domain.ObjectFilter{
				LabelSelector: map[string]string{"app": "web"},
			},
			want: true,
		},
		"label value mismatch": {
			filter: domain.ObjectFilter{
				LabelSelector: map[string]string{"app": "api"},
			},
			want: false,
		},
		"label not on the object": {
			filter: domain.ObjectFilter{
				LabelSelector: map[string]string{"env": "prod"},
			},
			want: false,
		},
		"all conditions AND-ed": {
			filter: domain.ObjectFilter{
				Kind: "Deployment", Namespace: "apps", Cluster: "c1",
				LabelSelector: map[string]string{"tier": "frontend"},
			},
			want: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			if got := testcase.filter.Matches(obj); got != testcase.want {
				t.Errorf("Matches = %v, want %v (filter: %+v)", got, testcase.want, testcase.filter)
			}
		})
	}
}
