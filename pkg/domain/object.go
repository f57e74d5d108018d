// Package domain holds the data model of kagami: identities, manifests and
// filters of mirrored Kubernetes objects.
package domain

import (
	"fmt"
	"strings"

	kubeschema "k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/mikage-io/kagami/pkg/utils/cmp"
)

// ClusterID identifies one configured Kubernetes cluster. Opaque.
type ClusterID string

// Manifest is the structured body of a Kubernetes resource,
// as decoded from JSON/YAML.
type Manifest map[string]any

// Labels reads metadata.labels of the manifest.
//
// Returns an empty (non-nil) map when the manifest has no labels.
func (m Manifest) Labels() map[string]string {
	labels := map[string]string{}
	meta, ok := m["metadata"].(map[string]any)
	if !ok {
		return labels
	}
	raw, ok := meta["labels"].(map[string]any)
	if !ok {
		return labels
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			labels[k] = s
		}
	}
	return labels
}

// ObjectMeta is the identity of a mirrored Kubernetes resource.
//
// The tuple (Name, Namespace, Cluster, Group, Version, Kind, UserID) is
// unique within the mirror. Group, Version and Kind are compared
// case-insensitively.
type ObjectMeta struct {
	// Name of the resource. Required.
	Name string

	// Namespace of the resource. Empty for cluster-scoped kinds.
	Namespace string

	// Cluster where the resource lives. Required.
	Cluster ClusterID

	// API group of the resource. Empty = core group.
	Group string

	// API version of the resource. Required.
	Version string

	// Kind of the resource. Required.
	Kind string

	// UserID owning the resource.
	//
	// Optional, unless the mirror enforces per-user scoping.
	UserID string
}

// GVK is the Group/Version/Kind of the resource, as apimachinery type.
func (m ObjectMeta) GVK() kubeschema.GroupVersionKind {
	return kubeschema.GroupVersionKind{Group: m.Group, Version: m.Version, Kind: m.Kind}
}

// Equal detects that two identities point the same resource.
//
// Group, Version and Kind are case-insensitive.
func (m ObjectMeta) Equal(o ObjectMeta) bool {
	return m.Name == o.Name &&
		m.Namespace == o.Namespace &&
		m.Cluster == o.Cluster &&
		strings.EqualFold(m.Group, o.Group) &&
		strings.EqualFold(m.Version, o.Version) &&
		strings.EqualFold(m.Kind, o.Kind) &&
		m.UserID == o.UserID
}

func (m ObjectMeta) String() string {
	gv := m.Version
	if m.Group != "" {
		gv = m.Group + "/" + m.Version
	}
	return fmt.Sprintf("%s %s %s/%s (cluster %s)", gv, m.Kind, m.Namespace, m.Name, m.Cluster)
}

// Validate checks that required identity fields are set.
func (m ObjectMeta) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("object meta: name is required")
	}
	if m.Cluster == "" {
		return fmt.Errorf("object meta: cluster is required")
	}
	if m.Kind == "" || m.Version == "" {
		return fmt.Errorf("object meta: kind and version are required")
	}
	return nil
}

// Object is a mirrored Kubernetes resource: identity + manifest.
type Object struct {
	ObjectMeta

	// Manifest is the resource body, as observed.
	Manifest Manifest
}

// Equal detects that two objects have same identity and same labels.
//
// Manifests are compared shallowly by labels only; use reflect.DeepEqual
// on Manifest when full comparison is needed.
func (o Object) Equal(other Object) bool {
	return o.ObjectMeta.Equal(other.ObjectMeta) &&
		cmp.MapEq(o.Manifest.Labels(), other.Manifest.Labels())
}

// ObjectFilter selects a subset of mirrored objects.
//
// Zero-value fields do not filter. All non-zero fields are AND conditions.
type ObjectFilter struct {
	// Kind of objects to select. Case-insensitive.
	Kind string

	// Group of objects to select. Case-insensitive.
	// Empty does not filter (live listing resolves it as the core group).
	Group string

	// Namespace of objects to select.
	Namespace string

	// Cluster of objects to select.
	Cluster ClusterID

	// Version of objects to select. Case-insensitive.
	Version string

	// UserID owning objects to select.
	UserID string

	// LabelSelector selects objects whose labels contain
	// every key/value pair listed here (subset match).
	LabelSelector map[string]string
}

// Matches tests an object against the filter.
func (f ObjectFilter) Matches(o Object) bool {
	if f.Kind != "" && !strings.EqualFold(f.Kind, o.Kind) {
		return false
	}
	if f.Group != "" && !strings.EqualFold(f.Group, o.Group) {
		return false
	}
	if f.Namespace != "" && f.Namespace != o.Namespace {
		return false
	}
	if f.Cluster != "" && f.Cluster != o.Cluster {
		return false
	}
	if f.Version != "" && !strings.EqualFold(f.Version, o.Version) {
		return false
	}
	if f.UserID != "" && f.UserID != o.UserID {
		return false
	}
	if len(f.LabelSelector) != 0 && !cmp.MapLeq(f.LabelSelector, o.Manifest.Labels()) {
		return false
	}
	return true
}
