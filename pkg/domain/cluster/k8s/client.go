// Package k8s implements cluster.Client over the Kubernetes API,
// using client-go's dynamic client so that any group/version/kind
// can be mirrored without typed bindings.
package k8s

import (
	"context"
	"encoding/json"
	"fmt"

	kubeerr "k8s.io/apimachinery/pkg/api/errors"
	kubemeta "k8s.io/apimachinery/pkg/api/meta"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	kubelabels "k8s.io/apimachinery/pkg/labels"
	kubeschema "k8s.io/apimachinery/pkg/runtime/schema"
	kubetypes "k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"

	"github.com/mikage-io/kagami/pkg/domain"
	"github.com/mikage-io/kagami/pkg/domain/cluster"
	kerr "github.com/mikage-io/kagami/pkg/domain/errors"
)

// Connection holds the handle to one cluster's API.
//
// Built once at startup per configured cluster, immutable afterwards.
type Connection struct {
	// ID of the cluster. Opaque, unique among configured clusters.
	ID domain.ClusterID

	// Namespace used when a request does not name one.
	Namespace string

	// Dynamic is the API client.
	Dynamic dynamic.Interface

	// Mapper resolves kinds to resources and scopes.
	Mapper kubemeta.RESTMapper
}

type liveClient struct {
	conn Connection
}

var _ cluster.Client = &liveClient{}

// NewClient builds the live (uncached) client for one cluster.
func NewClient(conn Connection) cluster.Client {
	return &liveClient{conn: conn}
}

func (c *liveClient) Cluster() domain.ClusterID {
	return c.conn.ID
}

// resource resolves the dynamic resource handle for a GVK,
// namespaced to ns when the kind is namespaced.
func (c *liveClient) resource(gvk kubeschema.GroupVersionKind, ns string) (dynamic.ResourceInterface, error) {
	mapping, err := c.conn.Mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, kerr.NewInvalidCausedBy(
			fmt.Sprintf("unknown kind %s on cluster %s", gvk, c.conn.ID), err,
		)
	}

	ri := c.conn.Dynamic.Resource(mapping.Resource)
	if mapping.Scope.Name() != kubemeta.RESTScopeNameNamespace {
		return ri, nil
	}
	if ns == "" {
		ns = c.conn.Namespace
	}
	return ri.Namespace(ns), nil
}

// asObject converts a fetched unstructured resource into a domain Object.
//
// userID is carried through from the request: ownership is mirror-level
// bookkeeping which the cluster does not know about.
func (c *liveClient) asObject(u *unstructured.Unstructured, userID string) *domain.Object {
	gvk := u.GroupVersionKind()
	return &domain.Object{
		ObjectMeta: domain.ObjectMeta{
			Name:      u.GetName(),
			Namespace: u.GetNamespace(),
			Cluster:   c.conn.ID,
			Group:     gvk.Group,
			Version:   gvk.Version,
			Kind:      gvk.Kind,
			UserID:    userID,
		},
		Manifest: domain.Manifest(u.Object),
	}
}

func (c *liveClient) Create(ctx context.Context, obj domain.Object, refresh bool) (*domain.Object, error) {
	if err := obj.Validate(); err != nil {
		return nil, kerr.NewInvalidCausedBy("create rejected", err)
	}

	ri, err := c.resource(obj.GVK(), obj.Namespace)
	if err != nil {
		return nil, err
	}

	u := &unstructured.Unstructured{Object: map[string]any(obj.Manifest)}
	u.SetGroupVersionKind(obj.GVK())
	u.SetName(obj.Name)
	if obj.Namespace != "" {
		u.SetNamespace(obj.Namespace)
	}

	created, err := ri.Create(ctx, u, kubeapimeta.CreateOptions{})
	if err != nil {
		if kubeerr.IsAlreadyExists(err) {
			return nil, kerr.NewConflictCausedBy(
				fmt.Sprintf("exists already: %s", obj.ObjectMeta), err,
			)
		}
		return nil, err
	}

	if refresh {
		fetched, err := ri.Get(ctx, obj.Name, kubeapimeta.GetOptions{})
		if err != nil {
			return nil, err
		}
		created = fetched
	}
	return c.asObject(created, obj.UserID), nil
}

func (c *liveClient) Get(ctx context.Context, meta domain.ObjectMeta) (*domain.Object, error) {
	ri, err := c.resource(meta.GVK(), meta.Namespace)
	if err != nil {
		return nil, err
	}

	u, err := ri.Get(ctx, meta.Name, kubeapimeta.GetOptions{})
	if kubeerr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.asObject(u, meta.UserID), nil
}

func (c *liveClient) Patch(ctx context.Context, meta domain.ObjectMeta, mergePatch domain.Manifest) error {
	ri, err := c.resource(meta.GVK(), meta.Namespace)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(mergePatch)
	if err != nil {
		return kerr.NewInvalidCausedBy("patch is not encodable", err)
	}

	_, err = ri.Patch(ctx, meta.Name, kubetypes.MergePatchType, payload, kubeapimeta.PatchOptions{})
	if kubeerr.IsNotFound(err) {
		return kerr.NewMissingCausedBy(fmt.Sprintf("patch target: %s", meta), err)
	}
	return err
}

func (c *liveClient) Delete(ctx context.Context, meta domain.ObjectMeta) error {
	ri, err := c.resource(meta.GVK(), meta.Namespace)
	if err != nil {
		return err
	}

	err = ri.Delete(ctx, meta.Name, kubeapimeta.DeleteOptions{})
	if kubeerr.IsNotFound(err) {
		return nil // idempotent
	}
	return err
}

// List calls the cluster's list endpoint for the kind of the filter.
//
// filter.Kind and filter.Version are required here: the live API has no
// "every kind" listing. The label selector is evaluated server-side;
// remaining filter fields are applied to the result.
func (c *liveClient) List(ctx context.Context, filter domain.ObjectFilter) (domain.Cursor, error) {
	if filter.Kind == "" || filter.Version == "" {
		return nil, kerr.NewInvalid("live list needs kind and version in the filter")
	}
	if filter.Cluster != "" && filter.Cluster != c.conn.ID {
		return domain.SliceCursor(nil), nil
	}

	gvk := kubeschema.GroupVersionKind{
		Group: filter.Group, Version: filter.Version, Kind: filter.Kind,
	}
	mapping, err := c.conn.Mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, kerr.NewInvalidCausedBy(
			fmt.Sprintf("unknown kind %s on cluster %s", gvk, c.conn.ID), err,
		)
	}
	var ri dynamic.ResourceInterface = c.conn.Dynamic.Resource(mapping.Resource)
	if mapping.Scope.Name() == kubemeta.RESTScopeNameNamespace && filter.Namespace != "" {
		// an empty namespace filter lists across all namespaces
		ri = c.conn.Dynamic.Resource(mapping.Resource).Namespace(filter.Namespace)
	}

	opts := kubeapimeta.ListOptions{}
	if len(filter.LabelSelector) != 0 {
		opts.LabelSelector = kubelabels.Set(filter.LabelSelector).String()
	}

	resp, err := ri.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	objs := []domain.Object{}
	for i := range resp.Items {
		obj := c.asObject(&resp.Items[i], filter.UserID)
		if filter.Matches(*obj) {
			objs = append(objs, *obj)
		}
	}
	return domain.SliceCursor(objs), nil
}
