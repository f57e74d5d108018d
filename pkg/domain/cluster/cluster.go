// Package cluster defines uniform CRUD over Kubernetes clusters,
// and the pool routing operations to the right cluster.
package cluster

import (
	"context"
	"fmt"

	"github.com/mikage-io/kagami/pkg/domain"
	kerr "github.com/mikage-io/kagami/pkg/domain/errors"
)

// Client performs CRUD against one cluster.
//
// Two implementations exist: the live one calling the Kubernetes API
// directly, and the cached one serving reads from the mirror and writing
// through to both. Callers depend on this interface only.
//
// Operations do not retry; transient errors propagate to the caller
// (usually a supervised task, which owns the retry policy).
type Client interface {
	// Cluster is the id of the cluster this client talks to.
	Cluster() domain.ClusterID

	// Create submits the object to the cluster.
	//
	// When refresh is true, the created object is fetched again so that
	// server-assigned fields are visible (and, for the cached client,
	// written through). refresh=false trades that for one fewer round trip.
	//
	// Returns the created object as known after the call.
	Create(ctx context.Context, obj domain.Object, refresh bool) (*domain.Object, error)

	// Get fetches one object. A miss is (nil, nil), not an error.
	Get(ctx context.Context, meta domain.ObjectMeta) (*domain.Object, error)

	// Patch applies a JSON merge patch to the object.
	Patch(ctx context.Context, meta domain.ObjectMeta, mergePatch domain.Manifest) error

	// Delete removes the object. Idempotent: absent objects are no error.
	Delete(ctx context.Context, meta domain.ObjectMeta) error

	// List streams objects matching the filter.
	List(ctx context.Context, filter domain.ObjectFilter) (domain.Cursor, error)
}

// Pool routes operations to the client of the cluster named by the
// meta/filter, and fans list out over every cluster when none is named.
//
// Immutable after New; registration order is kept for fan-out.
type Pool struct {
	order   []domain.ClusterID
	clients map[domain.ClusterID]Client
}

func NewPool(clients ...Client) *Pool {
	p := &Pool{clients: map[domain.ClusterID]Client{}}
	for _, c := range clients {
		id := c.Cluster()
		if _, ok := p.clients[id]; ok {
			continue // first registration wins
		}
		p.order = append(p.order, id)
		p.clients[id] = c
	}
	return p
}

// ClusterIDs lists configured clusters in registration order.
func (p *Pool) ClusterIDs() []domain.ClusterID {
	ids := make([]domain.ClusterID, len(p.order))
	copy(ids, p.order)
	return ids
}

// ClusterByID resolves the client for a cluster.
func (p *Pool) ClusterByID(id domain.ClusterID) (Client, error) {
	c, ok := p.clients[id]
	if !ok {
		return nil, kerr.NewMissing(fmt.Sprintf("cluster is not configured: %s", id))
	}
	return c, nil
}

func (p *Pool) Create(ctx context.Context, obj domain.Object, refresh bool) (*domain.Object, error) {
	c, err := p.ClusterByID(obj.Cluster)
	if err != nil {
		return nil, err
	}
	return c.Create(ctx, obj, refresh)
}

func (p *Pool) Get(ctx context.Context, meta domain.ObjectMeta) (*domain.Object, error) {
	c, err := p.ClusterByID(meta.Cluster)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, meta)
}

func (p *Pool) Patch(ctx context.Context, meta domain.ObjectMeta, mergePatch domain.Manifest) error {
	c, err := p.ClusterByID(meta.Cluster)
	if err != nil {
		return err
	}
	return c.Patch(ctx, meta, mergePatch)
}

func (p *Pool) Delete(ctx context.Context, meta domain.ObjectMeta) error {
	c, err := p.ClusterByID(meta.Cluster)
	if err != nil {
		return err
	}
	return c.Delete(ctx, meta)
}

// List streams objects from one cluster when filter.Cluster is set,
// otherwise from every cluster, concatenated in registration order.
//
// Ordering is guaranteed within a cluster only. A failure in any cluster
// stops the whole iteration: callers cannot distinguish "empty cluster"
// from "unreachable cluster" otherwise.
func (p *Pool) List(ctx context.Context, filter domain.ObjectFilter) (domain.Cursor, error) {
	if filter.Cluster != "" {
		c, err := p.ClusterByID(filter.Cluster)
		if err != nil {
			return nil, err
		}
		return c.List(ctx, filter)
	}

	sources := make([]func() (domain.Cursor, error), 0, len(p.order))
	for _, id := range p.order {
		c := p.clients[id]
		f := filter
		f.Cluster = id
		sources = append(sources, func() (domain.Cursor, error) {
			return c.List(ctx, f)
		})
	}
	return domain.ConcatCursor(sources...), nil
}
