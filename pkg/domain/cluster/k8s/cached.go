package k8s

import (
	"context"

	"github.com/mikage-io/kagami/pkg/domain"
	"github.com/mikage-io/kagami/pkg/domain/cluster"
	"github.com/mikage-io/kagami/pkg/domain/mirror"
)

// cachedClient accelerates one cluster's client with the mirror:
// reads come from the mirror when possible (read-through on miss),
// writes go to both the cluster and the mirror (write-through).
//
// The cluster stays authoritative; the mirror is best-effort state.
type cachedClient struct {
	base   cluster.Client
	mirror mirror.Interface
}

var _ cluster.Client = &cachedClient{}

// NewCachedClient wraps a live client with the mirror.
func NewCachedClient(base cluster.Client, m mirror.Interface) cluster.Client {
	return &cachedClient{base: base, mirror: m}
}

func (c *cachedClient) Cluster() domain.ClusterID {
	return c.base.Cluster()
}

func (c *cachedClient) Create(ctx context.Context, obj domain.Object, refresh bool) (*domain.Object, error) {
	created, err := c.base.Create(ctx, obj, refresh)
	if err != nil {
		return nil, err
	}
	if err := c.mirror.Upsert(ctx, *created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *cachedClient) Get(ctx context.Context, meta domain.ObjectMeta) (*domain.Object, error) {
	if hit, err := c.mirror.Get(ctx, meta); err != nil {
		return nil, err
	} else if hit != nil {
		return hit, nil // cache hit: the cluster is not called
	}

	fetched, err := c.base.Get(ctx, meta)
	if err != nil || fetched == nil {
		return nil, err
	}

	// backfill before returning
	if err := c.mirror.Upsert(ctx, *fetched); err != nil {
		return nil, err
	}
	return fetched, nil
}

func (c *cachedClient) Patch(ctx context.Context, meta domain.ObjectMeta, mergePatch domain.Manifest) error {
	if err := c.base.Patch(ctx, meta, mergePatch); err != nil {
		return err
	}

	// update, not invalidate: re-fetch the patched state
	fetched, err := c.base.Get(ctx, meta)
	if err != nil {
		return err
	}
	if fetched == nil {
		// gone between patch and re-fetch
		return c.mirror.Delete(ctx, meta)
	}
	return c.mirror.Upsert(ctx, *fetched)
}

func (c *cachedClient) Delete(ctx context.Context, meta domain.ObjectMeta) error {
	if err := c.base.Delete(ctx, meta); err != nil {
		return err
	}
	return c.mirror.Delete(ctx, meta)
}

func (c *cachedClient) List(ctx context.Context, filter domain.ObjectFilter) (domain.Cursor, error) {
	filter.Cluster = c.base.Cluster() // never leak other clusters' rows
	return c.mirror.List(ctx, filter)
}
