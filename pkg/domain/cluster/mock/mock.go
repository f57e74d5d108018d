package mock

import (
	"context"
	"errors"

	"github.com/mikage-io/kagami/pkg/domain"
	"github.com/mikage-io/kagami/pkg/domain/cluster"
	imock "github.com/mikage-io/kagami/pkg/domain/internal/mock"
)

// Client is a mock of cluster.Client.
//
// Set Impl fields in tests; calling a method without Impl panics.
type Client struct {
	ID domain.ClusterID

	Impl struct {
		Create func(context.Context, domain.Object, bool) (*domain.Object, error)
		Get    func(context.Context, domain.ObjectMeta) (*domain.Object, error)
		Patch  func(context.Context, domain.ObjectMeta, domain.Manifest) error
		Delete func(context.Context, domain.ObjectMeta) error
		List   func(context.Context, domain.ObjectFilter) (domain.Cursor, error)
	}
	Calls struct {
		Create imock.CallLog[struct {
			Obj     domain.Object
			Refresh bool
		}]
		Get    imock.CallLog[domain.ObjectMeta]
		Patch  imock.CallLog[struct {
			Meta  domain.ObjectMeta
			Patch domain.Manifest
		}]
		Delete imock.CallLog[domain.ObjectMeta]
		List   imock.CallLog[domain.ObjectFilter]
	}
}

func New(id domain.ClusterID) *Client {
	return &Client{ID: id}
}

var _ cluster.Client = &Client{}

func (c *Client) Cluster() domain.ClusterID {
	return c.ID
}

func (c *Client) Create(ctx context.Context, obj domain.Object, refresh bool) (*domain.Object, error) {
	c.Calls.Create = append(c.Calls.Create, struct {
		Obj     domain.Object
		Refresh bool
	}{Obj: obj, Refresh: refresh})
	if c.Impl.Create != nil {
		return c.Impl.Create(ctx, obj, refresh)
	}
	panic(errors.New("it should not be called"))
}

func (c *Client) Get(ctx context.Context, meta domain.ObjectMeta) (*domain.Object, error) {
	c.Calls.Get = append(c.Calls.Get, meta)
	if c.Impl.Get != nil {
		return c.Impl.Get(ctx, meta)
	}
	panic(errors.New("it should not be called"))
}

func (c *Client) Patch(ctx context.Context, meta domain.ObjectMeta, mergePatch domain.Manifest) error {
	c.Calls.Patch = append(c.Calls.Patch, struct {
		Meta  domain.ObjectMeta
		Patch domain.Manifest
	}{Meta: meta, Patch: mergePatch})
	if c.Impl.Patch != nil {
		return c.Impl.Patch(ctx, meta, mergePatch)
	}
	panic(errors.New("it should not be called"))
}

func (c *Client) Delete(ctx context.Context, meta domain.ObjectMeta) error {
	c.Calls.Delete = append(c.Calls.Delete, meta)
	if c.Impl.Delete != nil {
		return c.Impl.Delete(ctx, meta)
	}
	panic(errors.New("it should not be called"))
}

func (c *Client) List(ctx context.Context, filter domain.ObjectFilter) (domain.Cursor, error) {
	c.Calls.List = append(c.Calls.List, filter)
	if c.Impl.List != nil {
		return c.Impl.List(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}
