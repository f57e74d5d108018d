// Package mirror declares the durable cache of Kubernetes object state.
//
// The mirror is a read-through/write-through accelerator, not a source of
// truth: the clusters themselves stay authoritative. It exists because
// fanning out live list calls over many clusters is expensive, and because
// some queries (cross-cluster, label containment) need a relational store.
package mirror

import (
	"context"
	"time"

	"github.com/mikage-io/kagami/pkg/domain"
)

type Interface interface {
	// Upsert inserts the object, or replaces the manifest of the row with
	// the same identity tuple. Resurrects tombstoned rows.
	//
	// When the mirror enforces per-user scoping and obj.UserID is empty,
	// it fails with domain/errors.ErrInvalid.
	Upsert(ctx context.Context, obj domain.Object) error

	// Get looks up one object by its identity tuple
	// (case-insensitive on group/version/kind).
	//
	// A miss is (nil, nil), not an error. Tombstoned rows are misses.
	Get(ctx context.Context, meta domain.ObjectMeta) (*domain.Object, error)

	// Delete tombstones the row with the given identity.
	// No-op when absent.
	Delete(ctx context.Context, meta domain.ObjectMeta) error

	// List streams objects matching every non-zero field of the filter.
	//
	// The cursor is lazy and non-restartable. Close it.
	List(ctx context.Context, filter domain.ObjectFilter) (domain.Cursor, error)

	// PurgeDeleted hard-deletes tombstones older than olderThan.
	// Returns the number of purged rows.
	PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error)
}
