// Package resync implements the anti-entropy task of the mirror:
// it lists configured kinds live from every cluster, writes what it sees
// into the mirror, and tombstones mirror rows that are gone upstream.
package resync

import (
	"context"
	"fmt"
	"log"
	"time"

	configs "github.com/mikage-io/kagami/pkg/configs/backend"
	"github.com/mikage-io/kagami/pkg/domain"
	"github.com/mikage-io/kagami/pkg/domain/cluster"
	kerr "github.com/mikage-io/kagami/pkg/domain/errors"
	"github.com/mikage-io/kagami/pkg/domain/mirror"
	"github.com/mikage-io/kagami/pkg/taskman"
)

// UserIDLabel carries mirror-level ownership on live objects.
//
// The clusters do not know about kagami's user scoping; objects created
// through the cached clients are labelled by the business layer, and the
// resync task reads the label back when mirroring.
const UserIDLabel = "kagami.mikage.io/user-id"

// Task builds the factory of the resync task.
//
// args:
//
// - logger
//
// - live: pool of LIVE (uncached) clients. A cached pool would read the
// mirror back to itself and sync nothing.
//
// - m: the mirror to reconcile.
//
// - conf: which kinds, how often.
func Task(
	logger *log.Logger,
	live *cluster.Pool,
	m mirror.Interface,
	conf *configs.ResyncConfig,
) taskman.Factory {
	return func() taskman.Task {
		return func(ctx context.Context) error {
			for {
				if err := pass(ctx, logger, live, m, conf.Kinds()); err != nil {
					return err
				}

				// idle wait doubles as the cancellation point
				timer := time.NewTimer(conf.Interval())
				select {
				case <-ctx.Done():
					if !timer.Stop() {
						<-timer.C
					}
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
	}
}

// pass reconciles every (cluster, kind) pair once.
//
// A failure in any cluster aborts the pass: skipping an unreachable
// cluster would be indistinguishable from it being empty, and the
// supervisor retries the whole pass anyway.
func pass(
	ctx context.Context,
	logger *log.Logger,
	live *cluster.Pool,
	m mirror.Interface,
	kinds []configs.ResyncKind,
) error {
	for _, id := range live.ClusterIDs() {
		cl, err := live.ClusterByID(id)
		if err != nil {
			return err
		}
		for _, kind := range kinds {
			if err := syncKind(ctx, logger, cl, m, kind); err != nil {
				return fmt.Errorf("resync %s %s: %w", id, kind.Kind, err)
			}
		}
	}
	return nil
}

func syncKind(
	ctx context.Context,
	logger *log.Logger,
	cl cluster.Client,
	m mirror.Interface,
	kind configs.ResyncKind,
) error {
	filter := domain.ObjectFilter{
		Kind: kind.Kind, Group: kind.Group, Version: kind.Version,
		Cluster: cl.Cluster(),
	}

	cur, err := cl.List(ctx, filter)
	if err != nil {
		return err
	}
	lives, err := domain.CollectCursor(cur)
	if err != nil {
		return err
	}

	seen := map[string]struct{}{}
	for _, obj := range lives {
		obj.UserID = obj.Manifest.Labels()[UserIDLabel]
		if err := m.Upsert(ctx, obj); err != nil {
			if kerr.AsInvalidError(err) {
				// unowned object under user scoping: not mirrorable
				logger.Printf("skipped %s: %s", obj.ObjectMeta, err)
				continue
			}
			return err
		}
		seen[identity(obj.ObjectMeta)] = struct{}{}
	}

	// tombstone rows whose upstream object is gone
	mirrored, err := m.List(ctx, filter)
	if err != nil {
		return err
	}
	cached, err := domain.CollectCursor(mirrored)
	if err != nil {
		return err
	}
	for _, obj := range cached {
		if _, ok := seen[identity(obj.ObjectMeta)]; ok {
			continue
		}
		if err := m.Delete(ctx, obj.ObjectMeta); err != nil {
			return err
		}
		logger.Printf("tombstoned %s: gone upstream", obj.ObjectMeta)
	}
	return nil
}

// identity keys an upstream object; UserID is left out on purpose,
// ownership labels are not part of upstream identity.
func identity(meta domain.ObjectMeta) string {
	return meta.String()
}
