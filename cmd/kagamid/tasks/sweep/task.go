// Package sweep implements the tombstone sweep task:
// it hard-removes mirror rows that were tombstoned long enough ago.
package sweep

import (
	"context"
	"log"
	"time"

	configs "github.com/mikage-io/kagami/pkg/configs/backend"
	"github.com/mikage-io/kagami/pkg/domain/mirror"
	"github.com/mikage-io/kagami/pkg/taskman"
)

// Task builds the factory of the sweep task.
//
// Tombstones stay visible to operators (and to anti-entropy bookkeeping)
// for the configured retention; after that they are just dead weight in
// the table and get purged here.
func Task(
	logger *log.Logger,
	m mirror.Interface,
	conf *configs.SweepConfig,
) taskman.Factory {
	return func() taskman.Task {
		return func(ctx context.Context) error {
			for {
				purged, err := m.PurgeDeleted(ctx, conf.Retention())
				if err != nil {
					return err
				}
				if 0 < purged {
					logger.Printf("purged %d tombstoned objects", purged)
				}

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
