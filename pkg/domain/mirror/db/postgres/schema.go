package postgres

import (
	"context"

	kpool "github.com/mikage-io/kagami/pkg/conn/db/postgres/pool"
)

// DDL of the mirror, applied statement by statement
// (pgx v4 sends one statement per Exec).
//
// The unique expression index over the identity tuple is the sole
// concurrency-correctness mechanism of the mirror: an upsert race resolves
// via insert-conflict-then-update, never via application-level locking.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS "k8s_objects" (
		"id" BIGSERIAL PRIMARY KEY,
		"name" VARCHAR NOT NULL,
		"namespace" VARCHAR NOT NULL DEFAULT '',
		"cluster" VARCHAR NOT NULL,
		"group" VARCHAR NOT NULL DEFAULT '',
		"version" VARCHAR NOT NULL,
		"kind" VARCHAR NOT NULL,
		"user_id" VARCHAR NOT NULL DEFAULT '',
		"manifest" JSONB NOT NULL,
		"deleted" BOOLEAN NOT NULL DEFAULT FALSE,
		"creation_date" TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		"updated_at" TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS "k8s_objects_identity" ON "k8s_objects" (
		"cluster", lower("kind"), lower("group"), lower("version"),
		"namespace", "name", "user_id"
	)`,
	`CREATE INDEX IF NOT EXISTS "k8s_objects_name" ON "k8s_objects" ("name")`,
	`CREATE INDEX IF NOT EXISTS "k8s_objects_namespace" ON "k8s_objects" ("namespace")`,
	`CREATE INDEX IF NOT EXISTS "k8s_objects_cluster" ON "k8s_objects" ("cluster")`,
	`CREATE INDEX IF NOT EXISTS "k8s_objects_kind" ON "k8s_objects" (lower("kind"))`,
	`CREATE INDEX IF NOT EXISTS "k8s_objects_version" ON "k8s_objects" (lower("version"))`,
	`CREATE INDEX IF NOT EXISTS "k8s_objects_user_id" ON "k8s_objects" ("user_id")`,
	`CREATE INDEX IF NOT EXISTS "k8s_objects_deleted" ON "k8s_objects" ("deleted")`,
}

// Ensure applies the mirror schema. Idempotent.
func Ensure(ctx context.Context, pool kpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	for _, stmt := range schema {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
