package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	kpool "github.com/mikage-io/kagami/pkg/conn/db/postgres/pool"
	"github.com/mikage-io/kagami/pkg/domain"
	kerr "github.com/mikage-io/kagami/pkg/domain/errors"
	"github.com/mikage-io/kagami/pkg/domain/mirror"
)

type mirrorPG struct { // implements mirror.Interface

	// connection pool for PostgreSQL
	pool kpool.Pool

	// when true, Upsert requires obj.UserID.
	userScoping bool
}

type Option func(*mirrorPG) *mirrorPG

// WithUserScoping makes Upsert reject objects without UserID,
// for deployments where cache rows are isolated per user.
func WithUserScoping() Option {
	return func(m *mirrorPG) *mirrorPG {
		m.userScoping = true
		return m
	}
}

// New builds the PostgreSQL-backed mirror.
//
// args:
//   - pool: connection pool used to query/exec SQL
func New(pool kpool.Pool, option ...Option) mirror.Interface {
	m := &mirrorPG{pool: pool}
	for _, opt := range option {
		m = opt(m)
	}
	return m
}

// identityCond appends WHERE conditions for the identity tuple of meta.
//
// Conditions are appended to conds; bound values to args.
// group/version/kind are compared case-insensitively, matching the
// unique expression index.
func identityCond(meta domain.ObjectMeta, conds []string, args []interface{}) ([]string, []interface{}) {
	add := func(cond string, val interface{}) {
		conds = append(conds, fmt.Sprintf(cond, len(args)+1))
		args = append(args, val)
	}
	add(`"cluster" = $%d`, string(meta.Cluster))
	add(`lower("kind") = lower($%d)`, meta.Kind)
	add(`lower("group") = lower($%d)`, meta.Group)
	add(`lower("version") = lower($%d)`, meta.Version)
	add(`"namespace" = $%d`, meta.Namespace)
	add(`"name" = $%d`, meta.Name)
	add(`"user_id" = $%d`, meta.UserID)
	return conds, args
}

func joinAnd(conds []string) string {
	q := ""
	for i, c := range conds {
		if i != 0 {
			q += " AND "
		}
		q += c
	}
	return q
}

func (m *mirrorPG) Upsert(ctx context.Context, obj domain.Object) error {
	if err := obj.Validate(); err != nil {
		return kerr.NewInvalidCausedBy("upsert rejected", err)
	}
	if m.userScoping && obj.UserID == "" {
		return kerr.NewInvalid(fmt.Sprintf(
			"upsert rejected: user id is required for %s", obj.ObjectMeta,
		))
	}

	manifest, err := json.Marshal(obj.Manifest)
	if err != nil {
		return kerr.NewInvalidCausedBy("upsert rejected: manifest is not encodable", err)
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		INSERT INTO "k8s_objects" (
			"name", "namespace", "cluster", "group", "version", "kind",
			"user_id", "manifest"
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (
			"cluster", lower("kind"), lower("group"), lower("version"),
			"namespace", "name", "user_id"
		)
		DO UPDATE SET
			"manifest" = EXCLUDED."manifest",
			"deleted" = FALSE,
			"updated_at" = now()
		`,
		obj.Name, obj.Namespace, string(obj.Cluster), obj.Group, obj.Version,
		obj.Kind, obj.UserID, manifest,
	)
	if err != nil {
		// a unique violation can still surface here when rows written by an
		// older schema collide under the case-insensitive identity index
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return kerr.NewConflictCausedBy(
				fmt.Sprintf("identity is not unique: %s", obj.ObjectMeta), err,
			)
		}
		return err
	}
	return nil
}

func (m *mirrorPG) Get(ctx context.Context, meta domain.ObjectMeta) (*domain.Object, error) {
	conds, args := identityCond(meta, nil, nil)
	conds = append(conds, `NOT "deleted"`)

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	row := conn.QueryRow(
		ctx,
		`
		SELECT "name", "namespace", "cluster", "group", "version", "kind",
			"user_id", "manifest"
		FROM "k8s_objects"
		WHERE `+joinAnd(conds),
		args...,
	)

	obj, err := scanObject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // miss is not an error
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (m *mirrorPG) Delete(ctx context.Context, meta domain.ObjectMeta) error {
	conds, args := identityCond(meta, nil, nil)

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	// tombstone; hard removal is PurgeDeleted's job.
	// idempotent: no row, no effect.
	_, err = conn.Exec(
		ctx,
		`
		UPDATE "k8s_objects"
		SET "deleted" = TRUE, "updated_at" = now()
		WHERE `+joinAnd(conds),
		args...,
	)
	return err
}

func (m *mirrorPG) List(ctx context.Context, filter domain.ObjectFilter) (domain.Cursor, error) {
	conds := []string{`NOT "deleted"`}
	args := []interface{}{}
	add := func(cond string, val interface{}) {
		conds = append(conds, fmt.Sprintf(cond, len(args)+1))
		args = append(args, val)
	}

	if filter.Kind != "" {
		add(`lower("kind") = lower($%d)`, filter.Kind)
	}
	if filter.Group != "" {
		add(`lower("group") = lower($%d)`, filter.Group)
	}
	if filter.Namespace != "" {
		add(`"namespace" = $%d`, filter.Namespace)
	}
	if filter.Cluster != "" {
		add(`"cluster" = $%d`, string(filter.Cluster))
	}
	if filter.Version != "" {
		add(`lower("version") = lower($%d)`, filter.Version)
	}
	if filter.UserID != "" {
		add(`"user_id" = $%d`, filter.UserID)
	}
	if len(filter.LabelSelector) != 0 {
		selector, err := json.Marshal(filter.LabelSelector)
		if err != nil {
			return nil, kerr.NewInvalidCausedBy("label selector is not encodable", err)
		}
		// containment: every selector pair must be present in stored labels
		add(`"manifest" -> 'metadata' -> 'labels' @> $%d::jsonb`, selector)
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(
		ctx,
		`
		SELECT "name", "namespace", "cluster", "group", "version", "kind",
			"user_id", "manifest"
		FROM "k8s_objects"
		WHERE `+joinAnd(conds)+`
		ORDER BY "id"`,
		args...,
	)
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &rowsCursor{rows: rows, release: conn.Release}, nil
}

func (m *mirrorPG) PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		DELETE FROM "k8s_objects"
		WHERE "deleted" AND "updated_at" < now() - ($1 * interval '1 microsecond')
		`,
		olderThan.Microseconds(),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// scanObject reads one row in the column order of the SELECTs above.
func scanObject(row pgx.Row) (*domain.Object, error) {
	var (
		obj      domain.Object
		cluster  string
		manifest pgtype.JSONB
	)
	if err := row.Scan(
		&obj.Name, &obj.Namespace, &cluster, &obj.Group, &obj.Version,
		&obj.Kind, &obj.UserID, &manifest,
	); err != nil {
		return nil, err
	}
	obj.Cluster = domain.ClusterID(cluster)

	if err := json.Unmarshal(manifest.Bytes, &obj.Manifest); err != nil {
		return nil, err
	}
	return &obj, nil
}

// rowsCursor streams pgx rows as domain.Cursor,
// holding its pooled connection until Close.
type rowsCursor struct {
	rows    pgx.Rows
	release func()
	cur     domain.Object
	err     error
	done    bool
}

var _ domain.Cursor = &rowsCursor{}

func (c *rowsCursor) Next() bool {
	if c.done || c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		c.Close()
		return false
	}
	obj, err := scanObject(c.rows)
	if err != nil {
		c.err = err
		c.Close()
		return false
	}
	c.cur = *obj
	return true
}

func (c *rowsCursor) Object() domain.Object { return c.cur }

func (c *rowsCursor) Err() error { return c.err }

func (c *rowsCursor) Close() {
	if c.done {
		return
	}
	c.done = true
	c.rows.Close()
	c.release()
}
