// Package pool extracts interfaces from pgx's pool, connection and
// transaction types, so that database code can be tested against fakes
// and so that ownership of the pool is explicit.
//
// The pool is constructed once (see New), passed into components that
// need it, and disposed with Close at process shutdown. There is no
// package-level singleton.
package pool

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// something begins SQL Transaction.
//
// Extracted from "pgxpool.Pool", "pgxpool.Conn" and "pgx.Tx".
type Begin interface {
	Begin(ctx context.Context) (Tx, error)
}

// something sending queries with SQL.
//
// Extracted from "pgxpool.Conn" and "pgx.Tx".
// When you need more methods found in pgx, add.
type Queryer interface {
	// send SQL command which does not have result rows.
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)

	// send SQL command which has result rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)

	// send SQL command which has just a single result row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// interface likes `pgx.Tx`.
//
// Note: `pgx.Tx` does NOT implement `Tx`; golang lacks covariance in
// typing, so `Tx` cannot be a generalization of `pgx.Tx` directly.
// Get a `Tx` by calling `Begin()` on `Pool` or `Conn` in this package.
type Tx interface {
	Queryer
	Begin

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type pgxTx struct {
	base pgx.Tx
}

var _ Tx = &pgxTx{}

func (tx *pgxTx) Begin(ctx context.Context) (Tx, error) {
	inner, err := tx.base.Begin(ctx)
	if inner == nil {
		return nil, err
	}
	return &pgxTx{inner}, err
}

func (tx *pgxTx) Commit(ctx context.Context) error {
	return tx.base.Commit(ctx)
}

func (tx *pgxTx) Rollback(ctx context.Context) error {
	return tx.base.Rollback(ctx)
}

func (tx *pgxTx) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return tx.base.Exec(ctx, sql, arguments...)
}

func (tx *pgxTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return tx.base.Query(ctx, sql, args...)
}

func (tx *pgxTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return tx.base.QueryRow(ctx, sql, args...)
}

// interface likes `*pgxpool.Conn` (subset).
type Conn interface {
	Begin
	Queryer

	Release()
	Ping(ctx context.Context) error
}

type pgxPoolConn struct {
	base *pgxpool.Conn
}

var _ Conn = &pgxPoolConn{}

func (c *pgxPoolConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.base.Begin(ctx)
	if tx == nil {
		return nil, err
	}
	return &pgxTx{tx}, err
}

func (c *pgxPoolConn) Release() {
	c.base.Release()
}

func (c *pgxPoolConn) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return c.base.Exec(ctx, sql, arguments...)
}

func (c *pgxPoolConn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return c.base.Query(ctx, sql, args...)
}

func (c *pgxPoolConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return c.base.QueryRow(ctx, sql, args...)
}

func (c *pgxPoolConn) Ping(ctx context.Context) error {
	return c.base.Ping(ctx)
}

// interface likes `*pgxpool.Pool` (subset).
type Pool interface {
	Begin
	Queryer

	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error

	// Close disposes the pool. Blocking until acquired connections return.
	Close()
}

type pgxPool struct {
	base *pgxpool.Pool
}

var _ Pool = &pgxPool{}

func (p *pgxPool) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.base.Begin(ctx)
	if tx == nil {
		return nil, err
	}
	return &pgxTx{tx}, err
}

func (p *pgxPool) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return p.base.Exec(ctx, sql, arguments...)
}

func (p *pgxPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return p.base.Query(ctx, sql, args...)
}

func (p *pgxPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return p.base.QueryRow(ctx, sql, args...)
}

func (p *pgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.base.Acquire(ctx)
	if conn == nil {
		return nil, err
	}
	return &pgxPoolConn{conn}, err
}

func (p *pgxPool) Ping(ctx context.Context) error {
	return p.base.Ping(ctx)
}

func (p *pgxPool) Close() {
	p.base.Close()
}

// Wrap a *pgxpool.Pool as Pool.
func Wrap(p *pgxpool.Pool) Pool {
	return &pgxPool{p}
}

// New connects to PostgreSQL and wraps the connection pool.
//
// connString is a pgx connection string (URL or DSN form).
// Callers own the returned Pool and should defer Close.
func New(ctx context.Context, connString string) (Pool, error) {
	conf, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	base, err := pgxpool.ConnectConfig(ctx, conf)
	if err != nil {
		return nil, err
	}
	return Wrap(base), nil
}
