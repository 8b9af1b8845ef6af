// Package pgexecutor runs node bodies against PostgreSQL through a pgx
// connection pool. Bodies are executed verbatim.
package pgexecutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/node"
)

// DB is the subset of *pgxpool.Pool the executor needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Executor executes node SQL on a database.
type Executor struct {
	db DB
}

// New creates an Executor backed by db.
func New(db DB) *Executor {
	return &Executor{db: db}
}

var _ executor.Executor = (*Executor)(nil)

// Connect opens a pool for dsn and verifies it with a ping. The returned
// function closes the pool.
func Connect(ctx context.Context, dsn string) (*Executor, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return New(pool), pool.Close, nil
}

// Execute runs the node's SQL. Declarations and nodes without a body are
// skipped.
func (e *Executor) Execute(ctx context.Context, n *node.Node) (executor.Outcome, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.ID.String())
	if !n.Runnable() {
		return executor.Skip(fmt.Sprintf("%s is a declaration", n.Kind)), nil
	}
	body := strings.TrimSpace(n.SQL)
	if body == "" {
		return executor.Skip("no sql body"), nil
	}

	logger.Debug("Executing statement.")
	tag, err := e.db.Exec(ctx, body)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return executor.Outcome{}, fmt.Errorf("%s: %s (SQLSTATE %s): %w", n.ID, pgErr.Message, pgErr.Code, err)
		}
		return executor.Outcome{}, fmt.Errorf("%s: %w", n.ID, err)
	}
	logger.Debug("Statement executed.", "tag", tag.String(), "rows", tag.RowsAffected())
	return executor.Success(tag.String()), nil
}
