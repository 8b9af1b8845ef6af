package pgexecutor

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
)

type fakeDB struct {
	statements []string
	tag        string
	err        error
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.statements = append(f.statements, sql)
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag(f.tag), nil
}

func model(sql string) *node.Node {
	return &node.Node{ID: nodeid.New("shop", "orders"), Kind: node.KindModel, SQL: sql}
}

func TestExecute_RunsBodyVerbatim(t *testing.T) {
	db := &fakeDB{tag: "INSERT 0 3"}
	out, err := New(db).Execute(context.Background(), model("\n insert into t select * from s;\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"insert into t select * from s;"}, db.statements)
	assert.False(t, out.Skipped)
	assert.Equal(t, "INSERT 0 3", out.Message)
}

func TestExecute_Skips(t *testing.T) {
	db := &fakeDB{}
	e := New(db)

	out, err := e.Execute(context.Background(), &node.Node{Kind: node.KindSource, SQL: "select 1"})
	require.NoError(t, err)
	assert.True(t, out.Skipped)

	out, err = e.Execute(context.Background(), model("   "))
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, "no sql body", out.Message)

	assert.Empty(t, db.statements)
}

func TestExecute_Errors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: `relation "s" does not exist`}
	_, err := New(&fakeDB{err: pgErr}).Execute(context.Background(), model("select * from s"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pgErr)
	assert.Contains(t, err.Error(), "shop.orders")
	assert.Contains(t, err.Error(), "SQLSTATE 42P01")

	plain := errors.New("conn closed")
	_, err = New(&fakeDB{err: plain}).Execute(context.Background(), model("select 1"))
	assert.ErrorIs(t, err, plain)
}
