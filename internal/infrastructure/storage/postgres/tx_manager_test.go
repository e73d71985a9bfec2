package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTx implements the pgx.Tx methods the manager calls.
type recordingTx struct {
	pgx.Tx
	execs      []string
	committed  bool
	rolledBack bool
}

func (t *recordingTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (t *recordingTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *recordingTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type recordingDB struct {
	begins []pgx.TxOptions
	txs    []*recordingTx
}

func (d *recordingDB) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	d.begins = append(d.begins, opts)
	tx := &recordingTx{}
	d.txs = append(d.txs, tx)
	return tx, nil
}

func (d *recordingDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d *recordingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (d *recordingDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestTxManager_ReadOnlySnapshot(t *testing.T) {
	db := &recordingDB{}
	m := newTxManager(db, 5*time.Second)

	var inner Querier
	err := m.ReadOnly(context.Background(), func(ctx context.Context) error {
		inner = m.GetQuerier(ctx)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, db.begins, 1)
	assert.Equal(t, pgx.RepeatableRead, db.begins[0].IsoLevel)
	assert.Equal(t, pgx.ReadOnly, db.begins[0].AccessMode)

	tx := db.txs[0]
	assert.Equal(t, []string{"SET LOCAL statement_timeout = '5000ms'"}, tx.execs)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	assert.Same(t, tx, inner)
	assert.Same(t, db, m.GetQuerier(context.Background()))
}

func TestTxManager_RollbackOnError(t *testing.T) {
	db := &recordingDB{}
	m := newTxManager(db, 0)
	boom := errors.New("boom")

	err := m.ReadOnly(context.Background(), func(context.Context) error { return boom })

	assert.Same(t, boom, err)
	require.Len(t, db.txs, 1)
	assert.True(t, db.txs[0].rolledBack)
	assert.False(t, db.txs[0].committed)
	assert.Empty(t, db.txs[0].execs, "no timeout configured")
}

func TestTxManager_NestedReusesOuter(t *testing.T) {
	db := &recordingDB{}
	m := newTxManager(db, time.Second)

	err := m.ReadOnly(context.Background(), func(ctx context.Context) error {
		outer := m.GetTx(ctx)
		return m.ReadOnly(ctx, func(ctx context.Context) error {
			assert.Same(t, outer, m.GetTx(ctx))
			return nil
		})
	})

	require.NoError(t, err)
	assert.Len(t, db.begins, 1)
	assert.Len(t, db.txs[0].execs, 1, "timeout set once")
}

func TestTxManager_WithOptions(t *testing.T) {
	db := &recordingDB{}
	m := newTxManager(db, 0)

	err := m.RunInTransactionWithOptions(context.Background(), TxOptions{
		IsolationLevel: pgx.Serializable,
		AccessMode:     pgx.ReadOnly,
	}, func(context.Context) error { return nil })

	require.NoError(t, err)
	require.Len(t, db.begins, 1)
	assert.Equal(t, pgx.Serializable, db.begins[0].IsoLevel)
}
