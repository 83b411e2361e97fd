package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keenzhang/pool/actor_pool/errs"
)

func TestRunTransactionCommit(t *testing.T) {
	m, b := newTestPool(t, 1)

	res, err := m.RunTransaction(func(conn interface{}, args ...interface{}) (interface{}, error) {
		require.IsType(t, &fakeConn{}, conn)
		return args[0].(int) * args[1].(int), nil
	}, []interface{}{6, 7}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	assert.Equal(t, []string{"BEGIN", "COMMIT"}, b.statements())
	waitFor(t, m, func(st Status) bool { return st.Available == 1 && st.Busy == 0 })
}

func TestRunTransactionRollsBackOnError(t *testing.T) {
	m, b := newTestPool(t, 1)

	boom := errors.New("insert failed")
	_, err := m.RunTransaction(func(conn interface{}, args ...interface{}) (interface{}, error) {
		return nil, boom
	}, nil, time.Second)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, b.statements())
	waitFor(t, m, func(st Status) bool { return st.Available == 1 && st.Busy == 0 })
}

func TestRunTransactionRollsBackOnPanic(t *testing.T) {
	m, b := newTestPool(t, 1)

	require.PanicsWithValue(t, "kaboom", func() {
		_, _ = m.RunTransaction(func(conn interface{}, args ...interface{}) (interface{}, error) {
			panic("kaboom")
		}, nil, time.Second)
	})

	assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, b.statements())
	waitFor(t, m, func(st Status) bool { return st.Available == 1 && st.Busy == 0 })
}

func TestRunTransactionRollsBackOnCommitFailure(t *testing.T) {
	m, b := newTestPool(t, 1)

	boom := errors.New("commit refused")
	b.failOn("COMMIT", boom)
	_, err := m.RunTransaction(func(conn interface{}, args ...interface{}) (interface{}, error) {
		return "ok", nil
	}, nil, time.Second)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"BEGIN", "COMMIT", "ROLLBACK"}, b.statements())
	waitFor(t, m, func(st Status) bool { return st.Available == 1 && st.Busy == 0 })
}

func TestRunTransactionReserveTimeout(t *testing.T) {
	m, b := newTestPool(t, 1)

	hold, err := m.Reserve(context.Background(), time.Second)
	require.NoError(t, err)

	_, err = m.RunTransaction(func(conn interface{}, args ...interface{}) (interface{}, error) {
		return nil, nil
	}, nil, time.Millisecond*200)
	require.Error(t, err)
	assert.True(t, errs.IsReserveTimeoutErr(err))
	assert.Empty(t, b.statements(), "no transaction traffic without a connection")

	require.NoError(t, m.Release(hold))
}

func TestRunTransactionRequiresExec(t *testing.T) {
	b := newFakeBackend()
	opts := b.options(1)
	opts.Exec = nil
	m, err := NewManager(t.Name(), opts)
	require.NoError(t, err)
	t.Cleanup(m.ShutDown)

	_, err = m.RunTransaction(func(conn interface{}, args ...interface{}) (interface{}, error) {
		return nil, nil
	}, nil, time.Second)
	require.Error(t, err)
	assert.True(t, errs.IsConfigMissingErr(err))
}
