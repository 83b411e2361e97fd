package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keenzhang/pool/actor_pool/errs"
)

func TestRegistryLifecycle(t *testing.T) {
	const name = "registry-main"
	b := newFakeBackend()

	m, err := Register(name, b.options(1))
	require.NoError(t, err)
	t.Cleanup(func() { Deregister(name) })

	_, err = Register(name, b.options(1))
	require.Error(t, err, "a name can only be taken once")

	got, err := Lookup(name)
	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.Contains(t, Names(), name)

	waitFor(t, m, func(st Status) bool { return st.Available == 1 })

	st, err := StatusOf(name)
	require.NoError(t, err)
	assert.Equal(t, 1, st.MinSize)

	conn, err := Reserve(context.Background(), name, time.Second)
	require.NoError(t, err)
	require.NoError(t, Release(name, conn))

	res, err := RunTransaction(name, func(conn interface{}, args ...interface{}) (interface{}, error) {
		return "done", nil
	}, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "done", res)

	Deregister(name)
	_, err = Lookup(name)
	assert.True(t, errs.IsUnknownPoolErr(err))
	_, err = StatusOf(name)
	assert.True(t, errs.IsUnknownPoolErr(err))
	_, err = Reserve(context.Background(), name, time.Second)
	assert.True(t, errs.IsUnknownPoolErr(err))
	assert.True(t, errs.IsUnknownPoolErr(Release(name, conn)))
	_, err = RunTransaction(name, func(conn interface{}, args ...interface{}) (interface{}, error) {
		return nil, nil
	}, nil, time.Second)
	assert.True(t, errs.IsUnknownPoolErr(err))

	// deregistering an unknown name is a no-op
	Deregister(name)
}
