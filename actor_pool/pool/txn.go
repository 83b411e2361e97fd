package pool

import (
	"context"
	"time"

	"github.com/keenzhang/pool/actor_pool/errs"
)

// TxnFunc runs inside a transaction on the raw backend connection.
type TxnFunc func(conn interface{}, args ...interface{}) (interface{}, error)

// RunTransaction reserves a connection, wraps fn in BEGIN/COMMIT and
// returns fn's result. Any failure, whether an error from fn, a failed
// commit, or a panic, triggers a ROLLBACK before the failure is propagated
// unchanged. The connection is released exactly once on every exit path.
func (m *Manager) RunTransaction(fn TxnFunc, args []interface{}, timeout time.Duration) (result interface{}, err error) {
	if m.opts.Exec == nil {
		return nil, errs.NewConfigMissingErr("pool has no exec func configured")
	}
	conn, err := m.Reserve(context.Background(), timeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = m.Release(conn)
	}()

	if err = m.opts.Exec(conn.Raw(), "BEGIN"); err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = m.opts.Exec(conn.Raw(), "ROLLBACK")
			panic(p)
		}
		if !committed {
			_ = m.opts.Exec(conn.Raw(), "ROLLBACK")
		}
	}()

	result, err = fn(conn.Raw(), args...)
	if err != nil {
		return nil, err
	}
	if err = m.opts.Exec(conn.Raw(), "COMMIT"); err != nil {
		return nil, err
	}
	committed = true
	return result, nil
}
