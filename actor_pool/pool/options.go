package pool

import (
	"time"

	"github.com/keenzhang/pool/actor_pool/errs"
)

// Configs for a single pool
type Options struct {
	// The number of connections the supervisor keeps alive.
	// The pool grows back to this target after a connection crash.
	MinSize int

	// Advisory upper bound. Reported in Status, never enforced.
	MaxSize int

	// The method to build one backend connection
	Factory func() (interface{}, error)

	// The method to close the connection
	Close func(interface{}) error

	// Connect-time probe; a connection that fails it is never announced
	Ping func(interface{}) error

	// Release-side cleanup run before a connection goes back to idle
	Reset func(interface{}) error

	// Runs a bare statement on the connection; required by RunTransaction
	Exec func(conn interface{}, stmt string) error

	// Max time to wait for a connection when none is idle
	WaitTimeout time.Duration

	// Delay between supervisor connect retries
	RetryInterval time.Duration
}

func (o *Options) validate() error {
	if o.MinSize <= 0 {
		return errs.NewConfigMissingErr("invalid min size setting")
	}
	if o.Factory == nil {
		return errs.NewConfigMissingErr("invalid factory func settings")
	}
	if o.Close == nil {
		return errs.NewConfigMissingErr("invalid close func settings")
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = time.Second * 3
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = time.Second
	}
	return nil
}
