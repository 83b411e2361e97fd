package pool

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Wrapper owns exactly one live backend connection. The supervisor creates
// it, it announces itself to the manager once the connection is up, and it
// signals its own death through the done channel.
type Wrapper struct {
	id   ConnID
	raw  interface{}
	opts *Options

	done     chan struct{}
	failOnce sync.Once
}

func newWrapper(raw interface{}, opts *Options) *Wrapper {
	return &Wrapper{
		id:   newConnID(),
		raw:  raw,
		opts: opts,
		done: make(chan struct{}),
	}
}

// Raw returns the underlying backend connection handle.
func (w *Wrapper) Raw() interface{} {
	return w.raw
}

// ID returns the pool's identifier for this connection.
func (w *Wrapper) ID() ConnID {
	return w.id
}

// Done is closed once the backend connection is known dead.
func (w *Wrapper) Done() <-chan struct{} {
	return w.done
}

// Fail marks the backend connection dead. Safe to call more than once; the
// manager's monitor picks the signal up asynchronously.
func (w *Wrapper) Fail(err error) {
	w.failOnce.Do(func() {
		if err != nil {
			log.Warnf("connection %s failed: %s", w.id, err)
		}
		close(w.done)
	})
}

// release runs the release-side cleanup before the connection goes back on
// the idle queue. Cleanup failures are logged, not fatal.
func (w *Wrapper) release() {
	if w.opts.Reset == nil {
		return
	}
	if err := w.opts.Reset(w.raw); err != nil {
		log.Warnf("connection %s reset err: %s", w.id, err)
	}
}

// shutdown closes the backend connection for good.
func (w *Wrapper) shutdown() {
	w.Fail(nil)
	if err := w.opts.Close(w.raw); err != nil {
		log.Warnf("connection %s close err: %s", w.id, err)
	}
}
