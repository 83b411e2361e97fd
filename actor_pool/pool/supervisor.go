package pool

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Supervisor starts connection wrappers on demand. Restarting crashed
// connections is not its concern: the manager detects the deficit and asks
// for a fresh start. A failed connect attempt is retried here until it
// succeeds or the pool shuts down.
type Supervisor struct {
	mgr  *Manager
	opts *Options

	quitOnce sync.Once
	quit     chan struct{}
}

func newSupervisor(m *Manager, opts *Options) *Supervisor {
	return &Supervisor{
		mgr:  m,
		opts: opts,
		quit: make(chan struct{}),
	}
}

// StartConnection brings up one ConnectionWrapper asynchronously. The
// wrapper announces itself to the manager once its connection is live.
func (s *Supervisor) StartConnection() {
	go s.run()
}

func (s *Supervisor) run() {
	for {
		select {
		case <-s.quit:
			return
		default:
		}

		raw, err := s.opts.Factory()
		if err == nil && s.opts.Ping != nil {
			if perr := s.opts.Ping(raw); perr != nil {
				_ = s.opts.Close(raw)
				err = perr
			}
		}
		if err == nil {
			s.mgr.ConnectionAvailable(newWrapper(raw, s.opts))
			return
		}

		log.Errorf("pool %s: connection start failed: %s", s.mgr.name, err)
		select {
		case <-time.After(s.opts.RetryInterval):
		case <-s.quit:
			return
		}
	}
}

func (s *Supervisor) stop() {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
}
