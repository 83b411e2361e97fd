package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/keenzhang/pool/actor_pool/errs"
)

// Status is a point-in-time snapshot of one pool's bookkeeping.
type Status struct {
	MinSize   int `json:"min_size"`
	MaxSize   int `json:"max_size"`
	Available int `json:"available"`
	Pending   int `json:"pending"`
	Busy      int `json:"busy"`
	Monitored int `json:"monitored"`
}

// Inbox messages. Anything else reaching the loop's type switch is a
// programming error and panics.
type (
	reserveMsg struct {
		timeout time.Duration
		done    <-chan struct{}
		reply   chan reserveReply
	}
	reserveReply struct {
		conn *Conn
		err  error
	}
	releaseMsg struct {
		conn  *Conn
		reply chan error
	}
	connAvailableMsg struct {
		wrapper *Wrapper
	}
	downMsg struct {
		ref MonitorRef
	}
	statusMsg struct {
		reply chan Status
	}
	shutdownMsg struct {
		reply chan struct{}
	}
)

// request is one blocked caller queued in the pending FIFO.
type request struct {
	id       RequestID
	reply    chan reserveReply
	enqueued time.Time
	timeout  time.Duration
}

// Manager is the single actor owning all state of one pool. Every mutation
// travels through the inbox and is applied by the loop goroutine alone, so
// matching decisions need no locks and are linearizable. After ShutDown the
// loop keeps draining the inbox in a terminal state, answering late traffic
// with ClosedErr; restart of a crashed pool is an outer concern.
type Manager struct {
	name  string
	opts  *Options
	inbox chan interface{}
	sup   *Supervisor

	mu     sync.Mutex
	closed bool

	// Loop-owned state. Never touched outside the loop goroutine.
	idle     []*Wrapper
	pending  []*request
	busy     map[ConnID]*Wrapper
	assoc    *assocTable
	watchers map[MonitorRef]*monitorEntry
	starting int
	down     bool
}

// NewManager builds and starts a pool: the actor loop plus a supervisor
// that brings up the first connection. Growth to MinSize cascades from
// there, each announcement requesting the next connection while the pool
// is still short of the target.
func NewManager(name string, opts *Options) (*Manager, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		name:     name,
		opts:     opts,
		inbox:    make(chan interface{}, 64),
		busy:     make(map[ConnID]*Wrapper),
		assoc:    newAssocTable(),
		watchers: make(map[MonitorRef]*monitorEntry),
		starting: 1,
	}
	m.sup = newSupervisor(m, opts)
	go m.loop()
	m.sup.StartConnection()
	return m, nil
}

// Name returns the pool's registered name.
func (m *Manager) Name() string {
	return m.name
}

// Reserve borrows a connection, waiting up to timeout when none is idle.
// The caller's ctx is what the pool monitors for caller liveness: cancel it
// and any connection still held, or any queued request, is reclaimed. A
// timeout <= 0 falls back to Options.WaitTimeout. On timeout the queued
// request is not proactively removed; the matcher discards it the next time
// it reaches the head of the queue.
func (m *Manager) Reserve(ctx context.Context, timeout time.Duration) (*Conn, error) {
	if m.isClosed() {
		return nil, errs.NewDefaultClosedErr()
	}
	if timeout <= 0 {
		timeout = m.opts.WaitTimeout
	}
	reply := make(chan reserveReply, 1)
	m.inbox <- reserveMsg{timeout: timeout, done: ctx.Done(), reply: reply}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-reply:
		return r.conn, r.err
	case <-timer.C:
		// a match may have raced the timer; hand the connection back
		select {
		case r := <-reply:
			if r.conn != nil {
				_ = m.Release(r.conn)
			}
		default:
		}
		return nil, errs.NewReserveTimeoutErr("reserve timed out after " + timeout.String())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a borrowed connection to the pool. The lease must still
// describe a live pairing; a stale lease, e.g. one whose connection was
// already reclaimed after a caller crash, is rejected with an error and
// leaves the pool untouched.
func (m *Manager) Release(conn *Conn) error {
	if conn == nil {
		return fmt.Errorf("nil connection err")
	}
	if m.isClosed() {
		return errs.NewDefaultClosedErr()
	}
	reply := make(chan error, 1)
	m.inbox <- releaseMsg{conn: conn, reply: reply}
	return <-reply
}

// ConnectionAvailable announces a freshly started wrapper to the pool.
// Fire-and-forget: the wrapper side never waits on pool bookkeeping.
func (m *Manager) ConnectionAvailable(w *Wrapper) {
	if m.isClosed() {
		w.shutdown()
		return
	}
	m.inbox <- connAvailableMsg{wrapper: w}
}

// Status reports a snapshot of the pool.
func (m *Manager) Status() (Status, error) {
	if m.isClosed() {
		return Status{}, errs.NewDefaultClosedErr()
	}
	reply := make(chan Status, 1)
	m.inbox <- statusMsg{reply: reply}
	return <-reply, nil
}

// ShutDown stops the pool: queued waiters are failed with ClosedErr, every
// connection is closed, all monitors released, the supervisor stopped.
// After ShutDown the pool is no longer usable.
func (m *Manager) ShutDown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	reply := make(chan struct{}, 1)
	m.inbox <- shutdownMsg{reply: reply}
	<-reply
	m.sup.stop()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) loop() {
	for msg := range m.inbox {
		if m.down {
			m.dropLate(msg)
			continue
		}
		switch msg := msg.(type) {
		case reserveMsg:
			m.handleReserve(msg)
		case releaseMsg:
			m.handleRelease(msg)
		case connAvailableMsg:
			m.handleConnAvailable(msg.wrapper)
		case downMsg:
			m.handleDown(msg.ref)
		case statusMsg:
			msg.reply <- m.snapshot()
		case shutdownMsg:
			m.handleShutdown()
			msg.reply <- struct{}{}
		default:
			log.Panicf("pool %s: unexpected message %T", m.name, msg)
		}
	}
}

// dropLate answers traffic that raced the shutdown.
func (m *Manager) dropLate(msg interface{}) {
	switch msg := msg.(type) {
	case reserveMsg:
		msg.reply <- reserveReply{err: errs.NewDefaultClosedErr()}
	case releaseMsg:
		msg.reply <- errs.NewDefaultClosedErr()
	case connAvailableMsg:
		msg.wrapper.shutdown()
	case statusMsg:
		msg.reply <- Status{}
	case downMsg:
		// everything was demonitored during shutdown
	case shutdownMsg:
		msg.reply <- struct{}{}
	default:
		log.Panicf("pool %s: unexpected message %T", m.name, msg)
	}
}

func (m *Manager) handleReserve(msg reserveMsg) {
	req := &request{
		id:       newRequestID(),
		reply:    msg.reply,
		enqueued: time.Now(),
		timeout:  msg.timeout,
	}
	e := m.monitor(msg.done)
	m.watchers[e.ref] = e
	m.assoc.watchRequest(e.ref, req.id)
	m.pending = append(m.pending, req)
	log.Debugf("pool %s: request %s queued (%d pending, %d idle)",
		m.name, req.id, len(m.pending), len(m.idle))
	m.match()
}

// match pairs idle connections with pending requests until one side runs
// dry. Request expiry is checked here and only here: a request whose
// deadline passed while queued is discarded the next time it reaches the
// head, not by any timer.
func (m *Manager) match() {
	for len(m.idle) > 0 && len(m.pending) > 0 {
		req := m.pending[0]
		m.pending = m.pending[1:]

		if time.Since(req.enqueued) > req.timeout {
			m.stopWatching(m.assoc.dropRequestMonitor(req.id))
			log.Debugf("pool %s: request %s expired in queue", m.name, req.id)
			continue
		}

		w := m.idle[0]
		m.idle = m.idle[1:]
		m.assoc.bind(w.id, req.id)
		m.busy[w.id] = w
		req.reply <- reserveReply{conn: &Conn{id: w.id, reqID: req.id, wrapper: w}}
		log.Debugf("pool %s: connection %s matched to request %s", m.name, w.id, req.id)
	}
}

func (m *Manager) handleRelease(msg releaseMsg) {
	conn := msg.conn
	reqID, ok := m.assoc.pairing(conn.id)
	if !ok || reqID != conn.reqID {
		msg.reply <- fmt.Errorf("release: connection %s is not held by this lease", conn.id)
		return
	}
	w := m.takeBusy(conn.id)
	m.stopWatching(m.assoc.dropRequestMonitor(reqID))
	m.stopWatching(m.assoc.dropConnMonitor(conn.id))
	m.assoc.unbind(conn.id, reqID)
	w.release()
	msg.reply <- nil
	m.requeue(w)
}

func (m *Manager) handleConnAvailable(w *Wrapper) {
	if m.starting > 0 {
		m.starting--
	}
	log.Debugf("pool %s: connection %s available", m.name, w.id)
	m.requeue(w)
}

// requeue puts a wrapper (back) on the idle queue: fresh monitor, deficit
// check against the minimum, then a matching pass.
func (m *Manager) requeue(w *Wrapper) {
	e := m.monitor(w.Done())
	m.watchers[e.ref] = e
	m.assoc.watchConn(e.ref, w.id)
	m.idle = append(m.idle, w)
	m.maybeReplenish()
	m.match()
}

// known connections are the ones announced and not yet lost: idle + busy.
func (m *Manager) known() int {
	return len(m.idle) + len(m.busy)
}

// maybeReplenish asks the supervisor for one more connection when the pool,
// counting starts already in flight, is still short of MinSize. It never
// asks for more than the deficit, however many requests are queued.
func (m *Manager) maybeReplenish() {
	if m.known()+m.starting < m.opts.MinSize {
		m.starting++
		m.sup.StartConnection()
	}
}

// handleDown reconciles the death of a monitored entity. The ref resolves
// to exactly one of four cases; any lookup along the way that does not
// match the expected shape panics the actor.
func (m *Manager) handleDown(ref MonitorRef) {
	e, ok := m.assoc.lookup(ref)
	if !ok {
		// a demonitor raced the down signal
		return
	}
	delete(m.watchers, ref)

	switch e.role {
	case roleConnBusy:
		reqID := m.assoc.pairedRequest(e.connID)
		w := m.takeBusy(e.connID)
		m.assoc.dropConnMonitor(e.connID)
		m.stopWatching(m.assoc.dropRequestMonitor(reqID))
		m.assoc.unbind(e.connID, reqID)
		// the lease holder keeps its now-dead reference and discovers
		// the failure on next use; no notification
		w.shutdown()
		log.Warnf("pool %s: busy connection %s died", m.name, e.connID)
		m.maybeReplenish()

	case roleConnIdle:
		m.assoc.dropConnMonitor(e.connID)
		w := m.removeIdle(e.connID)
		w.shutdown()
		log.Warnf("pool %s: idle connection %s died", m.name, e.connID)
		m.maybeReplenish()

	case roleReqMatched:
		connID := m.assoc.pairedConn(e.reqID)
		w := m.takeBusy(connID)
		m.assoc.dropRequestMonitor(e.reqID)
		m.stopWatching(m.assoc.dropConnMonitor(connID))
		m.assoc.unbind(connID, e.reqID)
		log.Warnf("pool %s: caller died holding connection %s, reclaiming", m.name, connID)
		w.release()
		m.requeue(w)

	case roleReqPending:
		m.assoc.dropRequestMonitor(e.reqID)
		m.removePending(e.reqID)
		log.Debugf("pool %s: pending request %s abandoned by caller", m.name, e.reqID)

	default:
		log.Panicf("pool %s: monitor %s has unknown role %d", m.name, ref, e.role)
	}
}

func (m *Manager) handleShutdown() {
	for ref, e := range m.watchers {
		e.demonitor()
		delete(m.watchers, ref)
	}
	for _, req := range m.pending {
		req.reply <- reserveReply{err: errs.NewDefaultClosedErr()}
	}
	m.pending = nil
	for _, w := range m.idle {
		w.shutdown()
	}
	m.idle = nil
	for id, w := range m.busy {
		w.shutdown()
		delete(m.busy, id)
	}
	m.assoc = newAssocTable()
	m.down = true
	log.Infof("pool %s: shut down", m.name)
}

func (m *Manager) snapshot() Status {
	return Status{
		MinSize:   m.opts.MinSize,
		MaxSize:   m.opts.MaxSize,
		Available: len(m.idle),
		Pending:   len(m.pending),
		Busy:      len(m.busy),
		Monitored: m.assoc.monitoredConns(),
	}
}

func (m *Manager) stopWatching(ref MonitorRef) {
	e, ok := m.watchers[ref]
	if !ok {
		log.Panicf("pool %s: monitor %s has no watcher", m.name, ref)
	}
	e.demonitor()
	delete(m.watchers, ref)
}

func (m *Manager) removeIdle(id ConnID) *Wrapper {
	for i, w := range m.idle {
		if w.id == id {
			m.idle = append(m.idle[:i], m.idle[i+1:]...)
			return w
		}
	}
	log.Panicf("pool %s: idle connection %s not in queue", m.name, id)
	return nil
}

func (m *Manager) removePending(id RequestID) *request {
	for i, r := range m.pending {
		if r.id == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return r
		}
	}
	log.Panicf("pool %s: pending request %s not in queue", m.name, id)
	return nil
}

func (m *Manager) takeBusy(id ConnID) *Wrapper {
	w, ok := m.busy[id]
	if !ok {
		log.Panicf("pool %s: busy connection %s has no wrapper", m.name, id)
	}
	delete(m.busy, id)
	return w
}
