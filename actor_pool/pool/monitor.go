package pool

// monitorEntry owns the goroutine watching one entity's done channel.
type monitorEntry struct {
	ref    MonitorRef
	cancel chan struct{}
}

// monitor starts watching done and posts a down message to the manager's
// inbox when it fires, so reconciliation stays serialized with every other
// operation. demonitor is flush-style: once cancel wins the race no down
// message is delivered, and a down message for a ref the table no longer
// knows is ignored.
func (m *Manager) monitor(done <-chan struct{}) *monitorEntry {
	e := &monitorEntry{ref: newMonitorRef(), cancel: make(chan struct{})}
	go func() {
		select {
		case <-done:
			m.inbox <- downMsg{ref: e.ref}
		case <-e.cancel:
		}
	}()
	return e
}

func (e *monitorEntry) demonitor() {
	close(e.cancel)
}
