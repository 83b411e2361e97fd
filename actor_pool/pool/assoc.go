package pool

import (
	log "github.com/sirupsen/logrus"
)

type entityRole int

const (
	roleConnIdle entityRole = iota
	roleConnBusy
	roleReqPending
	roleReqMatched
)

// entityRef tags which entity a monitor is watching and in what role. Busy
// and matched entries carry both ids of the pairing.
type entityRef struct {
	role   entityRole
	connID ConnID
	reqID  RequestID
}

// assocTable is the single source of truth for which entities are monitored
// and which connection is paired with which request. Every mutation keeps
// both directions of a pairing in step; a lookup that does not match the
// shape its caller expects panics rather than leaving the pool to run on
// inconsistent state.
type assocTable struct {
	monitors  map[MonitorRef]entityRef
	connMon   map[ConnID]MonitorRef
	reqMon    map[RequestID]MonitorRef
	connToReq map[ConnID]RequestID
	reqToConn map[RequestID]ConnID
}

func newAssocTable() *assocTable {
	return &assocTable{
		monitors:  make(map[MonitorRef]entityRef),
		connMon:   make(map[ConnID]MonitorRef),
		reqMon:    make(map[RequestID]MonitorRef),
		connToReq: make(map[ConnID]RequestID),
		reqToConn: make(map[RequestID]ConnID),
	}
}

// watchConn records a monitor on an idle connection.
func (t *assocTable) watchConn(ref MonitorRef, id ConnID) {
	if _, dup := t.monitors[ref]; dup {
		log.Panicf("monitor %s registered twice", ref)
	}
	if _, dup := t.connMon[id]; dup {
		log.Panicf("connection %s already monitored", id)
	}
	t.monitors[ref] = entityRef{role: roleConnIdle, connID: id}
	t.connMon[id] = ref
}

// watchRequest records a monitor on a pending request's caller.
func (t *assocTable) watchRequest(ref MonitorRef, id RequestID) {
	if _, dup := t.monitors[ref]; dup {
		log.Panicf("monitor %s registered twice", ref)
	}
	if _, dup := t.reqMon[id]; dup {
		log.Panicf("request %s already monitored", id)
	}
	t.monitors[ref] = entityRef{role: roleReqPending, reqID: id}
	t.reqMon[id] = ref
}

// bind pairs an idle connection with a pending request, flipping both
// monitor roles in the same step. Both entities must already be monitored.
func (t *assocTable) bind(connID ConnID, reqID RequestID) {
	cm := t.connMonitor(connID)
	rm := t.reqMonitor(reqID)
	t.monitors[cm] = entityRef{role: roleConnBusy, connID: connID, reqID: reqID}
	t.monitors[rm] = entityRef{role: roleReqMatched, connID: connID, reqID: reqID}
	t.connToReq[connID] = reqID
	t.reqToConn[reqID] = connID
}

// unbind removes a pairing from both directions. The pairing must exist.
func (t *assocTable) unbind(connID ConnID, reqID RequestID) {
	got, ok := t.connToReq[connID]
	if !ok || got != reqID {
		log.Panicf("connection %s is not paired with request %s", connID, reqID)
	}
	delete(t.connToReq, connID)
	delete(t.reqToConn, reqID)
}

// pairing reports the request a connection currently serves, without the
// fatal shape check. Release uses it to validate caller-supplied leases.
func (t *assocTable) pairing(connID ConnID) (RequestID, bool) {
	reqID, ok := t.connToReq[connID]
	return reqID, ok
}

// pairedRequest returns the request a busy connection serves.
func (t *assocTable) pairedRequest(connID ConnID) RequestID {
	reqID, ok := t.connToReq[connID]
	if !ok {
		log.Panicf("busy connection %s has no paired request", connID)
	}
	return reqID
}

// pairedConn returns the connection a matched request holds.
func (t *assocTable) pairedConn(reqID RequestID) ConnID {
	connID, ok := t.reqToConn[reqID]
	if !ok {
		log.Panicf("matched request %s has no paired connection", reqID)
	}
	return connID
}

func (t *assocTable) connMonitor(id ConnID) MonitorRef {
	ref, ok := t.connMon[id]
	if !ok {
		log.Panicf("connection %s has no monitor", id)
	}
	return ref
}

func (t *assocTable) reqMonitor(id RequestID) MonitorRef {
	ref, ok := t.reqMon[id]
	if !ok {
		log.Panicf("request %s has no monitor", id)
	}
	return ref
}

// lookup resolves a fired monitor. ok is false for refs already removed by
// a demonitor that raced the down signal; the caller drops those.
func (t *assocTable) lookup(ref MonitorRef) (entityRef, bool) {
	e, ok := t.monitors[ref]
	return e, ok
}

func (t *assocTable) dropConnMonitor(id ConnID) MonitorRef {
	ref := t.connMonitor(id)
	delete(t.monitors, ref)
	delete(t.connMon, id)
	return ref
}

func (t *assocTable) dropRequestMonitor(id RequestID) MonitorRef {
	ref := t.reqMonitor(id)
	delete(t.monitors, ref)
	delete(t.reqMon, id)
	return ref
}

// monitoredConns counts monitored connection entities, idle and busy.
func (t *assocTable) monitoredConns() int {
	n := 0
	for _, e := range t.monitors {
		if e.role == roleConnIdle || e.role == roleConnBusy {
			n++
		}
	}
	return n
}
