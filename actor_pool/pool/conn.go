package pool

import (
	"github.com/google/uuid"
)

// Identifiers for the entities the manager tracks.
type (
	ConnID     uuid.UUID
	RequestID  uuid.UUID
	MonitorRef uuid.UUID
)

func newConnID() ConnID         { return ConnID(uuid.New()) }
func newRequestID() RequestID   { return RequestID(uuid.New()) }
func newMonitorRef() MonitorRef { return MonitorRef(uuid.New()) }

func (id ConnID) String() string     { return uuid.UUID(id).String() }
func (id RequestID) String() string  { return uuid.UUID(id).String() }
func (id MonitorRef) String() string { return uuid.UUID(id).String() }

// Conn is the lease a caller holds between Reserve and Release. The ids tie
// the lease to one connection/request pairing; Release rejects a lease whose
// pairing no longer exists, e.g. after the pool reclaimed the connection
// because the caller's context was canceled.
type Conn struct {
	id      ConnID
	reqID   RequestID
	wrapper *Wrapper
}

// Raw returns the underlying backend connection handle.
func (c *Conn) Raw() interface{} {
	return c.wrapper.Raw()
}

// ID returns the pool's identifier for the borrowed connection.
func (c *Conn) ID() ConnID {
	return c.id
}
