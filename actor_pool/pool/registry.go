package pool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/keenzhang/pool/actor_pool/errs"
)

// Package-level registry of named pools, backing the poolName-keyed API.
var (
	regMu    sync.RWMutex
	registry = make(map[string]*Manager)
)

// Register starts a pool under a name. A name can only be taken once.
func Register(name string, opts *Options) (*Manager, error) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[name]; dup {
		return nil, fmt.Errorf("pool %q already registered", name)
	}
	m, err := NewManager(name, opts)
	if err != nil {
		return nil, err
	}
	registry[name] = m
	return m, nil
}

// Deregister shuts a named pool down and forgets it.
func Deregister(name string) {
	regMu.Lock()
	m := registry[name]
	delete(registry, name)
	regMu.Unlock()
	if m != nil {
		m.ShutDown()
	}
}

// Lookup finds a registered pool.
func Lookup(name string) (*Manager, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	m, ok := registry[name]
	if !ok {
		return nil, errs.NewUnknownPoolErr("no pool named " + name)
	}
	return m, nil
}

// Names lists the registered pools in stable order.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reserve borrows a connection from a named pool.
func Reserve(ctx context.Context, poolName string, timeout time.Duration) (*Conn, error) {
	m, err := Lookup(poolName)
	if err != nil {
		return nil, err
	}
	return m.Reserve(ctx, timeout)
}

// Release returns a connection to a named pool.
func Release(poolName string, conn *Conn) error {
	m, err := Lookup(poolName)
	if err != nil {
		return err
	}
	return m.Release(conn)
}

// StatusOf reports a named pool's snapshot.
func StatusOf(poolName string) (Status, error) {
	m, err := Lookup(poolName)
	if err != nil {
		return Status{}, err
	}
	return m.Status()
}

// RunTransaction runs fn inside a transaction on a named pool.
func RunTransaction(poolName string, fn TxnFunc, args []interface{}, timeout time.Duration) (interface{}, error) {
	m, err := Lookup(poolName)
	if err != nil {
		return nil, err
	}
	return m.RunTransaction(fn, args, timeout)
}
