// Package inmemorystore provides a thread-safe, in-memory implementation
// of the nodestore.Store interface. It is created fresh for every session
// and discarded with it; worker state is never persisted.
//
// Unlike inmemorytopology, which is written once and then only read, this
// store takes a write from every worker on every iteration while the health
// server reads it, so it uses sync.Map rather than a single RWMutex.
package inmemorystore
