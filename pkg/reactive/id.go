package reactive

import "sync/atomic"

// globalIDCounter is the source of unique IDs for all nodes and reactors.
var globalIDCounter atomic.Uint64

// nextID returns the next unique ID. IDs are never reused, even across
// runtimes.
func nextID() uint64 {
	return globalIDCounter.Add(1)
}
