// Package reconf implements the process-wide reconfiguration registry
// (spec §4.7): a weakly-held set of every live stage capable of rebuilding
// its device streams, plus a ReconfAll that drives the rebuild after the
// selected default device changes.
//
// Registration happens on construction of a reconfigurable stage and
// deregistration on destruction, per the original C++ design
// (Reconfigurable's ctor/dtor insert/erase a raw pointer into a
// process-wide std::set). Go has no destructors, so callers must pair
// Register with a deferred Deregister; the registry additionally holds
// only a weak.Pointer so a stage that is dropped without deregistering
// (a programming error, not the happy path) is pruned on the next
// ReconfAll rather than leaking forever.
package reconf

import (
	"sync"
	"weak"
)

// Stage is implemented by anything capable of rebuilding its device
// stream against the current default device.
type Stage interface {
	Reconf() error
}

// Handle identifies a registration; pass it to Deregister on teardown.
type Handle struct {
	id uint64
}

type stagePtr[T any] interface {
	*T
	Stage
}

var (
	mu      sync.Mutex
	nextID  uint64
	getters = make(map[uint64]func() Stage)
)

// Register adds s to the registry and returns a Handle for Deregister.
// T is inferred from s's concrete pointer type (e.g. Register(rec) for
// rec *Recorder, where *Recorder implements Stage).
func Register[T any, PT stagePtr[T]](s PT) Handle {
	wp := weak.Make((*T)(s))

	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	getters[id] = func() Stage {
		p := wp.Value()
		if p == nil {
			return nil
		}
		return Stage(PT(p))
	}
	return Handle{id: id}
}

// Deregister removes a previously registered stage. Safe to call more
// than once or with a zero Handle.
func Deregister(h Handle) {
	mu.Lock()
	delete(getters, h.id)
	mu.Unlock()
}

// ReconfAll invokes Reconf exactly once on every live registered stage.
// Entries whose stage has been garbage collected without being
// deregistered are silently pruned. Errors are collected, not short
// circuited — a failure reopening one device must not stop the others
// from retrying.
func ReconfAll() []error {
	mu.Lock()
	snapshot := make(map[uint64]func() Stage, len(getters))
	for id, g := range getters {
		snapshot[id] = g
	}
	mu.Unlock()

	var errs []error
	var dead []uint64
	for id, g := range snapshot {
		s := g()
		if s == nil {
			dead = append(dead, id)
			continue
		}
		if err := s.Reconf(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(dead) > 0 {
		mu.Lock()
		for _, id := range dead {
			delete(getters, id)
		}
		mu.Unlock()
	}
	return errs
}

// Count returns the number of currently registered (not yet pruned)
// stages. Exposed for tests.
func Count() int {
	mu.Lock()
	defer mu.Unlock()
	return len(getters)
}
