// Package tracker owns the mutable state of one run: the registry of
// tests that have started but not finished, and the append-only ledger
// of completed records. Both are safe for concurrent writers; the host
// framework may deliver events from many workers at once.
package tracker

import (
	"sync"

	"github.com/testforge/ctrf-collector/ctrf"
	"github.com/testforge/ctrf-collector/event"
)

// Registry maps a test's run-unique id to its start-time details.
// Inserts and removes are linearizable per key; no cross-key ordering
// is needed.
type Registry struct {
	m sync.Map
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Put stores the details for an in-flight test.
func (r *Registry) Put(id string, details event.TestDetails) {
	r.m.Store(id, details)
}

// Remove takes the details for a completing test out of the registry.
// The second return is false when the test was never registered.
func (r *Registry) Remove(id string) (event.TestDetails, bool) {
	v, ok := r.m.LoadAndDelete(id)
	if !ok {
		return event.TestDetails{}, false
	}
	return v.(event.TestDetails), true
}

// Clear drops all in-flight entries.
func (r *Registry) Clear() {
	r.m.Range(func(key, _ any) bool {
		r.m.Delete(key)
		return true
	})
}

// Ledger is the append-only sequence of finalized test records. Order
// is: records seeded from a previous run first, then this run's
// completions in completion order.
type Ledger struct {
	mu    sync.RWMutex
	tests []ctrf.Test
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds a finalized record. Records are never mutated after this.
func (l *Ledger) Append(test ctrf.Test) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tests = append(l.tests, test)
}

// Seed appends previously persisted records in their original order.
func (l *Ledger) Seed(tests []ctrf.Test) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tests = append(l.tests, tests...)
}

// Snapshot returns a copy of the ledger contents. The copy includes
// every append that happened-before the call; appends racing with the
// call may or may not be observed.
func (l *Ledger) Snapshot() []ctrf.Test {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ctrf.Test, len(l.tests))
	copy(out, l.tests)
	return out
}

// Len returns the current number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tests)
}

// Last returns the most recently appended record, if any.
func (l *Ledger) Last() (ctrf.Test, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.tests) == 0 {
		return ctrf.Test{}, false
	}
	return l.tests[len(l.tests)-1], true
}

// ContainsName reports whether any record has the given name.
func (l *Ledger) ContainsName(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.tests {
		if l.tests[i].Name == name {
			return true
		}
	}
	return false
}

// Clear drops all records so a later run starts fresh.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tests = nil
}
