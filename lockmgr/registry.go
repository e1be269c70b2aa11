// Package lockmgr implements the process-wide, per-filename lock registry:
// the published catalog snapshot plus the S/R/E lock counters a connection
// consults before reading or writing it.
package lockmgr

import (
	"sync"

	"github.com/snapsql/snapsql/catalog"
	"github.com/snapsql/snapsql/sqlerr"
)

// LockState tracks the shared/reserved/exclusive counters for one filename.
// Go connections may run on separate goroutines, unlike the single-threaded
// cooperative scheduling the counters were originally designed under, so
// every mutation here happens under Registry's mutex rather than being
// assumed atomic by convention.
type LockState struct {
	S, R, E int
}

type entry struct {
	db *catalog.Database
	LockState
}

// Registry is the shared, filename-keyed store of published catalogs and
// their lock state. A single Registry is meant to be shared by every
// Connection in a process, the way the original module-level
// _ALL_DATABASES/_LOCKS dicts were shared by every Connection instance.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) entryFor(filename string) *entry {
	e, ok := r.entries[filename]
	if !ok {
		e = &entry{db: catalog.New(filename)}
		r.entries[filename] = e
	}
	return e
}

// Published returns an independent deep-copy snapshot of the catalog
// currently published for filename, creating an empty one if none exists
// yet.
func (r *Registry) Published(filename string) *catalog.Database {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryFor(filename).db.Clone()
}

// Publish replaces the published catalog for filename and releases every
// lock the caller holds there, mirroring commit-of-a-modifying-transaction.
func (r *Registry) Publish(filename string, db *catalog.Database, held *LockState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryFor(filename)
	e.db = db
	r.release(e, held)
}

// AcquireShared grants a shared lock for SELECT: requires E == 0 unless the
// caller already holds it.
func (r *Registry) AcquireShared(filename string, held *LockState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryFor(filename)
	if e.E > 0 && held.E == 0 {
		r.release(e, held)
		return sqlerr.NewTransactionError("database %s is locked", filename)
	}
	if held.S == 0 {
		e.S++
		held.S = 1
	}
	return nil
}

// AcquireReserved grants a reserved lock for UPDATE/INSERT/DELETE: requires
// E == 0 and R == 0 unless the caller already holds them. Any shared lock
// the caller holds is dropped once reserved is granted, since reserved
// implies read access.
func (r *Registry) AcquireReserved(filename string, held *LockState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryFor(filename)
	if (e.E > 0 && held.E == 0) || (e.R > 0 && held.R == 0) {
		r.release(e, held)
		return sqlerr.NewTransactionError("database %s is locked", filename)
	}
	if held.S == 1 {
		e.S--
		held.S = 0
	}
	if held.R == 0 {
		e.R++
		held.R = 1
	}
	return nil
}

// AcquireExclusive grants an exclusive lock for BEGIN EXCLUSIVE or commit of
// a modifying transaction: requires E == 0, R == 0 (unless already held),
// and S == 0 or (S == 1 and the caller is the sole shared holder).
func (r *Registry) AcquireExclusive(filename string, held *LockState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryFor(filename)
	okE := e.E == 0 || held.E == 1
	okR := e.R == 0 || held.R == 1
	okS := e.S == 0 || (e.S == 1 && held.S == 1)
	if !okE || !okR || !okS {
		r.release(e, held)
		return sqlerr.NewTransactionError("database %s is locked", filename)
	}
	if held.E == 0 {
		e.E++
		held.E = 1
	}
	return nil
}

// Release drops every lock the caller holds for filename without touching
// the published catalog, as ROLLBACK and commit-of-a-read-only-transaction
// do.
func (r *Registry) Release(filename string, held *LockState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release(r.entryFor(filename), held)
}

// release must be called with r.mu held.
func (r *Registry) release(e *entry, held *LockState) {
	if held.S > 0 {
		e.S -= held.S
		held.S = 0
	}
	if held.R > 0 {
		e.R -= held.R
		held.R = 0
	}
	if held.E > 0 {
		e.E -= held.E
		held.E = 0
	}
}
