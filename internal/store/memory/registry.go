// Package memory implements the store interfaces in process memory.
// Nothing here survives a restart.
package memory

import (
	"statusboard/internal/store"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry maps owner ids to their job sets.
// The backing map is striped, so owners never contend with each other.
type Registry struct {
	sets *xsync.MapOf[string, store.JobSet]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: xsync.NewMapOf[string, store.JobSet]()}
}

// Get returns the owner's set.
func (r *Registry) Get(ownerID string) (store.JobSet, bool) {
	return r.sets.Load(ownerID)
}

// Put replaces the owner's set.
func (r *Registry) Put(ownerID string, set store.JobSet) {
	r.sets.Store(ownerID, set)
}

// Add registers job under ownerID. The insert runs under the owner's entry
// lock so it cannot land in a set that a concurrent Retain is discarding.
func (r *Registry) Add(ownerID string, job *store.Job) {
	r.sets.Compute(ownerID, func(set store.JobSet, loaded bool) (store.JobSet, bool) {
		if !loaded || set == nil {
			set = NewJobSet()
		}
		set.Add(job)
		return set, false
	})
}

// Retain swaps the owner's set for a fresh one holding only kept jobs.
func (r *Registry) Retain(ownerID string, keep func(*store.Job) bool) bool {
	_, ok := r.sets.Compute(ownerID, func(set store.JobSet, loaded bool) (store.JobSet, bool) {
		if !loaded || set == nil {
			return nil, true
		}
		next := NewJobSet()
		for _, job := range set.Jobs() {
			if keep(job) {
				next.Add(job)
			}
		}
		return next, false
	})
	return ok
}

// Range calls fn for every owner until fn returns false.
func (r *Registry) Range(fn func(ownerID string, set store.JobSet) bool) {
	r.sets.Range(fn)
}

// Owners returns the number of owners ever registered.
func (r *Registry) Owners() int {
	return r.sets.Size()
}

// Len returns the number of jobs across all owners.
func (r *Registry) Len() int {
	total := 0
	r.sets.Range(func(_ string, set store.JobSet) bool {
		total += set.Len()
		return true
	})
	return total
}

var (
	_ store.JobRegistry = (*Registry)(nil)
	_ store.JobSet      = (*JobSet)(nil)
	_ store.UserStore   = (*UserStore)(nil)
)
