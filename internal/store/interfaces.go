package store

import "context"

// JobSet is a concurrency-safe collection of one owner's jobs, unique by id.
// The execution engine may mutate a job's status while the set is iterated;
// the set only synchronises membership.
type JobSet interface {
	// Add inserts job, replacing any job with the same id.
	Add(job *Job)
	// Get returns the job with the given id.
	Get(id string) (*Job, bool)
	// Remove deletes the job with the given id and reports whether it was present.
	Remove(id string) bool
	// Jobs returns the current members. The slice is a copy; the jobs are shared.
	Jobs() []*Job
	// Len returns the number of members.
	Len() int
}

// JobRegistry maps owner ids to job sets.
// Access for one owner must never block access for another.
type JobRegistry interface {
	// Get returns the owner's set, if one was ever created.
	Get(ownerID string) (JobSet, bool)
	// Put replaces the owner's set.
	Put(ownerID string, set JobSet)
	// Add registers job under ownerID, creating the owner's set on first use.
	Add(ownerID string, job *Job)
	// Retain atomically replaces the owner's set with a new set holding only
	// the jobs for which keep returns true. It reports whether the owner exists.
	Retain(ownerID string, keep func(*Job) bool) bool
	// Range calls fn for every owner until fn returns false.
	Range(fn func(ownerID string, set JobSet) bool)
}

// User is an authenticated identity allowed to read job status.
type User struct {
	ID    string
	Name  string
	Admin bool
}

// CanAdministerApplication reports whether the user may read every owner's jobs.
func (u *User) CanAdministerApplication() bool {
	return u != nil && u.Admin
}

// UserStore resolves API keys to users.
type UserStore interface {
	// GetUserByAPIKeyHash returns the user owning the key, or nil when unknown.
	GetUserByAPIKeyHash(ctx context.Context, hash string) (*User, error)
}
