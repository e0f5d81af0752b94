package memory

import (
	"statusboard/internal/store"

	"github.com/puzpuzpuz/xsync/v3"
)

// JobSet is a concurrent set of jobs keyed by job id.
type JobSet struct {
	jobs *xsync.MapOf[string, *store.Job]
}

// NewJobSet returns an empty set.
func NewJobSet(jobs ...*store.Job) *JobSet {
	s := &JobSet{jobs: xsync.NewMapOf[string, *store.Job]()}
	for _, j := range jobs {
		s.Add(j)
	}
	return s
}

func (s *JobSet) Add(job *store.Job) {
	s.jobs.Store(job.ID, job)
}

func (s *JobSet) Get(id string) (*store.Job, bool) {
	return s.jobs.Load(id)
}

func (s *JobSet) Remove(id string) bool {
	_, ok := s.jobs.LoadAndDelete(id)
	return ok
}

func (s *JobSet) Jobs() []*store.Job {
	out := make([]*store.Job, 0, s.jobs.Size())
	s.jobs.Range(func(_ string, j *store.Job) bool {
		out = append(out, j)
		return true
	})
	return out
}

func (s *JobSet) Len() int {
	return s.jobs.Size()
}
