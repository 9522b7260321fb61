package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/ratewalk/dataset"
	"github.com/use-agent/ratewalk/models"
)

// jobTTL is how long a walk job stays queryable after it was created.
const jobTTL = time.Hour

// walkJob is one background walk. Entries are collected in memory as they
// are captured so GET /walks/:id can report progress.
type walkJob struct {
	id        string
	award     string
	createdAt time.Time
	entries   *dataset.Memory

	mu       sync.Mutex
	status   string
	failures int
	err      *models.ErrorDetail
}

func (j *walkJob) finish(status string, failures int, err *models.ErrorDetail) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
	j.failures = failures
	j.err = err
}

func (j *walkJob) snapshot(withEntries bool) models.WalkStatusResponse {
	j.mu.Lock()
	resp := models.WalkStatusResponse{
		ID:       j.id,
		Award:    j.award,
		Status:   j.status,
		Failures: j.failures,
		Error:    j.err,
	}
	j.mu.Unlock()

	resp.Completed = j.entries.Len()
	if withEntries {
		resp.Entries = j.entries.Entries()
	}
	return resp
}

// JobStore holds in-flight and finished walk jobs. Jobs older than an hour
// are expired by a background goroutine.
type JobStore struct {
	jobs    sync.Map
	running sync.WaitGroup
}

// NewJobStore creates a JobStore whose expiry loop runs until ctx is done.
func NewJobStore(ctx context.Context) *JobStore {
	s := &JobStore{}
	go s.expireLoop(ctx)
	return s
}

func (s *JobStore) create(award string) *walkJob {
	job := &walkJob{
		id:        "walk-" + uuid.NewString(),
		award:     award,
		createdAt: time.Now(),
		entries:   dataset.NewMemory(),
		status:    models.StatusProcessing,
	}
	s.jobs.Store(job.id, job)
	return job
}

// run starts fn in the background and tracks it until it returns.
func (s *JobStore) run(fn func()) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		fn()
	}()
}

// Wait blocks until every walk started through the store has returned,
// or ctx is done.
func (s *JobStore) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *JobStore) load(id string) (*walkJob, bool) {
	val, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return val.(*walkJob), true
}

// Active returns the number of jobs still processing.
func (s *JobStore) Active() int {
	n := 0
	s.jobs.Range(func(_, value any) bool {
		job := value.(*walkJob)
		job.mu.Lock()
		if job.status == models.StatusProcessing {
			n++
		}
		job.mu.Unlock()
		return true
	})
	return n
}

func (s *JobStore) expireLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expire(time.Now().Add(-jobTTL))
		}
	}
}

func (s *JobStore) expire(cutoff time.Time) {
	s.jobs.Range(func(key, value any) bool {
		if value.(*walkJob).createdAt.Before(cutoff) {
			s.jobs.Delete(key)
		}
		return true
	})
}
