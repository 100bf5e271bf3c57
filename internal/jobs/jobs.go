// Package jobs tracks download jobs in memory. Jobs are transient; the
// per-video download rows they produce are what persists.
package jobs

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"plextube/internal/domain/consts"
)

// Job is one unit of background work, typically a channel download sweep.
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"jobType"`
	Status      string     `json:"status"`
	ChannelID   string     `json:"channel_id,omitempty"`
	Output      string     `json:"output,omitempty"`
	CreatedAt   time.Time  `json:"timeCreated"`
	CompletedAt *time.Time `json:"timeCompleted,omitempty"`
}

// Registry is an in-memory job table keyed by UUID.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new pending job and returns a copy of it.
func (r *Registry) Create(jobType, channelID string) Job {
	j := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    consts.JobStatusPending,
		ChannelID: channelID,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
	return *j
}

// Get returns a copy of the job, and whether it exists.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// SetStatus transitions a job. Terminal states record the completion time.
func (r *Registry) SetStatus(id, status, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return
	}
	j.Status = status
	if output != "" {
		j.Output = output
	}
	if status == consts.JobStatusComplete || status == consts.JobStatusError {
		now := time.Now()
		j.CompletedAt = &now
	}
}

// List returns all jobs, newest first.
func (r *Registry) List() []Job {
	r.mu.RLock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out
}

// ActiveForChannel reports whether any pending or running job targets the
// channel.
func (r *Registry) ActiveForChannel(channelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.jobs {
		if j.ChannelID != channelID {
			continue
		}
		if j.Status == consts.JobStatusPending || j.Status == consts.JobStatusInProgress {
			return true
		}
	}
	return false
}
