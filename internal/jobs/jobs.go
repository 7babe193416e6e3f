// Package jobs implements the Job registry (C6): it assigns a monotonic
// integer job-id to a root quest.Quest and projects it as a polled JobView,
// independent of the Quest engine's own internal id sequence. Optionally it
// streams every quest state transition to a pubsub.PubSub topic so a caller
// doesn't have to poll a terminal-or-not state in a loop.
package jobs

import (
	"context"
	"errors"
	"sync"

	"flecsd/internal/pubsub"
	"flecsd/internal/quest"
)

// ErrUnknownJob is returned by GetJob/DeleteJob for an id never assigned or
// already deleted.
var ErrUnknownJob = errors.New("jobs: unknown job id")

// ErrJobStillRunning is returned by DeleteJob when the job's root quest has
// not yet reached a terminal state.
var ErrJobStillRunning = errors.New("jobs: job is still running")

type entry struct {
	root   *quest.Quest
	cancel context.CancelFunc
}

// Registry indexes root quests under an external integer job-id namespace.
type Registry struct {
	engine *quest.Engine
	pub    pubsub.PubSub

	mu      sync.Mutex
	nextID  int
	entries map[int]*entry
}

// NewRegistry returns an empty Registry driving quests through engine. pub
// may be nil, in which case no job event stream is published.
func NewRegistry(engine *quest.Engine, pub pubsub.PubSub) *Registry {
	return &Registry{
		engine:  engine,
		pub:     pub,
		entries: make(map[int]*entry),
	}
}

// CreateJob allocates a new job-id, roots a quest with description under the
// engine, and registers it. If the registry has a PubSub, a background
// watcher streams the quest tree's state transitions on JobTopic(job_id)
// until the job reaches a terminal state.
func (reg *Registry) CreateJob(description string) (int, *quest.Quest) {
	root := reg.engine.CreateRoot(description)

	reg.mu.Lock()
	reg.nextID++
	id := reg.nextID
	ctx, cancel := context.WithCancel(context.Background())
	reg.entries[id] = &entry{root: root, cancel: cancel}
	reg.mu.Unlock()

	if reg.pub != nil {
		go watch(ctx, reg.pub, id, root)
	}
	return id, root
}

func (reg *Registry) lookup(id int) (*quest.Quest, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	e, ok := reg.entries[id]
	if !ok {
		return nil, false
	}
	return e.root, true
}

// GetJob projects the job's current state as a JobView.
func (reg *Registry) GetJob(id int) (JobView, error) {
	root, ok := reg.lookup(id)
	if !ok {
		return JobView{}, ErrUnknownJob
	}
	return buildView(id, root), nil
}

// DeleteJob removes the job's tree if its root has reached a terminal
// state. Returns ErrJobStillRunning otherwise, or ErrUnknownJob for an
// unrecognized id.
func (reg *Registry) DeleteJob(id int) error {
	reg.mu.Lock()
	e, ok := reg.entries[id]
	if !ok {
		reg.mu.Unlock()
		return ErrUnknownJob
	}
	if !e.root.ObservedState().Terminal() {
		reg.mu.Unlock()
		return ErrJobStillRunning
	}
	delete(reg.entries, id)
	reg.mu.Unlock()

	e.cancel()
	return nil
}
