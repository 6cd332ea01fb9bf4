package service

import (
	"context"
	"sync"
)

// DraftQueue runs mutations of one draft one at a time, in arrival order.
// Each draft gets its own worker goroutine, which exits once its queue drains.
type DraftQueue struct {
	mu      sync.Mutex
	workers map[string]*draftWorker
}

type draftWorker struct {
	jobs []*queueJob
}

type queueJob struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// NewDraftQueue creates an empty DraftQueue
func NewDraftQueue() *DraftQueue {
	return &DraftQueue{workers: make(map[string]*draftWorker)}
}

// Do enqueues fn behind earlier mutations of draftID and waits for its result.
// If ctx ends first, Do returns ctx.Err(); a job that already started still runs
// to completion, a job that has not started is skipped.
func (q *DraftQueue) Do(ctx context.Context, draftID string, fn func(ctx context.Context) error) error {
	job := &queueJob{ctx: ctx, fn: fn, done: make(chan error, 1)}

	q.mu.Lock()
	w, ok := q.workers[draftID]
	if !ok {
		w = &draftWorker{}
		q.workers[draftID] = w
	}
	w.jobs = append(w.jobs, job)
	q.mu.Unlock()

	if !ok {
		go q.run(draftID, w)
	}

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the number of drafts with queued or running mutations
func (q *DraftQueue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.workers)
}

func (q *DraftQueue) run(draftID string, w *draftWorker) {
	for {
		q.mu.Lock()
		if len(w.jobs) == 0 {
			delete(q.workers, draftID)
			q.mu.Unlock()
			return
		}
		job := w.jobs[0]
		w.jobs[0] = nil
		w.jobs = w.jobs[1:]
		q.mu.Unlock()

		if err := job.ctx.Err(); err != nil {
			job.done <- err
			continue
		}
		job.done <- job.fn(job.ctx)
	}
}
