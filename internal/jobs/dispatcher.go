package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sevigo/merge-warden/internal/core"
)

// dispatcher implements core.JobDispatcher and manages a pool of worker
// goroutines that process webhook events as background jobs, routed to the
// job registered for each event kind.
type dispatcher struct {
	jobs       map[core.EventKind]core.Job
	jobQueue   chan *core.Event
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(jobs map[core.EventKind]core.Job, maxWorkers int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &dispatcher{
		jobs:       jobs,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan *core.Event, 100),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

// startWorkers launches maxWorkers goroutines to process jobs from the queue.
func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes events from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting review worker", "id", workerID)

	for event := range d.jobQueue {
		d.processEvent(workerID, event)
	}

	d.logger.Info("shutting down review worker", "id", workerID)
}

// processEvent runs the job registered for the event's kind. Job errors and
// panics are logged and suppressed: one failing pull request must never crash
// the service or block processing of other events.
func (d *dispatcher) processEvent(workerID int, event *core.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in review job",
				"worker_id", workerID,
				"pr", event.PRID(),
				"panic", r,
			)
		}
	}()

	job, ok := d.jobs[event.Kind]
	if !ok {
		d.logger.Warn("no job registered for event kind", "kind", event.Kind)
		return
	}

	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"kind", event.Kind,
		"pr", event.PRID(),
	)

	if err := job.Run(context.Background(), event); err != nil {
		d.logger.Error("review job failed",
			"kind", event.Kind,
			"pr", event.PRID(),
			"error", err,
		)
	}
}

// Dispatch queues an event for processing by a worker.
func (d *dispatcher) Dispatch(_ context.Context, event *core.Event) error {
	d.logger.Info("queuing job", "kind", event.Kind, "pr", event.PRID())

	select {
	case d.jobQueue <- event:
		return nil
	default:
		return fmt.Errorf("job queue is full, cannot accept new job")
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	close(d.jobQueue)
	d.wg.Wait()
	d.logger.Info("all jobs have finished")
}
