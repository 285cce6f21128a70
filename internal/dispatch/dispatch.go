// Package dispatch runs pass-search and propagation jobs on a pool of
// workers. Every worker owns a private engine (and therefore private
// caches); jobs are routed round-robin and results delivered over per-job
// channels. A synchronous path executes the same job code on the caller's
// goroutine for environments without worker support.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/star/skywatch/internal/metrics"
	"github.com/star/skywatch/internal/passes"
	"github.com/star/skywatch/internal/propagation"
)

// DefaultWorkers is the pool size when none is configured.
const DefaultWorkers = 4

// Dispatcher routes jobs to a fixed pool of workers. Construct with New,
// release with Close.
type Dispatcher struct {
	workers []*worker
	logger  *slog.Logger

	// syncEngine serves Sync() calls. It is distinct from every worker's
	// engine: synchronous and dispatched executions never share caches.
	syncEngine *passes.Engine

	next   atomic.Uint64
	nextID atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type worker struct {
	id     int
	jobs   chan request
	engine *passes.Engine
}

type request struct {
	ctx  context.Context
	job  Job
	resp chan Response
}

// New starts a dispatcher with n workers. Non-positive n selects
// DefaultWorkers.
func New(n int, logger *slog.Logger) *Dispatcher {
	if n <= 0 {
		n = DefaultWorkers
	}

	d := &Dispatcher{
		logger:     logger,
		syncEngine: passes.NewEngine(logger),
	}

	d.workers = make([]*worker, n)
	for i := range d.workers {
		w := &worker{
			id:     i,
			jobs:   make(chan request, 16),
			engine: passes.NewEngine(logger),
		}
		d.workers[i] = w
		d.wg.Add(1)
		go d.run(w)
	}

	metrics.SetDispatchWorkers(n)
	logger.Info("dispatcher started", "workers", n)
	return d
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int { return len(d.workers) }

// NextID allocates a job ID unique within this dispatcher.
func (d *Dispatcher) NextID() uint64 { return d.nextID.Add(1) }

// Submit queues the job on the next worker in round-robin order and returns
// a channel that will receive exactly one Response. The channel is buffered:
// a caller that stops waiting (timeout, disconnect) can simply abandon it
// and the worker is never blocked on delivery.
func (d *Dispatcher) Submit(ctx context.Context, job Job) <-chan Response {
	resp := make(chan Response, 1)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		resp <- Response{ID: job.ID, Type: job.Type, Error: "dispatcher closed"}
		return resp
	}

	w := d.workers[d.next.Add(1)%uint64(len(d.workers))]
	select {
	case w.jobs <- request{ctx: ctx, job: job, resp: resp}:
	case <-ctx.Done():
		resp <- Response{ID: job.ID, Type: job.Type, Error: ctx.Err().Error()}
	}
	return resp
}

// Sync executes the job immediately on the caller's goroutine against the
// dispatcher's synchronous engine. The job code is the same as the worker
// path, so results are identical for identical inputs.
func (d *Dispatcher) Sync(ctx context.Context, job Job) Response {
	return execute(ctx, d.syncEngine, job, d.logger)
}

// ClearAllCaches clears every worker's caches and the synchronous engine's
// caches. Used when the loaded element sets change wholesale; a CLEAR_CACHE
// job, by contrast, clears only the worker that receives it.
func (d *Dispatcher) ClearAllCaches() {
	d.syncEngine.ClearCaches()
	for _, w := range d.workers {
		w.engine.ClearCaches()
	}
}

// Close stops all workers and waits for in-flight jobs to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, w := range d.workers {
		close(w.jobs)
	}
	d.mu.Unlock()

	d.wg.Wait()
	metrics.SetDispatchWorkers(0)
	d.logger.Info("dispatcher stopped")
}

func (d *Dispatcher) run(w *worker) {
	defer d.wg.Done()
	for req := range w.jobs {
		req.resp <- execute(req.ctx, w.engine, req.job, d.logger)
	}
}

// execute runs one job against the given engine. Panics are contained at
// the job boundary and surface as a failed Response.
func execute(ctx context.Context, eng *passes.Engine, job Job, logger *slog.Logger) (resp Response) {
	resp = Response{ID: job.ID, Type: job.Type}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "job_id", job.ID, "type", job.Type, "panic", r)
			resp = Response{
				ID:    job.ID,
				Type:  job.Type,
				Error: fmt.Sprintf("internal error: %v", r),
			}
		}
		metrics.IncJob(string(job.Type), resp.Success)
	}()

	switch job.Type {
	case JobPropagatePositions:
		req, ok := job.Data.(PositionsRequest)
		if !ok {
			resp.Error = payloadError(job)
			return resp
		}
		samples, err := propagation.PropagatePositions(eng.Elements(), req.Entry, req.Times)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Success = true
		resp.Result = samples

	case JobPropagateGeodetic:
		req, ok := job.Data.(GeodeticRequest)
		if !ok {
			resp.Error = payloadError(job)
			return resp
		}
		sample, err := propagation.PropagateGeodetic(eng.Elements(), req.Entry, req.Time)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Success = true
		resp.Result = sample

	case JobPassesElevation:
		req, ok := job.Data.(ElevationRequest)
		if !ok {
			resp.Error = payloadError(job)
			return resp
		}
		found, stats, err := eng.FindElevationPasses(ctx, req.Entry, req.Station, req.Config)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Success = true
		resp.Result = PassResult{Passes: found, Stats: stats}

	case JobPassesSwath:
		req, ok := job.Data.(SwathRequest)
		if !ok {
			resp.Error = payloadError(job)
			return resp
		}
		found, stats, err := eng.FindSwathPasses(ctx, req.Entry, req.Station, req.Config)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Success = true
		resp.Result = PassResult{Passes: found, Stats: stats}

	case JobClearCache:
		eng.ClearCaches()
		resp.Success = true

	default:
		resp.Error = fmt.Sprintf("unknown job type %q", job.Type)
	}

	return resp
}

func payloadError(job Job) string {
	return fmt.Sprintf("job type %s: unexpected payload %T", job.Type, job.Data)
}
