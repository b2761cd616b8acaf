// Package scheduler fans a roster of entities' per-tick pipeline runs
// across a reusable worker pool. Entities are data-parallel (each owns its
// rings and parameter store exclusively, and the baked graph is read-only),
// so there are no cross-entity ordering guarantees, only a per-batch
// barrier so the caller never observes a partially-ticked roster.
//
// The pool is a worker.DynamicWorkerPool fed with worker.Task values, with
// a sync.WaitGroup providing the per-batch barrier: the pool's own Wait()
// blocks until workers idle-exit, which does not line up with a frame-rate
// barrier. The background diagnostics sampler runs off channerics.NewTicker
// on its own cadence, independent of the hot path.
package scheduler

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	channerics "github.com/niceyeti/channerics/channels"

	"github.com/duskforge/animgraph/clip"
	"github.com/duskforge/animgraph/runtime"
)

// Handle pairs an Entity with the identity its ticks are reported against.
// The scheduler never interprets ID beyond using it to key TickOutcome.
type Handle struct {
	ID     clip.EntityID
	Entity *runtime.Entity
}

// TickOutcome reports one entity's result from a single batch Tick call.
type TickOutcome struct {
	ID     clip.EntityID
	Result runtime.TickResult
	Motion runtime.RootMotion
	Err    error
}

// Options configures a Scheduler's worker pool.
type Options struct {
	// Workers is the number of reusable goroutines in the compute pool.
	Workers int
	// QueueSize bounds the pool's pending-task backlog.
	QueueSize int
	// IdleTimeout is how long an idle worker goroutine lives before exiting;
	// the pool restarts workers on demand.
	IdleTimeout time.Duration
	// DiagnosticsInterval, if non-zero, starts a background sampler that
	// reports pool occupancy at this cadence via the Samples channel.
	DiagnosticsInterval time.Duration
}

// Option mutates Options during construction.
type Option func(*Options)

// WithWorkers sets the compute pool's goroutine count.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithQueueSize sets the compute pool's backlog bound.
func WithQueueSize(n int) Option { return func(o *Options) { o.QueueSize = n } }

// WithIdleTimeout sets how long an idle pool goroutine survives.
func WithIdleTimeout(d time.Duration) Option { return func(o *Options) { o.IdleTimeout = d } }

// WithDiagnosticsInterval enables the periodic pool-occupancy sampler.
func WithDiagnosticsInterval(d time.Duration) Option {
	return func(o *Options) { o.DiagnosticsInterval = d }
}

func defaultOptions() Options {
	return Options{
		Workers:     8,
		QueueSize:   256,
		IdleTimeout: time.Second,
	}
}

// PoolSample is one occupancy reading from the diagnostics sampler.
type PoolSample struct {
	At          time.Time
	BatchSize   int
	LastTickDur time.Duration
}

// Scheduler drives many entities' Tick calls across a reusable worker pool,
// one Handle per entity, with a barrier at the end of every batch so the
// caller always observes a fully-ticked roster. An entity's pipeline is
// never split across threads; only distinct entities run concurrently.
type Scheduler struct {
	pool worker.DynamicWorkerPool

	mu        sync.Mutex
	samples   chan PoolSample
	done      chan struct{}
	closeOnce sync.Once
	lastBatch int
	lastDur   time.Duration
}

// New constructs a Scheduler with a dedicated compute pool.
func New(opts ...Option) *Scheduler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Scheduler{
		pool: worker.NewDynamicWorkerPool(o.Workers, o.QueueSize, o.IdleTimeout),
		done: make(chan struct{}),
	}

	if o.DiagnosticsInterval > 0 {
		s.samples = make(chan PoolSample, 16)
		go s.sampleLoop(o.DiagnosticsInterval)
	}

	return s
}

// Samples returns the diagnostics sample channel, or nil if diagnostics
// sampling was not enabled.
func (s *Scheduler) Samples() <-chan PoolSample { return s.samples }

func (s *Scheduler) sampleLoop(interval time.Duration) {
	for range channerics.NewTicker(s.done, interval) {
		s.mu.Lock()
		last := s.lastBatch
		dur := s.lastDur
		s.mu.Unlock()
		select {
		case s.samples <- PoolSample{At: time.Now(), BatchSize: last, LastTickDur: dur}:
		default:
			// Diagnostics are best-effort; never block the tick path on a
			// slow consumer.
		}
	}
}

// Tick runs dt across every handle's Entity.Tick concurrently on the
// compute pool, submitting one worker.Task per entity and blocking on a
// WaitGroup barrier, then fans the per-entity results into the returned
// slice in handles' input order.
//
// writer is the shared SkeletonWriter each entity's bone sampler writes
// into; it must tolerate concurrent calls for distinct entity IDs.
func (s *Scheduler) Tick(handles []Handle, dt float32, writer clip.SkeletonWriter) []TickOutcome {
	start := time.Now()
	results := make([]TickOutcome, len(handles))

	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		idx, handle := i, h
		s.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				result, motion := handle.Entity.Tick(dt, writer, handle.ID)
				results[idx] = TickOutcome{ID: handle.ID, Result: result, Motion: motion}
				return nil, nil
			},
		})
	}
	wg.Wait()

	s.mu.Lock()
	s.lastBatch = len(handles)
	s.lastDur = time.Since(start)
	s.mu.Unlock()

	return results
}

// Close stops the diagnostics sampler, if running. The compute pool itself
// is left running; DynamicWorkerPool workers idle-exit on their own after
// IdleTimeout.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
