package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/lumenlabs/lumen-api/internal/platform/logger"
)

// Runner errors.
var (
	// ErrQueueFull is returned when the pending queue is at capacity.
	ErrQueueFull = errors.New("task queue is full")

	// ErrRunnerStopped is returned when submitting to a stopped runner.
	ErrRunnerStopped = errors.New("task runner is stopped")
)

// RunnerConfig holds the runner's tuning parameters.
type RunnerConfig struct {
	// WorkerCount is the number of concurrent workers.
	WorkerCount int

	// QueueSize is the capacity of the pending task queue.
	QueueSize int
}

// Runner executes tasks on a fixed pool of workers. Submissions beyond the
// queue capacity are rejected rather than blocking the caller.
type Runner struct {
	queue  chan Task
	logger *slog.Logger
	config RunnerConfig

	wg       sync.WaitGroup
	mu       sync.Mutex
	stopped  bool
	baseCtx  context.Context
	cancelFn context.CancelFunc
}

// NewRunner creates a task runner. Start must be called before tasks are
// submitted.
func NewRunner(config RunnerConfig, log *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 5
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	return &Runner{
		queue:  make(chan Task, config.QueueSize),
		logger: log.With("component", "task_runner"),
		config: config,
	}
}

// Start launches the worker pool.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseCtx, r.cancelFn = context.WithCancel(context.Background())
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("task runner started",
		"worker_count", r.config.WorkerCount,
		"queue_size", r.config.QueueSize)
}

// Submit enqueues a task for execution. It never blocks: a full queue
// returns ErrQueueFull so the caller can surface backpressure.
func (r *Runner) Submit(task Task) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrRunnerStopped
	}
	r.mu.Unlock()

	select {
	case r.queue <- task:
		r.logger.Debug("task enqueued", "task_id", task.ID(), "kind", task.Kind())
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains the queue, waits for in-flight tasks to finish, and then
// cancels the worker contexts.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	if r.cancelFn != nil {
		r.cancelFn()
	}
	r.logger.Info("task runner stopped")
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	for task := range r.queue {
		r.runOne(id, task)
	}
}

// runOne executes a single task, containing panics so one bad task cannot
// take down a worker.
func (r *Runner) runOne(workerID int, t Task) {
	log := r.logger.With("worker_id", workerID, "task_id", t.ID(), "kind", t.Kind())
	ctx := logger.WithContext(r.baseCtx, log)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("task panicked",
				"panic", fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()))
		}
	}()

	log.Debug("task started")
	if err := t.Execute(ctx); err != nil {
		log.Error("task failed", "error", err)
		return
	}
	log.Debug("task finished")
}
