package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lightflow-io/lightflow/internal/signalbus"
	"github.com/redis/go-redis/v9"
)

// PoolConfig carries a worker pool's tuning: which queues to pop from,
// how many goroutines pop concurrently, and how long to wait for
// in-flight jobs once asked to stop.
type PoolConfig struct {
	Concurrency   int
	Queues        []string
	PopTimeout    time.Duration
	GracePeriod   time.Duration
	SignalClient  *redis.Client
	SignalTimeout time.Duration
}

// WorkerPool runs N goroutines, each popping one job at a time from its
// assigned queues and dispatching it to the matching executor entry
// point. It mirrors the original's WorkerLifecycle: Run does not itself
// watch for OS signals — it simply runs until ctx is canceled, then
// broadcasts stop_workflow to every distinct in-flight workflow and waits
// (bounded by GracePeriod) for those jobs to finish. Wiring SIGTERM/SIGINT
// into ctx's cancellation is the caller's job, so the pool stays testable
// with a plain context.
type WorkerPool struct {
	cfg    PoolConfig
	queue  *Queue
	wc     *WorkerConfig
	logger *slog.Logger

	mu       sync.Mutex
	inFlight map[string]int // workflow id -> count of jobs currently running for it
}

// NewWorkerPool creates a WorkerPool that pops jobs via q and executes
// them with wc.
func NewWorkerPool(cfg PoolConfig, q *Queue, wc *WorkerConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{cfg: cfg, queue: q, wc: wc, logger: logger, inFlight: make(map[string]int)}
}

// Run starts Concurrency goroutines popping from the pool's queues and
// blocks until every one of them has exited: on ctx cancellation, each
// stops popping new jobs, the pool broadcasts stop_workflow to every
// distinct workflow with jobs still running, and Run returns once those
// jobs finish or GracePeriod elapses, whichever comes first.
func (p *WorkerPool) Run(ctx context.Context) error {
	n := p.cfg.Concurrency
	if n <= 0 {
		n = 1
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			p.loop(ctx)
		}()
	}

	<-ctx.Done()
	p.broadcastStop(context.Background())

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	grace := p.cfg.GracePeriod
	if grace <= 0 {
		grace = 30 * time.Second
	}
	select {
	case <-done:
	case <-time.After(grace):
		p.logger.Warn("worker pool: grace period elapsed with jobs still in flight")
	}
	return nil
}

// loop pops and executes jobs from the pool's queues until ctx is
// canceled.
func (p *WorkerPool) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, p.cfg.PopTimeout, p.cfg.Queues...)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("worker pool: dequeue failed", "error", err)
			continue
		}
		if job == nil {
			continue
		}

		p.track(job.WorkflowID, 1)
		p.execute(context.WithoutCancel(ctx), job)
		p.track(job.WorkflowID, -1)
	}
}

func (p *WorkerPool) execute(ctx context.Context, job *Job) {
	var err error
	switch job.Type {
	case JobTypeWorkflow:
		var wj WorkflowJob
		if wj, err = job.DecodeWorkflow(); err == nil {
			err = ExecuteWorkflow(ctx, wj, p.wc)
		}
	case JobTypeDag:
		var dj DagJob
		if dj, err = job.DecodeDag(); err == nil {
			err = ExecuteDag(ctx, dj, p.wc)
		}
	case JobTypeTask:
		var tj TaskJob
		if tj, err = job.DecodeTask(); err == nil {
			err = ExecuteTask(ctx, tj, p.wc)
		}
	default:
		err = fmt.Errorf("worker pool: unknown job type %q", job.Type)
	}

	if err != nil {
		p.logger.Error("worker pool: job failed", "job_id", job.JobID, "job_type", string(job.Type), "error", err)
	}
}

func (p *WorkerPool) track(workflowID string, delta int) {
	if workflowID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight[workflowID] += delta
	if p.inFlight[workflowID] <= 0 {
		delete(p.inFlight, workflowID)
	}
}

// broadcastStop sends one stop_workflow request per distinct workflow
// that still has jobs running, deduplicating exactly as the source's
// WorkerLifecycle.stop does over active_requests.
func (p *WorkerPool) broadcastStop(ctx context.Context) {
	p.mu.Lock()
	ids := make([]string, 0, len(p.inFlight))
	for id := range p.inFlight {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		client := signalbus.NewClient(p.cfg.SignalClient, id, p.cfg.SignalTimeout)
		signal := signalbus.NewDagSignal(ctx, client, "")
		if err := signal.StopWorkflow(); err != nil {
			p.logger.Error("worker pool: stop_workflow failed", "workflow_id", id, "error", err)
		}
	}
}
