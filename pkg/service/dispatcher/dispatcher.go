package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Executor performs one external side effect for a claimed job. It returns
// the settlement transaction ID when the effect produced one. Executors must
// be idempotent with respect to the job's idempotency key: executing the same
// job twice must not duplicate the external effect.
type Executor func(ctx context.Context, job *model.Job) (transactionID string, err error)

const (
	DefaultWorkers      = 4
	DefaultLease        = 2 * time.Minute
	DefaultMaxRetries   = 5
	DefaultPollInterval = 500 * time.Millisecond
	DefaultBackoffBase  = time.Second
	DefaultBackoffCap   = 5 * time.Minute
)

// Dispatcher executes retryable, idempotent side-effect jobs from the durable
// queue. Execution blocks only the worker that claimed the job, never the
// submitting coordinator.
type Dispatcher struct {
	jobs    interfaces.JobRepository
	alerter interfaces.Alerter

	mu        sync.RWMutex
	executors map[types.JobKind]Executor

	workers      int
	lease        time.Duration
	maxRetries   int
	pollInterval time.Duration
	backoffBase  time.Duration
	backoffCap   time.Duration
}

// Option is a functional option for Dispatcher configuration
type Option func(*Dispatcher)

// WithWorkers sets the number of concurrent workers
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		d.workers = n
	}
}

// WithLease sets how long a claimed job may run unacknowledged before another
// worker may reclaim it
func WithLease(lease time.Duration) Option {
	return func(d *Dispatcher) {
		d.lease = lease
	}
}

// WithMaxRetries sets the retry ceiling after which a job is marked FAILED
func WithMaxRetries(n int) Option {
	return func(d *Dispatcher) {
		d.maxRetries = n
	}
}

// WithPollInterval sets the idle queue polling interval
func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		d.pollInterval = interval
	}
}

// WithBackoff sets the exponential backoff base and cap
func WithBackoff(base, cap time.Duration) Option {
	return func(d *Dispatcher) {
		d.backoffBase = base
		d.backoffCap = cap
	}
}

// WithAlerter sets the operational alert sink for jobs that exhaust retries
func WithAlerter(alerter interfaces.Alerter) Option {
	return func(d *Dispatcher) {
		d.alerter = alerter
	}
}

// New creates a Dispatcher on the given durable job queue
func New(jobs interfaces.JobRepository, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		jobs:         jobs,
		executors:    make(map[types.JobKind]Executor),
		workers:      DefaultWorkers,
		lease:        DefaultLease,
		maxRetries:   DefaultMaxRetries,
		pollInterval: DefaultPollInterval,
		backoffBase:  DefaultBackoffBase,
		backoffCap:   DefaultBackoffCap,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds an executor to a job kind
func (d *Dispatcher) Register(kind types.JobKind, executor Executor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executors[kind] = executor
}

func (d *Dispatcher) executor(kind types.JobKind) (Executor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	executor, ok := d.executors[kind]
	return executor, ok
}

// Enqueue submits a side-effect job. If a job with the same idempotency key
// is already QUEUED, RUNNING, or DONE this is a no-op returning the existing
// job. The caller must only enqueue after the ledger write that authorizes
// the effect has committed.
func (d *Dispatcher) Enqueue(ctx context.Context, kind types.JobKind, caseID string, payload any) (*model.Job, error) {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode job payload",
				goerr.V("kind", kind), goerr.V("case_id", caseID))
		}
		raw = encoded
	}

	job, created, err := d.jobs.Enqueue(ctx, model.NewJob(caseID, kind, raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to enqueue job",
			goerr.V("kind", kind), goerr.V("case_id", caseID))
	}

	if !created {
		logging.From(ctx).Debug("job already enqueued",
			"key", job.IdempotencyKey,
			"status", job.Status.String())
	}

	return job, nil
}

// Run drains the queue with a pool of workers until the context is cancelled
func (d *Dispatcher) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		eg.Go(func() error {
			return d.workerLoop(ctx)
		})
	}
	return eg.Wait()
}

func (d *Dispatcher) workerLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		job, err := d.jobs.ClaimNext(ctx, d.lease)
		if err != nil {
			if !errors.Is(err, interfaces.ErrNoClaimableJob) {
				logging.From(ctx).Error("failed to claim job", "error", err.Error())
			}
			select {
			case <-time.After(d.pollInterval):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		d.execute(ctx, job)
	}
}

// execute runs one claimed job to DONE, a retry, or FAILED
func (d *Dispatcher) execute(ctx context.Context, job *model.Job) {
	logger := logging.From(ctx)

	executor, ok := d.executor(job.Kind)
	if !ok {
		d.fail(ctx, job, "no executor registered for job kind")
		return
	}

	transactionID, err := executor(ctx, job)
	if err != nil {
		retryCount := job.RetryCount + 1
		if retryCount > d.maxRetries {
			d.fail(ctx, job, err.Error())
			return
		}

		notBefore := time.Now().UTC().Add(d.backoff(retryCount))
		if requeueErr := d.jobs.Requeue(ctx, job.IdempotencyKey, retryCount, notBefore, err.Error()); requeueErr != nil {
			// The lease will expire and another worker reclaims the job
			logger.Error("failed to requeue job",
				"key", job.IdempotencyKey,
				"error", requeueErr.Error())
			return
		}

		logger.Warn("job failed, requeued with backoff",
			"key", job.IdempotencyKey,
			"retry_count", retryCount,
			"not_before", notBefore,
			"error", err.Error())
		return
	}

	if err := d.jobs.MarkDone(ctx, job.IdempotencyKey, transactionID); err != nil {
		logger.Error("failed to mark job done",
			"key", job.IdempotencyKey,
			"error", err.Error())
		return
	}

	logger.Info("job done",
		"key", job.IdempotencyKey,
		"kind", job.Kind.String(),
		"retry_count", job.RetryCount)
}

// fail marks the job FAILED and raises an operational alert. The failure is
// never rolled back into case state: an APPROVED case stays APPROVED even if
// settlement is still failing.
func (d *Dispatcher) fail(ctx context.Context, job *model.Job, reason string) {
	logger := logging.From(ctx)

	if err := d.jobs.MarkFailed(ctx, job.IdempotencyKey, reason); err != nil {
		logger.Error("failed to mark job failed",
			"key", job.IdempotencyKey,
			"error", err.Error())
	}

	logger.Error("job exhausted retries",
		"key", job.IdempotencyKey,
		"kind", job.Kind.String(),
		"retry_count", job.RetryCount,
		"reason", reason)

	if d.alerter != nil {
		if err := d.alerter.Alert(ctx, "refund side-effect job failed", map[string]any{
			"job_key":     job.IdempotencyKey,
			"kind":        job.Kind.String(),
			"case_id":     job.CaseID,
			"retry_count": job.RetryCount,
			"reason":      reason,
		}); err != nil {
			logger.Error("failed to send job failure alert",
				"key", job.IdempotencyKey,
				"error", err.Error())
		}
	}
}

// backoff returns the exponential backoff delay for the given retry, with up
// to 50% jitter, capped.
func (d *Dispatcher) backoff(retryCount int) time.Duration {
	delay := d.backoffBase
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= d.backoffCap {
			delay = d.backoffCap
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	delay += jitter
	if delay > d.backoffCap {
		delay = d.backoffCap
	}
	return delay
}
