package interfaces

import (
	"context"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
)

// JobRepository defines the durable work queue keyed by idempotency key. It
// must be safe under concurrent access from request handlers and workers.
type JobRepository interface {
	// Enqueue persists a new QUEUED job. If a job with the same idempotency
	// key is already QUEUED, RUNNING, or DONE, the existing job is returned
	// with created=false and nothing is written. A FAILED job is replaced by
	// a fresh QUEUED one (explicit resubmission after an alert).
	Enqueue(ctx context.Context, job *model.Job) (j *model.Job, created bool, err error)

	// ClaimNext atomically claims one runnable job: QUEUED with NotBefore in
	// the past, or RUNNING with an expired lease (abandoned by a crashed
	// worker). The claimed job is marked RUNNING with a fresh lease. Returns
	// ErrNoClaimableJob when the queue has nothing runnable.
	ClaimNext(ctx context.Context, lease time.Duration) (*model.Job, error)

	// MarkDone transitions a job to DONE, recording the settlement
	// transaction ID when the job produced one.
	MarkDone(ctx context.Context, key string, transactionID string) error

	// MarkFailed transitions a job to FAILED after its retry ceiling
	MarkFailed(ctx context.Context, key string, lastErr string) error

	// Requeue returns a RUNNING job to QUEUED with an increased retry count
	// and a backoff deadline before which it must not be claimed
	Requeue(ctx context.Context, key string, retryCount int, notBefore time.Time, lastErr string) error

	// Get retrieves a job by idempotency key
	Get(ctx context.Context, key string) (*model.Job, error)

	// ListByStatus retrieves jobs in the given status
	ListByStatus(ctx context.Context, status types.JobStatus) ([]*model.Job, error)
}
