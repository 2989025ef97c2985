package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type jobRepository struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newJobRepository() *jobRepository {
	return &jobRepository{
		jobs: make(map[string]*model.Job),
	}
}

func copyJob(j *model.Job) *model.Job {
	copied := *j
	if j.Payload != nil {
		payload := make([]byte, len(j.Payload))
		copy(payload, j.Payload)
		copied.Payload = payload
	}
	return &copied
}

func (r *jobRepository) Enqueue(ctx context.Context, job *model.Job) (*model.Job, bool, error) {
	if job.IdempotencyKey == "" {
		return nil, false, goerr.New("job idempotency key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.jobs[job.IdempotencyKey]; exists && existing.Status.IsActive() {
		return copyJob(existing), false, nil
	}

	now := time.Now().UTC()
	created := copyJob(job)
	created.Status = types.JobStatusQueued
	created.RetryCount = 0
	created.CreatedAt = now
	created.UpdatedAt = now

	r.jobs[created.IdempotencyKey] = created
	return copyJob(created), true, nil
}

func (r *jobRepository) ClaimNext(ctx context.Context, lease time.Duration) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	var candidates []*model.Job
	for _, j := range r.jobs {
		switch j.Status {
		case types.JobStatusQueued:
			if j.NotBefore.IsZero() || !j.NotBefore.After(now) {
				candidates = append(candidates, j)
			}
		case types.JobStatusRunning:
			// Abandoned by a crashed worker once the lease expires
			if !j.LeaseExpiresAt.IsZero() && j.LeaseExpiresAt.Before(now) {
				candidates = append(candidates, j)
			}
		}
	}

	if len(candidates) == 0 {
		return nil, goerr.Wrap(interfaces.ErrNoClaimableJob, "queue is empty")
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	claimed := candidates[0]
	claimed.Status = types.JobStatusRunning
	claimed.LeaseExpiresAt = now.Add(lease)
	claimed.UpdatedAt = now

	return copyJob(claimed), nil
}

func (r *jobRepository) MarkDone(ctx context.Context, key string, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, exists := r.jobs[key]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "job not found", goerr.V("key", key))
	}

	j.Status = types.JobStatusDone
	if transactionID != "" {
		j.TransactionID = transactionID
	}
	j.LastError = ""
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *jobRepository) MarkFailed(ctx context.Context, key string, lastErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, exists := r.jobs[key]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "job not found", goerr.V("key", key))
	}

	j.Status = types.JobStatusFailed
	j.LastError = lastErr
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *jobRepository) Requeue(ctx context.Context, key string, retryCount int, notBefore time.Time, lastErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, exists := r.jobs[key]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "job not found", goerr.V("key", key))
	}

	j.Status = types.JobStatusQueued
	j.RetryCount = retryCount
	j.NotBefore = notBefore
	j.LeaseExpiresAt = time.Time{}
	j.LastError = lastErr
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *jobRepository) Get(ctx context.Context, key string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, exists := r.jobs[key]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "job not found", goerr.V("key", key))
	}

	return copyJob(j), nil
}

func (r *jobRepository) ListByStatus(ctx context.Context, status types.JobStatus) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*model.Job
	for _, j := range r.jobs {
		if j.Status == status {
			result = append(result, copyJob(j))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}
