package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type jobRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newJobRepository(client *firestore.Client) *jobRepository {
	return &jobRepository{client: client}
}

func (r *jobRepository) jobsCollection() string {
	return prefixed(r.collectionPrefix, "jobs")
}

// Enqueue creates the job unless an active one already occupies the key. The
// check and the write run in one transaction so concurrent enqueues of the
// same key cannot both create.
func (r *jobRepository) Enqueue(ctx context.Context, job *model.Job) (*model.Job, bool, error) {
	if job.IdempotencyKey == "" {
		return nil, false, goerr.New("job idempotency key is required")
	}

	docRef := r.client.Collection(r.jobsCollection()).Doc(job.IdempotencyKey)

	var result *model.Job
	var created bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get job", goerr.V("key", job.IdempotencyKey))
		}

		if err == nil {
			var existing model.Job
			if decodeErr := docSnap.DataTo(&existing); decodeErr != nil {
				return goerr.Wrap(decodeErr, "failed to decode job", goerr.V("key", job.IdempotencyKey))
			}
			if existing.Status.IsActive() {
				result = &existing
				created = false
				return nil
			}
		}

		now := time.Now().UTC()
		fresh := *job
		fresh.Status = types.JobStatusQueued
		fresh.RetryCount = 0
		fresh.CreatedAt = now
		fresh.UpdatedAt = now

		if err := tx.Set(docRef, &fresh); err != nil {
			return goerr.Wrap(err, "failed to create job", goerr.V("key", fresh.IdempotencyKey))
		}

		result = &fresh
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, created, nil
}

// ClaimNext queries runnable candidates, then claims one in a transaction
// that re-checks its state. Losing a race on one candidate moves on to the
// next.
func (r *jobRepository) ClaimNext(ctx context.Context, lease time.Duration) (*model.Job, error) {
	now := time.Now().UTC()

	candidates, err := r.findClaimCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		claimed, err := r.tryClaim(ctx, candidate.IdempotencyKey, lease)
		if err != nil {
			return nil, err
		}
		if claimed != nil {
			return claimed, nil
		}
	}

	return nil, goerr.Wrap(interfaces.ErrNoClaimableJob, "queue is empty")
}

func (r *jobRepository) findClaimCandidates(ctx context.Context, now time.Time) ([]*model.Job, error) {
	var candidates []*model.Job

	queued := r.client.Collection(r.jobsCollection()).
		Where("Status", "==", types.JobStatusQueued.String()).
		OrderBy("CreatedAt", firestore.Asc).
		Limit(8).
		Documents(ctx)
	defer queued.Stop()

	for {
		docSnap, err := queued.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query queued jobs")
		}
		var j model.Job
		if err := docSnap.DataTo(&j); err != nil {
			return nil, goerr.Wrap(err, "failed to decode job", goerr.V("doc_id", docSnap.Ref.ID))
		}
		if j.NotBefore.IsZero() || !j.NotBefore.After(now) {
			candidates = append(candidates, &j)
		}
	}

	// Abandoned RUNNING jobs whose lease has expired
	running := r.client.Collection(r.jobsCollection()).
		Where("Status", "==", types.JobStatusRunning.String()).
		Where("LeaseExpiresAt", "<", now).
		Limit(8).
		Documents(ctx)
	defer running.Stop()

	for {
		docSnap, err := running.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query expired jobs")
		}
		var j model.Job
		if err := docSnap.DataTo(&j); err != nil {
			return nil, goerr.Wrap(err, "failed to decode job", goerr.V("doc_id", docSnap.Ref.ID))
		}
		candidates = append(candidates, &j)
	}

	return candidates, nil
}

// tryClaim returns nil, nil when another worker won the race for this job
func (r *jobRepository) tryClaim(ctx context.Context, key string, lease time.Duration) (*model.Job, error) {
	docRef := r.client.Collection(r.jobsCollection()).Doc(key)

	var claimed *model.Job
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			return goerr.Wrap(err, "failed to get job", goerr.V("key", key))
		}

		var j model.Job
		if err := docSnap.DataTo(&j); err != nil {
			return goerr.Wrap(err, "failed to decode job", goerr.V("key", key))
		}

		now := time.Now().UTC()
		runnable := (j.Status == types.JobStatusQueued && (j.NotBefore.IsZero() || !j.NotBefore.After(now))) ||
			(j.Status == types.JobStatusRunning && !j.LeaseExpiresAt.IsZero() && j.LeaseExpiresAt.Before(now))
		if !runnable {
			return nil
		}

		j.Status = types.JobStatusRunning
		j.LeaseExpiresAt = now.Add(lease)
		j.UpdatedAt = now

		if err := tx.Set(docRef, &j); err != nil {
			return goerr.Wrap(err, "failed to claim job", goerr.V("key", key))
		}

		claimed = &j
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

func (r *jobRepository) update(ctx context.Context, key string, mutate func(j *model.Job)) error {
	docRef := r.client.Collection(r.jobsCollection()).Doc(key)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "job not found", goerr.V("key", key))
			}
			return goerr.Wrap(err, "failed to get job", goerr.V("key", key))
		}

		var j model.Job
		if err := docSnap.DataTo(&j); err != nil {
			return goerr.Wrap(err, "failed to decode job", goerr.V("key", key))
		}

		mutate(&j)
		j.UpdatedAt = time.Now().UTC()

		if err := tx.Set(docRef, &j); err != nil {
			return goerr.Wrap(err, "failed to update job", goerr.V("key", key))
		}
		return nil
	})
}

func (r *jobRepository) MarkDone(ctx context.Context, key string, transactionID string) error {
	return r.update(ctx, key, func(j *model.Job) {
		j.Status = types.JobStatusDone
		if transactionID != "" {
			j.TransactionID = transactionID
		}
		j.LastError = ""
	})
}

func (r *jobRepository) MarkFailed(ctx context.Context, key string, lastErr string) error {
	return r.update(ctx, key, func(j *model.Job) {
		j.Status = types.JobStatusFailed
		j.LastError = lastErr
	})
}

func (r *jobRepository) Requeue(ctx context.Context, key string, retryCount int, notBefore time.Time, lastErr string) error {
	return r.update(ctx, key, func(j *model.Job) {
		j.Status = types.JobStatusQueued
		j.RetryCount = retryCount
		j.NotBefore = notBefore
		j.LeaseExpiresAt = time.Time{}
		j.LastError = lastErr
	})
}

func (r *jobRepository) Get(ctx context.Context, key string) (*model.Job, error) {
	docSnap, err := r.client.Collection(r.jobsCollection()).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "job not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to get job", goerr.V("key", key))
	}

	var j model.Job
	if err := docSnap.DataTo(&j); err != nil {
		return nil, goerr.Wrap(err, "failed to decode job", goerr.V("key", key))
	}

	return &j, nil
}

func (r *jobRepository) ListByStatus(ctx context.Context, jobStatus types.JobStatus) ([]*model.Job, error) {
	iter := r.client.Collection(r.jobsCollection()).
		Where("Status", "==", jobStatus.String()).
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var jobs []*model.Job
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate jobs")
		}

		var j model.Job
		if err := docSnap.DataTo(&j); err != nil {
			return nil, goerr.Wrap(err, "failed to decode job", goerr.V("doc_id", docSnap.Ref.ID))
		}

		jobs = append(jobs, &j)
	}

	return jobs, nil
}
