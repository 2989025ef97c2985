package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestJobRepository(t *testing.T) {
	runRepositoryTest(t, func(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
		t.Run("Enqueue creates a queued job", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			job, created, err := repo.Job().Enqueue(ctx, model.NewJob("c1", types.JobKindSettlePayment, nil))
			gt.NoError(t, err).Required()
			gt.Bool(t, created).True()
			gt.Value(t, job.Status).Equal(types.JobStatusQueued)
			gt.Value(t, job.IdempotencyKey).Equal("c1:SETTLE_PAYMENT")
		})

		t.Run("Enqueue with same key is a no-op", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			first, created, err := repo.Job().Enqueue(ctx, model.NewJob("c2", types.JobKindSendSMS, nil))
			gt.NoError(t, err).Required()
			gt.Bool(t, created).True()

			second, created, err := repo.Job().Enqueue(ctx, model.NewJob("c2", types.JobKindSendSMS, nil))
			gt.NoError(t, err).Required()
			gt.Bool(t, created).False()
			gt.Value(t, second.IdempotencyKey).Equal(first.IdempotencyKey)
		})

		t.Run("Enqueue after DONE stays a no-op", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			job, _, err := repo.Job().Enqueue(ctx, model.NewJob("c3", types.JobKindSettlePayment, nil))
			gt.NoError(t, err).Required()
			gt.NoError(t, repo.Job().MarkDone(ctx, job.IdempotencyKey, "TXN-c3"))

			again, created, err := repo.Job().Enqueue(ctx, model.NewJob("c3", types.JobKindSettlePayment, nil))
			gt.NoError(t, err).Required()
			gt.Bool(t, created).False()
			gt.Value(t, again.Status).Equal(types.JobStatusDone)
			gt.Value(t, again.TransactionID).Equal("TXN-c3")
		})

		t.Run("Enqueue after FAILED creates a fresh job", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			job, _, err := repo.Job().Enqueue(ctx, model.NewJob("c4", types.JobKindSendSMS, nil))
			gt.NoError(t, err).Required()
			gt.NoError(t, repo.Job().MarkFailed(ctx, job.IdempotencyKey, "gateway down"))

			fresh, created, err := repo.Job().Enqueue(ctx, model.NewJob("c4", types.JobKindSendSMS, nil))
			gt.NoError(t, err).Required()
			gt.Bool(t, created).True()
			gt.Value(t, fresh.Status).Equal(types.JobStatusQueued)
			gt.Number(t, fresh.RetryCount).Equal(0)
		})

		t.Run("concurrent Enqueue of one key creates exactly once", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			const n = 8
			var wg sync.WaitGroup
			results := make([]bool, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, created, err := repo.Job().Enqueue(ctx, model.NewJob("c5", types.JobKindSettlePayment, nil))
					gt.NoError(t, err)
					results[i] = created
				}(i)
			}
			wg.Wait()

			var createdCount int
			for _, created := range results {
				if created {
					createdCount++
				}
			}
			gt.Number(t, createdCount).Equal(1)
		})

		t.Run("ClaimNext claims and leases a queued job", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			_, _, err := repo.Job().Enqueue(ctx, model.NewJob("c6", types.JobKindSendSMS, nil))
			gt.NoError(t, err).Required()

			claimed, err := repo.Job().ClaimNext(ctx, time.Minute)
			gt.NoError(t, err).Required()
			gt.Value(t, claimed.Status).Equal(types.JobStatusRunning)
			gt.Bool(t, claimed.LeaseExpiresAt.After(time.Now())).True()

			// Nothing else to claim while the lease is held
			_, err = repo.Job().ClaimNext(ctx, time.Minute)
			gt.Error(t, err)
			gt.Bool(t, errors.Is(err, interfaces.ErrNoClaimableJob)).True()
		})

		t.Run("expired lease makes a running job claimable again", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			job, _, err := repo.Job().Enqueue(ctx, model.NewJob("c7", types.JobKindSettlePayment, nil))
			gt.NoError(t, err).Required()

			// Claim with an already-elapsed lease to simulate a crashed worker
			claimed, err := repo.Job().ClaimNext(ctx, -time.Second)
			gt.NoError(t, err).Required()
			gt.Value(t, claimed.IdempotencyKey).Equal(job.IdempotencyKey)

			reclaimed, err := repo.Job().ClaimNext(ctx, time.Minute)
			gt.NoError(t, err).Required()
			gt.Value(t, reclaimed.IdempotencyKey).Equal(job.IdempotencyKey)
			gt.Value(t, reclaimed.Status).Equal(types.JobStatusRunning)
		})

		t.Run("Requeue defers the next claim", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			job, _, err := repo.Job().Enqueue(ctx, model.NewJob("c8", types.JobKindSendSMS, nil))
			gt.NoError(t, err).Required()

			claimed, err := repo.Job().ClaimNext(ctx, time.Minute)
			gt.NoError(t, err).Required()

			gt.NoError(t, repo.Job().Requeue(ctx, claimed.IdempotencyKey, 1,
				time.Now().Add(time.Hour), "gateway timeout"))

			// Backoff deadline not reached
			_, err = repo.Job().ClaimNext(ctx, time.Minute)
			gt.Bool(t, errors.Is(err, interfaces.ErrNoClaimableJob)).True()

			stored, err := repo.Job().Get(ctx, job.IdempotencyKey)
			gt.NoError(t, err).Required()
			gt.Value(t, stored.Status).Equal(types.JobStatusQueued)
			gt.Number(t, stored.RetryCount).Equal(1)
			gt.Value(t, stored.LastError).Equal("gateway timeout")
		})

		t.Run("ListByStatus returns matching jobs", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			_, _, err := repo.Job().Enqueue(ctx, model.NewJob("c9", types.JobKindSendSMS, nil))
			gt.NoError(t, err).Required()
			job2, _, err := repo.Job().Enqueue(ctx, model.NewJob("c9", types.JobKindSettlePayment, nil))
			gt.NoError(t, err).Required()
			gt.NoError(t, repo.Job().MarkFailed(ctx, job2.IdempotencyKey, "boom"))

			queued, err := repo.Job().ListByStatus(ctx, types.JobStatusQueued)
			gt.NoError(t, err).Required()
			gt.Array(t, queued).Length(1)

			failed, err := repo.Job().ListByStatus(ctx, types.JobStatusFailed)
			gt.NoError(t, err).Required()
			gt.Array(t, failed).Length(1)
		})
	})
}

func TestOrderRepository(t *testing.T) {
	runRepositoryTest(t, func(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
		t.Run("Put and Get", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			order := &model.Order{
				ID:          "order-1",
				UserID:      "U001",
				TotalAmount: 299.0,
				Status:      types.OrderStatusDelivered,
				Items: []model.OrderItem{
					{Name: "Sneakers", Category: "shoes", Price: 299.0, Quantity: 1},
				},
			}
			gt.NoError(t, repo.Order().Put(ctx, order))

			got, err := repo.Order().Get(ctx, "order-1")
			gt.NoError(t, err).Required()
			gt.Value(t, got.TotalAmount).Equal(299.0)
			gt.Array(t, got.Items).Length(1)
		})

		t.Run("GetForUser enforces ownership", func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()

			gt.NoError(t, repo.Order().Put(ctx, &model.Order{
				ID:     "order-2",
				UserID: "U001",
				Status: types.OrderStatusShipped,
			}))

			_, err := repo.Order().GetForUser(ctx, "order-2", "U001")
			gt.NoError(t, err)

			_, err = repo.Order().GetForUser(ctx, "order-2", "U999")
			gt.Error(t, err)
			gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
		})
	})
}
