package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{client: client}
}

func (r *caseRepository) casesCollection() string {
	return prefixed(r.collectionPrefix, "cases")
}

func (r *caseRepository) decisionsCollection() string {
	return prefixed(r.collectionPrefix, "decisions")
}

func (r *caseRepository) Create(ctx context.Context, c *model.RefundCase) (*model.RefundCase, error) {
	if !c.Status.IsValid() {
		return nil, goerr.New("case status is invalid", goerr.V("status", c.Status))
	}

	now := time.Now().UTC()
	created := *c
	if created.ID == "" {
		created.ID = uuid.Must(uuid.NewV7()).String()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	// Create (not Set) so an ID collision fails instead of overwriting the
	// append-only audit trail.
	_, err := r.client.Collection(r.casesCollection()).Doc(created.ID).Create(ctx, &created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *caseRepository) Get(ctx context.Context, id string) (*model.RefundCase, error) {
	docSnap, err := r.client.Collection(r.casesCollection()).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	var c model.RefundCase
	if err := docSnap.DataTo(&c); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
	}

	return &c, nil
}

func (r *caseRepository) GetLatestByThread(ctx context.Context, threadID string) (*model.RefundCase, error) {
	iter := r.client.Collection(r.casesCollection()).
		Where("ThreadID", "==", threadID).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "no case for thread", goerr.V("thread_id", threadID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query latest case", goerr.V("thread_id", threadID))
	}

	var c model.RefundCase
	if err := docSnap.DataTo(&c); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", docSnap.Ref.ID))
	}

	return &c, nil
}

func (r *caseRepository) ListPending(ctx context.Context, opts ...interfaces.ListPendingOption) ([]*model.RefundCase, error) {
	cfg := interfaces.BuildListPendingConfig(opts...)

	query := r.client.Collection(r.casesCollection()).
		Where("Status", "==", types.CaseStatusPendingReview.String())
	if tier := cfg.RiskTier(); tier != nil {
		query = query.Where("RiskTier", "==", tier.String())
	}
	query = query.OrderBy("CreatedAt", firestore.Desc)
	if limit := cfg.Limit(); limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var cases []*model.RefundCase
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate pending cases")
		}

		var c model.RefundCase
		if err := docSnap.DataTo(&c); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", docSnap.Ref.ID))
		}

		cases = append(cases, &c)
	}

	return cases, nil
}

// RecordDecision runs the status check, the transition, and the decision
// write in one Firestore transaction. Contention on the same case aborts and
// retries the transaction; contention on different cases does not interact.
func (r *caseRepository) RecordDecision(ctx context.Context, caseID string, decision *model.Decision) (*model.CaseOutcome, error) {
	next := decision.Verdict.CaseStatus()
	caseRef := r.client.Collection(r.casesCollection()).Doc(caseID)
	decisionRef := r.client.Collection(r.decisionsCollection()).Doc(caseID)

	var outcome *model.CaseOutcome
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(caseRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", caseID))
			}
			return goerr.Wrap(err, "failed to get case", goerr.V("id", caseID))
		}

		var c model.RefundCase
		if err := docSnap.DataTo(&c); err != nil {
			return goerr.Wrap(err, "failed to decode case", goerr.V("id", caseID))
		}

		if !c.Status.CanTransitionTo(next) {
			return goerr.Wrap(interfaces.ErrAlreadyDecided, "case is not pending review",
				goerr.V("id", caseID),
				goerr.V("status", c.Status))
		}

		now := time.Now().UTC()
		recorded := *decision
		recorded.CaseID = caseID
		recorded.DecidedAt = now

		c.Status = next
		c.UpdatedAt = now

		if err := tx.Set(caseRef, &c); err != nil {
			return goerr.Wrap(err, "failed to update case", goerr.V("id", caseID))
		}
		if err := tx.Create(decisionRef, &recorded); err != nil {
			return goerr.Wrap(err, "failed to create decision", goerr.V("id", caseID))
		}

		outcome = &model.CaseOutcome{Case: &c, Decision: &recorded}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

func (r *caseRepository) GetDecision(ctx context.Context, caseID string) (*model.Decision, error) {
	docSnap, err := r.client.Collection(r.decisionsCollection()).Doc(caseID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "decision not found", goerr.V("case_id", caseID))
		}
		return nil, goerr.Wrap(err, "failed to get decision", goerr.V("case_id", caseID))
	}

	var d model.Decision
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode decision", goerr.V("case_id", caseID))
	}

	return &d, nil
}
