package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type caseRepository struct {
	mu        sync.RWMutex
	cases     map[string]*model.RefundCase
	decisions map[string]*model.Decision
	byThread  map[string][]string // threadID -> case IDs in creation order
}

func newCaseRepository() *caseRepository {
	return &caseRepository{
		cases:     make(map[string]*model.RefundCase),
		decisions: make(map[string]*model.Decision),
		byThread:  make(map[string][]string),
	}
}

// copyCase creates a deep copy of a case
func copyCase(c *model.RefundCase) *model.RefundCase {
	copied := *c
	if c.ContextSnapshot != nil {
		snapshot := make([]byte, len(c.ContextSnapshot))
		copy(snapshot, c.ContextSnapshot)
		copied.ContextSnapshot = snapshot
	}
	return &copied
}

func copyDecision(d *model.Decision) *model.Decision {
	copied := *d
	return &copied
}

func (r *caseRepository) Create(ctx context.Context, c *model.RefundCase) (*model.RefundCase, error) {
	if !c.Status.IsValid() {
		return nil, goerr.New("case status is invalid", goerr.V("status", c.Status))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyCase(c)
	if created.ID == "" {
		created.ID = uuid.Must(uuid.NewV7()).String()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, exists := r.cases[created.ID]; exists {
		return nil, goerr.New("case already exists", goerr.V("id", created.ID))
	}

	r.cases[created.ID] = created
	r.byThread[created.ThreadID] = append(r.byThread[created.ThreadID], created.ID)

	return copyCase(created), nil
}

func (r *caseRepository) Get(ctx context.Context, id string) (*model.RefundCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", id))
	}

	return copyCase(c), nil
}

func (r *caseRepository) GetLatestByThread(ctx context.Context, threadID string) (*model.RefundCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byThread[threadID]
	if len(ids) == 0 {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "no case for thread", goerr.V("thread_id", threadID))
	}

	return copyCase(r.cases[ids[len(ids)-1]]), nil
}

func (r *caseRepository) ListPending(ctx context.Context, opts ...interfaces.ListPendingOption) ([]*model.RefundCase, error) {
	cfg := interfaces.BuildListPendingConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.RefundCase
	for _, c := range r.cases {
		if c.Status != types.CaseStatusPendingReview {
			continue
		}
		if tier := cfg.RiskTier(); tier != nil && c.RiskTier != *tier {
			continue
		}
		result = append(result, copyCase(c))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit := cfg.Limit(); limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// RecordDecision is the atomic compare-and-transition: the status check and
// the decision write happen under one lock, so two racing reviewers serialize
// and exactly one becomes the authoritative decision.
func (r *caseRepository) RecordDecision(ctx context.Context, caseID string, decision *model.Decision) (*model.CaseOutcome, error) {
	next := decision.Verdict.CaseStatus()

	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.cases[caseID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "case not found", goerr.V("id", caseID))
	}

	if !c.Status.CanTransitionTo(next) {
		return nil, goerr.Wrap(interfaces.ErrAlreadyDecided, "case is not pending review",
			goerr.V("id", caseID),
			goerr.V("status", c.Status))
	}

	recorded := copyDecision(decision)
	recorded.CaseID = caseID
	recorded.DecidedAt = time.Now().UTC()

	c.Status = next
	c.UpdatedAt = recorded.DecidedAt
	r.decisions[caseID] = recorded

	return &model.CaseOutcome{
		Case:     copyCase(c),
		Decision: copyDecision(recorded),
	}, nil
}

func (r *caseRepository) GetDecision(ctx context.Context, caseID string) (*model.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.decisions[caseID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "decision not found", goerr.V("case_id", caseID))
	}

	return copyDecision(d), nil
}
