package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

// statusOf maps a pipeline error to an HTTP status. Anything that is not a
// caller mistake is reported 503: the submission is safe to retry because
// every write path is idempotent.
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidDraft), errors.Is(err, model.ErrInvalidVerdict):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrAlreadyDecided):
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

type caseResponse struct {
	CaseID       string             `json:"case_id"`
	ThreadID     string             `json:"thread_id"`
	Status       types.CaseStatus   `json:"status"`
	ThreadStatus types.ThreadStatus `json:"thread_status"`
	RiskTier     types.RiskTier     `json:"risk_tier"`
	Amount       float64            `json:"amount"`
}

func renderCase(c *model.RefundCase) caseResponse {
	return caseResponse{
		CaseID:       c.ID,
		ThreadID:     c.ThreadID,
		Status:       c.Status,
		ThreadStatus: types.ThreadStatusOf(c.Status),
		RiskTier:     c.RiskTier,
		Amount:       c.Amount,
	}
}

func (s *Server) handleSubmitRefund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ThreadID        string          `json:"thread_id"`
		UserID          string          `json:"user_id"`
		OrderID         string          `json:"order_id"`
		Amount          float64         `json:"amount"`
		Reason          string          `json:"reason"`
		ContextSnapshot json.RawMessage `json:"context_snapshot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	submitted, err := s.usecases.Approval.SubmitCase(r.Context(), &model.CaseDraft{
		ThreadID:        req.ThreadID,
		UserID:          req.UserID,
		OrderID:         req.OrderID,
		Amount:          req.Amount,
		Reason:          req.Reason,
		ContextSnapshot: req.ContextSnapshot,
	})
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	respondJSON(w, http.StatusCreated, renderCase(submitted))
}

func (s *Server) handleThreadStatus(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	status, err := s.usecases.Approval.Status(r.Context(), threadID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"thread_id": threadID,
		"status":    status.String(),
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var opts []interfaces.ListPendingOption

	if raw := r.URL.Query().Get("risk"); raw != "" {
		tier, err := types.ParseRiskTier(raw)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid risk filter"), http.StatusBadRequest)
			return
		}
		opts = append(opts, interfaces.WithRiskTier(tier))
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			errutil.HandleHTTP(r.Context(), w, goerr.New("invalid limit", goerr.V("limit", raw)), http.StatusBadRequest)
			return
		}
		opts = append(opts, interfaces.WithLimit(limit))
	}

	tasks, err := s.usecases.Approval.ListPending(r.Context(), opts...)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")

	var req struct {
		ReviewerID string `json:"reviewer_id"`
		Verdict    string `json:"verdict"`
		Comment    string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	verdict, err := types.ParseVerdict(req.Verdict)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w,
			goerr.Wrap(model.ErrInvalidVerdict, err.Error()), http.StatusBadRequest)
		return
	}

	// A duplicate decision is resolved inside the usecase and still returns
	// 200 with the verdict that actually won.
	outcome, err := s.usecases.Approval.Decide(r.Context(), caseID, req.ReviewerID, verdict, req.Comment)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"case_id":     outcome.Case.ID,
		"status":      outcome.Case.Status.String(),
		"verdict":     outcome.Decision.Verdict.String(),
		"reviewer_id": outcome.Decision.ReviewerID,
		"comment":     outcome.Decision.Comment,
		"decided_at":  outcome.Decision.DecidedAt,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var req struct {
		UserID  string `json:"user_id"`
		Text    string `json:"text"`
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Text == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("user_id and text are required"), http.StatusBadRequest)
		return
	}

	reply, err := s.usecases.Chat.HandleMessage(r.Context(), req.UserID, threadID, req.Text, req.OrderID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
		return
	}

	respondJSON(w, http.StatusOK, reply)
}
