package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/types"
)

// Job is a unit of retryable, idempotent side-effect work (settle a payment,
// send an SMS, notify reviewers). Jobs are keyed by a deterministic idempotency
// key so that re-submission never duplicates the external effect.
type Job struct {
	// IdempotencyKey is "<caseID>:<kind>", never random.
	IdempotencyKey string
	Kind           types.JobKind
	CaseID         string
	Payload        json.RawMessage
	Status         types.JobStatus
	RetryCount     int

	// NotBefore delays re-claims after a retry (exponential backoff).
	NotBefore time.Time

	// LeaseExpiresAt bounds how long a RUNNING job may go unacknowledged
	// before it is treated as abandoned and returned to QUEUED.
	LeaseExpiresAt time.Time

	// TransactionID records the completed payment settlement, if any. A
	// settlement executor that finds this set must not call the gateway again.
	TransactionID string

	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdempotencyKey derives the deterministic job key for a case and kind
func IdempotencyKey(caseID string, kind types.JobKind) string {
	return fmt.Sprintf("%s:%s", caseID, kind)
}

// NewJob builds a queued job with its deterministic key
func NewJob(caseID string, kind types.JobKind, payload json.RawMessage) *Job {
	return &Job{
		IdempotencyKey: IdempotencyKey(caseID, kind),
		Kind:           kind,
		CaseID:         caseID,
		Payload:        payload,
		Status:         types.JobStatusQueued,
	}
}

// SettlePaymentPayload is the payload of a SETTLE_PAYMENT job
type SettlePaymentPayload struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// SendSMSPayload is the payload of a SEND_SMS job. The phone number is tagged
// secret so log redaction masks it.
type SendSMSPayload struct {
	Phone string `json:"phone" masq:"secret"`
	Text  string `json:"text"`
}

// NotifyReviewersPayload is the payload of a NOTIFY_REVIEWERS job
type NotifyReviewersPayload struct {
	ThreadID      string         `json:"thread_id"`
	RiskTier      types.RiskTier `json:"risk_tier"`
	Amount        float64        `json:"amount"`
	TriggerReason string         `json:"trigger_reason"`
}
