package types

import "fmt"

// CaseStatus represents the lifecycle state of a refund case
type CaseStatus string

const (
	CaseStatusAutoApproved  CaseStatus = "AUTO_APPROVED"
	CaseStatusPendingReview CaseStatus = "PENDING_REVIEW"
	CaseStatusApproved      CaseStatus = "APPROVED"
	CaseStatusRejected      CaseStatus = "REJECTED"
)

// AllCaseStatuses returns all valid case statuses
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusAutoApproved,
		CaseStatusPendingReview,
		CaseStatusApproved,
		CaseStatusRejected,
	}
}

// IsValid checks if the case status is valid
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusAutoApproved,
		CaseStatusPendingReview,
		CaseStatusApproved,
		CaseStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is a terminal state.
// Terminal cases never transition again.
func (s CaseStatus) IsTerminal() bool {
	switch s {
	case CaseStatusAutoApproved, CaseStatusApproved, CaseStatusRejected:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine permits an edge from s to next.
// The only legal edges are PENDING_REVIEW -> APPROVED and PENDING_REVIEW -> REJECTED;
// initial states (AUTO_APPROVED, PENDING_REVIEW) are assigned at creation.
func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	if s != CaseStatusPendingReview {
		return false
	}
	return next == CaseStatusApproved || next == CaseStatusRejected
}

// String returns the string representation of the case status
func (s CaseStatus) String() string {
	return string(s)
}

// ParseCaseStatus parses a string into a CaseStatus
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid case status: %s", s)
	}
	return status, nil
}
