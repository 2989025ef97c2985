package types

// ThreadStatus is the coarse, customer-visible status of a conversation
// thread's latest refund case. Internal error kinds are never mapped here.
type ThreadStatus string

const (
	ThreadStatusProcessing   ThreadStatus = "PROCESSING"
	ThreadStatusWaitingAdmin ThreadStatus = "WAITING_ADMIN"
	ThreadStatusApproved     ThreadStatus = "APPROVED"
	ThreadStatusRejected     ThreadStatus = "REJECTED"
)

// ThreadStatusOf maps a case status to its customer-visible thread status
func ThreadStatusOf(s CaseStatus) ThreadStatus {
	switch s {
	case CaseStatusAutoApproved, CaseStatusApproved:
		return ThreadStatusApproved
	case CaseStatusRejected:
		return ThreadStatusRejected
	case CaseStatusPendingReview:
		return ThreadStatusWaitingAdmin
	default:
		return ThreadStatusProcessing
	}
}

// String returns the string representation of the thread status
func (s ThreadStatus) String() string {
	return string(s)
}
