package types

import "fmt"

// JobKind represents the kind of an asynchronous side-effect job
type JobKind string

const (
	JobKindSettlePayment   JobKind = "SETTLE_PAYMENT"
	JobKindSendSMS         JobKind = "SEND_SMS"
	JobKindNotifyReviewers JobKind = "NOTIFY_REVIEWERS"
)

// AllJobKinds returns all valid job kinds
func AllJobKinds() []JobKind {
	return []JobKind{
		JobKindSettlePayment,
		JobKindSendSMS,
		JobKindNotifyReviewers,
	}
}

// IsValid checks if the job kind is valid
func (k JobKind) IsValid() bool {
	switch k {
	case JobKindSettlePayment,
		JobKindSendSMS,
		JobKindNotifyReviewers:
		return true
	default:
		return false
	}
}

// String returns the string representation of the job kind
func (k JobKind) String() string {
	return string(k)
}

// ParseJobKind parses a string into a JobKind
func ParseJobKind(s string) (JobKind, error) {
	kind := JobKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid job kind: %s", s)
	}
	return kind, nil
}

// JobStatus represents the execution state of a side-effect job
type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// IsValid checks if the job status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued,
		JobStatusRunning,
		JobStatusDone,
		JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsActive reports whether a job in this status still occupies its idempotency
// key: re-enqueueing the same key while QUEUED, RUNNING, or DONE is a no-op.
func (s JobStatus) IsActive() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusDone:
		return true
	default:
		return false
	}
}

// String returns the string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}
