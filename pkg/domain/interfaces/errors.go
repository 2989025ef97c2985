package interfaces

import "errors"

// Sentinel errors shared by all repository backends
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyDecided indicates a decision write hit a case that is no
	// longer PENDING_REVIEW. The previously recorded decision is retrievable
	// via GetDecision; callers treat a retry of a past-successful decision as
	// success, not as an error.
	ErrAlreadyDecided = errors.New("case already decided")

	// ErrNoClaimableJob indicates no job is currently available to claim
	ErrNoClaimableJob = errors.New("no claimable job")
)
