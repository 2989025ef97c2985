package types

import "fmt"

// Verdict represents a reviewer's decision on a pending case
type Verdict string

const (
	VerdictApprove Verdict = "APPROVE"
	VerdictReject  Verdict = "REJECT"
)

// IsValid checks if the verdict is valid
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictApprove, VerdictReject:
		return true
	default:
		return false
	}
}

// CaseStatus returns the terminal case status this verdict leads to
func (v Verdict) CaseStatus() CaseStatus {
	if v == VerdictApprove {
		return CaseStatusApproved
	}
	return CaseStatusRejected
}

// String returns the string representation of the verdict
func (v Verdict) String() string {
	return string(v)
}

// ParseVerdict parses a string into a Verdict
func ParseVerdict(s string) (Verdict, error) {
	verdict := Verdict(s)
	if !verdict.IsValid() {
		return "", fmt.Errorf("invalid verdict: %s", s)
	}
	return verdict, nil
}
