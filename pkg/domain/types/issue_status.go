package types

import "fmt"

// IssueStatus is the derived lifecycle state of an issue record
type IssueStatus string

const (
	IssueStatusOpenUnanswered IssueStatus = "OPEN_UNANSWERED"
	IssueStatusOpenAnswered   IssueStatus = "OPEN_ANSWERED"
	IssueStatusResolved       IssueStatus = "RESOLVED"
)

// AllIssueStatuses returns all valid issue statuses
func AllIssueStatuses() []IssueStatus {
	return []IssueStatus{
		IssueStatusOpenUnanswered,
		IssueStatusOpenAnswered,
		IssueStatusResolved,
	}
}

// IsValid checks if the issue status is valid
func (s IssueStatus) IsValid() bool {
	switch s {
	case IssueStatusOpenUnanswered,
		IssueStatusOpenAnswered,
		IssueStatusResolved:
		return true
	default:
		return false
	}
}

// String returns the string representation of the issue status
func (s IssueStatus) String() string {
	return string(s)
}

// ParseIssueStatus parses a string into an IssueStatus
func ParseIssueStatus(s string) (IssueStatus, error) {
	status := IssueStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid issue status: %s", s)
	}
	return status, nil
}
