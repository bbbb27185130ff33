package memory

import (
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	issue    *issueRepository
	feedback *feedbackRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		issue:    newIssueRepository(),
		feedback: newFeedbackRepository(),
	}
}

func (m *Memory) Issue() interfaces.IssueRepository {
	return m.issue
}

func (m *Memory) Feedback() interfaces.FeedbackRepository {
	return m.feedback
}

func (m *Memory) Close() error {
	return nil
}
