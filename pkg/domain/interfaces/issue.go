package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
)

// IssueRepository defines the interface for issue record data access.
// Implementations wrap ErrRecordExists from Create when a record for the
// thread exists, and ErrRecordNotFound from Get/Update when it does not;
// callers translate both into the idempotency contract.
type IssueRepository interface {
	// Create inserts a new issue record keyed by thread ID
	Create(ctx context.Context, issue *model.Issue) error

	// Get retrieves an issue record by thread ID
	Get(ctx context.Context, threadID types.ThreadID) (*model.Issue, error)

	// Update overwrites an existing issue record
	Update(ctx context.Context, issue *model.Issue) error

	// List retrieves all issue records, newest first
	List(ctx context.Context) ([]*model.Issue, error)

	// ListByChannel retrieves the issue records of one channel, newest first
	ListByChannel(ctx context.Context, channelID types.ChannelID) ([]*model.Issue, error)

	// ListCreatedBetween retrieves issue records with from <= created_at < to,
	// oldest first
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Issue, error)
}

// FeedbackRepository defines the interface for feedback tally data access
type FeedbackRepository interface {
	// Upsert creates or replaces the tally for a channel
	Upsert(ctx context.Context, tally *model.FeedbackTally) error

	// Get retrieves the tally for a channel
	Get(ctx context.Context, channelID types.ChannelID) (*model.FeedbackTally, error)

	// List retrieves all tallies
	List(ctx context.Context) ([]*model.FeedbackTally, error)
}
