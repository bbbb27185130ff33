package interfaces

import (
	"context"

	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
)

// HistoryFetcher retrieves the full message history of a thread from the
// chat platform, normalized and ordered oldest first.
type HistoryFetcher interface {
	FetchThreadHistory(ctx context.Context, threadID types.ThreadID) ([]*model.ThreadMessage, error)
}

// Authorizer answers whether a user may perform staff-gated transitions
type Authorizer interface {
	IsStaff(ctx context.Context, userID types.UserID) (bool, error)
}

// IssueTracker files an issue on the external tracker and returns its URL.
// Used by the elevation action.
type IssueTracker interface {
	CreateIssue(ctx context.Context, title, body string) (string, error)
}
