package github

import (
	"context"
)

// Service files issues on GitHub for elevated support threads
type Service interface {
	// CreateIssue creates an issue in the configured repository and
	// returns its HTML URL
	CreateIssue(ctx context.Context, title, body string) (string, error)
}
