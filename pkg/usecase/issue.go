package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
)

// IssueUseCase is the issue-record state machine. Every action is
// idempotent: an action whose precondition already holds is a silent
// no-op, which is what makes at-least-once event delivery safe. Actions
// against an unknown thread return ErrIssueNotFound.
type IssueUseCase struct {
	repo interfaces.Repository
	now  func() time.Time
}

// NewIssueUseCase creates a new IssueUseCase instance
func NewIssueUseCase(repo interfaces.Repository) *IssueUseCase {
	return &IssueUseCase{
		repo: repo,
		now:  time.Now,
	}
}

// CreateRecord inserts the issue record for a newly created thread.
// Replayed creation events are no-ops.
func (uc *IssueUseCase) CreateRecord(ctx context.Context, threadID types.ThreadID, channelID types.ChannelID, link string, categories []types.CategoryID) error {
	issue := model.NewIssue(threadID, channelID, link, categories, uc.now().UTC())

	if err := uc.repo.Issue().Create(ctx, issue); err != nil {
		if errors.Is(err, interfaces.ErrRecordExists) {
			logging.From(ctx).Debug("issue record already exists", ThreadIDKey, threadID)
			return nil
		}
		return goerr.Wrap(err, "failed to create issue record", goerr.V(ThreadIDKey, threadID))
	}

	logging.From(ctx).Info("issue record created",
		ThreadIDKey, threadID,
		"categories", categories,
	)
	return nil
}

// RecordInitialMessage stores the thread-opening message and its author as
// the original poster. The original poster is never overwritten.
func (uc *IssueUseCase) RecordInitialMessage(ctx context.Context, threadID types.ThreadID, author types.UserID, displayName, content string) error {
	return uc.mutate(ctx, threadID, "record initial message", func(issue *model.Issue) bool {
		return issue.ApplyInitialMessage(author, displayName, content)
	})
}

// RecordFirstResponse stores the attributed first responder together with
// the response timestamp. Only the first successful application persists.
func (uc *IssueUseCase) RecordFirstResponse(ctx context.Context, threadID types.ThreadID, responder types.UserID, displayName string, at time.Time) error {
	return uc.mutate(ctx, threadID, "record first response", func(issue *model.Issue) bool {
		return issue.ApplyFirstResponse(responder, displayName, at)
	})
}

// Elevate links the issue to a GitHub issue and locks the thread
func (uc *IssueUseCase) Elevate(ctx context.Context, threadID types.ThreadID, githubLink string) error {
	return uc.mutate(ctx, threadID, "elevate issue", func(issue *model.Issue) bool {
		return issue.ApplyElevation(githubLink)
	})
}

// SetLockedStatus sets the lock flag and reason
func (uc *IssueUseCase) SetLockedStatus(ctx context.Context, threadID types.ThreadID, locked bool, reason string) error {
	return uc.mutate(ctx, threadID, "set locked status", func(issue *model.Issue) bool {
		return issue.ApplyLockStatus(locked, reason)
	})
}

// Resolve marks the issue resolved with the thread counters snapshot
func (uc *IssueUseCase) Resolve(ctx context.Context, threadID types.ThreadID, resolvedBy types.UserID, displayName string, messageCount, participantCount int) error {
	return uc.mutate(ctx, threadID, "resolve issue", func(issue *model.Issue) bool {
		return issue.ApplyResolution(resolvedBy, displayName, messageCount, participantCount, uc.now().UTC())
	})
}

// SetSeverity overwrites the severity category
func (uc *IssueUseCase) SetSeverity(ctx context.Context, threadID types.ThreadID, severity types.Severity) error {
	if !severity.IsValid() {
		return goerr.New("invalid severity", goerr.V("severity", int(severity)))
	}
	return uc.mutate(ctx, threadID, "set severity", func(issue *model.Issue) bool {
		issue.ApplySeverity(severity)
		return true
	})
}

// Get retrieves one issue record
func (uc *IssueUseCase) Get(ctx context.Context, threadID types.ThreadID) (*model.Issue, error) {
	issue, err := uc.repo.Issue().Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, interfaces.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrIssueNotFound, "no record for thread", goerr.V(ThreadIDKey, threadID))
		}
		return nil, goerr.Wrap(err, "failed to get issue record", goerr.V(ThreadIDKey, threadID))
	}
	return issue, nil
}

// List retrieves all issue records, newest first
func (uc *IssueUseCase) List(ctx context.Context) ([]*model.Issue, error) {
	issues, err := uc.repo.Issue().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issue records")
	}
	return issues, nil
}

// ListByChannel retrieves one channel's issue records, newest first
func (uc *IssueUseCase) ListByChannel(ctx context.Context, channelID types.ChannelID) ([]*model.Issue, error) {
	issues, err := uc.repo.Issue().ListByChannel(ctx, channelID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issue records", goerr.V("channel_id", channelID))
	}
	return issues, nil
}

// mutate runs one read-apply-write cycle. When apply reports false the
// precondition already held and nothing is written; that is the
// idempotency contract, not an error.
func (uc *IssueUseCase) mutate(ctx context.Context, threadID types.ThreadID, action string, apply func(*model.Issue) bool) error {
	issue, err := uc.Get(ctx, threadID)
	if err != nil {
		return err
	}

	if !apply(issue) {
		logging.From(ctx).Debug("precondition already satisfied, skipping",
			"action", action,
			ThreadIDKey, threadID,
		)
		return nil
	}

	issue.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Issue().Update(ctx, issue); err != nil {
		return goerr.Wrap(err, "failed to update issue record",
			goerr.V("action", action), goerr.V(ThreadIDKey, threadID))
	}

	logging.From(ctx).Info("issue record updated",
		"action", action,
		ThreadIDKey, threadID,
		"status", issue.Status(),
	)
	return nil
}
