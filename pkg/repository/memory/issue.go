package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
)

type issueRepository struct {
	mu     sync.RWMutex
	issues map[types.ThreadID]*model.Issue
}

func newIssueRepository() *issueRepository {
	return &issueRepository{
		issues: make(map[types.ThreadID]*model.Issue),
	}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.issues[issue.ThreadID]; exists {
		return goerr.Wrap(interfaces.ErrRecordExists, "issue already exists",
			goerr.V("thread_id", issue.ThreadID))
	}

	r.issues[issue.ThreadID] = issue.Clone()
	return nil
}

func (r *issueRepository) Get(ctx context.Context, threadID types.ThreadID) (*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, exists := r.issues[threadID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrRecordNotFound, "issue not found",
			goerr.V("thread_id", threadID))
	}
	return issue.Clone(), nil
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.issues[issue.ThreadID]; !exists {
		return goerr.Wrap(interfaces.ErrRecordNotFound, "issue not found",
			goerr.V("thread_id", issue.ThreadID))
	}

	r.issues[issue.ThreadID] = issue.Clone()
	return nil
}

func (r *issueRepository) List(ctx context.Context) ([]*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issues := make([]*model.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		issues = append(issues, issue.Clone())
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
	return issues, nil
}

func (r *issueRepository) ListByChannel(ctx context.Context, channelID types.ChannelID) ([]*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var issues []*model.Issue
	for _, issue := range r.issues {
		if issue.ChannelID != channelID {
			continue
		}
		issues = append(issues, issue.Clone())
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
	return issues, nil
}

func (r *issueRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var issues []*model.Issue
	for _, issue := range r.issues {
		if issue.CreatedAt.Before(from) || !issue.CreatedAt.Before(to) {
			continue
		}
		issues = append(issues, issue.Clone())
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.Before(issues[j].CreatedAt)
	})
	return issues, nil
}
