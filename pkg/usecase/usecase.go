package usecase

import (
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/service/slack"
)

type UseCases struct {
	repo        interfaces.Repository
	slackSvc    slack.Service
	authz       interfaces.Authorizer
	tracker     interfaces.IssueTracker
	rules       []model.CategoryRule
	helpChannel types.ChannelID

	Issue    *IssueUseCase
	Feedback *FeedbackUseCase
	Event    *EventUseCase
	Command  *CommandUseCase
	Stats    *StatsUseCase
}

type Option func(*UseCases)

func WithSlackService(svc slack.Service) Option {
	return func(uc *UseCases) {
		uc.slackSvc = svc
	}
}

func WithAuthorizer(authz interfaces.Authorizer) Option {
	return func(uc *UseCases) {
		uc.authz = authz
	}
}

func WithIssueTracker(tracker interfaces.IssueTracker) Option {
	return func(uc *UseCases) {
		uc.tracker = tracker
	}
}

func WithCategoryRules(rules []model.CategoryRule) Option {
	return func(uc *UseCases) {
		uc.rules = rules
	}
}

func WithHelpChannel(channelID types.ChannelID) Option {
	return func(uc *UseCases) {
		uc.helpChannel = channelID
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Issue = NewIssueUseCase(repo)
	uc.Feedback = NewFeedbackUseCase(repo, uc.slackSvc)
	uc.Event = NewEventUseCase(uc.Issue, uc.Feedback, uc.slackSvc, uc.rules, uc.helpChannel)
	uc.Command = NewCommandUseCase(uc.Issue, uc.Feedback, uc.slackSvc, uc.authz, uc.tracker)
	uc.Stats = NewStatsUseCase(repo)

	return uc
}
