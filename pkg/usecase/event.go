package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/service/attribution"
	"github.com/secmon-lab/helpline/pkg/service/slack"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
)

// EventUseCase maps Slack events onto the issue-record state machine. Every
// handler tolerates replayed and out-of-order deliveries: the record's
// set-once fields absorb duplicates, so handlers just re-derive and apply.
type EventUseCase struct {
	issue       *IssueUseCase
	feedback    *FeedbackUseCase
	slackSvc    slack.Service
	rules       []model.CategoryRule
	helpChannel types.ChannelID
}

// NewEventUseCase creates a new EventUseCase instance
func NewEventUseCase(issue *IssueUseCase, feedback *FeedbackUseCase, slackSvc slack.Service, rules []model.CategoryRule, helpChannel types.ChannelID) *EventUseCase {
	return &EventUseCase{
		issue:       issue,
		feedback:    feedback,
		slackSvc:    slackSvc,
		rules:       rules,
		helpChannel: helpChannel,
	}
}

// HandleRootMessage processes a channel-level message. A root message in the
// help channel opens a thread: create the issue record with its keyword
// categories and store the opening message.
func (uc *EventUseCase) HandleRootMessage(ctx context.Context, channelID types.ChannelID, ts string, author types.UserID, text string) error {
	if channelID != uc.helpChannel {
		return nil
	}
	if author == "" || author == uc.slackSvc.BotUserID() {
		return nil
	}

	threadID := types.NewThreadID(channelID, ts)
	categories := model.Categorize(uc.rules, text)

	if err := uc.issue.CreateRecord(ctx, threadID, channelID, uc.slackSvc.PermalinkURL(threadID), categories); err != nil {
		return err
	}

	name, err := uc.slackSvc.GetUserName(ctx, author)
	if err != nil {
		logging.From(ctx).Warn("failed to resolve author name, storing ID only",
			UserIDKey, author, "error", err.Error())
		name = string(author)
	}

	return uc.issue.RecordInitialMessage(ctx, threadID, author, name, text)
}

// HandleThreadReply processes a reply inside a thread: refetch the full
// history, drop system actors, and let the attribution engine decide. The
// engine may also report a missed opening message, which is recorded the
// same way as a live root event.
func (uc *EventUseCase) HandleThreadReply(ctx context.Context, channelID types.ChannelID, rootTS string) error {
	if channelID != uc.helpChannel {
		return nil
	}

	threadID := types.NewThreadID(channelID, rootTS)

	history, err := uc.slackSvc.FetchThreadHistory(ctx, threadID)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch thread history", goerr.V(ThreadIDKey, threadID))
	}

	filtered := model.FilterSystemActors(history)
	if len(filtered) == 0 {
		logging.From(ctx).Debug("thread has no human messages, skipping", ThreadIDKey, threadID)
		return nil
	}

	outcome, err := attribution.Evaluate(filtered)
	if err != nil {
		return err
	}

	switch {
	case outcome.Initial != nil:
		err = uc.issue.RecordInitialMessage(ctx, threadID,
			outcome.Initial.Author, outcome.Initial.DisplayName, outcome.Initial.Content)

	case outcome.Responder != nil:
		err = uc.issue.RecordFirstResponse(ctx, threadID,
			outcome.Responder.UserID, outcome.Responder.DisplayName,
			outcome.Responder.Message.PostedAt)

	default:
		logging.From(ctx).Debug("no attribution fired", ThreadIDKey, threadID)
		return nil
	}

	// A reply to a thread opened before the tracker was deployed has no
	// record; there is nothing to attribute against.
	if errors.Is(err, ErrIssueNotFound) {
		logging.From(ctx).Debug("reply to untracked thread, ignoring", ThreadIDKey, threadID)
		return nil
	}
	return err
}

// HandleReactionChange processes reaction_added / reaction_removed. Only
// reactions on the bot's own messages matter: those are feedback prompts,
// and the tally is recomputed from the message's current reaction counts.
func (uc *EventUseCase) HandleReactionChange(ctx context.Context, channelID types.ChannelID, messageTS string, messageAuthor types.UserID) error {
	if messageAuthor != uc.slackSvc.BotUserID() {
		return nil
	}
	return uc.feedback.Recompute(ctx, channelID, messageTS)
}
