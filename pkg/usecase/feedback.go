package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/service/slack"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
)

// Reactions used on feedback prompt messages. The bot seeds one of each
// when it posts the prompt, so the seed is subtracted from the tally.
const (
	feedbackUpReaction   = "+1"
	feedbackDownReaction = "-1"
)

const feedbackPrompt = "Glad this is resolved! React with :+1: or :-1: to let us know how we did."

// FeedbackUseCase maintains the per-channel up/down vote counters derived
// from reactions on the bot's feedback prompts. Counters are always
// recomputed from the message's current reaction counts, never incremented,
// so replayed or out-of-order reaction events converge on the same value.
// The tally reflects the channel's most recent prompt.
type FeedbackUseCase struct {
	repo     interfaces.Repository
	slackSvc slack.Service
	now      func() time.Time
}

// NewFeedbackUseCase creates a new FeedbackUseCase instance
func NewFeedbackUseCase(repo interfaces.Repository, slackSvc slack.Service) *FeedbackUseCase {
	return &FeedbackUseCase{
		repo:     repo,
		slackSvc: slackSvc,
		now:      time.Now,
	}
}

// PostPrompt posts the feedback message into a resolved thread and seeds
// the up/down reactions that voters will pile onto
func (uc *FeedbackUseCase) PostPrompt(ctx context.Context, threadID types.ThreadID) error {
	channelID, _, err := threadID.Split()
	if err != nil {
		return err
	}

	ts, err := uc.slackSvc.PostThreadReply(ctx, threadID, feedbackPrompt)
	if err != nil {
		return goerr.Wrap(err, "failed to post feedback prompt", goerr.V(ThreadIDKey, threadID))
	}

	for _, name := range []string{feedbackUpReaction, feedbackDownReaction} {
		if err := uc.slackSvc.AddReaction(ctx, channelID, ts, name); err != nil {
			// Voters can still react without the seed; log and continue
			logging.From(ctx).Warn("failed to seed feedback reaction",
				ThreadIDKey, threadID, "reaction", name, "error", err.Error())
		}
	}

	return nil
}

// Recompute refreshes the channel's tally from the current reaction counts
// on a feedback prompt message. Reactions are matched by name, never by
// position, and the bot's own seed reaction is subtracted.
func (uc *FeedbackUseCase) Recompute(ctx context.Context, channelID types.ChannelID, messageTS string) error {
	reactions, err := uc.slackSvc.GetMessageReactions(ctx, channelID, messageTS)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch message reactions",
			goerr.V("channel_id", channelID), goerr.V("message_ts", messageTS))
	}

	var up, down int
	for _, r := range reactions {
		switch r.Name {
		case feedbackUpReaction:
			up = r.Count
		case feedbackDownReaction:
			down = r.Count
		}
	}

	tally := &model.FeedbackTally{
		ChannelID: channelID,
		Upvotes:   subtractSeed(up),
		Downvotes: subtractSeed(down),
		UpdatedAt: uc.now().UTC(),
	}

	if err := uc.repo.Feedback().Upsert(ctx, tally); err != nil {
		return goerr.Wrap(err, "failed to upsert feedback tally", goerr.V("channel_id", channelID))
	}

	logging.From(ctx).Info("feedback tally updated",
		"channel_id", channelID,
		"upvotes", tally.Upvotes,
		"downvotes", tally.Downvotes,
	)
	return nil
}

// List returns all channel tallies
func (uc *FeedbackUseCase) List(ctx context.Context) ([]*model.FeedbackTally, error) {
	tallies, err := uc.repo.Feedback().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list feedback tallies")
	}
	return tallies, nil
}

// subtractSeed removes the bot's own seed reaction from a raw count. The
// clamp covers prompts where seeding failed.
func subtractSeed(count int) int {
	if count <= 1 {
		return 0
	}
	return count - 1
}
