package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/repository/memory"
	slacksvc "github.com/secmon-lab/helpline/pkg/service/slack"
	"github.com/secmon-lab/helpline/pkg/usecase"
)

const helpChannel = types.ChannelID("CHELP")

func newEventFixture(t *testing.T) (*usecase.UseCases, *mockSlackService, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	slack := newMockSlackService()
	uc := usecase.New(repo,
		usecase.WithSlackService(slack),
		usecase.WithAuthorizer(&mockAuthorizer{staff: map[types.UserID]bool{"USTAFF": true}}),
		usecase.WithIssueTracker(&mockTracker{url: "https://github.com/acme/infra/issues/1"}),
		usecase.WithCategoryRules([]model.CategoryRule{
			{ID: "deployment", Keywords: []string{"deploy", "rollout"}},
			{ID: "ci", Keywords: []string{"pipeline"}},
		}),
		usecase.WithHelpChannel(helpChannel),
	)
	return uc, slack, repo
}

func TestEventUseCase_HandleRootMessage(t *testing.T) {
	t.Run("help channel root message opens a tracked issue", func(t *testing.T) {
		uc, _, _ := newEventFixture(t)
		ctx := context.Background()

		err := uc.Event.HandleRootMessage(ctx, helpChannel, "1700000000.000100", "U100", "my deploy is stuck")
		gt.NoError(t, err).Required()

		issue, err := uc.Issue.Get(ctx, types.NewThreadID(helpChannel, "1700000000.000100"))
		gt.NoError(t, err).Required()
		gt.Value(t, issue.OriginalPoster).Equal(types.UserID("U100"))
		gt.Value(t, issue.InitialMessage).Equal("my deploy is stuck")
		gt.Array(t, issue.Categories).Length(1)
		gt.Value(t, issue.Categories[0]).Equal(types.CategoryID("deployment"))
	})

	t.Run("messages outside the help channel are ignored", func(t *testing.T) {
		uc, _, _ := newEventFixture(t)
		ctx := context.Background()

		gt.NoError(t, uc.Event.HandleRootMessage(ctx, "COTHER", "1700000000.000100", "U100", "hi")).Required()

		issues, err := uc.Issue.List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, issues).Length(0)
	})

	t.Run("bot messages are ignored", func(t *testing.T) {
		uc, slack, _ := newEventFixture(t)
		ctx := context.Background()

		gt.NoError(t, uc.Event.HandleRootMessage(ctx, helpChannel, "1700000000.000100", slack.BotUserID(), "I am a bot")).Required()

		issues, err := uc.Issue.List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, issues).Length(0)
	})
}

func TestEventUseCase_HandleThreadReply(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*usecase.UseCases, *mockSlackService, types.ThreadID) {
		t.Helper()
		uc, slack, _ := newEventFixture(t)
		threadID := types.NewThreadID(helpChannel, "1700000000.000100")
		gt.NoError(t, uc.Event.HandleRootMessage(context.Background(), helpChannel, "1700000000.000100", "U100", "my deploy is stuck")).Required()
		return uc, slack, threadID
	}

	t.Run("first reply attributes the responder", func(t *testing.T) {
		uc, slack, threadID := setup(t)
		ctx := context.Background()

		slack.history[threadID] = []*model.ThreadMessage{
			msg(threadID, "U100", "my deploy is stuck", base, false),
			msg(threadID, "U200", "try clearing the cache", base.Add(time.Minute), false),
		}

		gt.NoError(t, uc.Event.HandleThreadReply(ctx, helpChannel, "1700000000.000100")).Required()

		issue, err := uc.Issue.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.FirstResponder).Equal(types.UserID("U200"))
		gt.Value(t, issue.FirstResponseAt).Equal(base.Add(time.Minute))
		gt.Value(t, issue.Status()).Equal(types.IssueStatusOpenAnswered)
	})

	t.Run("bot replies never win attribution", func(t *testing.T) {
		uc, slack, threadID := setup(t)
		ctx := context.Background()

		slack.history[threadID] = []*model.ThreadMessage{
			msg(threadID, "U100", "my deploy is stuck", base, false),
			msg(threadID, "UBOT", "thanks for asking!", base.Add(time.Second), true),
			msg(threadID, "U200", "try clearing the cache", base.Add(time.Minute), false),
		}

		gt.NoError(t, uc.Event.HandleThreadReply(ctx, helpChannel, "1700000000.000100")).Required()

		issue, err := uc.Issue.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.FirstResponder).Equal(types.UserID("U200"))
	})

	t.Run("multi-party thread suppresses attribution for good", func(t *testing.T) {
		uc, slack, threadID := setup(t)
		ctx := context.Background()

		slack.history[threadID] = []*model.ThreadMessage{
			msg(threadID, "U100", "my deploy is stuck", base, false),
			msg(threadID, "U200", "what does the log say?", base.Add(time.Minute), false),
			msg(threadID, "U300", "looks like DNS", base.Add(2*time.Minute), false),
		}

		gt.NoError(t, uc.Event.HandleThreadReply(ctx, helpChannel, "1700000000.000100")).Required()

		issue, err := uc.Issue.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.FirstResponder).Equal(types.UserID(""))
		gt.Value(t, issue.Status()).Equal(types.IssueStatusOpenUnanswered)
	})

	t.Run("replayed reply event does not change the responder", func(t *testing.T) {
		uc, slack, threadID := setup(t)
		ctx := context.Background()

		slack.history[threadID] = []*model.ThreadMessage{
			msg(threadID, "U100", "my deploy is stuck", base, false),
			msg(threadID, "U200", "try clearing the cache", base.Add(time.Minute), false),
		}
		gt.NoError(t, uc.Event.HandleThreadReply(ctx, helpChannel, "1700000000.000100")).Required()
		gt.NoError(t, uc.Event.HandleThreadReply(ctx, helpChannel, "1700000000.000100")).Required()

		issue, err := uc.Issue.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.FirstResponder).Equal(types.UserID("U200"))
	})

	t.Run("reply to untracked thread is ignored", func(t *testing.T) {
		uc, slack, _ := newEventFixture(t)
		ctx := context.Background()

		orphan := types.NewThreadID(helpChannel, "1600000000.000100")
		slack.history[orphan] = []*model.ThreadMessage{
			msg(orphan, "U100", "old question", base, false),
			msg(orphan, "U200", "old answer", base.Add(time.Minute), false),
		}

		gt.NoError(t, uc.Event.HandleThreadReply(ctx, helpChannel, "1600000000.000100")).Required()
	})

	t.Run("missed root event is recovered from the reply path", func(t *testing.T) {
		uc, slack, _ := newEventFixture(t)
		ctx := context.Background()

		threadID := types.NewThreadID(helpChannel, "1700000000.000100")
		gt.NoError(t, uc.Issue.CreateRecord(ctx, threadID, helpChannel, "link", nil)).Required()
		slack.history[threadID] = []*model.ThreadMessage{
			msg(threadID, "U100", "my deploy is stuck", base, false),
		}

		gt.NoError(t, uc.Event.HandleThreadReply(ctx, helpChannel, "1700000000.000100")).Required()

		issue, err := uc.Issue.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.OriginalPoster).Equal(types.UserID("U100"))
	})
}

func TestEventUseCase_HandleReactionChange(t *testing.T) {
	t.Run("reaction on bot message recomputes the tally", func(t *testing.T) {
		uc, slack, repo := newEventFixture(t)
		ctx := context.Background()

		slack.reactions["CHELP:1799999999.000001"] = []slacksvc.Reaction{
			{Name: "+1", Count: 4},
			{Name: "-1", Count: 1},
			{Name: "tada", Count: 7},
		}

		gt.NoError(t, uc.Event.HandleReactionChange(ctx, helpChannel, "1799999999.000001", slack.BotUserID())).Required()

		tally, err := repo.Feedback().Get(ctx, helpChannel)
		gt.NoError(t, err).Required()
		gt.Value(t, tally.Upvotes).Equal(3)
		gt.Value(t, tally.Downvotes).Equal(0)
	})

	t.Run("reaction on a human message is ignored", func(t *testing.T) {
		uc, _, repo := newEventFixture(t)
		ctx := context.Background()

		gt.NoError(t, uc.Event.HandleReactionChange(ctx, helpChannel, "1700000000.000100", "U100")).Required()

		tallies, err := repo.Feedback().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, tallies).Length(0)
	})
}
