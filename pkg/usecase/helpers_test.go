package usecase_test

import (
	"context"
	"fmt"
	"time"

	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	slacksvc "github.com/secmon-lab/helpline/pkg/service/slack"
)

type postedReply struct {
	threadID types.ThreadID
	text     string
}

type addedReaction struct {
	channelID types.ChannelID
	timestamp string
	name      string
}

// mockSlackService is the in-memory stand-in for the Slack Web API
type mockSlackService struct {
	botUserID    types.UserID
	history      map[types.ThreadID][]*model.ThreadMessage
	reactions    map[string][]slacksvc.Reaction
	userNames    map[types.UserID]string
	groupMembers []types.UserID

	postedReplies  []postedReply
	addedReactions []addedReaction
	historyErr     error
}

func newMockSlackService() *mockSlackService {
	return &mockSlackService{
		botUserID: "UBOT",
		history:   map[types.ThreadID][]*model.ThreadMessage{},
		reactions: map[string][]slacksvc.Reaction{},
		userNames: map[types.UserID]string{},
	}
}

func (m *mockSlackService) BotUserID() types.UserID {
	return m.botUserID
}

func (m *mockSlackService) FetchThreadHistory(ctx context.Context, threadID types.ThreadID) ([]*model.ThreadMessage, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history[threadID], nil
}

func (m *mockSlackService) PostThreadReply(ctx context.Context, threadID types.ThreadID, text string) (string, error) {
	m.postedReplies = append(m.postedReplies, postedReply{threadID: threadID, text: text})
	return fmt.Sprintf("1799999999.%06d", len(m.postedReplies)), nil
}

func (m *mockSlackService) PostEphemeral(ctx context.Context, channelID types.ChannelID, userID types.UserID, text string) error {
	return nil
}

func (m *mockSlackService) AddReaction(ctx context.Context, channelID types.ChannelID, timestamp, name string) error {
	m.addedReactions = append(m.addedReactions, addedReaction{channelID: channelID, timestamp: timestamp, name: name})
	return nil
}

func (m *mockSlackService) GetMessageReactions(ctx context.Context, channelID types.ChannelID, timestamp string) ([]slacksvc.Reaction, error) {
	return m.reactions[string(channelID)+":"+timestamp], nil
}

func (m *mockSlackService) GetUserGroupMembers(ctx context.Context, groupID string) ([]types.UserID, error) {
	return m.groupMembers, nil
}

func (m *mockSlackService) GetUserName(ctx context.Context, userID types.UserID) (string, error) {
	if name, ok := m.userNames[userID]; ok {
		return name, nil
	}
	return string(userID), nil
}

func (m *mockSlackService) ListUsers(ctx context.Context) ([]*slacksvc.User, error) {
	return nil, nil
}

func (m *mockSlackService) WarmUserCache(users []*slacksvc.User) {}

func (m *mockSlackService) PermalinkURL(threadID types.ThreadID) string {
	return fmt.Sprintf("https://example.slack.com/threads/%s", threadID)
}

type mockAuthorizer struct {
	staff map[types.UserID]bool
	err   error
}

func (m *mockAuthorizer) IsStaff(ctx context.Context, userID types.UserID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.staff[userID], nil
}

type mockTracker struct {
	url    string
	titles []string
	bodies []string
	err    error
}

func (m *mockTracker) CreateIssue(ctx context.Context, title, body string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.titles = append(m.titles, title)
	m.bodies = append(m.bodies, body)
	return m.url, nil
}

func msg(threadID types.ThreadID, author types.UserID, text string, at time.Time, system bool) *model.ThreadMessage {
	return &model.ThreadMessage{
		ThreadID:          threadID,
		AuthorID:          author,
		AuthorDisplayName: string(author),
		Text:              text,
		PostedAt:          at,
		IsSystemActor:     system,
	}
}
