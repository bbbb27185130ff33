package slack

import (
	"context"

	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
)

// Service wraps the Slack Web API calls the tracker depends on
type Service interface {
	// BotUserID returns the authenticated bot user's ID, used to exclude
	// the bot's own messages from attribution
	BotUserID() types.UserID

	// FetchThreadHistory retrieves the full message history of a thread,
	// normalized and ordered oldest first
	FetchThreadHistory(ctx context.Context, threadID types.ThreadID) ([]*model.ThreadMessage, error)

	// PostThreadReply posts a message into a thread and returns its timestamp
	PostThreadReply(ctx context.Context, threadID types.ThreadID, text string) (string, error)

	// PostEphemeral posts a message only the given user can see
	PostEphemeral(ctx context.Context, channelID types.ChannelID, userID types.UserID, text string) error

	// AddReaction adds an emoji reaction to a message
	AddReaction(ctx context.Context, channelID types.ChannelID, timestamp, name string) error

	// GetMessageReactions returns the current reactions on a message
	GetMessageReactions(ctx context.Context, channelID types.ChannelID, timestamp string) ([]Reaction, error)

	// GetUserGroupMembers returns the user IDs of a Slack user group
	GetUserGroupMembers(ctx context.Context, groupID string) ([]types.UserID, error)

	// GetUserName resolves a user ID to a display name
	GetUserName(ctx context.Context, userID types.UserID) (string, error)

	// ListUsers retrieves all non-deleted, non-bot users in the workspace
	ListUsers(ctx context.Context) ([]*User, error)

	// WarmUserCache replaces the display-name cache entries for the given
	// users, used by the periodic refresh worker
	WarmUserCache(users []*User)

	// PermalinkURL builds the archive URL of a thread
	PermalinkURL(threadID types.ThreadID) string
}

// User is a Slack workspace user
type User struct {
	ID       types.UserID
	Name     string
	RealName string
}

// Reaction is one emoji reaction with its count
type Reaction struct {
	Name  string
	Count int
}
