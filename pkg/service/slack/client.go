package slack

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/slack-go/slack"
)

const (
	// DefaultCacheTTL is the TTL for the user display-name cache
	DefaultCacheTTL = 10 * time.Minute

	// historyPageSize is the page size for thread history fetches
	historyPageSize = 200
)

// cacheEntry holds a cached display name with expiration
type cacheEntry struct {
	name      string
	expiresAt time.Time
}

// client implements Service
type client struct {
	api       *slack.Client
	botUserID types.UserID
	teamURL   string
	cacheTTL  time.Duration

	mu    sync.RWMutex
	cache map[types.UserID]cacheEntry
}

// Option is a functional option for client configuration
type Option func(*client)

// WithCacheTTL sets the TTL for the user name cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *client) {
		c.cacheTTL = ttl
	}
}

// New creates a new Slack service with the provided bot token. It resolves
// the bot's own user ID at startup so event handling can filter the bot's
// messages without extra API calls.
func New(ctx context.Context, token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	api := slack.New(token)
	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to verify Slack bot token")
	}

	c := &client{
		api:       api,
		botUserID: types.UserID(auth.UserID),
		teamURL:   strings.TrimSuffix(auth.URL, "/"),
		cacheTTL:  DefaultCacheTTL,
		cache:     make(map[types.UserID]cacheEntry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) BotUserID() types.UserID {
	return c.botUserID
}

// FetchThreadHistory retrieves every message of a thread, oldest first.
// The Events API does not guarantee per-thread ordering, so the state
// machine relies on this re-fetched, re-sorted view rather than the
// delivery order of events.
func (c *client) FetchThreadHistory(ctx context.Context, threadID types.ThreadID) ([]*model.ThreadMessage, error) {
	channelID, rootTS, err := threadID.Split()
	if err != nil {
		return nil, goerr.Wrap(err, "invalid thread ID", goerr.V("threadID", threadID))
	}

	var msgs []slack.Message
	var cursor string

	for {
		params := &slack.GetConversationRepliesParameters{
			ChannelID: channelID.String(),
			Timestamp: rootTS,
			Limit:     historyPageSize,
			Cursor:    cursor,
		}

		page, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, params)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to fetch thread replies",
				goerr.V("channelID", channelID), goerr.V("rootTS", rootTS))
		}

		msgs = append(msgs, page...)
		if !hasMore || nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	history := model.NewThreadHistory(threadID, msgs, c.botUserID)

	// Fill display names from the user cache; IDs stay authoritative
	for _, m := range history {
		if m.AuthorDisplayName != "" || m.IsSystemActor {
			continue
		}
		if name, err := c.GetUserName(ctx, m.AuthorID); err == nil {
			m.AuthorDisplayName = name
		} else {
			m.AuthorDisplayName = m.AuthorID.String()
		}
	}

	return history, nil
}

func (c *client) PostThreadReply(ctx context.Context, threadID types.ThreadID, text string) (string, error) {
	channelID, rootTS, err := threadID.Split()
	if err != nil {
		return "", goerr.Wrap(err, "invalid thread ID", goerr.V("threadID", threadID))
	}

	_, ts, err := c.api.PostMessageContext(ctx, channelID.String(),
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(rootTS),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post thread reply", goerr.V("threadID", threadID))
	}
	return ts, nil
}

func (c *client) PostEphemeral(ctx context.Context, channelID types.ChannelID, userID types.UserID, text string) error {
	_, err := c.api.PostEphemeralContext(ctx, channelID.String(), userID.String(),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post ephemeral message",
			goerr.V("channelID", channelID), goerr.V("userID", userID))
	}
	return nil
}

func (c *client) AddReaction(ctx context.Context, channelID types.ChannelID, timestamp, name string) error {
	ref := slack.NewRefToMessage(channelID.String(), timestamp)
	if err := c.api.AddReactionContext(ctx, name, ref); err != nil {
		// already_reacted happens on event replay; not an error for us
		if strings.Contains(err.Error(), "already_reacted") {
			return nil
		}
		return goerr.Wrap(err, "failed to add reaction",
			goerr.V("channelID", channelID), goerr.V("timestamp", timestamp), goerr.V("name", name))
	}
	return nil
}

func (c *client) GetMessageReactions(ctx context.Context, channelID types.ChannelID, timestamp string) ([]Reaction, error) {
	ref := slack.NewRefToMessage(channelID.String(), timestamp)
	items, err := c.api.GetReactionsContext(ctx, ref, slack.NewGetReactionsParameters())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get reactions",
			goerr.V("channelID", channelID), goerr.V("timestamp", timestamp))
	}

	reactions := make([]Reaction, 0, len(items))
	for _, item := range items {
		reactions = append(reactions, Reaction{Name: item.Name, Count: item.Count})
	}
	return reactions, nil
}

func (c *client) GetUserGroupMembers(ctx context.Context, groupID string) ([]types.UserID, error) {
	members, err := c.api.GetUserGroupMembersContext(ctx, groupID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user group members", goerr.V("groupID", groupID))
	}

	ids := make([]types.UserID, 0, len(members))
	for _, m := range members {
		ids = append(ids, types.UserID(m))
	}
	return ids, nil
}

// GetUserName resolves a user ID to a display name with caching
func (c *client) GetUserName(ctx context.Context, userID types.UserID) (string, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.cache[userID]
	c.mu.RUnlock()
	if ok && entry.expiresAt.After(now) {
		return entry.name, nil
	}

	user, err := c.api.GetUserInfoContext(ctx, userID.String())
	if err != nil {
		return "", goerr.Wrap(err, "failed to get user info", goerr.V("userID", userID))
	}

	name := user.Profile.DisplayName
	if name == "" {
		name = user.RealName
	}
	if name == "" {
		name = user.Name
	}

	c.mu.Lock()
	c.cache[userID] = cacheEntry{name: name, expiresAt: now.Add(c.cacheTTL)}
	c.mu.Unlock()

	return name, nil
}

func (c *client) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	result := make([]*User, 0, len(users))
	for _, u := range users {
		if u.Deleted || u.IsBot {
			continue
		}
		result = append(result, &User{
			ID:       types.UserID(u.ID),
			Name:     u.Name,
			RealName: u.RealName,
		})
	}
	return result, nil
}

// WarmUserCache replaces the display-name cache entries for the given users
func (c *client) WarmUserCache(users []*User) {
	expires := time.Now().Add(c.cacheTTL)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range users {
		name := u.Name
		if u.RealName != "" {
			name = u.RealName
		}
		c.cache[u.ID] = cacheEntry{name: name, expiresAt: expires}
	}
}

// PermalinkURL builds the archive URL of a thread from the workspace URL,
// e.g. https://acme.slack.com/archives/C0123456/p1700000000000100
func (c *client) PermalinkURL(threadID types.ThreadID) string {
	channelID, rootTS, err := threadID.Split()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s/archives/%s/p%s", c.teamURL, channelID, strings.ReplaceAll(rootTS, ".", ""))
}
