package types

import (
	"fmt"
	"strings"
)

// ThreadID identifies a support thread. It is an opaque composite of the
// Slack channel ID and the thread root timestamp ("C0123456:1700000000.000100")
// so one channel can host many threads.
type ThreadID string

// String returns the string representation of the thread ID
func (t ThreadID) String() string {
	return string(t)
}

// NewThreadID composes a thread ID from a channel and the thread root
// message timestamp
func NewThreadID(channelID ChannelID, rootTS string) ThreadID {
	return ThreadID(fmt.Sprintf("%s:%s", channelID, rootTS))
}

// Split decomposes a thread ID into channel ID and root timestamp
func (t ThreadID) Split() (ChannelID, string, error) {
	channel, ts, ok := strings.Cut(string(t), ":")
	if !ok || channel == "" || ts == "" {
		return "", "", fmt.Errorf("malformed thread ID: %s", t)
	}
	return ChannelID(channel), ts, nil
}

// ChannelID identifies a Slack channel
type ChannelID string

func (c ChannelID) String() string {
	return string(c)
}

// UserID identifies a Slack user. IDs are stable across display-name
// changes and are the only value used for identity comparison.
type UserID string

func (u UserID) String() string {
	return string(u)
}

// CategoryID identifies an issue category tag
type CategoryID string

func (c CategoryID) String() string {
	return string(c)
}
