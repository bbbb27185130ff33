package model

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/slack-go/slack"
)

// ThreadMessage is the normalized view of one chat message inside a support
// thread. It carries just enough for first-responder attribution; the
// display name is for reporting only and never used for identity checks.
type ThreadMessage struct {
	ThreadID          types.ThreadID
	AuthorID          types.UserID
	AuthorDisplayName string
	Text              string
	PostedAt          time.Time
	IsThreadOwner     bool
	IsSystemActor     bool
}

// NewThreadHistory converts raw Slack thread messages into the normalized
// chronological history the attribution engine consumes. Messages are sorted
// oldest first by timestamp; Slack delivery order is kept for equal
// timestamps. The owner flag is derived from the first message's author and
// the system-actor flag from botUserID.
func NewThreadHistory(threadID types.ThreadID, msgs []slack.Message, botUserID types.UserID) []*ThreadMessage {
	history := make([]*ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		authorID := types.UserID(m.User)
		if authorID == "" && m.BotID != "" {
			authorID = types.UserID(m.BotID)
		}
		history = append(history, &ThreadMessage{
			ThreadID:          threadID,
			AuthorID:          authorID,
			AuthorDisplayName: m.Username,
			Text:              m.Text,
			PostedAt:          parseSlackTimestamp(m.Timestamp),
			IsSystemActor:     authorID == botUserID || m.SubType == "bot_message",
		})
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].PostedAt.Before(history[j].PostedAt)
	})

	if len(history) > 0 {
		owner := history[0].AuthorID
		for _, m := range history {
			m.IsThreadOwner = m.AuthorID == owner
		}
	}

	return history
}

// FilterSystemActors drops bot/system-authored messages from a history.
// The attribution engine must never see them.
func FilterSystemActors(history []*ThreadMessage) []*ThreadMessage {
	filtered := make([]*ThreadMessage, 0, len(history))
	for _, m := range history {
		if m.IsSystemActor {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

// parseSlackTimestamp converts a Slack "1700000000.000100" timestamp into
// time.Time. A malformed timestamp yields the zero time, which sorts first
// and is harmless for attribution (delivery order is the tiebreak).
func parseSlackTimestamp(ts string) time.Time {
	sec, frac, _ := strings.Cut(ts, ".")
	secN, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var microN int64
	if frac != "" {
		if n, err := strconv.ParseInt(frac, 10, 64); err == nil {
			microN = n
		}
	}
	return time.Unix(secN, microN*1000).UTC()
}
