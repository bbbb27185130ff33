package model

import (
	"time"

	"github.com/secmon-lab/helpline/pkg/domain/types"
)

// FeedbackTally holds per-channel up/down vote counters for the bot's
// feedback prompt messages. Counters are recomputed from the message's
// current reaction counts on every reaction event, never incremented, so
// replayed or out-of-order reaction events converge on the same value.
type FeedbackTally struct {
	ChannelID types.ChannelID `firestore:"channel_id"`
	Upvotes   int             `firestore:"upvotes"`
	Downvotes int             `firestore:"downvotes"`
	UpdatedAt time.Time       `firestore:"updated_at"`
}
