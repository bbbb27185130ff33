package attribution

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
)

// Outcome is the decision for one engine invocation. At most one of the
// fields is set; both nil means no action should fire for this event.
type Outcome struct {
	// Initial is set when the history holds only the thread-opening
	// message: record the original poster and the initial content.
	Initial *InitialMessage

	// Responder is set when first-responder attribution fires.
	Responder *Responder
}

// InitialMessage carries the thread-opening message to record
type InitialMessage struct {
	Author      types.UserID
	DisplayName string
	Content     string
}

// Responder identifies the attributed first responder
type Responder struct {
	UserID      types.UserID
	DisplayName string
	Message     *model.ThreadMessage
}

// Evaluate decides, from the full chronological history of a thread,
// whether a first-responder attribution should fire and for whom.
//
// The engine is pure and stateless: it is invoked on every message event
// and may recompute the same candidate repeatedly. The issue record's
// set-once semantics are the gatekeeper against double-recording, not the
// engine.
//
// Attribution fires only for the very first reply from the very first
// distinct non-owner participant: the candidate must have posted fewer
// than two messages in the whole history, and fewer than two distinct
// non-owner authors may exist. Once a thread has gone multi-party before a
// clean single responder emerged, attribution is skipped for good.
//
// History must contain at least one message (the thread opener) and must
// already be free of bot/system messages and sorted oldest first; the
// dispatcher owns both preparations.
func Evaluate(history []*model.ThreadMessage) (*Outcome, error) {
	if len(history) == 0 {
		return nil, goerr.New("thread history must contain the opening message")
	}

	if len(history) == 1 {
		opener := history[0]
		return &Outcome{
			Initial: &InitialMessage{
				Author:      opener.AuthorID,
				DisplayName: opener.AuthorDisplayName,
				Content:     opener.Text,
			},
		}, nil
	}

	owner := history[0].AuthorID

	distinctNonOwners := map[types.UserID]struct{}{}
	for _, m := range history[1:] {
		if m.AuthorID != owner {
			distinctNonOwners[m.AuthorID] = struct{}{}
		}
	}

	for _, m := range history[1:] {
		if m.AuthorID == owner {
			continue
		}

		// First non-owner message. Attribution is a one-shot decision:
		// evaluate this candidate and stop scanning either way.
		candidate := m.AuthorID
		candidateCount := 0
		for _, h := range history {
			if h.AuthorID == candidate {
				candidateCount++
			}
		}

		if candidateCount < 2 && len(distinctNonOwners) < 2 {
			return &Outcome{
				Responder: &Responder{
					UserID:      candidate,
					DisplayName: m.AuthorDisplayName,
					Message:     m,
				},
			}, nil
		}
		break
	}

	return &Outcome{}, nil
}
