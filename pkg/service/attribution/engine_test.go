package attribution_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/service/attribution"
)

func msg(author types.UserID, name string, offset time.Duration) *model.ThreadMessage {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.ThreadMessage{
		ThreadID:          "C001:1700000000.000100",
		AuthorID:          author,
		AuthorDisplayName: name,
		Text:              "hello",
		PostedAt:          base.Add(offset),
	}
}

func TestEvaluate_EmptyHistory(t *testing.T) {
	_, err := attribution.Evaluate(nil)
	gt.Error(t, err)
}

func TestEvaluate_OpeningMessageOnly(t *testing.T) {
	opener := msg("U_ALICE", "alice", 0)
	opener.Text = "help me"

	out, err := attribution.Evaluate([]*model.ThreadMessage{opener})
	gt.NoError(t, err).Required()
	gt.Value(t, out.Responder).Nil()
	gt.Value(t, out.Initial).NotNil()
	gt.Value(t, out.Initial.Author).Equal("U_ALICE")
	gt.Value(t, out.Initial.Content).Equal("help me")
}

func TestEvaluate_FirstReplyWins(t *testing.T) {
	history := []*model.ThreadMessage{
		msg("U_ALICE", "alice", 0),
		msg("U_BOB", "bob", time.Minute),
	}

	out, err := attribution.Evaluate(history)
	gt.NoError(t, err).Required()
	gt.Value(t, out.Initial).Nil()
	gt.Value(t, out.Responder).NotNil()
	gt.Value(t, out.Responder.UserID).Equal("U_BOB")
	gt.Value(t, out.Responder.DisplayName).Equal("bob")
}

func TestEvaluate_OwnerFollowUpDoesNotCount(t *testing.T) {
	// Owner bumping their own thread must not become a candidate
	history := []*model.ThreadMessage{
		msg("U_ALICE", "alice", 0),
		msg("U_ALICE", "alice", time.Minute),
		msg("U_BOB", "bob", 2*time.Minute),
	}

	out, err := attribution.Evaluate(history)
	gt.NoError(t, err).Required()
	gt.Value(t, out.Responder).NotNil()
	gt.Value(t, out.Responder.UserID).Equal("U_BOB")
}

func TestEvaluate_SameCandidateOnReplay(t *testing.T) {
	// A later event re-evaluates the extended history; the scan still finds
	// the same first non-owner author, so the state machine can no-op on it.
	history := []*model.ThreadMessage{
		msg("U_ALICE", "alice", 0),
		msg("U_BOB", "bob", time.Minute),
		msg("U_ALICE", "alice", 2*time.Minute),
	}

	out, err := attribution.Evaluate(history)
	gt.NoError(t, err).Required()
	gt.Value(t, out.Responder).NotNil()
	gt.Value(t, out.Responder.UserID).Equal("U_BOB")
}

func TestEvaluate_SecondDistinctAuthorAfterCleanReply(t *testing.T) {
	// Once a second distinct participant appears the guard suppresses
	// re-attribution; the earlier persisted record is what keeps bob.
	history := []*model.ThreadMessage{
		msg("U_ALICE", "alice", 0),
		msg("U_BOB", "bob", time.Minute),
		msg("U_CAROL", "carol", 2*time.Minute),
	}

	out, err := attribution.Evaluate(history)
	gt.NoError(t, err).Required()
	gt.Value(t, out.Responder).Nil()
}

func TestEvaluate_MultiPartyNoiseSuppression(t *testing.T) {
	// Candidate posted twice and two distinct non-owner authors exist:
	// no attribution, silently skipped.
	history := []*model.ThreadMessage{
		msg("U_ALICE", "alice", 0),
		msg("U_BOB", "bob", time.Minute),
		msg("U_CAROL", "carol", 2*time.Minute),
		msg("U_BOB", "bob", 3*time.Minute),
	}

	out, err := attribution.Evaluate(history)
	gt.NoError(t, err).Required()
	gt.Value(t, out.Initial).Nil()
	gt.Value(t, out.Responder).Nil()
}

func TestEvaluate_CandidatePostedTwice(t *testing.T) {
	history := []*model.ThreadMessage{
		msg("U_ALICE", "alice", 0),
		msg("U_BOB", "bob", time.Minute),
		msg("U_BOB", "bob", 2*time.Minute),
	}

	out, err := attribution.Evaluate(history)
	gt.NoError(t, err).Required()
	gt.Value(t, out.Responder).Nil()
}

func TestEvaluate_SecondDistinctAuthorBlocksLateCandidate(t *testing.T) {
	// The first non-owner reply arrives after the thread already has two
	// distinct non-owner participants: skipped, not retried.
	history := []*model.ThreadMessage{
		msg("U_ALICE", "alice", 0),
		msg("U_BOB", "bob", time.Minute),
		msg("U_CAROL", "carol", time.Minute),
		msg("U_CAROL", "carol", 2*time.Minute),
	}

	out, err := attribution.Evaluate(history)
	gt.NoError(t, err).Required()
	gt.Value(t, out.Responder).Nil()
}

func TestEvaluate_EqualTimestampsKeepDeliveryOrder(t *testing.T) {
	history := []*model.ThreadMessage{
		msg("U_ALICE", "alice", 0),
		msg("U_BOB", "bob", time.Minute),
	}
	// Same timestamp as bob's reply, delivered later
	late := msg("U_CAROL", "carol", time.Minute)
	history = append(history, late)

	out, err := attribution.Evaluate(history)
	gt.NoError(t, err).Required()
	// Two distinct non-owner authors suppress attribution entirely
	gt.Value(t, out.Responder).Nil()
}
