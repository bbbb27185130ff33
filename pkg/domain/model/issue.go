package model

import (
	"time"

	"github.com/secmon-lab/helpline/pkg/domain/types"
)

// Lock reasons written by lifecycle transitions
const (
	LockReasonElevated = "elevated"
	LockReasonResolved = "resolved"
)

// Issue is the durable record of one support thread. Most fields are
// set-once: the Apply methods below return false instead of overwriting,
// which is what makes replayed platform events harmless.
type Issue struct {
	ThreadID   types.ThreadID  `firestore:"thread_id"`
	ThreadLink string          `firestore:"thread_link"`
	ChannelID  types.ChannelID `firestore:"channel_id"`
	CreatedAt  time.Time       `firestore:"created_at"`
	UpdatedAt  time.Time       `firestore:"updated_at"`

	OriginalPoster     types.UserID `firestore:"original_poster"`
	OriginalPosterName string       `firestore:"original_poster_name"`
	InitialMessage     string       `firestore:"initial_message"`

	FirstResponder     types.UserID `firestore:"first_responder"`
	FirstResponderName string       `firestore:"first_responder_name"`
	FirstResponseAt    time.Time    `firestore:"first_response_at"`

	Categories []types.CategoryID `firestore:"categories"`
	Severity   types.Severity     `firestore:"severity"`

	Locked     bool   `firestore:"locked"`
	LockReason string `firestore:"lock_reason"`

	GitHubLink string `firestore:"github_link"`

	ResolvedBy       types.UserID `firestore:"resolved_by"`
	ResolvedByName   string       `firestore:"resolved_by_name"`
	ResolvedAt       time.Time    `firestore:"resolved_at"`
	MessageCount     int          `firestore:"message_count"`
	ParticipantCount int          `firestore:"participant_count"`
}

// NewIssue creates the record inserted on thread creation. Categories are
// immutable after this point.
func NewIssue(threadID types.ThreadID, channelID types.ChannelID, link string, categories []types.CategoryID, now time.Time) *Issue {
	return &Issue{
		ThreadID:   threadID,
		ChannelID:  channelID,
		ThreadLink: link,
		Categories: categories,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Status derives the lifecycle state from the set-once fields
func (x *Issue) Status() types.IssueStatus {
	switch {
	case x.ResolvedBy != "":
		return types.IssueStatusResolved
	case x.FirstResponder != "":
		return types.IssueStatusOpenAnswered
	default:
		return types.IssueStatusOpenUnanswered
	}
}

// Elevated reports whether the issue has been linked to a GitHub issue.
// Elevation is an orthogonal flag, not a lifecycle state.
func (x *Issue) Elevated() bool {
	return x.GitHubLink != ""
}

// ApplyInitialMessage records the thread-opening message. It is a no-op
// once the original poster is set, so creation-event replay cannot
// overwrite it.
func (x *Issue) ApplyInitialMessage(author types.UserID, displayName, content string) bool {
	if x.OriginalPoster != "" {
		return false
	}
	x.OriginalPoster = author
	x.OriginalPosterName = displayName
	x.InitialMessage = content
	return true
}

// ApplyFirstResponse records the first responder. Responder and timestamp
// are set together or not at all; once set they never change.
func (x *Issue) ApplyFirstResponse(responder types.UserID, displayName string, at time.Time) bool {
	if x.FirstResponder != "" {
		return false
	}
	x.FirstResponder = responder
	x.FirstResponderName = displayName
	x.FirstResponseAt = at
	return true
}

// ApplyElevation links the issue to a GitHub issue and locks the thread.
// The link is set at most once.
func (x *Issue) ApplyElevation(githubLink string) bool {
	if x.GitHubLink != "" {
		return false
	}
	x.GitHubLink = githubLink
	x.Locked = true
	x.LockReason = LockReasonElevated
	return true
}

// ApplyLockStatus sets the lock flag and reason. Unlike the set-once
// fields it always applies; it reports whether anything changed so callers
// can skip a redundant write. It never touches resolved_at: only
// ApplyResolution stamps a resolution time.
func (x *Issue) ApplyLockStatus(locked bool, reason string) bool {
	if x.Locked == locked && x.LockReason == reason {
		return false
	}
	x.Locked = locked
	x.LockReason = reason
	return true
}

// ApplyResolution marks the issue resolved, locks it, and snapshots the
// thread counters. Set at most once; resolution implies locked.
func (x *Issue) ApplyResolution(resolvedBy types.UserID, displayName string, messageCount, participantCount int, at time.Time) bool {
	if x.ResolvedBy != "" {
		return false
	}
	x.ResolvedBy = resolvedBy
	x.ResolvedByName = displayName
	x.ResolvedAt = at
	x.MessageCount = messageCount
	x.ParticipantCount = participantCount
	x.Locked = true
	x.LockReason = LockReasonResolved
	return true
}

// ApplySeverity overwrites the severity. Severity is the one field staff
// can change repeatedly.
func (x *Issue) ApplySeverity(severity types.Severity) {
	x.Severity = severity
}

// Clone returns a deep copy of the issue
func (x *Issue) Clone() *Issue {
	copied := *x
	if x.Categories != nil {
		copied.Categories = make([]types.CategoryID, len(x.Categories))
		copy(copied.Categories, x.Categories)
	}
	return &copied
}
