package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/service/slack"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
)

// CommandUseCase handles the staff slash commands (elevate, lock, unlock,
// resolve, severity). Every command is gated by the staff check before any
// state mutation, and every outcome produces a user-visible response.
type CommandUseCase struct {
	issue    *IssueUseCase
	slackSvc slack.Service
	authz    interfaces.Authorizer
	tracker  interfaces.IssueTracker
	feedback *FeedbackUseCase
}

// NewCommandUseCase creates a new CommandUseCase instance
func NewCommandUseCase(issue *IssueUseCase, feedback *FeedbackUseCase, slackSvc slack.Service, authz interfaces.Authorizer, tracker interfaces.IssueTracker) *CommandUseCase {
	return &CommandUseCase{
		issue:    issue,
		feedback: feedback,
		slackSvc: slackSvc,
		authz:    authz,
		tracker:  tracker,
	}
}

// Handle parses and executes one slash command invocation. The returned
// string is shown to the invoking user; sentinel errors are translated into
// friendly messages and only unexpected failures propagate as errors.
func (uc *CommandUseCase) Handle(ctx context.Context, userID types.UserID, channelID types.ChannelID, text string) (string, error) {
	resp, err := uc.dispatch(ctx, userID, channelID, text)
	if err == nil {
		return resp, nil
	}

	switch {
	case errors.Is(err, ErrNotStaff):
		logging.From(ctx).Info("staff command rejected", UserIDKey, userID, "command", text)
		return "You need to be in the staff group to use this command.", nil
	case errors.Is(err, ErrUnknownCommand):
		return "Unknown command. Available: elevate, lock, unlock, resolve, severity.", nil
	case errors.Is(err, ErrInvalidThreadRef):
		return "I couldn't parse that thread reference. Pass a thread permalink or the thread timestamp.", nil
	case errors.Is(err, ErrIssueNotFound):
		return "No issue record exists for that thread.", nil
	}
	return "", err
}

func (uc *CommandUseCase) dispatch(ctx context.Context, userID types.UserID, channelID types.ChannelID, text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", goerr.Wrap(ErrUnknownCommand, "empty command")
	}
	verb, args := fields[0], fields[1:]

	// No authorizer means no staff group is configured; nobody is staff.
	if uc.authz == nil {
		return "", goerr.Wrap(ErrNotStaff, "no staff group configured", goerr.V(UserIDKey, userID))
	}

	staff, err := uc.authz.IsStaff(ctx, userID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to check staff membership", goerr.V(UserIDKey, userID))
	}
	if !staff {
		return "", goerr.Wrap(ErrNotStaff, "command requires staff group membership",
			goerr.V(UserIDKey, userID), goerr.V("command", verb))
	}

	switch verb {
	case "elevate":
		return uc.elevate(ctx, channelID, args)
	case "lock":
		return uc.lock(ctx, channelID, args, true)
	case "unlock":
		return uc.lock(ctx, channelID, args, false)
	case "resolve":
		return uc.resolve(ctx, userID, channelID, args)
	case "severity":
		return uc.severity(ctx, channelID, args)
	}
	return "", goerr.Wrap(ErrUnknownCommand, "unrecognized verb", goerr.V("verb", verb))
}

// elevate files a GitHub issue for the thread and locks it
func (uc *CommandUseCase) elevate(ctx context.Context, channelID types.ChannelID, args []string) (string, error) {
	if len(args) < 2 {
		return "", goerr.Wrap(ErrInvalidThreadRef, "usage: elevate <thread> <title>")
	}
	if uc.tracker == nil {
		return "Elevation is not configured on this deployment.", nil
	}
	threadID, err := ParseThreadRef(channelID, args[0])
	if err != nil {
		return "", err
	}
	title := strings.Join(args[1:], " ")

	issue, err := uc.issue.Get(ctx, threadID)
	if err != nil {
		return "", err
	}
	if issue.Elevated() {
		return fmt.Sprintf("Already elevated: %s", issue.GitHubLink), nil
	}

	body := fmt.Sprintf("Elevated from a support thread.\n\nThread: %s\n\nOriginal question:\n%s",
		issue.ThreadLink, issue.InitialMessage)

	url, err := uc.tracker.CreateIssue(ctx, title, body)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create tracker issue", goerr.V(ThreadIDKey, threadID))
	}

	if err := uc.issue.Elevate(ctx, threadID, url); err != nil {
		return "", err
	}

	if _, err := uc.slackSvc.PostThreadReply(ctx, threadID,
		fmt.Sprintf("This thread has been elevated to %s and is now locked.", url)); err != nil {
		logging.From(ctx).Warn("failed to announce elevation in thread",
			ThreadIDKey, threadID, "error", err.Error())
	}

	return fmt.Sprintf("Elevated: %s", url), nil
}

func (uc *CommandUseCase) lock(ctx context.Context, channelID types.ChannelID, args []string, locked bool) (string, error) {
	if len(args) < 1 {
		return "", goerr.Wrap(ErrInvalidThreadRef, "usage: lock|unlock <thread> [reason]")
	}
	threadID, err := ParseThreadRef(channelID, args[0])
	if err != nil {
		return "", err
	}

	reason := ""
	if locked {
		reason = "locked by staff"
		if len(args) > 1 {
			reason = strings.Join(args[1:], " ")
		}
	}

	if err := uc.issue.SetLockedStatus(ctx, threadID, locked, reason); err != nil {
		return "", err
	}

	if locked {
		return "Thread locked.", nil
	}
	return "Thread unlocked.", nil
}

// resolve marks the issue resolved with counters snapshotted from the live
// thread, then posts the feedback prompt
func (uc *CommandUseCase) resolve(ctx context.Context, userID types.UserID, channelID types.ChannelID, args []string) (string, error) {
	if len(args) < 1 {
		return "", goerr.Wrap(ErrInvalidThreadRef, "usage: resolve <thread>")
	}
	threadID, err := ParseThreadRef(channelID, args[0])
	if err != nil {
		return "", err
	}

	history, err := uc.slackSvc.FetchThreadHistory(ctx, threadID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch thread history", goerr.V(ThreadIDKey, threadID))
	}
	humans := model.FilterSystemActors(history)

	participants := map[types.UserID]struct{}{}
	for _, m := range humans {
		participants[m.AuthorID] = struct{}{}
	}

	name, err := uc.slackSvc.GetUserName(ctx, userID)
	if err != nil {
		name = string(userID)
	}

	if err := uc.issue.Resolve(ctx, threadID, userID, name, len(humans), len(participants)); err != nil {
		return "", err
	}

	if uc.feedback != nil {
		if err := uc.feedback.PostPrompt(ctx, threadID); err != nil {
			logging.From(ctx).Warn("failed to post feedback prompt",
				ThreadIDKey, threadID, "error", err.Error())
		}
	}

	return "Thread resolved. Thanks for helping out!", nil
}

func (uc *CommandUseCase) severity(ctx context.Context, channelID types.ChannelID, args []string) (string, error) {
	if len(args) < 2 {
		return "", goerr.Wrap(ErrInvalidThreadRef, "usage: severity <thread> <none|low|medium|high|critical>")
	}
	threadID, err := ParseThreadRef(channelID, args[0])
	if err != nil {
		return "", err
	}

	sev, err := types.ParseSeverityLabel(strings.ToLower(args[1]))
	if err != nil {
		return fmt.Sprintf("Unknown severity %q. Use none, low, medium, high or critical.", args[1]), nil
	}

	if err := uc.issue.SetSeverity(ctx, threadID, sev); err != nil {
		return "", err
	}
	return fmt.Sprintf("Severity set to %s.", sev.Label()), nil
}

// ParseThreadRef resolves a command argument into a thread ID. It accepts a
// Slack archive permalink ("https://x.slack.com/archives/C0123/p1700000000000100")
// or a raw thread timestamp ("1700000000.000100") scoped to the invoking
// channel.
func ParseThreadRef(channelID types.ChannelID, ref string) (types.ThreadID, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		_, rest, ok := strings.Cut(ref, "/archives/")
		if !ok {
			return "", goerr.Wrap(ErrInvalidThreadRef, "permalink has no archive path", goerr.V("ref", ref))
		}
		rest = strings.TrimSuffix(rest, "/")
		if i := strings.IndexByte(rest, '?'); i >= 0 {
			rest = rest[:i]
		}
		channel, msg, ok := strings.Cut(rest, "/")
		if !ok || channel == "" || len(msg) < 8 || msg[0] != 'p' {
			return "", goerr.Wrap(ErrInvalidThreadRef, "permalink has no message part", goerr.V("ref", ref))
		}
		digits := msg[1:]
		if strings.Trim(digits, "0123456789") != "" || len(digits) <= 6 {
			return "", goerr.Wrap(ErrInvalidThreadRef, "permalink timestamp is not numeric", goerr.V("ref", ref))
		}
		ts := digits[:len(digits)-6] + "." + digits[len(digits)-6:]
		return types.NewThreadID(types.ChannelID(channel), ts), nil
	}

	sec, frac, ok := strings.Cut(ref, ".")
	if !ok || sec == "" || frac == "" ||
		strings.Trim(sec, "0123456789") != "" || strings.Trim(frac, "0123456789") != "" {
		return "", goerr.Wrap(ErrInvalidThreadRef, "not a permalink or thread timestamp", goerr.V("ref", ref))
	}
	return types.NewThreadID(channelID, ref), nil
}
