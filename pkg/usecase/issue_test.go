package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/repository/memory"
	"github.com/secmon-lab/helpline/pkg/usecase"
)

func TestIssueUseCase_CreateRecord(t *testing.T) {
	t.Run("creates record with categories", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIssueUseCase(repo)
		ctx := context.Background()

		threadID := types.NewThreadID("C001", "1700000000.000100")
		err := uc.CreateRecord(ctx, threadID, "C001", "https://example.slack.com/x", []types.CategoryID{"ci"})
		gt.NoError(t, err).Required()

		issue, err := uc.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.ChannelID).Equal(types.ChannelID("C001"))
		gt.Array(t, issue.Categories).Length(1)
		gt.Value(t, issue.Status()).Equal(types.IssueStatusOpenUnanswered)
	})

	t.Run("replayed creation is a no-op", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewIssueUseCase(repo)
		ctx := context.Background()

		threadID := types.NewThreadID("C001", "1700000000.000100")
		gt.NoError(t, uc.CreateRecord(ctx, threadID, "C001", "link", nil)).Required()
		gt.NoError(t, uc.RecordInitialMessage(ctx, threadID, "U100", "alice", "help")).Required()

		// Second delivery of the same creation event
		gt.NoError(t, uc.CreateRecord(ctx, threadID, "C001", "link", nil)).Required()

		issue, err := uc.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.OriginalPoster).Equal(types.UserID("U100"))
	})
}

func TestIssueUseCase_SetOnceActions(t *testing.T) {
	newTracked := func(t *testing.T) (*usecase.IssueUseCase, types.ThreadID) {
		t.Helper()
		uc := usecase.NewIssueUseCase(memory.New())
		threadID := types.NewThreadID("C001", "1700000000.000100")
		gt.NoError(t, uc.CreateRecord(context.Background(), threadID, "C001", "link", nil)).Required()
		return uc, threadID
	}

	t.Run("first response is recorded once", func(t *testing.T) {
		uc, threadID := newTracked(t)
		ctx := context.Background()

		at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		gt.NoError(t, uc.RecordFirstResponse(ctx, threadID, "U200", "bob", at)).Required()
		gt.NoError(t, uc.RecordFirstResponse(ctx, threadID, "U300", "carol", at.Add(time.Hour))).Required()

		issue, err := uc.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.FirstResponder).Equal(types.UserID("U200"))
		gt.Value(t, issue.FirstResponseAt).Equal(at)
	})

	t.Run("resolve locks and stamps resolved_at", func(t *testing.T) {
		uc, threadID := newTracked(t)
		ctx := context.Background()

		gt.NoError(t, uc.Resolve(ctx, threadID, "U200", "bob", 5, 2)).Required()

		issue, err := uc.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.Status()).Equal(types.IssueStatusResolved)
		gt.Bool(t, issue.Locked).True()
		gt.Bool(t, issue.ResolvedAt.IsZero()).False()
		gt.Value(t, issue.MessageCount).Equal(5)
		gt.Value(t, issue.ParticipantCount).Equal(2)
	})

	t.Run("unlock after resolve keeps resolved_at", func(t *testing.T) {
		uc, threadID := newTracked(t)
		ctx := context.Background()

		gt.NoError(t, uc.Resolve(ctx, threadID, "U200", "bob", 5, 2)).Required()
		before, err := uc.Get(ctx, threadID)
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.SetLockedStatus(ctx, threadID, false, "")).Required()

		after, err := uc.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Bool(t, after.Locked).False()
		gt.Value(t, after.ResolvedAt).Equal(before.ResolvedAt)
	})

	t.Run("elevate stores link and locks", func(t *testing.T) {
		uc, threadID := newTracked(t)
		ctx := context.Background()

		gt.NoError(t, uc.Elevate(ctx, threadID, "https://github.com/acme/infra/issues/42")).Required()
		gt.NoError(t, uc.Elevate(ctx, threadID, "https://github.com/acme/infra/issues/43")).Required()

		issue, err := uc.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.GitHubLink).Equal("https://github.com/acme/infra/issues/42")
		gt.Bool(t, issue.Locked).True()
	})

	t.Run("severity is freely mutable", func(t *testing.T) {
		uc, threadID := newTracked(t)
		ctx := context.Background()

		gt.NoError(t, uc.SetSeverity(ctx, threadID, types.SeverityHigh)).Required()
		gt.NoError(t, uc.SetSeverity(ctx, threadID, types.SeverityLow)).Required()

		issue, err := uc.Get(ctx, threadID)
		gt.NoError(t, err).Required()
		gt.Value(t, issue.Severity).Equal(types.SeverityLow)
	})

	t.Run("invalid severity is rejected", func(t *testing.T) {
		uc, threadID := newTracked(t)
		err := uc.SetSeverity(context.Background(), threadID, types.Severity(42))
		gt.Error(t, err)
	})
}

func TestIssueUseCase_NotFound(t *testing.T) {
	uc := usecase.NewIssueUseCase(memory.New())
	ctx := context.Background()
	threadID := types.NewThreadID("C001", "1700000000.000100")

	_, err := uc.Get(ctx, threadID)
	gt.Bool(t, errors.Is(err, usecase.ErrIssueNotFound)).True()

	err = uc.RecordFirstResponse(ctx, threadID, "U200", "bob", time.Now().UTC())
	gt.Bool(t, errors.Is(err, usecase.ErrIssueNotFound)).True()

	err = uc.Resolve(ctx, threadID, "U200", "bob", 1, 1)
	gt.Bool(t, errors.Is(err, usecase.ErrIssueNotFound)).True()
}
