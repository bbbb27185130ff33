package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// Thread-size thresholds for the weekly report. A one-touch thread is a
// resolved question answered in a single exchange; an extended thread went
// long before resolution.
const (
	oneTouchMaxMessages     = 2
	extendedMinMessages     = 10
	dashboardWeeks          = 4
	dashboardDailyRangeDays = 7
)

// StatsUseCase computes the aggregate report views served by the read API
type StatsUseCase struct {
	repo interfaces.Repository
	now  func() time.Time
}

// NewStatsUseCase creates a new StatsUseCase instance
func NewStatsUseCase(repo interfaces.Repository) *StatsUseCase {
	return &StatsUseCase{
		repo: repo,
		now:  time.Now,
	}
}

// Dashboard assembles the three aggregate views. The underlying queries are
// independent, so they run concurrently.
func (uc *StatsUseCase) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	var dashboard model.Dashboard

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		weekly, err := uc.LastWeeks(ctx, dashboardWeeks)
		if err != nil {
			return err
		}
		dashboard.LastFourWeeksStats = weekly
		return nil
	})

	eg.Go(func() error {
		backlog, err := uc.Backlog(ctx)
		if err != nil {
			return err
		}
		dashboard.IssuesAwaitingResponse = *backlog
		return nil
	})

	eg.Go(func() error {
		daily, err := uc.OpenedPerDay(ctx, dashboardDailyRangeDays)
		if err != nil {
			return err
		}
		dashboard.IssuesOpenedLastWeek = daily
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// LastWeeks returns one aggregate row per week for the last n weeks, most
// recent week first
func (uc *StatsUseCase) LastWeeks(ctx context.Context, n int) ([]model.WeeklyStats, error) {
	now := uc.now().UTC()

	weekly := make([]model.WeeklyStats, 0, n)
	for i := 0; i < n; i++ {
		to := now.AddDate(0, 0, -7*i)
		from := to.AddDate(0, 0, -7)

		issues, err := uc.repo.Issue().ListCreatedBetween(ctx, from, to)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list issues for week",
				goerr.V("from", from), goerr.V("to", to))
		}

		weekly = append(weekly, buildWeeklyStats(from, to, issues))
	}
	return weekly, nil
}

// Backlog counts the issues still waiting on someone
func (uc *StatsUseCase) Backlog(ctx context.Context) (*model.BacklogCounts, error) {
	issues, err := uc.repo.Issue().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issues for backlog")
	}

	var counts model.BacklogCounts
	for _, issue := range issues {
		resolved := issue.Status() == types.IssueStatusResolved
		if issue.Status() == types.IssueStatusOpenUnanswered {
			counts.UnansweredThreads++
		}
		if !resolved {
			counts.UnresolvedIssues++
			if issue.Elevated() {
				counts.UnresolvedGitHubIssues++
			}
		}
	}
	return &counts, nil
}

// OpenedPerDay returns per-day creation counts for the last n days, oldest
// day first. Days with no issues still get a zero row.
func (uc *StatsUseCase) OpenedPerDay(ctx context.Context, n int) ([]model.DailyCount, error) {
	now := uc.now().UTC()
	to := now.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -n)

	issues, err := uc.repo.Issue().ListCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issues for daily counts",
			goerr.V("from", from), goerr.V("to", to))
	}

	byDay := map[string]int{}
	for _, issue := range issues {
		byDay[issue.CreatedAt.UTC().Format("2006-01-02")]++
	}

	daily := make([]model.DailyCount, 0, n)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		day := d.Format("2006-01-02")
		daily = append(daily, model.DailyCount{
			Day:         day,
			TotalIssues: byDay[day],
		})
	}
	return daily, nil
}

func buildWeeklyStats(from, to time.Time, issues []*model.Issue) model.WeeklyStats {
	stats := model.WeeklyStats{
		DateRange:   fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02")),
		TotalIssues: len(issues),
	}

	var responseTotal time.Duration
	var responseCount int
	solvedBy := map[string]int{}
	respondedBy := map[string]int{}

	for _, issue := range issues {
		if issue.Elevated() {
			stats.TotalElevatedIssues++
		}

		if issue.FirstResponder != "" {
			responseTotal += issue.FirstResponseAt.Sub(issue.CreatedAt)
			responseCount++
			respondedBy[issue.FirstResponderName]++
		}

		if issue.Status() != types.IssueStatusResolved {
			continue
		}
		stats.TotalResolvedIssues++
		solvedBy[issue.ResolvedByName]++

		switch {
		case issue.MessageCount <= oneTouchMaxMessages:
			stats.OneTouchThreads++
		case issue.MessageCount >= extendedMinMessages:
			stats.ExtendedThreads++
		}
	}

	if responseCount > 0 {
		stats.AverageResponseTime = formatDuration(responseTotal / time.Duration(responseCount))
	} else {
		stats.AverageResponseTime = "n/a"
	}

	stats.BestSolver = topName(solvedBy)
	stats.BestFirstResponder = topName(respondedBy)

	return stats
}

// topName returns the most frequent name; ties resolved by lexical order so
// the report is deterministic
func topName(counts map[string]int) string {
	var best string
	var bestCount int
	for name, count := range counts {
		if name == "" {
			continue
		}
		if count > bestCount || (count == bestCount && (best == "" || name < best)) {
			best = name
			bestCount = count
		}
	}
	return best
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
