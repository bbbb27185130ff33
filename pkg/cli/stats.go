package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/cli/config"
	"github.com/secmon-lab/helpline/pkg/usecase"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdStats() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:  "stats",
		Usage: "Print the support dashboard to the terminal",
		Flags: repoCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			dashboard, err := usecase.NewStatsUseCase(repo).Dashboard(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to build dashboard")
			}

			header := color.New(color.FgCyan, color.Bold)
			label := color.New(color.FgWhite)
			warn := color.New(color.FgYellow)

			header.Println("Last four weeks")
			for _, week := range dashboard.LastFourWeeksStats {
				label.Printf("  %-16s issues=%d resolved=%d elevated=%d one-touch=%d extended=%d avg-response=%s",
					week.DateRange, week.TotalIssues, week.TotalResolvedIssues,
					week.TotalElevatedIssues, week.OneTouchThreads, week.ExtendedThreads,
					week.AverageResponseTime)
				if week.BestSolver != "" {
					label.Printf(" best-solver=%s", week.BestSolver)
				}
				if week.BestFirstResponder != "" {
					label.Printf(" best-responder=%s", week.BestFirstResponder)
				}
				fmt.Println()
			}

			fmt.Println()
			header.Println("Backlog")
			backlog := dashboard.IssuesAwaitingResponse
			warn.Printf("  unanswered=%d unresolved=%d unresolved-github=%d\n",
				backlog.UnansweredThreads, backlog.UnresolvedIssues, backlog.UnresolvedGitHubIssues)

			fmt.Println()
			header.Println("Opened last week")
			for _, day := range dashboard.IssuesOpenedLastWeek {
				label.Printf("  %s %3d %s\n", day.Day, day.TotalIssues, strings.Repeat("#", day.TotalIssues))
			}

			return nil
		},
	}
}
