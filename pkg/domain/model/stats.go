package model

// Report shapes for the read API. Field names follow the JSON contract the
// dashboard frontend consumes.

// WeeklyStats is one week's aggregate row
type WeeklyStats struct {
	DateRange           string `json:"dateRange"`
	TotalIssues         int    `json:"totalIssues"`
	TotalElevatedIssues int    `json:"totalElevatedIssues"`
	TotalResolvedIssues int    `json:"totalResolvedIssues"`
	OneTouchThreads     int    `json:"totalOneTouchThreads"`
	ExtendedThreads     int    `json:"extendedThreads"`
	AverageResponseTime string `json:"averageResponseTime"`
	BestSolver          string `json:"bestSolver,omitempty"`
	BestFirstResponder  string `json:"bestFirstResponder,omitempty"`
}

// BacklogCounts summarizes issues still waiting on someone
type BacklogCounts struct {
	UnansweredThreads      int `json:"unansweredThreads"`
	UnresolvedIssues       int `json:"unresolvedIssues"`
	UnresolvedGitHubIssues int `json:"unresolvedGithubIssues"`
}

// DailyCount is the number of issues opened on one day
type DailyCount struct {
	Day         string `json:"day"`
	TotalIssues int    `json:"totalIssuesPerDay"`
}

// Dashboard bundles the aggregate views served by /api/dashboard
type Dashboard struct {
	LastFourWeeksStats     []WeeklyStats `json:"lastFourWeeksStats"`
	IssuesAwaitingResponse BacklogCounts `json:"issuesAwaitingResponse"`
	IssuesOpenedLastWeek   []DailyCount  `json:"issuesOpenedLastWeek"`
}
