package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/usecase"
	"github.com/secmon-lab/helpline/pkg/utils/errutil"
)

// issueResponse is the JSON shape of one issue record. Field names follow
// the contract the dashboard frontend consumes.
type issueResponse struct {
	ThreadID           string   `json:"threadId"`
	ThreadLink         string   `json:"threadLink"`
	ChannelID          string   `json:"channelId"`
	CreatedAt          string   `json:"createdAt"`
	Status             string   `json:"status"`
	OriginalPoster     string   `json:"originalPoster,omitempty"`
	OriginalPosterName string   `json:"originalPosterName,omitempty"`
	FirstResponder     string   `json:"firstResponder,omitempty"`
	FirstResponderName string   `json:"firstResponderName,omitempty"`
	FirstResponseAt    string   `json:"firstResponseAt,omitempty"`
	Categories         []string `json:"categories"`
	Severity           string   `json:"severity"`
	Locked             bool     `json:"locked"`
	LockReason         string   `json:"lockReason,omitempty"`
	GitHubLink         string   `json:"githubLink,omitempty"`
	ResolvedBy         string   `json:"resolvedBy,omitempty"`
	ResolvedByName     string   `json:"resolvedByName,omitempty"`
	ResolvedAt         string   `json:"resolvedAt,omitempty"`
	MessageCount       int      `json:"messageCount"`
	ParticipantCount   int      `json:"participantCount"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func newIssueResponse(issue *model.Issue) issueResponse {
	categories := make([]string, len(issue.Categories))
	for i, c := range issue.Categories {
		categories[i] = c.String()
	}

	return issueResponse{
		ThreadID:           issue.ThreadID.String(),
		ThreadLink:         issue.ThreadLink,
		ChannelID:          issue.ChannelID.String(),
		CreatedAt:          formatTime(issue.CreatedAt),
		Status:             string(issue.Status()),
		OriginalPoster:     issue.OriginalPoster.String(),
		OriginalPosterName: issue.OriginalPosterName,
		FirstResponder:     issue.FirstResponder.String(),
		FirstResponderName: issue.FirstResponderName,
		FirstResponseAt:    formatTime(issue.FirstResponseAt),
		Categories:         categories,
		Severity:           issue.Severity.Label(),
		Locked:             issue.Locked,
		LockReason:         issue.LockReason,
		GitHubLink:         issue.GitHubLink,
		ResolvedBy:         issue.ResolvedBy.String(),
		ResolvedByName:     issue.ResolvedByName,
		ResolvedAt:         formatTime(issue.ResolvedAt),
		MessageCount:       issue.MessageCount,
		ParticipantCount:   issue.ParticipantCount,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) //nolint:errcheck // header already committed
}

// issuesHandler serves the full issue list, newest first
func issuesHandler(issueUC *usecase.IssueUseCase) http.HandlerFunc {
	type response struct {
		Issues []issueResponse `json:"issues"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var issues []*model.Issue
		var err error
		if channel := r.URL.Query().Get("channel"); channel != "" {
			issues, err = issueUC.ListByChannel(r.Context(), types.ChannelID(channel))
		} else {
			issues, err = issueUC.List(r.Context())
		}
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := response{Issues: make([]issueResponse, len(issues))}
		for i, issue := range issues {
			resp.Issues[i] = newIssueResponse(issue)
		}
		writeJSON(w, r, resp)
	}
}

// dashboardHandler serves the aggregate report views
func dashboardHandler(statsUC *usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := statsUC.Dashboard(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, r, dashboard)
	}
}

// feedbackHandler serves the per-channel feedback tallies
func feedbackHandler(feedbackUC *usecase.FeedbackUseCase) http.HandlerFunc {
	type tallyResponse struct {
		ChannelID string `json:"channelId"`
		Upvotes   int    `json:"upvotes"`
		Downvotes int    `json:"downvotes"`
		UpdatedAt string `json:"updatedAt"`
	}
	type response struct {
		Feedback []tallyResponse `json:"feedback"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tallies, err := feedbackUC.List(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := response{Feedback: make([]tallyResponse, len(tallies))}
		for i, tally := range tallies {
			resp.Feedback[i] = tallyResponse{
				ChannelID: tally.ChannelID.String(),
				Upvotes:   tally.Upvotes,
				Downvotes: tally.Downvotes,
				UpdatedAt: formatTime(tally.UpdatedAt),
			}
		}
		writeJSON(w, r, resp)
	}
}
