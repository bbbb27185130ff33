package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/helpline/pkg/controller/http"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"github.com/secmon-lab/helpline/pkg/repository/memory"
	"github.com/secmon-lab/helpline/pkg/usecase"
)

func newAPIServer(t *testing.T) (*httpctrl.Server, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	return httpctrl.New(usecase.New(repo)), repo
}

func TestServer_Health(t *testing.T) {
	server, _ := newAPIServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)
}

func TestServer_Issues(t *testing.T) {
	server, repo := newAPIServer(t)
	ctx := context.Background()

	threadID := types.NewThreadID("CHELP", "1700000000.000100")
	issue := model.NewIssue(threadID, "CHELP", "https://example.slack.com/x",
		[]types.CategoryID{"deployment"}, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	issue.ApplyInitialMessage("U100", "alice", "my deploy is stuck")
	issue.ApplyFirstResponse("U200", "bob", time.Date(2026, 8, 30, 10, 5, 0, 0, time.UTC))
	gt.NoError(t, repo.Issue().Create(ctx, issue)).Required()

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/issues", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Issues []map[string]any `json:"issues"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Array(t, resp.Issues).Length(1)

	got := resp.Issues[0]
	gt.Value(t, got["threadId"]).Equal(threadID.String())
	gt.Value(t, got["originalPoster"]).Equal("U100")
	gt.Value(t, got["firstResponder"]).Equal("U200")
	gt.Value(t, got["status"]).Equal("OPEN_ANSWERED")
	gt.Value(t, got["severity"]).Equal("none")
	gt.Value(t, got["createdAt"]).Equal("2026-08-30T10:00:00Z")

	// Unset optional fields are omitted, not empty strings
	_, hasResolvedBy := got["resolvedBy"]
	gt.Bool(t, hasResolvedBy).False()
}

func TestServer_Dashboard(t *testing.T) {
	server, repo := newAPIServer(t)
	ctx := context.Background()

	threadID := types.NewThreadID("CHELP", "1700000000.000100")
	gt.NoError(t, repo.Issue().Create(ctx,
		model.NewIssue(threadID, "CHELP", "link", nil, time.Now().UTC().Add(-time.Hour)))).Required()

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		LastFourWeeksStats     []map[string]any `json:"lastFourWeeksStats"`
		IssuesAwaitingResponse map[string]any   `json:"issuesAwaitingResponse"`
		IssuesOpenedLastWeek   []map[string]any `json:"issuesOpenedLastWeek"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Array(t, resp.LastFourWeeksStats).Length(4)
	gt.Array(t, resp.IssuesOpenedLastWeek).Length(7)
	gt.Value(t, resp.IssuesAwaitingResponse["unansweredThreads"]).Equal(float64(1))
}

func TestServer_CORS(t *testing.T) {
	repo := memory.New()
	server := httpctrl.New(usecase.New(repo),
		httpctrl.WithCORSOrigins([]string{"https://dashboard.example.com"}))

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/issues", nil)
		req.Header.Set("Origin", "https://dashboard.example.com")

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusNoContent)
		gt.Value(t, rec.Header().Get("Access-Control-Allow-Origin")).Equal("https://dashboard.example.com")
	})

	t.Run("unknown origin gets no allow header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
		req.Header.Set("Origin", "https://evil.example.com")

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		gt.Value(t, rec.Header().Get("Access-Control-Allow-Origin")).Equal("")
	})
}
