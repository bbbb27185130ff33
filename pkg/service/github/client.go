package github

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shurcooL/githubv4"
)

type client struct {
	gql   *githubv4.Client
	owner string
	repo  string

	mu     sync.Mutex
	repoID githubv4.ID
}

// New creates a GitHub Service using GitHub App authentication.
// privateKey can be a PEM string or a file path to a PEM file.
func New(appID, installationID int64, privateKey, owner, repo string) (Service, error) {
	if owner == "" || repo == "" {
		return nil, goerr.New("GitHub repository owner and name are required")
	}

	var key []byte

	// Try reading as file path first
	// #nosec G304 -- path comes from CLI flag, not user input
	if data, err := os.ReadFile(privateKey); err == nil {
		key = data
	} else {
		// Treat as PEM string
		key = []byte(privateKey)
	}

	tr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport")
	}

	httpClient := &http.Client{Transport: tr}

	return &client{
		gql:   githubv4.NewClient(httpClient),
		owner: owner,
		repo:  repo,
	}, nil
}

// repositoryID resolves and caches the GraphQL node ID of the repository
func (c *client) repositoryID(ctx context.Context) (githubv4.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.repoID != nil {
		return c.repoID, nil
	}

	var q struct {
		Repository struct {
			ID githubv4.ID
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := map[string]interface{}{
		"owner": githubv4.String(c.owner),
		"name":  githubv4.String(c.repo),
	}

	if err := c.gql.Query(ctx, &q, variables); err != nil {
		return nil, goerr.Wrap(err, "failed to resolve repository ID",
			goerr.V("owner", c.owner), goerr.V("repo", c.repo))
	}

	c.repoID = q.Repository.ID
	return c.repoID, nil
}

// CreateIssue creates an issue in the configured repository and returns
// its HTML URL
func (c *client) CreateIssue(ctx context.Context, title, body string) (string, error) {
	repoID, err := c.repositoryID(ctx)
	if err != nil {
		return "", err
	}

	var m struct {
		CreateIssue struct {
			Issue struct {
				URL githubv4.URI
			}
		} `graphql:"createIssue(input: $input)"`
	}
	input := githubv4.CreateIssueInput{
		RepositoryID: repoID,
		Title:        githubv4.String(title),
		Body:         githubv4.NewString(githubv4.String(body)),
	}

	if err := c.gql.Mutate(ctx, &m, input, nil); err != nil {
		return "", goerr.Wrap(err, "failed to create GitHub issue",
			goerr.V("owner", c.owner), goerr.V("repo", c.repo), goerr.V("title", title))
	}

	return m.CreateIssue.Issue.URL.String(), nil
}
