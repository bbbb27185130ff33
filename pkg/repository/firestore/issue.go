package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type issueRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newIssueRepository(client *firestore.Client) *issueRepository {
	return &issueRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *issueRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_issues"
	}
	return "issues"
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) error {
	docID := issue.ThreadID.String()

	_, err := r.client.Collection(r.collection()).Doc(docID).Create(ctx, issue)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(interfaces.ErrRecordExists, "issue already exists",
				goerr.V("thread_id", issue.ThreadID))
		}
		return goerr.Wrap(err, "failed to create issue", goerr.V("thread_id", issue.ThreadID))
	}
	return nil
}

func (r *issueRepository) Get(ctx context.Context, threadID types.ThreadID) (*model.Issue, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(threadID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrRecordNotFound, "issue not found",
				goerr.V("thread_id", threadID))
		}
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V("thread_id", threadID))
	}

	var issue model.Issue
	if err := docSnap.DataTo(&issue); err != nil {
		return nil, goerr.Wrap(err, "failed to decode issue", goerr.V("thread_id", threadID))
	}
	return &issue, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) error {
	doc := r.client.Collection(r.collection()).Doc(issue.ThreadID.String())

	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrRecordNotFound, "issue not found",
				goerr.V("thread_id", issue.ThreadID))
		}
		return goerr.Wrap(err, "failed to check issue", goerr.V("thread_id", issue.ThreadID))
	}

	if _, err := doc.Set(ctx, issue); err != nil {
		return goerr.Wrap(err, "failed to update issue", goerr.V("thread_id", issue.ThreadID))
	}
	return nil
}

func (r *issueRepository) List(ctx context.Context) ([]*model.Issue, error) {
	iter := r.client.Collection(r.collection()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	return collectIssues(iter)
}

// ListByChannel relies on the composite index managed by the migrate
// command (channel_id ASC, created_at DESC)
func (r *issueRepository) ListByChannel(ctx context.Context, channelID types.ChannelID) ([]*model.Issue, error) {
	iter := r.client.Collection(r.collection()).
		Where("channel_id", "==", channelID.String()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	return collectIssues(iter)
}

func (r *issueRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Issue, error) {
	iter := r.client.Collection(r.collection()).
		Where("created_at", ">=", from).
		Where("created_at", "<", to).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	return collectIssues(iter)
}

func collectIssues(iter *firestore.DocumentIterator) ([]*model.Issue, error) {
	var issues []*model.Issue
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate issues")
		}

		var issue model.Issue
		if err := docSnap.DataTo(&issue); err != nil {
			return nil, goerr.Wrap(err, "failed to decode issue", goerr.V("doc_id", docSnap.Ref.ID))
		}
		issues = append(issues, &issue)
	}
	return issues, nil
}
