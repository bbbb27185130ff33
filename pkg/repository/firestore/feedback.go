package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type feedbackRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newFeedbackRepository(client *firestore.Client) *feedbackRepository {
	return &feedbackRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *feedbackRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_feedback"
	}
	return "feedback"
}

func (r *feedbackRepository) Upsert(ctx context.Context, tally *model.FeedbackTally) error {
	docID := tally.ChannelID.String()

	if _, err := r.client.Collection(r.collection()).Doc(docID).Set(ctx, tally); err != nil {
		return goerr.Wrap(err, "failed to upsert feedback tally", goerr.V("channel_id", tally.ChannelID))
	}
	return nil
}

func (r *feedbackRepository) Get(ctx context.Context, channelID types.ChannelID) (*model.FeedbackTally, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(channelID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrRecordNotFound, "feedback tally not found",
				goerr.V("channel_id", channelID))
		}
		return nil, goerr.Wrap(err, "failed to get feedback tally", goerr.V("channel_id", channelID))
	}

	var tally model.FeedbackTally
	if err := docSnap.DataTo(&tally); err != nil {
		return nil, goerr.Wrap(err, "failed to decode feedback tally", goerr.V("channel_id", channelID))
	}
	return &tally, nil
}

func (r *feedbackRepository) List(ctx context.Context) ([]*model.FeedbackTally, error) {
	iter := r.client.Collection(r.collection()).Documents(ctx)
	defer iter.Stop()

	var tallies []*model.FeedbackTally
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate feedback tallies")
		}

		var tally model.FeedbackTally
		if err := docSnap.DataTo(&tally); err != nil {
			return nil, goerr.Wrap(err, "failed to decode feedback tally", goerr.V("doc_id", docSnap.Ref.ID))
		}
		tallies = append(tallies, &tally)
	}
	return tallies, nil
}
