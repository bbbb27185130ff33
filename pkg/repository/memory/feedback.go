package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/model"
	"github.com/secmon-lab/helpline/pkg/domain/types"
)

type feedbackRepository struct {
	mu      sync.RWMutex
	tallies map[types.ChannelID]*model.FeedbackTally
}

func newFeedbackRepository() *feedbackRepository {
	return &feedbackRepository{
		tallies: make(map[types.ChannelID]*model.FeedbackTally),
	}
}

func copyTally(t *model.FeedbackTally) *model.FeedbackTally {
	copied := *t
	return &copied
}

func (r *feedbackRepository) Upsert(ctx context.Context, tally *model.FeedbackTally) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tallies[tally.ChannelID] = copyTally(tally)
	return nil
}

func (r *feedbackRepository) Get(ctx context.Context, channelID types.ChannelID) (*model.FeedbackTally, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tally, exists := r.tallies[channelID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrRecordNotFound, "feedback tally not found",
			goerr.V("channel_id", channelID))
	}
	return copyTally(tally), nil
}

func (r *feedbackRepository) List(ctx context.Context) ([]*model.FeedbackTally, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tallies := make([]*model.FeedbackTally, 0, len(r.tallies))
	for _, tally := range r.tallies {
		tallies = append(tallies, copyTally(tally))
	}

	sort.Slice(tallies, func(i, j int) bool {
		return tallies[i].ChannelID < tallies[j].ChannelID
	})
	return tallies, nil
}
