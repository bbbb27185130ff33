package authz

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/domain/interfaces"
	"github.com/secmon-lab/helpline/pkg/domain/types"
	slacksvc "github.com/secmon-lab/helpline/pkg/service/slack"
)

// DefaultCacheTTL is how long a fetched staff member list stays valid
const DefaultCacheTTL = 5 * time.Minute

// Service answers staff checks against a configured Slack user group.
// Membership is cached with a TTL so every slash command does not hit the
// Slack API.
type Service struct {
	slackService slacksvc.Service
	groupID      string
	cacheTTL     time.Duration

	mu        sync.Mutex
	members   map[types.UserID]struct{}
	expiresAt time.Time
}

var _ interfaces.Authorizer = &Service{}

// Option is a functional option for Service configuration
type Option func(*Service)

// WithCacheTTL sets the TTL of the member list cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// New creates a staff authorizer backed by a Slack user group
func New(slackService slacksvc.Service, groupID string, opts ...Option) (*Service, error) {
	if groupID == "" {
		return nil, goerr.New("staff user group ID is required")
	}

	s := &Service{
		slackService: slackService,
		groupID:      groupID,
		cacheTTL:     DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IsStaff reports whether the user belongs to the staff user group
func (s *Service) IsStaff(ctx context.Context, userID types.UserID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.members == nil || time.Now().After(s.expiresAt) {
		ids, err := s.slackService.GetUserGroupMembers(ctx, s.groupID)
		if err != nil {
			return false, goerr.Wrap(err, "failed to refresh staff members", goerr.V("groupID", s.groupID))
		}

		members := make(map[types.UserID]struct{}, len(ids))
		for _, id := range ids {
			members[id] = struct{}{}
		}
		s.members = members
		s.expiresAt = time.Now().Add(s.cacheTTL)
	}

	_, ok := s.members[userID]
	return ok, nil
}
