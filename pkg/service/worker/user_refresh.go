package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/helpline/pkg/service/slack"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
)

// UserRefreshWorker periodically reloads the workspace user list into the
// Slack service's display-name cache, so reports can show human names
// without per-request lookups.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
type UserRefreshWorker struct {
	slackService slack.Service
	interval     time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// NewUserRefreshWorker creates a new worker for refreshing the user cache
func NewUserRefreshWorker(slackSvc slack.Service, interval time.Duration) *UserRefreshWorker {
	return &UserRefreshWorker{
		slackService: slackSvc,
		interval:     interval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background refresh loop. It does not block startup;
// the initial sync runs in the worker goroutine.
func (w *UserRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("user refresh worker starting", "interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *UserRefreshWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("user refresh worker stopped")
}

func (w *UserRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.refresh(ctx); err != nil {
		logging.Default().Error("initial user refresh failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				logging.Default().Error("user refresh failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *UserRefreshWorker) refresh(ctx context.Context) error {
	startTime := time.Now()

	users, err := w.slackService.ListUsers(ctx)
	if err != nil {
		// Keep the previous cache; stale names beat missing names
		return err
	}

	w.slackService.WarmUserCache(users)

	logging.Default().Info("user cache refreshed",
		"count", len(users),
		"duration", time.Since(startTime).String())

	return nil
}
