package async

import (
	"context"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
)

// Dispatch executes a handler function asynchronously in a new goroutine.
// It detaches from the request context but preserves the logger, tagging it
// with a dispatch ID so log lines of one event can be correlated.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	logger := logging.From(ctx).With("dispatch_id", uuid.NewString())
	bgCtx := logging.With(context.Background(), logger)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}
