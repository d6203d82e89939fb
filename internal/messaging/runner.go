package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	apperrors "github.com/allisson/ordersaga/internal/errors"
)

// Runner wraps handlers with the message-consumption retry policy. Out-of-order
// messages surface as orphan/illegal-transition errors; retrying across the
// configured backoff windows gives the prerequisite transition time to commit,
// after which the handler succeeds. Messages still droppable after the final
// attempt are logged and acknowledged; infrastructure errors propagate so the
// broker redelivers.
type Runner struct {
	intervals []time.Duration
	logger    *slog.Logger
}

// NewRunner creates a Runner with the given retry intervals.
func NewRunner(intervals []time.Duration, logger *slog.Logger) *Runner {
	if len(intervals) == 0 {
		intervals = []time.Duration{time.Second}
	}
	return &Runner{intervals: intervals, logger: logger}
}

// Wrap applies the retry policy around a handler.
func (r *Runner) Wrap(handler Handler) Handler {
	return func(ctx context.Context, env Envelope) error {
		err := retry.Do(
			func() error {
				return handler(ctx, env)
			},
			retry.Attempts(uint(len(r.intervals))+1),
			retry.DelayType(r.delayFor),
			retry.RetryIf(func(err error) bool {
				// Duplicates are final on first sight; redelivery cannot
				// change the inbox verdict.
				return !apperrors.Is(err, apperrors.ErrDuplicateMessage)
			}),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
		)
		if err == nil {
			return nil
		}

		if apperrors.Is(err, apperrors.ErrDuplicateMessage) {
			r.logger.Info("duplicate message acknowledged",
				slog.String("message_type", env.MessageType),
				slog.String("message_id", env.MessageID.String()),
				slog.String("correlation_id", env.CorrelationID.String()),
			)
			return nil
		}

		if apperrors.IsDroppable(err) {
			r.logger.Warn("dropping message",
				slog.String("message_type", env.MessageType),
				slog.String("message_id", env.MessageID.String()),
				slog.String("correlation_id", env.CorrelationID.String()),
				slog.Any("error", err),
			)
			return nil
		}

		return err
	}
}

// delayFor returns the backoff interval for the n-th retry, reusing the last
// interval once the schedule is exhausted.
func (r *Runner) delayFor(n uint, _ error, _ *retry.Config) time.Duration {
	if int(n) < len(r.intervals) {
		return r.intervals[n]
	}
	return r.intervals[len(r.intervals)-1]
}
